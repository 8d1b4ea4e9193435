package ccip

import (
	"encoding/binary"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
)

// Router PDA seeds. Chain selectors are seeded as 8-byte little-endian.
const (
	configSeed                   = "config"
	destChainStateSeed           = "dest_chain_state"
	nonceSeed                    = "nonce"
	feeBillingSignerSeed         = "fee_billing_signer"
	tokenAdminRegistrySeed       = "token_admin_registry"
	feeBillingTokenConfigSeed    = "fee_billing_token_config"
	tokenPoolBillingSeed         = "ccip_tokenpool_billing"
	tokenPoolChainConfigSeed     = "ccip_tokenpool_chainconfig"
	externalTokenPoolsSignerSeed = "external_token_pools_signer"
)

func selectorSeed(selector uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], selector)
	return out[:]
}

func derive(op string, seeds [][]byte, program solana.Pubkey) (solana.Pubkey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.Pubkey{}, 0, &DerivationError{Op: op, Err: err}
	}
	return pda, bump, nil
}

func ConfigPDA(router solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("router config", [][]byte{[]byte(configSeed)}, router)
}

func DestChainStatePDA(router solana.Pubkey, selector uint64) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("dest chain state (selector %d)", selector)
	return derive(op, [][]byte{[]byte(destChainStateSeed), selectorSeed(selector)}, router)
}

// NoncePDA tracks the per-sender ordered nonce for one destination chain.
func NoncePDA(router solana.Pubkey, selector uint64, sender solana.Pubkey) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("nonce (selector %d, sender %s)", selector, sender)
	return derive(op, [][]byte{[]byte(nonceSeed), selectorSeed(selector), sender[:]}, router)
}

func FeeBillingSignerPDA(router solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("fee billing signer", [][]byte{[]byte(feeBillingSignerSeed)}, router)
}

func TokenAdminRegistryPDA(router solana.Pubkey, mint solana.Pubkey) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("token admin registry (mint %s)", mint)
	return derive(op, [][]byte{[]byte(tokenAdminRegistrySeed), mint[:]}, router)
}

func FeeBillingTokenConfigPDA(router solana.Pubkey, mint solana.Pubkey) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("fee billing token config (mint %s)", mint)
	return derive(op, [][]byte{[]byte(feeBillingTokenConfigSeed), mint[:]}, router)
}

// TokenPoolBillingPDA is the router's per-chain-per-token billing record.
func TokenPoolBillingPDA(router solana.Pubkey, selector uint64, mint solana.Pubkey) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("token pool billing (selector %d, mint %s)", selector, mint)
	return derive(op, [][]byte{[]byte(tokenPoolBillingSeed), selectorSeed(selector), mint[:]}, router)
}

// TokenPoolChainConfigPDA lives under the pool program resolved from the
// token's lookup table, not under the router.
func TokenPoolChainConfigPDA(poolProgram solana.Pubkey, selector uint64, mint solana.Pubkey) (solana.Pubkey, uint8, error) {
	op := fmt.Sprintf("token pool chain config (selector %d, mint %s)", selector, mint)
	return derive(op, [][]byte{[]byte(tokenPoolChainConfigSeed), selectorSeed(selector), mint[:]}, poolProgram)
}

func ExternalTokenPoolsSignerPDA(router solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("external token pools signer", [][]byte{[]byte(externalTokenPoolsSignerSeed)}, router)
}
