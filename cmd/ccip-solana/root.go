package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svmlink/ccip-solana/ccip"
	"github.com/svmlink/ccip-solana/deployments"
	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

var (
	flagRPCURL    string
	flagKeypair   string
	flagEnvFile   string
	flagEnv       string
	flagRouter    string
	flagSelector  uint64
	flagDestChain string
	flagVerbose   bool

	// Filled by applyEnvDefaults when --env names a deployment.
	envDeployment *deployments.Deployment
)

var rootCmd = &cobra.Command{
	Use:   "ccip-solana",
	Short: "Send CCIP messages and token transfers from Solana",
	Long: `ccip-solana talks to a CCIP router deployed on Solana: it quotes fees,
resolves token pools through the on-chain token admin registry, sends
cross-chain messages, and administers registry records.

Target a deployment either with explicit flags (--rpc-url, --router,
--dest-selector) or by name from a deployments registry file
(--env-file + --env).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return applyEnvDefaults()
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagRPCURL, "rpc-url", "https://api.devnet.solana.com", "Solana RPC endpoint")
	pf.StringVar(&flagKeypair, "keypair", solana.DefaultKeypairPath(), "path to a Solana CLI keypair file")
	pf.StringVar(&flagEnvFile, "env-file", "", "path to a deployments registry JSON file")
	pf.StringVar(&flagEnv, "env", "", "deployment name in the registry file")
	pf.StringVar(&flagRouter, "router", "", "CCIP router program id")
	pf.Uint64Var(&flagSelector, "dest-selector", 0, "destination chain selector")
	pf.StringVar(&flagDestChain, "dest-chain", "", "destination chain name from the deployments registry")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")
}

// applyEnvDefaults fills unset connection flags from the named deployment.
// Explicit flags always win.
func applyEnvDefaults() error {
	if flagEnv == "" {
		return nil
	}
	if flagEnvFile == "" {
		return errors.New("--env requires --env-file")
	}
	reg, err := deployments.Load(flagEnvFile)
	if err != nil {
		return err
	}
	d, err := reg.Find(flagEnv)
	if err != nil {
		return err
	}
	envDeployment = &d

	pf := rootCmd.PersistentFlags()
	if !pf.Changed("rpc-url") && d.RPCURL != "" {
		flagRPCURL = d.RPCURL
	}
	if !pf.Changed("router") && d.RouterProgramID != "" {
		flagRouter = d.RouterProgramID
	}
	return nil
}

func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func rpcLedger() *solanarpc.Client {
	return solanarpc.New(flagRPCURL, nil)
}

func routerKey() (solana.Pubkey, error) {
	if flagRouter == "" {
		return solana.Pubkey{}, errors.New("router program required (--router or --env)")
	}
	return parsePubkeyFlag("router", flagRouter)
}

func destSelector() (uint64, error) {
	if flagSelector != 0 {
		return flagSelector, nil
	}
	if flagDestChain != "" {
		if envDeployment == nil {
			return 0, errors.New("--dest-chain needs --env")
		}
		return envDeployment.DestChainSelector(flagDestChain)
	}
	return 0, errors.New("destination required (--dest-selector or --dest-chain)")
}

// resolveMint accepts a base58 mint address or a token symbol known to the
// active deployment.
func resolveMint(value string) (solana.Pubkey, error) {
	v := strings.TrimSpace(value)
	if pk, err := solana.ParsePubkey(v); err == nil {
		return pk, nil
	}
	if envDeployment != nil {
		if mint, err := envDeployment.TokenMint(v); err == nil {
			return solana.ParsePubkey(mint)
		}
	}
	return solana.Pubkey{}, fmt.Errorf("unknown mint or token symbol: %s", v)
}

func loadSigner() (*solana.KeypairSigner, error) {
	if flagKeypair == "" {
		return nil, errors.New("keypair required (--keypair)")
	}
	return solana.LoadKeypairSigner(flagKeypair)
}

func parsePubkeyFlag(name, value string) (solana.Pubkey, error) {
	pk, err := solana.ParsePubkey(strings.TrimSpace(value))
	if err != nil {
		return solana.Pubkey{}, fmt.Errorf("bad --%s: %w", name, err)
	}
	return pk, nil
}

// parseReceiverFlag accepts a hex receiver (EVM style, 0x optional) or a
// base58 Solana address.
func parseReceiverFlag(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, errors.New("receiver required")
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		return hex.DecodeString(v[2:])
	}
	if raw, err := hex.DecodeString(v); err == nil {
		return raw, nil
	}
	raw, err := base58.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("receiver is neither hex nor base58: %s", v)
	}
	return raw, nil
}

// parseDataFlag treats 0x-prefixed values as hex and everything else as
// literal bytes.
func parseDataFlag(value string) ([]byte, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return hex.DecodeString(value[2:])
	}
	return []byte(value), nil
}

// parseWritableFlag turns "3,4,7" into bitmap indexes.
func parseWritableFlag(value string) ([]uint8, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	out := make([]uint8, 0, len(parts))
	for _, p := range parts {
		var n uint8
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &n); err != nil {
			return nil, fmt.Errorf("bad writable index %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// dispatchInstructions signs and sends a legacy transaction built from ixs,
// waits for finalization, and prints the outcome.
func dispatchInstructions(ctx context.Context, signer solana.Signer, ixs ...solana.Instruction) error {
	ledger := rpcLedger()
	blockhash, err := ledger.LatestBlockhash(ctx)
	if err != nil {
		return err
	}
	tx, err := solana.CompileLegacyTransaction(blockhash, signer.Pubkey(), ixs)
	if err != nil {
		return err
	}
	d := ccip.NewDispatcher(ledger, newLogger())
	sig, state, err := d.Dispatch(ctx, tx, []solana.Signer{signer}, ccip.DispatchOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("signature: %s\n", sig)
	fmt.Printf("state: %s\n", state)
	return nil
}
