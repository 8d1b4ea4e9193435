package ccip

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/svmlink/ccip-solana/solana"
)

// FeeResult is the router's quote for one message: the billing token, the
// fee in that token's base units, and the same fee restated in juels.
//
// Wire form, little endian:
//
//	[8]  amount
//	[16] juels (u128)
//	[32] token mint
type FeeResult struct {
	Token  solana.Pubkey
	Amount uint64
	Juels  Uint128
}

const feeResultSize = 8 + 16 + 32

func decodeFeeResult(data []byte) (FeeResult, error) {
	if len(data) < feeResultSize {
		return FeeResult{}, fmt.Errorf("fee return data too short: got %d bytes, want %d", len(data), feeResultSize)
	}
	var out FeeResult
	out.Amount = binary.LittleEndian.Uint64(data[0:8])
	juels, err := Uint128FromBytes(data[8:24])
	if err != nil {
		return FeeResult{}, err
	}
	out.Juels = juels
	copy(out.Token[:], data[24:56])
	return out, nil
}

const programReturnPrefix = "Program return: "

// ParseProgramReturn extracts the payload a program left via
// set_return_data, from log lines of the form
// "Program return: <program-address> <base64-payload>". Only lines naming
// the given program count, and the last one wins; inner invocations may set
// return data the outer program overwrites.
func ParseProgramReturn(logs []string, program solana.Pubkey) ([]byte, error) {
	want := program.Base58()
	payload := ""
	found := false
	for _, line := range logs {
		if !strings.HasPrefix(line, programReturnPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, programReturnPrefix))
		if len(fields) != 2 || fields[0] != want {
			continue
		}
		payload = fields[1]
		found = true
	}
	if !found {
		return nil, fmt.Errorf("no return data from %s", want)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// GetFee asks the router what sending msg would cost, as a non-committing
// simulation of the router's get_fee method. Nothing is signed and nothing
// lands on chain. billingFeeMint is the mint fees are quoted in; callers
// substitute the wrapped SOL mint when the message pays in native SOL.
// A failed quote is reported as is, there is no retry.
func GetFee(ctx context.Context, ledger Ledger, router solana.Pubkey, destSelector uint64, payer solana.Pubkey, msg Message, billingFeeMint solana.Pubkey) (FeeResult, error) {
	ix, err := feeQuoteInstruction(router, destSelector, msg, billingFeeMint)
	if err != nil {
		return FeeResult{}, err
	}
	// simulateTransaction replaces the blockhash server side, so the
	// placeholder never hits the network.
	tx, err := solana.CompileLegacyTransaction([32]byte{}, payer, []solana.Instruction{ix})
	if err != nil {
		return FeeResult{}, &SimulationError{Program: router, Err: err}
	}
	sim, err := ledger.SimulateTransaction(ctx, tx.Bytes())
	if err != nil {
		return FeeResult{}, &SimulationError{Program: router, Err: fmt.Errorf("%w: %v", ErrFeeUnavailable, err)}
	}
	if sim.Err != nil {
		return FeeResult{}, &SimulationError{Program: router, Err: fmt.Errorf("%w: program error: %v", ErrFeeUnavailable, sim.Err)}
	}

	raw := sim.ReturnData
	if sim.ReturnProgram != router.Base58() || len(raw) == 0 {
		raw, err = ParseProgramReturn(sim.Logs, router)
		if err != nil {
			return FeeResult{}, &SimulationError{Program: router, Err: fmt.Errorf("%w: %v", ErrFeeUnavailable, err)}
		}
	}
	fee, err := decodeFeeResult(raw)
	if err != nil {
		return FeeResult{}, &SimulationError{Program: router, Err: fmt.Errorf("%w: %v", ErrFeeUnavailable, err)}
	}
	return fee, nil
}

func feeQuoteInstruction(router solana.Pubkey, destSelector uint64, msg Message, billingFeeMint solana.Pubkey) (solana.Instruction, error) {
	configPDA, _, err := ConfigPDA(router)
	if err != nil {
		return solana.Instruction{}, err
	}
	destChainPDA, _, err := DestChainStatePDA(router, destSelector)
	if err != nil {
		return solana.Instruction{}, err
	}
	billingConfigPDA, _, err := FeeBillingTokenConfigPDA(router, billingFeeMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	accounts := []solana.AccountMeta{
		{Pubkey: configPDA, IsSigner: false, IsWritable: false},
		{Pubkey: destChainPDA, IsSigner: false, IsWritable: false},
		{Pubkey: billingConfigPDA, IsSigner: false, IsWritable: false},
	}
	for _, ta := range msg.TokenAmounts {
		billing, _, err := TokenPoolBillingPDA(router, destSelector, ta.Mint)
		if err != nil {
			return solana.Instruction{}, &ResolutionError{Mint: ta.Mint, Err: err}
		}
		accounts = append(accounts, solana.AccountMeta{Pubkey: billing, IsSigner: false, IsWritable: false})
	}

	discr := anchorDiscriminator("get_fee")
	body := msg.encode()
	data := make([]byte, 0, 8+8+len(body))
	data = append(data, discr[:]...)
	data = appendU64(data, destSelector)
	data = append(data, body...)

	return solana.Instruction{ProgramID: router, Accounts: accounts, Data: data}, nil
}
