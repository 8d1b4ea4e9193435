// Package solanafees estimates what a send will cost in lamports: the flat
// per-signature fee plus the priority fee implied by a compute unit price.
// The unit price comes either from the open RPC's recent prioritization
// fees or from the Helius estimate API.
package solanafees

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/svmlink/ccip-solana/helius"
	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

var ErrOverflow = errors.New("overflow")

type TxFeeEstimate struct {
	LamportsPerSignature uint64 `json:"lamports_per_signature"`
	Signatures           uint64 `json:"signatures"`
	BaseFeeLamports      uint64 `json:"base_fee_lamports"`

	ComputeUnitLimit    uint32 `json:"compute_unit_limit"`
	MicroLamportsPerCU  uint64 `json:"micro_lamports_per_cu"`
	PriorityFeeLamports uint64 `json:"priority_fee_lamports"`

	TotalLamports uint64 `json:"total_lamports"`
}

// PriorityFeeLamports converts a compute unit price into lamports, rounding
// the micro-lamport total up.
func PriorityFeeLamports(computeUnitLimit uint32, microLamportsPerCU uint64) (uint64, error) {
	if computeUnitLimit == 0 || microLamportsPerCU == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(uint64(computeUnitLimit), microLamportsPerCU)
	if hi != 0 {
		return 0, ErrOverflow
	}
	const denom = uint64(1_000_000)
	return (lo + denom - 1) / denom, nil
}

func BaseFeeLamports(lamportsPerSignature uint64, signatures uint64) (uint64, error) {
	hi, lo := bits.Mul64(lamportsPerSignature, signatures)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// lamportsPerSignature is the cluster's flat fee; the legacy RPC methods
// that reported it are gone, so it is a constant now.
const lamportsPerSignature = uint64(5000)

// SuggestComputeUnitPrice reads the recent prioritization fees paid on the
// given accounts and suggests the median as a compute unit price. Zero
// means nobody has been bidding and the default fee will land fine.
func SuggestComputeUnitPrice(ctx context.Context, rpc *solanarpc.Client, accounts []solana.Pubkey) (uint64, error) {
	if rpc == nil {
		return 0, errors.New("nil rpc client")
	}
	fees, err := rpc.RecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return 0, err
	}
	return solanarpc.MedianPrioritizationFee(fees), nil
}

// EstimateWithRPC prices a transaction from the open RPC alone.
func EstimateWithRPC(ctx context.Context, rpc *solanarpc.Client, accounts []solana.Pubkey, computeUnitLimit uint32, signatures uint64) (TxFeeEstimate, error) {
	unitPrice, err := SuggestComputeUnitPrice(ctx, rpc, accounts)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	return assemble(lamportsPerSignature, signatures, computeUnitLimit, unitPrice)
}

// EstimateWithHelius prices a transaction using the Helius priority fee
// API, which weighs recent fees by landing probability instead of a plain
// median.
func EstimateWithHelius(ctx context.Context, c *helius.Client, accounts []solana.Pubkey, computeUnitLimit uint32, signatures uint64, opts *helius.PriorityFeeOptions) (TxFeeEstimate, error) {
	if c == nil {
		return TxFeeEstimate{}, errors.New("nil helius client")
	}
	if len(accounts) == 0 {
		return TxFeeEstimate{}, errors.New("accounts required")
	}

	feePerSig, err := c.LamportsPerSignature(ctx)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	est, err := c.EstimateByAccounts(ctx, accounts, opts)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	return assemble(feePerSig, signatures, computeUnitLimit, est.MicroLamports)
}

func assemble(feePerSig, signatures uint64, computeUnitLimit uint32, unitPrice uint64) (TxFeeEstimate, error) {
	base, err := BaseFeeLamports(feePerSig, signatures)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	priority, err := PriorityFeeLamports(computeUnitLimit, unitPrice)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	total, carry := bits.Add64(base, priority, 0)
	if carry != 0 {
		return TxFeeEstimate{}, ErrOverflow
	}
	return TxFeeEstimate{
		LamportsPerSignature: feePerSig,
		Signatures:           signatures,
		BaseFeeLamports:      base,
		ComputeUnitLimit:     computeUnitLimit,
		MicroLamportsPerCU:   unitPrice,
		PriorityFeeLamports:  priority,
		TotalLamports:        total,
	}, nil
}

func (e TxFeeEstimate) String() string {
	return fmt.Sprintf("total=%d lamports (base=%d, priority=%d @ %d microLamports/CU, limit=%d)",
		e.TotalLamports,
		e.BaseFeeLamports,
		e.PriorityFeeLamports,
		e.MicroLamportsPerCU,
		e.ComputeUnitLimit,
	)
}
