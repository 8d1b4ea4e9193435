package ccip

import (
	"context"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// Ledger is the chain access the client needs. *solanarpc.Client satisfies
// it; tests plug in fakes.
type Ledger interface {
	AccountDataBase64(ctx context.Context, pubkey solana.Pubkey) ([]byte, error)
	AccountOwner(ctx context.Context, pubkey solana.Pubkey) (solana.Pubkey, error)
	LatestBlockhash(ctx context.Context) ([32]byte, error)
	SimulateTransaction(ctx context.Context, tx []byte) (solanarpc.SimulationResult, error)
	SendTransaction(ctx context.Context, tx []byte, opts solanarpc.SendOptions) (string, error)
	SignatureStatuses(ctx context.Context, signatures []string) ([]*solanarpc.SignatureStatus, error)
	TransactionLogs(ctx context.Context, signature string) ([]string, error)
}

var _ Ledger = (*solanarpc.Client)(nil)
