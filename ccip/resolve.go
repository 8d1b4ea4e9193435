package ccip

import (
	"context"
	"errors"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// Canonical entries of a pool lookup table. Tables may carry more, never
// fewer than poolTableMinLen.
const (
	PoolTableIndexSelf          = 0
	PoolTableIndexAdminRegistry = 1
	PoolTableIndexPoolProgram   = 2
	PoolTableIndexChainConfig   = 3
	PoolTableIndexTokenAccount  = 4
	PoolTableIndexPoolSigner    = 5
	PoolTableIndexTokenProgram  = 6
	PoolTableIndexMint          = 7

	poolTableMinLen = 7
)

// TokenTable is a token's resolved pool lookup table together with the pool
// program it names.
type TokenTable struct {
	Table       solana.AddressLookupTable
	PoolProgram solana.Pubkey
}

// ResolveTokenTable fetches and validates the pool lookup table a registry
// entry points at. The pool program sits at a fixed slot in the table, so a
// token's pool is discovered from chain state alone.
func ResolveTokenTable(ctx context.Context, ledger Ledger, entry RegistryEntry) (TokenTable, error) {
	if entry.LookupTable.IsZero() {
		return TokenTable{}, &ResolutionError{Mint: entry.Mint, Err: ErrTableNotFound}
	}
	raw, err := ledger.AccountDataBase64(ctx, entry.LookupTable)
	if err != nil {
		if errors.Is(err, solanarpc.ErrAccountNotFound) {
			return TokenTable{}, &ResolutionError{Mint: entry.Mint, Table: entry.LookupTable, Err: ErrTableNotFound}
		}
		return TokenTable{}, &ResolutionError{Mint: entry.Mint, Table: entry.LookupTable, Err: err}
	}
	table, err := solana.ParseAddressLookupTable(entry.LookupTable, raw)
	if err != nil {
		return TokenTable{}, &ResolutionError{Mint: entry.Mint, Table: entry.LookupTable, Err: err}
	}
	if len(table.Addresses) < poolTableMinLen {
		return TokenTable{}, &ResolutionError{
			Mint:  entry.Mint,
			Table: entry.LookupTable,
			Err:   fmt.Errorf("%w: got %d entries, want at least %d", ErrTableTooShort, len(table.Addresses), poolTableMinLen),
		}
	}
	pool := table.Addresses[PoolTableIndexPoolProgram]
	if pool.IsZero() {
		return TokenTable{}, &ResolutionError{Mint: entry.Mint, Table: entry.LookupTable, Err: ErrPoolProgramNotResolvable}
	}
	return TokenTable{Table: table, PoolProgram: pool}, nil
}
