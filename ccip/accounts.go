package ccip

import (
	"context"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/spltoken"
)

// AccountList is the per-token account section of a ccip_send instruction:
// a flat meta list, the byte offset where each token's block starts, and
// the lookup tables that compress the blocks in a v0 message.
type AccountList struct {
	Accounts []solana.AccountMeta
	Offsets  []uint8
	Tables   []solana.LookupTable
}

// maxTokenTableLen bounds pool tables to what a one-byte writable index can
// address.
const maxTokenTableLen = 256

// BuildTokenAccountLists resolves every transferred token to its account
// block. Each block opens with the sender's token account, the router's
// per-chain billing record, the pool's chain config, and the lookup table
// itself, then walks the table from entry 1 applying the registry's
// writable bitmap. Any token failing to resolve fails the whole build; a
// partial section would abort on chain after fees were already spent.
func BuildTokenAccountLists(ctx context.Context, ledger Ledger, router solana.Pubkey, destSelector uint64, authority solana.Pubkey, tokens []TokenAmount) (AccountList, error) {
	var out AccountList
	next := 0
	for _, t := range tokens {
		entry, err := FetchRegistryEntry(ctx, ledger, router, t.Mint)
		if err != nil {
			return AccountList{}, err
		}
		tt, err := ResolveTokenTable(ctx, ledger, entry)
		if err != nil {
			return AccountList{}, err
		}
		if len(tt.Table.Addresses) > maxTokenTableLen {
			return AccountList{}, &BitmapError{Index: maxTokenTableLen, Err: ErrIndexOutOfRange}
		}

		tokenProgram := tt.Table.Addresses[PoolTableIndexTokenProgram]
		userAccount, err := spltoken.AssociatedTokenAddressWithProgram(authority, tokenProgram, t.Mint)
		if err != nil {
			return AccountList{}, &ResolutionError{Mint: t.Mint, Err: err}
		}
		billingPDA, _, err := TokenPoolBillingPDA(router, destSelector, t.Mint)
		if err != nil {
			return AccountList{}, &ResolutionError{Mint: t.Mint, Err: err}
		}
		chainConfigPDA, _, err := TokenPoolChainConfigPDA(tt.PoolProgram, destSelector, t.Mint)
		if err != nil {
			return AccountList{}, &ResolutionError{Mint: t.Mint, Err: err}
		}

		block := []solana.AccountMeta{
			{Pubkey: userAccount, IsSigner: false, IsWritable: true},
			{Pubkey: billingPDA, IsSigner: false, IsWritable: false},
			{Pubkey: chainConfigPDA, IsSigner: false, IsWritable: true},
			{Pubkey: entry.LookupTable, IsSigner: false, IsWritable: false},
		}
		for i := 1; i < len(tt.Table.Addresses); i++ {
			block = append(block, solana.AccountMeta{
				Pubkey:     tt.Table.Addresses[i],
				IsWritable: IsWritableIndex(entry.WritableIndexes, uint8(i)),
			})
		}

		if next > 0xff {
			return AccountList{}, &ResolutionError{Mint: t.Mint, Err: fmt.Errorf("token account section offset %d overflows a byte", next)}
		}
		out.Offsets = append(out.Offsets, uint8(next))
		next += len(block)
		out.Accounts = append(out.Accounts, block...)
		out.Tables = appendTable(out.Tables, tt.Table.LookupTable())
	}
	return out, nil
}

func appendTable(tables []solana.LookupTable, lt solana.LookupTable) []solana.LookupTable {
	for _, have := range tables {
		if have.AccountKey == lt.AccountKey {
			return tables
		}
	}
	return append(tables, lt)
}
