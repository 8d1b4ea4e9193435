package ccip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svmlink/ccip-solana/solana"
)

func TestResolveTokenTable(t *testing.T) {
	mint := solana.Pubkey{3}
	tableKey := solana.Pubkey{4}
	pool := solana.Pubkey{8}

	addrs := make([]solana.Pubkey, 8)
	addrs[PoolTableIndexSelf] = tableKey
	addrs[PoolTableIndexPoolProgram] = pool
	for i := range addrs {
		if addrs[i].IsZero() {
			addrs[i] = solana.Pubkey{0x10, byte(i)}
		}
	}
	ledger := newFakeLedger()
	ledger.accounts[tableKey] = lookupTableData(addrs...)

	tt, err := ResolveTokenTable(context.Background(), ledger, RegistryEntry{Mint: mint, LookupTable: tableKey})
	require.NoError(t, err)
	require.Equal(t, pool, tt.PoolProgram)
	require.Equal(t, tableKey, tt.Table.Address)
	require.Equal(t, addrs, tt.Table.Addresses)
}

func TestResolveTokenTable_ZeroTable(t *testing.T) {
	_, err := ResolveTokenTable(context.Background(), newFakeLedger(), RegistryEntry{Mint: solana.Pubkey{3}})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestResolveTokenTable_MissingAccount(t *testing.T) {
	entry := RegistryEntry{Mint: solana.Pubkey{3}, LookupTable: solana.Pubkey{4}}
	_, err := ResolveTokenTable(context.Background(), newFakeLedger(), entry)
	require.ErrorIs(t, err, ErrTableNotFound)

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, entry.Mint, rerr.Mint)
	require.Equal(t, entry.LookupTable, rerr.Table)
}

func TestResolveTokenTable_TooShort(t *testing.T) {
	tableKey := solana.Pubkey{4}
	addrs := make([]solana.Pubkey, 6)
	for i := range addrs {
		addrs[i] = solana.Pubkey{byte(i + 1)}
	}
	ledger := newFakeLedger()
	ledger.accounts[tableKey] = lookupTableData(addrs...)

	_, err := ResolveTokenTable(context.Background(), ledger, RegistryEntry{Mint: solana.Pubkey{3}, LookupTable: tableKey})
	require.ErrorIs(t, err, ErrTableTooShort)
	require.ErrorContains(t, err, "got 6 entries, want at least 7")
}

func TestResolveTokenTable_UnresolvablePool(t *testing.T) {
	tableKey := solana.Pubkey{4}
	addrs := make([]solana.Pubkey, 8)
	for i := range addrs {
		addrs[i] = solana.Pubkey{byte(i + 1)}
	}
	addrs[PoolTableIndexPoolProgram] = solana.Pubkey{}
	ledger := newFakeLedger()
	ledger.accounts[tableKey] = lookupTableData(addrs...)

	_, err := ResolveTokenTable(context.Background(), ledger, RegistryEntry{Mint: solana.Pubkey{3}, LookupTable: tableKey})
	require.ErrorIs(t, err, ErrPoolProgramNotResolvable)
}

func TestResolveTokenTable_GarbageAccount(t *testing.T) {
	tableKey := solana.Pubkey{4}
	ledger := newFakeLedger()
	ledger.accounts[tableKey] = []byte{1, 2, 3}

	_, err := ResolveTokenTable(context.Background(), ledger, RegistryEntry{Mint: solana.Pubkey{3}, LookupTable: tableKey})
	require.ErrorIs(t, err, solana.ErrInvalidAddressLookupTable)
}
