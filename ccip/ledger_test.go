package ccip

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// fakeLedger is the hand-written chain double the package tests run
// against. Account state goes in the maps; broadcast and simulation calls
// are recorded for assertions.
type fakeLedger struct {
	accounts map[solana.Pubkey][]byte
	owners   map[solana.Pubkey]solana.Pubkey

	blockhash [32]byte

	simResult solanarpc.SimulationResult
	simErr    error
	simTxs    [][]byte

	sendSig  string
	sendErr  error
	sentTxs  [][]byte
	sentOpts []solanarpc.SendOptions

	// statusScript is consumed one entry per poll; the last entry repeats.
	statusScript [][]*solanarpc.SignatureStatus
	statusErr    error
	statusCalls  int

	logs    map[string][]string
	logsErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: make(map[solana.Pubkey][]byte),
		owners:   make(map[solana.Pubkey]solana.Pubkey),
		sendSig:  "4fYNwELJzP6KQqBEbBCzH5RrrDaXHm9QDvKPUFQVskAb",
	}
}

var _ Ledger = (*fakeLedger)(nil)

func (f *fakeLedger) AccountDataBase64(ctx context.Context, pubkey solana.Pubkey) ([]byte, error) {
	data, ok := f.accounts[pubkey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", solanarpc.ErrAccountNotFound, pubkey.Base58())
	}
	return data, nil
}

func (f *fakeLedger) AccountOwner(ctx context.Context, pubkey solana.Pubkey) (solana.Pubkey, error) {
	owner, ok := f.owners[pubkey]
	if !ok {
		return solana.Pubkey{}, fmt.Errorf("%w: %s", solanarpc.ErrAccountNotFound, pubkey.Base58())
	}
	return owner, nil
}

func (f *fakeLedger) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	return f.blockhash, nil
}

func (f *fakeLedger) SimulateTransaction(ctx context.Context, tx []byte) (solanarpc.SimulationResult, error) {
	f.simTxs = append(f.simTxs, tx)
	if f.simErr != nil {
		return solanarpc.SimulationResult{}, f.simErr
	}
	return f.simResult, nil
}

func (f *fakeLedger) SendTransaction(ctx context.Context, tx []byte, opts solanarpc.SendOptions) (string, error) {
	f.sentTxs = append(f.sentTxs, tx)
	f.sentOpts = append(f.sentOpts, opts)
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.sendSig, nil
}

func (f *fakeLedger) SignatureStatuses(ctx context.Context, signatures []string) ([]*solanarpc.SignatureStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statusScript) == 0 {
		return make([]*solanarpc.SignatureStatus, len(signatures)), nil
	}
	next := f.statusScript[0]
	if len(f.statusScript) > 1 {
		f.statusScript = f.statusScript[1:]
	}
	return next, nil
}

func (f *fakeLedger) TransactionLogs(ctx context.Context, signature string) ([]string, error) {
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	logs, ok := f.logs[signature]
	if !ok {
		return nil, solanarpc.ErrTransactionNotFound
	}
	return logs, nil
}

// lookupTableData builds a frozen lookup table account: the 56-byte header
// with discriminator 1 and no authority, then the addresses.
func lookupTableData(addrs ...solana.Pubkey) []byte {
	data := make([]byte, 56, 56+32*len(addrs))
	binary.LittleEndian.PutUint32(data[0:4], 1)
	for _, a := range addrs {
		data = append(data, a[:]...)
	}
	return data
}

// registryAccountData serializes a registry record behind a zeroed anchor
// discriminator.
func registryAccountData(entry RegistryEntry) []byte {
	data := make([]byte, 8, 8+registryEntrySize)
	data = append(data, entry.Administrator[:]...)
	data = append(data, entry.PendingAdministrator[:]...)
	data = append(data, entry.Mint[:]...)
	data = append(data, entry.LookupTable[:]...)
	seg0 := entry.WritableIndexes[0].Bytes()
	seg1 := entry.WritableIndexes[1].Bytes()
	data = append(data, seg0[:]...)
	data = append(data, seg1[:]...)
	return data
}

// seedToken installs a registry record and pool table for mint and returns
// the table addresses.
func seedToken(t *testing.T, ledger *fakeLedger, router, mint, tableKey, pool solana.Pubkey, writable []uint8, tableLen int) []solana.Pubkey {
	t.Helper()
	addrs := make([]solana.Pubkey, tableLen)
	addrs[PoolTableIndexSelf] = tableKey
	addrs[PoolTableIndexPoolProgram] = pool
	for i := range addrs {
		if addrs[i].IsZero() {
			addrs[i] = solana.Pubkey{mint[0], byte(i + 1)}
		}
	}
	ledger.accounts[tableKey] = lookupTableData(addrs...)

	pda, _, err := TokenAdminRegistryPDA(router, mint)
	require.NoError(t, err)
	ledger.accounts[pda] = registryAccountData(RegistryEntry{
		Mint:            mint,
		LookupTable:     tableKey,
		WritableIndexes: EncodeWritableIndexes(writable),
	})
	return addrs
}

func testKeypairSigner(t *testing.T, seedByte byte) *solana.KeypairSigner {
	t.Helper()
	var seed [ed25519.SeedSize]byte
	seed[0] = seedByte
	signer, err := solana.NewKeypairSigner(ed25519.NewKeyFromSeed(seed[:]))
	require.NoError(t, err)
	return signer
}
