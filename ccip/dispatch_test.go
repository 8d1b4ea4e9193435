package ccip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// dispatchTestTx compiles a throwaway single-signer transaction for signer.
func dispatchTestTx(t *testing.T, signer *solana.KeypairSigner) *solana.Transaction {
	t.Helper()
	tx, err := solana.CompileLegacyTransaction([32]byte{7}, signer.Pubkey(), []solana.Instruction{{
		ProgramID: solana.SystemProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: signer.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: solana.Pubkey{9}, IsWritable: true},
		},
		Data: []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
	}})
	require.NoError(t, err)
	return tx
}

func fastConfirm() DispatchOptions {
	return DispatchOptions{ConfirmTimeout: 50 * time.Millisecond, PollInterval: time.Millisecond}
}

func TestDispatch_Finalized(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.statusScript = [][]*solanarpc.SignatureStatus{
		{nil},
		{{ConfirmationStatus: "processed"}},
		{{ConfirmationStatus: "finalized"}},
	}

	d := NewDispatcher(ledger, nil)
	sig, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, fastConfirm())
	require.NoError(t, err)
	require.Equal(t, StateConfirmedFinalized, state)
	require.Equal(t, ledger.sendSig, sig)

	require.Len(t, ledger.sentTxs, 1)
	require.False(t, ledger.sentOpts[0].SkipPreflight)
}

func TestDispatch_MissingSigner(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	other := testKeypairSigner(t, 2)
	ledger := newFakeLedger()

	d := NewDispatcher(ledger, nil)
	sig, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{other}, fastConfirm())
	require.ErrorIs(t, err, solana.ErrMissingSigner)
	require.Equal(t, StateFailed, state)
	require.Empty(t, sig)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, StateBuilt, derr.State)
	require.Empty(t, ledger.sentTxs)
}

func TestDispatch_BroadcastFailure(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.sendErr = errors.New("blockhash not found")

	d := NewDispatcher(ledger, nil)
	_, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, fastConfirm())
	require.Equal(t, StateFailed, state)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, StateSigned, derr.State)
}

func TestDispatch_OnChainFailure(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.statusScript = [][]*solanarpc.SignatureStatus{
		{{Err: map[string]any{"InstructionError": []any{float64(0), "Custom"}}, ConfirmationStatus: "confirmed"}},
	}

	d := NewDispatcher(ledger, nil)
	sig, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, fastConfirm())
	require.Equal(t, StateFailed, state)
	require.Equal(t, ledger.sendSig, sig)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, StateSubmitted, derr.State)
	require.Equal(t, ledger.sendSig, derr.Signature)
	require.Contains(t, derr.Error(), "failed on chain")
}

func TestDispatch_ProcessedOnlyTimeout(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.statusScript = [][]*solanarpc.SignatureStatus{
		{{ConfirmationStatus: "confirmed"}},
	}

	d := NewDispatcher(ledger, nil)
	opts := DispatchOptions{ConfirmTimeout: 10 * time.Millisecond, PollInterval: time.Millisecond}
	sig, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, opts)
	require.NoError(t, err)
	require.Equal(t, StateConfirmedProcessedOnly, state)
	require.Equal(t, ledger.sendSig, sig)
}

func TestDispatch_TimeoutNeverSeen(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()

	d := NewDispatcher(ledger, nil)
	opts := DispatchOptions{ConfirmTimeout: 10 * time.Millisecond, PollInterval: time.Millisecond}
	_, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, opts)
	require.Equal(t, StateFailed, state)
	require.ErrorContains(t, err, "confirmation timed out")
}

func TestDispatch_PollErrorsAreTransient(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.statusErr = errors.New("rpc overloaded")

	d := NewDispatcher(ledger, nil)
	opts := DispatchOptions{ConfirmTimeout: 10 * time.Millisecond, PollInterval: time.Millisecond}
	_, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, opts)

	// RPC errors never surface; only the deadline ends the wait.
	require.Equal(t, StateFailed, state)
	require.ErrorContains(t, err, "confirmation timed out")
	require.Greater(t, ledger.statusCalls, 1)
}

func TestDispatch_SkipConfirmation(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()
	ledger.statusErr = errors.New("rpc overloaded")

	d := NewDispatcher(ledger, nil)
	sig, state, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, DispatchOptions{SkipConfirmation: true})
	require.NoError(t, err)
	require.Equal(t, StateSubmitted, state)
	require.Equal(t, ledger.sendSig, sig)
	require.Equal(t, 1, ledger.statusCalls)
}

func TestDispatch_SkipPreflightPassThrough(t *testing.T) {
	signer := testKeypairSigner(t, 1)
	ledger := newFakeLedger()

	d := NewDispatcher(ledger, nil)
	opts := DispatchOptions{SkipPreflight: true, SkipConfirmation: true, MaxRetries: 9}
	_, _, err := d.Dispatch(context.Background(), dispatchTestTx(t, signer), []solana.Signer{signer}, opts)
	require.NoError(t, err)

	require.Len(t, ledger.sentOpts, 1)
	require.True(t, ledger.sentOpts[0].SkipPreflight)
	require.Equal(t, uint64(9), ledger.sentOpts[0].MaxRetries)
}

func TestDispatchStateString(t *testing.T) {
	require.Equal(t, "built", StateBuilt.String())
	require.Equal(t, "confirmed-finalized", StateConfirmedFinalized.String())
	require.Equal(t, "confirmed-processed-only", StateConfirmedProcessedOnly.String())
	require.Equal(t, "dispatch-state(99)", DispatchState(99).String())
}
