package ccip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// DispatchState tracks a transaction through the dispatch lifecycle:
// Built, Signed, Submitted, then one of the terminal confirmation states.
type DispatchState uint8

const (
	StateBuilt DispatchState = iota
	StateSigned
	StateSubmitted
	StateConfirmedFinalized
	StateConfirmedProcessedOnly
	StateFailed
)

func (s DispatchState) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmedFinalized:
		return "confirmed-finalized"
	case StateConfirmedProcessedOnly:
		return "confirmed-processed-only"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("dispatch-state(%d)", uint8(s))
	}
}

const (
	defaultConfirmTimeout = 90 * time.Second
	defaultPollInterval   = 2 * time.Second
)

// DispatchOptions tune one dispatch. Zero values mean the defaults:
// preflight at processed commitment, wait for finalization, node-side
// resubmission bound of 5.
type DispatchOptions struct {
	SkipPreflight    bool
	SkipConfirmation bool
	MaxRetries       uint64
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
}

func (o DispatchOptions) withDefaults() DispatchOptions {
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = defaultConfirmTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	return o
}

// Dispatcher signs, broadcasts, and confirms compiled transactions.
type Dispatcher struct {
	ledger Ledger
	log    *zap.Logger
}

func NewDispatcher(ledger Ledger, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{ledger: ledger, log: log}
}

// Dispatch runs tx through sign, broadcast, confirm and reports the
// terminal state. ConfirmedProcessedOnly is a success with a nil error:
// the transaction was seen on chain but finalization was not observed
// within the timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, tx *solana.Transaction, signers []solana.Signer, opts DispatchOptions) (string, DispatchState, error) {
	opts = opts.withDefaults()

	if err := tx.Sign(signers...); err != nil {
		return "", StateFailed, &DispatchError{State: StateBuilt, Err: err}
	}
	d.log.Info("transaction signed", zap.String("signature", tx.SignatureBase58()))

	sig, err := d.ledger.SendTransaction(ctx, tx.Bytes(), solanarpc.SendOptions{
		SkipPreflight: opts.SkipPreflight,
		MaxRetries:    opts.MaxRetries,
	})
	if err != nil {
		return "", StateFailed, &DispatchError{State: StateSigned, Err: err}
	}
	d.log.Info("transaction submitted", zap.String("signature", sig))

	if opts.SkipConfirmation {
		d.probeStatus(ctx, sig)
		return sig, StateSubmitted, nil
	}
	return d.awaitFinalization(ctx, sig, opts)
}

// probeStatus is the skip-confirmation path's single status check. Whatever
// it sees is demoted to a warning; the transaction is already on the wire
// and the caller asked not to wait. This is the only place the client
// swallows an error.
func (d *Dispatcher) probeStatus(ctx context.Context, sig string) {
	statuses, err := d.ledger.SignatureStatuses(ctx, []string{sig})
	if err != nil {
		d.log.Warn("status probe failed", zap.String("signature", sig), zap.Error(err))
		return
	}
	if len(statuses) == 1 && statuses[0] != nil && statuses[0].Err != nil {
		d.log.Warn("transaction reported failed on chain",
			zap.String("signature", sig),
			zap.Any("txErr", statuses[0].Err))
	}
}

func (d *Dispatcher) awaitFinalization(ctx context.Context, sig string, opts DispatchOptions) (string, DispatchState, error) {
	deadline := time.Now().Add(opts.ConfirmTimeout)
	seenOnChain := false
	for {
		statuses, err := d.ledger.SignatureStatuses(ctx, []string{sig})
		if err != nil {
			// Transient RPC trouble; the deadline bounds the polling.
			d.log.Debug("signature status poll failed", zap.String("signature", sig), zap.Error(err))
		} else if len(statuses) == 1 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return sig, StateFailed, &DispatchError{
					State:     StateSubmitted,
					Signature: sig,
					Err:       fmt.Errorf("transaction failed on chain: %v", st.Err),
				}
			}
			switch st.ConfirmationStatus {
			case "finalized":
				d.log.Info("transaction finalized", zap.String("signature", sig))
				return sig, StateConfirmedFinalized, nil
			case "processed", "confirmed":
				seenOnChain = true
			}
		}

		if time.Now().After(deadline) {
			break
		}
		if err := sleepCtx(ctx, opts.PollInterval); err != nil {
			return sig, StateFailed, &DispatchError{State: StateSubmitted, Signature: sig, Err: err}
		}
	}

	if seenOnChain {
		d.log.Warn("finalization not observed within timeout",
			zap.String("signature", sig),
			zap.Duration("timeout", opts.ConfirmTimeout))
		return sig, StateConfirmedProcessedOnly, nil
	}
	return sig, StateFailed, &DispatchError{
		State:     StateSubmitted,
		Signature: sig,
		Err:       fmt.Errorf("confirmation timed out after %s", opts.ConfirmTimeout),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
