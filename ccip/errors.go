package ccip

import (
	"errors"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
)

var (
	ErrRegistryNotFound         = errors.New("token admin registry not found")
	ErrTableNotFound            = errors.New("lookup table not found")
	ErrTableTooShort            = errors.New("lookup table too short")
	ErrPoolProgramNotResolvable = errors.New("pool program not resolvable")
	ErrIndexOutOfRange          = errors.New("writable index out of range")
	ErrFeeUnavailable           = errors.New("fee unavailable")
)

// DerivationError reports a failed PDA derivation with the address the
// client was deriving.
type DerivationError struct {
	Op  string
	Err error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derive %s: %v", e.Op, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

// ResolutionError carries the token context for registry and lookup table
// failures so callers can tell which transfer leg broke.
type ResolutionError struct {
	Mint  solana.Pubkey
	Table solana.Pubkey
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Table.IsZero() {
		return fmt.Sprintf("resolve token %s: %v", e.Mint, e.Err)
	}
	return fmt.Sprintf("resolve token %s (table %s): %v", e.Mint, e.Table, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type BitmapError struct {
	Index int
	Err   error
}

func (e *BitmapError) Error() string {
	return fmt.Sprintf("writable bitmap index %d: %v", e.Index, e.Err)
}

func (e *BitmapError) Unwrap() error { return e.Err }

// SimulationError reports a failed fee quote against the program the quote
// was requested from.
type SimulationError struct {
	Program solana.Pubkey
	Err     error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulate against %s: %v", e.Program, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }

// DispatchError records the state the dispatch had reached when it failed.
// Signature is empty when the failure happened before broadcast.
type DispatchError struct {
	State     DispatchState
	Signature string
	Err       error
}

func (e *DispatchError) Error() string {
	if e.Signature == "" {
		return fmt.Sprintf("dispatch failed in state %s: %v", e.State, e.Err)
	}
	return fmt.Sprintf("dispatch %s failed in state %s: %v", e.Signature, e.State, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
