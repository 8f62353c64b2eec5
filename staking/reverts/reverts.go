// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the caller-visible error taxonomy of the staking
// engine. Every mutating call fails with one of these kinds, sufficient to
// distinguish "fix your input" from "wait until X" from "you don't own this".
package reverts

import (
	"errors"
)

// Kind classifies a revert.
type Kind uint8

const (
	// KindValidation marks caller-correctable input errors, always rejected
	// before any state change.
	KindValidation Kind = iota + 1
	// KindAuthorization marks calls by a party that does not own the stake
	// receipt or is not the recognized beneficiary.
	KindAuthorization
	// KindTemporal marks calls made too early or too late relative to epochs.
	KindTemporal
	// KindInvariant marks conditions that are unreachable given correct inputs.
	// They signal a scheduling bug and abort rather than silently clamp.
	KindInvariant
	// KindNotFound marks references to stakes not held by the claimed party.
	KindNotFound
)

// ErrRevert is the error type returned to callers of the engine.
type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a revert error of the given kind.
func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the revert classification.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// Is matches two reverts by identity, so wrapped predeclared reverts keep
// working with errors.Is.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t == e
}

// IsRevertErr reports whether err is (or wraps) a revert error.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, or 0 if err is not a revert.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return 0
}

// Predeclared reverts. Callers may wrap them for context; errors.Is still matches.
var (
	ErrInvalidAmount          = New(KindValidation, "invalid amount")
	ErrInvalidLockupPeriod    = New(KindValidation, "invalid lockup period")
	ErrNothingToIncrease      = New(KindValidation, "nothing to increase")
	ErrAmountOutOfRange       = New(KindValidation, "amount out of range")
	ErrLockupMismatch         = New(KindValidation, "merged stake lockup ends later")
	ErrNotReceiptOwner        = New(KindAuthorization, "caller is not the receipt owner")
	ErrStakeLocked            = New(KindTemporal, "stake is still locked")
	ErrStakeExpired           = New(KindTemporal, "stake lockup already expired")
	ErrEpochStillRunning      = New(KindTemporal, "epoch still running")
	ErrPowerAlreadyCalculated = New(KindTemporal, "total power already calculated")
	ErrNegativePower          = New(KindInvariant, "calculated power is negative")
	ErrImmutableEpoch         = New(KindInvariant, "epoch is already finalized")
	ErrStakeNotFound          = New(KindNotFound, "stake not found")
)
