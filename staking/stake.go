// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/velocknet/velock/velock"
)

// Stake is the immutable record of one locked position. Amount and lockup
// never change after creation; operations that reshape a position retire the
// record and create new ones. Beneficiary is the single mutable field, moved
// by delegation.
type Stake struct {
	Amount       *big.Int
	Beneficiary  velock.Address
	InitialEpoch uint32 // first epoch the stake's power counts
	LockupEpochs uint32
}

// FinalEpoch returns the first epoch the stake carries no power and its
// principal is withdrawable.
func (s *Stake) FinalEpoch() uint32 {
	return s.InitialEpoch + s.LockupEpochs
}

// RemainingAt returns the lockup epochs left at the given epoch, zero once
// expired or before the stake takes effect.
func (s *Stake) RemainingAt(epoch uint32) uint32 {
	if epoch < s.InitialEpoch || epoch >= s.FinalEpoch() {
		return 0
	}
	return s.FinalEpoch() - epoch
}

// IsEmpty reports whether the record is the zero value of a never-written slot.
func (s *Stake) IsEmpty() bool {
	return s.Amount == nil || s.Amount.Sign() == 0
}
