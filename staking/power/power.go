// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package power converts (amount, lockup) pairs into deterministic multi-epoch
// power schedules. Everything here is pure; the policy table is explicit data,
// not derived arithmetic.
package power

import (
	"math/big"

	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/velock"
)

// EpochPower pairs an epoch with a signed power value. ScheduleFor produces
// deltas, SimulateFor produces absolute values.
type EpochPower struct {
	Epoch uint32
	Power *big.Int
}

// Policy is the multiplier table governing how lockup length translates into
// voting power. Multipliers are expressed in hundredths and are discontinuous
// at whole-year boundaries. The 10-year tier sits alone above a deliberate
// cliff: dropping out of it subtracts 175% in a single step.
type Policy struct {
	epochsInYear uint32
	minIncrement uint64

	// multiplier per whole-year bucket, index 0 = up to 1 year
	yearMultipliers [5]uint32
	// multiplier of the special 10-year tier
	specialMultiplier uint32
	specialYears      uint32
}

// maxAmount bounds stake amounts to 104 bits, so that amount times multiplier
// packs comfortably into a signed 128-bit ledger half-word.
var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 104), big.NewInt(1))

// DefaultPolicy returns the production multiplier table.
func DefaultPolicy() *Policy {
	return NewPolicy(velock.EpochsInYear, velock.MinStakeIncrement)
}

// NewPolicy returns the standard multiplier table over a custom epoch
// granularity and amount increment.
func NewPolicy(epochsInYear uint32, minIncrement uint64) *Policy {
	return &Policy{
		epochsInYear:      epochsInYear,
		minIncrement:      minIncrement,
		yearMultipliers:   [5]uint32{100, 115, 130, 150, 175},
		specialMultiplier: 350,
		specialYears:      10,
	}
}

// MinLockup returns the shortest allowed lockup in epochs (1 year).
func (p *Policy) MinLockup() uint32 {
	return p.epochsInYear
}

// MaxLockup returns the longest continuous lockup in epochs (5 years).
func (p *Policy) MaxLockup() uint32 {
	return 5 * p.epochsInYear
}

// SpecialLockup returns the single lockup value allowed above MaxLockup (10 years).
func (p *Policy) SpecialLockup() uint32 {
	return p.specialYears * p.epochsInYear
}

// MinIncrement returns the amount granularity.
func (p *Policy) MinIncrement() uint64 {
	return p.minIncrement
}

// ValidateAmount rejects amounts that are zero, negative, above the 104-bit
// bound, or not a whole multiple of the minimum increment. The increment rule
// guarantees multiplier arithmetic never loses fractional power.
func (p *Policy) ValidateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidAmount
	}
	if amount.Cmp(maxAmount) > 0 {
		return reverts.ErrInvalidAmount
	}
	if new(big.Int).Mod(amount, new(big.Int).SetUint64(p.minIncrement)).Sign() != 0 {
		return reverts.ErrInvalidAmount
	}
	return nil
}

// ValidateLockup rejects lockups outside {1..5 years} ∪ {10 years}.
func (p *Policy) ValidateLockup(lockupEpochs uint32) error {
	if lockupEpochs >= p.MinLockup() && lockupEpochs <= p.MaxLockup() {
		return nil
	}
	if lockupEpochs == p.SpecialLockup() {
		return nil
	}
	return reverts.ErrInvalidLockupPeriod
}

// Multiplier returns the power multiplier in hundredths for the given
// remaining lockup. Zero remaining yields zero.
func (p *Policy) Multiplier(remainingLockupEpochs uint32) uint32 {
	switch {
	case remainingLockupEpochs == 0:
		return 0
	case remainingLockupEpochs > p.MaxLockup():
		return p.specialMultiplier
	default:
		bucket := (remainingLockupEpochs + p.epochsInYear - 1) / p.epochsInYear
		return p.yearMultipliers[bucket-1]
	}
}

// PowerAt returns amount scaled by the multiplier for the remaining lockup.
func (p *Policy) PowerAt(amount *big.Int, remainingLockupEpochs uint32) *big.Int {
	mult := p.Multiplier(remainingLockupEpochs)
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(mult)))
	return out.Div(out, big.NewInt(100))
}

// StakePowerAt returns the power a stake contributes at the given epoch.
// The stake is effective from initialEpoch and fully decayed at
// initialEpoch+lockupEpochs.
func (p *Policy) StakePowerAt(amount *big.Int, initialEpoch, lockupEpochs, epoch uint32) *big.Int {
	if epoch < initialEpoch || epoch >= initialEpoch+lockupEpochs {
		return new(big.Int)
	}
	return p.PowerAt(amount, initialEpoch+lockupEpochs-epoch)
}

// EpochsToNextBoundary returns the distance from the given remaining lockup
// to the next multiplier-changing epoch. The schedule therefore has at most
// seven breakpoints even for a 10-year lock.
func (p *Policy) EpochsToNextBoundary(remainingLockupEpochs uint32) uint32 {
	switch {
	case remainingLockupEpochs == 0:
		return 0
	case remainingLockupEpochs > p.MaxLockup():
		return remainingLockupEpochs - p.MaxLockup()
	default:
		if rem := remainingLockupEpochs % p.epochsInYear; rem != 0 {
			return rem
		}
		return p.epochsInYear
	}
}

// DecreaseAtBoundary returns the (negative) delta applied when the remaining
// lockup decays to remainingLockupEpochs. At zero the full remaining power is
// removed. The drop out of the 10-year tier lands here as a single −175% step.
func (p *Policy) DecreaseAtBoundary(amount *big.Int, remainingLockupEpochs uint32) *big.Int {
	return new(big.Int).Sub(
		p.PowerAt(amount, remainingLockupEpochs),
		p.PowerAt(amount, remainingLockupEpochs+1),
	)
}

// ScheduleFor composes the full delta schedule of a stake: the initial power
// at initialEpoch, a negative delta at every multiplier boundary, and a
// terminating entry removing the remaining power at initialEpoch+lockupEpochs.
// The deltas sum to exactly zero.
func (p *Policy) ScheduleFor(amount *big.Int, initialEpoch, lockupEpochs uint32) []EpochPower {
	schedule := make([]EpochPower, 0, 8)
	schedule = append(schedule, EpochPower{
		Epoch: initialEpoch,
		Power: p.PowerAt(amount, lockupEpochs),
	})

	remaining := lockupEpochs
	for remaining > 0 {
		remaining -= p.EpochsToNextBoundary(remaining)
		schedule = append(schedule, EpochPower{
			Epoch: initialEpoch + lockupEpochs - remaining,
			Power: p.DecreaseAtBoundary(amount, remaining),
		})
	}
	return schedule
}

// CancelScheduleFrom returns the compensating schedule that removes a stake's
// contribution from epoch `from` onward while leaving all earlier epochs
// untouched. The stake's accumulated power through `from` is subtracted in a
// single delta at `from`, then every original entry strictly after `from` is
// negated. The result is empty if the stake never contributes at or after `from`.
func (p *Policy) CancelScheduleFrom(amount *big.Int, initialEpoch, lockupEpochs, from uint32) []EpochPower {
	var cancellation []EpochPower

	accumulated := new(big.Int)
	for _, entry := range p.ScheduleFor(amount, initialEpoch, lockupEpochs) {
		if entry.Epoch <= from {
			accumulated.Add(accumulated, entry.Power)
		} else {
			cancellation = append(cancellation, EpochPower{
				Epoch: entry.Epoch,
				Power: new(big.Int).Neg(entry.Power),
			})
		}
	}
	if accumulated.Sign() != 0 {
		cancellation = append([]EpochPower{{Epoch: from, Power: accumulated.Neg(accumulated)}}, cancellation...)
	}
	return cancellation
}

// SimulateFor returns the absolute power curve of a prospective stake: the
// running power value at each breakpoint epoch, ending at zero.
func (p *Policy) SimulateFor(amount *big.Int, initialEpoch, lockupEpochs uint32) []EpochPower {
	deltas := p.ScheduleFor(amount, initialEpoch, lockupEpochs)
	curve := make([]EpochPower, 0, len(deltas))
	running := new(big.Int)
	for _, entry := range deltas {
		running = new(big.Int).Add(running, entry.Power)
		curve = append(curve, EpochPower{Epoch: entry.Epoch, Power: running})
	}
	return curve
}
