// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking coordinates the stake lifecycle as atomic compound
// operations over the schedule calculator, the bitpacked epoch ledger, the
// beneficiary set and the total power accumulator. Reshaping a position never
// mutates a stake record: the old record is retired and replacements are
// created under fresh ids, while the ledgers receive compensating deltas that
// only ever touch epochs after the current one.
package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/epoch"
	"github.com/velocknet/velock/log"
	"github.com/velocknet/velock/metrics"
	"github.com/velocknet/velock/receipt"
	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/staking/beneficiary"
	"github.com/velocknet/velock/staking/ledger"
	"github.com/velocknet/velock/staking/power"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/staking/totals"
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/token"
	"github.com/velocknet/velock/velock"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricStakesCreated   = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_stakes_created_count") })
	metricStakesRetired   = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_stakes_retired_count") })
	metricStakesWithdrawn = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("staking_stakes_withdrawn_count") })
)

// Staking is the vote-escrow engine. One instance owns all stake records,
// ledger namespaces and the escrow balance held at its address.
type Staking struct {
	addr  velock.Address
	state *state.State
	clock *epoch.Clock

	policy        *power.Policy
	ledger        *ledger.Service
	beneficiaries *beneficiary.Set
	totals        *totals.Accumulator
	store         *storage
	token         *token.Ledger
	receipts      *receipt.Registry
}

// New creates the engine over the given state, scoped to addr. Engine
// parameters use compiled-in defaults unless overridden in storage.
func New(addr velock.Address, st *state.State, clock *epoch.Clock) *Staking {
	sctx := slots.NewContext(addr, st)

	epochsInYear := slots.NewConfigVariable("epochs-in-year", velock.EpochsInYear)
	epochsInYear.Override(sctx)
	minIncrement := slots.NewConfigVariable("min-stake-increment", uint32(velock.MinStakeIncrement))
	minIncrement.Override(sctx)

	ldg := ledger.New(sctx)
	return &Staking{
		addr:          addr,
		state:         st,
		clock:         clock,
		policy:        power.NewPolicy(epochsInYear.Get(), uint64(minIncrement.Get())),
		ledger:        ldg,
		beneficiaries: beneficiary.New(sctx),
		totals:        totals.New(sctx, ldg),
		store:         newStorage(sctx),
		token:         token.New(sctx),
		receipts:      receipt.New(sctx),
	}
}

// Policy exposes the active multiplier policy for read-only consumers.
func (s *Staking) Policy() *power.Policy {
	return s.policy
}

// Token exposes the escrow token ledger.
func (s *Staking) Token() *token.Ledger {
	return s.token
}

// Receipts exposes the receipt registry.
func (s *Staking) Receipts() *receipt.Registry {
	return s.receipts
}

// CurrentEpoch returns the engine clock's current epoch.
func (s *Staking) CurrentEpoch() uint32 {
	return s.clock.Current()
}

// CreateStake locks amount for lockupEpochs. Power accrues to beneficiary from
// the next epoch onward; the receipt controlling the position is minted to
// staker. The principal moves into escrow last.
func (s *Staking) CreateStake(staker, ben velock.Address, amount *big.Int, lockupEpochs uint32) (velock.StakeID, error) {
	checkpoint := s.state.NewCheckpoint()

	id, err := s.createStake(staker, ben, amount, lockupEpochs)
	if err != nil {
		s.state.RevertTo(checkpoint)
		return 0, err
	}
	if err := s.token.Transfer(staker, s.addr, amount); err != nil {
		s.state.RevertTo(checkpoint)
		return 0, err
	}
	metricStakesCreated().Add(1)
	logger.Debug("stake created", "id", id, "staker", staker, "beneficiary", ben, "amount", amount, "lockup", lockupEpochs)
	return id, nil
}

func (s *Staking) createStake(staker, ben velock.Address, amount *big.Int, lockupEpochs uint32) (velock.StakeID, error) {
	if err := s.policy.ValidateAmount(amount); err != nil {
		return 0, err
	}
	if err := s.policy.ValidateLockup(lockupEpochs); err != nil {
		return 0, err
	}

	effective := s.clock.Current() + 1
	id, err := s.newStake(&Stake{
		Amount:       new(big.Int).Set(amount),
		Beneficiary:  ben,
		InitialEpoch: effective,
		LockupEpochs: lockupEpochs,
	}, staker)
	if err != nil {
		return 0, err
	}
	return id, s.applySchedule(ben, s.policy.ScheduleFor(amount, effective, lockupEpochs))
}

// SplitStake retires a stake and recreates it as two positions of splitAmount
// and the remainder, both keeping the original decay curve. The combined power
// at every epoch is unchanged, so no ledger deltas are written.
func (s *Staking) SplitStake(caller, ben velock.Address, id velock.StakeID, splitAmount *big.Int) (velock.StakeID, velock.StakeID, error) {
	checkpoint := s.state.NewCheckpoint()

	first, second, err := s.splitStake(caller, ben, id, splitAmount)
	if err != nil {
		s.state.RevertTo(checkpoint)
		return 0, 0, err
	}
	metricStakesRetired().Add(1)
	metricStakesCreated().Add(2)
	logger.Debug("stake split", "id", id, "into", []velock.StakeID{first, second}, "amount", splitAmount)
	return first, second, nil
}

func (s *Staking) splitStake(caller, ben velock.Address, id velock.StakeID, splitAmount *big.Int) (velock.StakeID, velock.StakeID, error) {
	stake, err := s.authorizedStake(caller, ben, id)
	if err != nil {
		return 0, 0, err
	}
	if err := s.policy.ValidateAmount(splitAmount); err != nil {
		return 0, 0, err
	}
	if splitAmount.Cmp(stake.Amount) >= 0 {
		return 0, 0, reverts.ErrAmountOutOfRange
	}

	if err := s.retireStake(id, ben); err != nil {
		return 0, 0, err
	}
	first, err := s.newStake(&Stake{
		Amount:       new(big.Int).Set(splitAmount),
		Beneficiary:  ben,
		InitialEpoch: stake.InitialEpoch,
		LockupEpochs: stake.LockupEpochs,
	}, caller)
	if err != nil {
		return 0, 0, err
	}
	second, err := s.newStake(&Stake{
		Amount:       new(big.Int).Sub(stake.Amount, splitAmount),
		Beneficiary:  ben,
		InitialEpoch: stake.InitialEpoch,
		LockupEpochs: stake.LockupEpochs,
	}, caller)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

// MergeStakes combines two stakes into one position ending at the first
// stake's final epoch. The first stake must end no earlier than the second and
// must not be expired. A second stake ending earlier has its future deltas
// cancelled and reissued aligned to the first stake's final epoch; this is the
// one retroactive rewrite in the engine, safe because every touched epoch lies
// strictly in the future.
func (s *Staking) MergeStakes(caller velock.Address, id1 velock.StakeID, ben1 velock.Address, id2 velock.StakeID, ben2 velock.Address) (velock.StakeID, error) {
	checkpoint := s.state.NewCheckpoint()

	id, err := s.mergeStakes(caller, id1, ben1, id2, ben2)
	if err != nil {
		s.state.RevertTo(checkpoint)
		return 0, err
	}
	metricStakesRetired().Add(2)
	metricStakesCreated().Add(1)
	logger.Debug("stakes merged", "first", id1, "second", id2, "into", id)
	return id, nil
}

func (s *Staking) mergeStakes(caller velock.Address, id1 velock.StakeID, ben1 velock.Address, id2 velock.StakeID, ben2 velock.Address) (velock.StakeID, error) {
	stake1, err := s.authorizedStake(caller, ben1, id1)
	if err != nil {
		return 0, err
	}
	stake2, err := s.authorizedStake(caller, ben2, id2)
	if err != nil {
		return 0, err
	}

	effective := s.clock.Current() + 1
	if stake1.FinalEpoch() < stake2.FinalEpoch() {
		return 0, reverts.ErrLockupMismatch
	}
	if stake1.FinalEpoch() <= effective {
		return 0, reverts.ErrStakeExpired
	}

	if stake2.FinalEpoch() < stake1.FinalEpoch() {
		// realign the second stake: cancel its remaining schedule and reissue
		// it ending at the first stake's final epoch
		if err := s.applySchedule(ben2, s.policy.CancelScheduleFrom(stake2.Amount, stake2.InitialEpoch, stake2.LockupEpochs, effective)); err != nil {
			return 0, err
		}
		if err := s.applySchedule(ben1, s.policy.ScheduleFor(stake2.Amount, effective, stake1.FinalEpoch()-effective)); err != nil {
			return 0, err
		}
	}

	if err := s.retireStake(id1, ben1); err != nil {
		return 0, err
	}
	if err := s.retireStake(id2, ben2); err != nil {
		return 0, err
	}
	return s.newStake(&Stake{
		Amount:       new(big.Int).Add(stake1.Amount, stake2.Amount),
		Beneficiary:  ben1,
		InitialEpoch: effective,
		LockupEpochs: stake1.FinalEpoch() - effective,
	}, caller)
}

// IncreaseStake retires a stake and recreates it with more principal, a longer
// lockup, or both. Extending the lockup cancels the old future schedule and
// reissues the combined one; a pure amount increase only adds the extra
// amount's schedule over the remaining lockup. Added principal moves into
// escrow last.
func (s *Staking) IncreaseStake(caller, ben velock.Address, id velock.StakeID, addAmount *big.Int, addEpochs uint32) (velock.StakeID, error) {
	checkpoint := s.state.NewCheckpoint()

	newID, err := s.increaseStake(caller, ben, id, addAmount, addEpochs)
	if err != nil {
		s.state.RevertTo(checkpoint)
		return 0, err
	}
	if addAmount.Sign() > 0 {
		if err := s.token.Transfer(caller, s.addr, addAmount); err != nil {
			s.state.RevertTo(checkpoint)
			return 0, err
		}
	}
	metricStakesRetired().Add(1)
	metricStakesCreated().Add(1)
	logger.Debug("stake increased", "id", id, "into", newID, "addAmount", addAmount, "addEpochs", addEpochs)
	return newID, nil
}

func (s *Staking) increaseStake(caller, ben velock.Address, id velock.StakeID, addAmount *big.Int, addEpochs uint32) (velock.StakeID, error) {
	stake, err := s.authorizedStake(caller, ben, id)
	if err != nil {
		return 0, err
	}
	if addAmount.Sign() == 0 && addEpochs == 0 {
		return 0, reverts.ErrNothingToIncrease
	}
	if addAmount.Sign() > 0 {
		if err := s.policy.ValidateAmount(addAmount); err != nil {
			return 0, err
		}
	} else if addAmount.Sign() < 0 {
		return 0, reverts.ErrInvalidAmount
	}

	effective := s.clock.Current() + 1
	var remaining uint32
	if stake.FinalEpoch() > effective {
		remaining = stake.FinalEpoch() - effective
	}
	newAmount := new(big.Int).Add(stake.Amount, addAmount)
	if err := s.policy.ValidateAmount(newAmount); err != nil {
		return 0, err
	}

	if addEpochs > 0 {
		newLockup := remaining + addEpochs
		if err := s.policy.ValidateLockup(newLockup); err != nil {
			return 0, err
		}
		// the old stake contributes nothing after cancellation; the combined
		// schedule replaces it wholesale
		if err := s.applySchedule(ben, s.policy.CancelScheduleFrom(stake.Amount, stake.InitialEpoch, stake.LockupEpochs, effective)); err != nil {
			return 0, err
		}
		if err := s.applySchedule(ben, s.policy.ScheduleFor(newAmount, effective, newLockup)); err != nil {
			return 0, err
		}
		remaining = newLockup
	} else {
		if remaining == 0 {
			return 0, reverts.ErrStakeExpired
		}
		if err := s.applySchedule(ben, s.policy.ScheduleFor(addAmount, effective, remaining)); err != nil {
			return 0, err
		}
	}

	if err := s.retireStake(id, ben); err != nil {
		return 0, err
	}
	return s.newStake(&Stake{
		Amount:       newAmount,
		Beneficiary:  ben,
		InitialEpoch: effective,
		LockupEpochs: remaining,
	}, caller)
}

// WithdrawStake returns the principal of a fully decayed stake to the receipt
// owner. No ledger mutation is needed: the schedule already reached zero by
// construction.
func (s *Staking) WithdrawStake(caller, ben velock.Address, id velock.StakeID) error {
	checkpoint := s.state.NewCheckpoint()

	stake, err := s.withdrawStake(caller, ben, id)
	if err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	if err := s.token.Transfer(s.addr, caller, stake.Amount); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	metricStakesWithdrawn().Add(1)
	logger.Debug("stake withdrawn", "id", id, "owner", caller, "amount", stake.Amount)
	return nil
}

func (s *Staking) withdrawStake(caller, ben velock.Address, id velock.StakeID) (*Stake, error) {
	stake, err := s.authorizedStake(caller, ben, id)
	if err != nil {
		return nil, err
	}
	if s.clock.Current() < stake.FinalEpoch() {
		return nil, reverts.ErrStakeLocked
	}
	return stake, s.retireStake(id, ben)
}

// DelegateStakePower moves a stake's power attribution to a new beneficiary
// effective next epoch. The global total is unaffected and no ledger deltas
// change; only set membership moves.
func (s *Staking) DelegateStakePower(caller velock.Address, id velock.StakeID, from, to velock.Address) error {
	checkpoint := s.state.NewCheckpoint()

	if err := s.delegateStakePower(caller, id, from, to); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	logger.Debug("stake power delegated", "id", id, "from", from, "to", to)
	return nil
}

func (s *Staking) delegateStakePower(caller velock.Address, id velock.StakeID, from, to velock.Address) error {
	stake, err := s.authorizedStake(caller, from, id)
	if err != nil {
		return err
	}

	effective := s.clock.Current() + 1
	if err := s.beneficiaries.Remove(from, id, effective); err != nil {
		return err
	}
	if err := s.beneficiaries.Add(to, id, effective); err != nil {
		return err
	}
	stake.Beneficiary = to
	return s.store.setStake(id, stake)
}

// StakerPowerAt returns the power attributed to addr at the given epoch: the
// sum of each member stake's point-in-time power.
func (s *Staking) StakerPowerAt(addr velock.Address, epoch uint32) (*big.Int, error) {
	ids, err := s.beneficiaries.StakesOfAt(addr, epoch)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, id := range ids {
		stake, err := s.store.getStake(id)
		if err != nil {
			return nil, err
		}
		total.Add(total, s.policy.StakePowerAt(stake.Amount, stake.InitialEpoch, stake.LockupEpochs, epoch))
	}
	return total, nil
}

// StakerPowers returns StakerPowerAt for each requested epoch.
func (s *Staking) StakerPowers(addr velock.Address, epochs []uint32) ([]*big.Int, error) {
	powers := make([]*big.Int, 0, len(epochs))
	for _, e := range epochs {
		p, err := s.StakerPowerAt(addr, e)
		if err != nil {
			return nil, err
		}
		powers = append(powers, p)
	}
	return powers, nil
}

// StakerScheduledPowerAt folds addr's grant-time ledger namespace through the
// given epoch. It reflects power as scheduled when stakes were granted to
// addr, ignoring later delegations, and serves as an audit view over the
// per-beneficiary delta log.
func (s *Staking) StakerScheduledPowerAt(addr velock.Address, epoch uint32) (*big.Int, error) {
	total := new(big.Int)
	err := s.ledger.FoldRange(ledger.PowerNamespace(addr), total, 0, epoch, func(_ uint32, running *big.Int) error {
		total.Set(running)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// TotalPowerAt returns the system-wide power at the given epoch.
func (s *Staking) TotalPowerAt(epoch uint32) (*big.Int, error) {
	return s.totals.TotalPowerAt(epoch)
}

// TotalPowers returns TotalPowerAt for each requested epoch.
func (s *Staking) TotalPowers(epochs []uint32) ([]*big.Int, error) {
	powers := make([]*big.Int, 0, len(epochs))
	for _, e := range epochs {
		p, err := s.totals.TotalPowerAt(e)
		if err != nil {
			return nil, err
		}
		powers = append(powers, p)
	}
	return powers, nil
}

// TotalPowerWatermark returns the newest folded epoch.
func (s *Staking) TotalPowerWatermark() (uint32, error) {
	return s.totals.Watermark()
}

// CalculateTotalPowerUpTo folds the total power series through the given
// epoch.
func (s *Staking) CalculateTotalPowerUpTo(epoch uint32) error {
	checkpoint := s.state.NewCheckpoint()
	if err := s.totals.CalculateUpTo(epoch, s.clock.Current()); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// CalculateTotalPower folds the total power series through the current epoch.
func (s *Staking) CalculateTotalPower() error {
	return s.CalculateTotalPowerUpTo(s.clock.Current())
}

// SimulateStakePowers previews the decay curve a stake created now would
// follow, without touching state.
func (s *Staking) SimulateStakePowers(amount *big.Int, lockupEpochs uint32) ([]power.EpochPower, error) {
	if err := s.policy.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := s.policy.ValidateLockup(lockupEpochs); err != nil {
		return nil, err
	}
	return s.policy.SimulateFor(amount, s.clock.Current()+1, lockupEpochs), nil
}

// GetStake returns the stored record of a stake id.
func (s *Staking) GetStake(id velock.StakeID) (*Stake, error) {
	return s.store.getStake(id)
}

// authorizedStake loads a stake and checks that caller holds its receipt and
// that it currently counts toward ben.
func (s *Staking) authorizedStake(caller, ben velock.Address, id velock.StakeID) (*Stake, error) {
	stake, err := s.store.getStake(id)
	if err != nil {
		return nil, err
	}
	owner, err := s.receipts.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if owner.IsZero() || owner != caller {
		return nil, reverts.ErrNotReceiptOwner
	}
	member, err := s.beneficiaries.Contains(ben, id, s.clock.Current()+1)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, reverts.ErrStakeNotFound
	}
	return stake, nil
}

// newStake persists a record under a fresh id, mints its receipt to owner and
// registers its beneficiary effective next epoch.
func (s *Staking) newStake(stake *Stake, owner velock.Address) (velock.StakeID, error) {
	id, err := s.store.mintID()
	if err != nil {
		return 0, err
	}
	if err := s.store.setStake(id, stake); err != nil {
		return 0, err
	}
	if err := s.receipts.Mint(id, owner); err != nil {
		return 0, err
	}
	return id, s.beneficiaries.Add(stake.Beneficiary, id, s.clock.Current()+1)
}

// retireStake removes a stake from its beneficiary set effective next epoch
// and burns its receipt. The record itself is kept for historical queries.
func (s *Staking) retireStake(id velock.StakeID, ben velock.Address) error {
	if err := s.beneficiaries.Remove(ben, id, s.clock.Current()+1); err != nil {
		return err
	}
	return s.receipts.Burn(id)
}

// applySchedule writes a delta schedule to both the beneficiary's grant-time
// namespace and the global total namespace.
func (s *Staking) applySchedule(ben velock.Address, entries []power.EpochPower) error {
	ns := ledger.PowerNamespace(ben)
	for _, entry := range entries {
		if err := s.ledger.Update(ns, entry.Epoch, entry.Power); err != nil {
			return err
		}
		if err := s.totals.ApplyDelta(entry.Epoch, entry.Power); err != nil {
			return errors.Wrap(err, "failed to apply total power delta")
		}
	}
	return nil
}
