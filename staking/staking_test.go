// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velocknet/velock/epoch"
	"github.com/velocknet/velock/kv"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/token"
	"github.com/velocknet/velock/velock"
)

var (
	engineAddr = velock.BytesToAddress([]byte("velock-engine"))
	alice      = velock.BytesToAddress([]byte("alice"))
	bob        = velock.BytesToAddress([]byte("bob"))
)

type env struct {
	t         *testing.T
	timestamp uint64
	engine    *Staking
	state     *state.State
}

// newEnv builds an engine over an in-memory state with a controllable clock.
// Genesis is at t=1000 with 10-second epochs; alice and bob start funded.
func newEnv(t *testing.T) *env {
	e := &env{t: t, timestamp: 1000}
	e.state = state.New(kv.NewMem())

	clock, err := epoch.NewClock(1000, 10, func() uint64 { return e.timestamp })
	require.NoError(t, err)
	e.engine = New(engineAddr, e.state, clock)

	require.NoError(t, e.engine.Token().Mint(alice, big.NewInt(1_000_000)))
	require.NoError(t, e.engine.Token().Mint(bob, big.NewInt(1_000_000)))
	return e
}

func (e *env) advanceTo(epochNum uint32) {
	e.timestamp = 1000 + uint64(epochNum)*10
	require.Equal(e.t, epochNum, e.engine.CurrentEpoch())
}

func (e *env) stakerPower(addr velock.Address, epochNum uint32) int64 {
	p, err := e.engine.StakerPowerAt(addr, epochNum)
	require.NoError(e.t, err)
	return p.Int64()
}

func (e *env) totalPower(epochNum uint32) int64 {
	p, err := e.engine.TotalPowerAt(epochNum)
	require.NoError(e.t, err)
	return p.Int64()
}

func (e *env) balance(addr velock.Address) int64 {
	b, err := e.engine.Token().BalanceOf(addr)
	require.NoError(e.t, err)
	return b.Int64()
}

func TestCreateStakeOneYear(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)
	assert.Equal(t, velock.StakeID(1), id)

	// power takes effect next epoch and decays to zero after one year
	assert.EqualValues(t, 0, e.stakerPower(alice, 0))
	assert.EqualValues(t, 1000, e.stakerPower(alice, 1))
	assert.EqualValues(t, 1000, e.stakerPower(alice, 13))
	assert.EqualValues(t, 0, e.stakerPower(alice, 14))

	assert.EqualValues(t, 0, e.totalPower(0))
	assert.EqualValues(t, 1000, e.totalPower(1))
	assert.EqualValues(t, 0, e.totalPower(14))

	// principal moved into escrow
	assert.EqualValues(t, 999_000, e.balance(alice))
	assert.EqualValues(t, 1000, e.balance(engineAddr))
}

func TestCreateStakeTenYearDecay(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 130)
	require.NoError(t, err)

	tests := []struct {
		epoch uint32
		power int64
	}{
		{1, 3500},
		{65, 3500},
		{66, 1750}, // the 10-year cliff
		{79, 1500},
		{92, 1300},
		{105, 1150},
		{118, 1000},
		{130, 1000},
		{131, 0},
	}
	for _, tt := range tests {
		assert.EqualValues(t, tt.power, e.stakerPower(alice, tt.epoch), "epoch %d", tt.epoch)
		assert.EqualValues(t, tt.power, e.totalPower(tt.epoch), "epoch %d", tt.epoch)
	}
}

func TestCreateStakeRejections(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(150), 13)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, err = e.engine.CreateStake(alice, alice, big.NewInt(1000), 12)
	assert.ErrorIs(t, err, reverts.ErrInvalidLockupPeriod)
	_, err = e.engine.CreateStake(alice, alice, big.NewInt(1000), 131)
	assert.ErrorIs(t, err, reverts.ErrInvalidLockupPeriod)

	// insufficient balance aborts with no partial state left behind
	_, err = e.engine.CreateStake(alice, alice, big.NewInt(2_000_000), 13)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	assert.EqualValues(t, 0, e.stakerPower(alice, 1))
	assert.EqualValues(t, 0, e.totalPower(1))
	assert.EqualValues(t, 1_000_000, e.balance(alice))
}

func TestSplitPreservesPower(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	e.advanceTo(3)
	first, second, err := e.engine.SplitStake(alice, alice, id, big.NewInt(400))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// history before the split is untouched
	assert.EqualValues(t, 1150, e.stakerPower(alice, 2))

	// combined power tracks the original curve at every later epoch
	for epochNum := uint32(4); epochNum <= 28; epochNum++ {
		expected := e.engine.Policy().StakePowerAt(big.NewInt(1000), 1, 26, epochNum).Int64()
		assert.EqualValues(t, expected, e.stakerPower(alice, epochNum), "epoch %d", epochNum)
		assert.EqualValues(t, expected, e.totalPower(epochNum), "epoch %d", epochNum)
	}

	// the retired stake can no longer be acted on
	_, _, err = e.engine.SplitStake(alice, alice, id, big.NewInt(100))
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)
}

func TestSplitRejections(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	_, _, err = e.engine.SplitStake(alice, alice, id, big.NewInt(1000))
	assert.ErrorIs(t, err, reverts.ErrAmountOutOfRange)
	_, _, err = e.engine.SplitStake(alice, alice, id, big.NewInt(150))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)
	_, _, err = e.engine.SplitStake(bob, alice, id, big.NewInt(400))
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)
	_, _, err = e.engine.SplitStake(alice, bob, id, big.NewInt(400))
	assert.ErrorIs(t, err, reverts.ErrStakeNotFound)
}

// splitting and re-merging two equal-lockup stakes reproduces the power curve
// of the single original stake exactly
func TestMergeEqualLockups(t *testing.T) {
	e := newEnv(t)
	reference := newEnv(t)

	id1, err := e.engine.CreateStake(alice, alice, big.NewInt(500), 26)
	require.NoError(t, err)
	id2, err := e.engine.CreateStake(alice, alice, big.NewInt(500), 26)
	require.NoError(t, err)
	_, err = reference.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	e.advanceTo(10)
	reference.advanceTo(10)
	merged, err := e.engine.MergeStakes(alice, id1, alice, id2, alice)
	require.NoError(t, err)

	stake, err := e.engine.GetStake(merged)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), stake.Amount)
	assert.Equal(t, uint32(27), stake.FinalEpoch())

	for epochNum := uint32(11); epochNum <= 28; epochNum++ {
		assert.EqualValues(t, reference.stakerPower(alice, epochNum), e.stakerPower(alice, epochNum), "epoch %d", epochNum)
		assert.EqualValues(t, reference.totalPower(epochNum), e.totalPower(epochNum), "epoch %d", epochNum)
	}
}

func TestMergeUnequalLockups(t *testing.T) {
	e := newEnv(t)

	long, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)
	short, err := e.engine.CreateStake(alice, bob, big.NewInt(500), 13)
	require.NoError(t, err)

	e.advanceTo(5)

	// the earlier-ending stake must come second
	_, err = e.engine.MergeStakes(alice, short, bob, long, alice)
	assert.ErrorIs(t, err, reverts.ErrLockupMismatch)

	merged, err := e.engine.MergeStakes(alice, long, alice, short, bob)
	require.NoError(t, err)

	stake, err := e.engine.GetStake(merged)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), stake.Amount)
	assert.Equal(t, uint32(27), stake.FinalEpoch())

	// from the merge on, both amounts decay on the longer stake's timeline
	policy := e.engine.Policy()
	for epochNum := uint32(6); epochNum <= 28; epochNum++ {
		expected := policy.StakePowerAt(big.NewInt(1500), 6, 21, epochNum).Int64()
		assert.EqualValues(t, expected, e.stakerPower(alice, epochNum), "epoch %d", epochNum)
		assert.EqualValues(t, expected, e.totalPower(epochNum), "epoch %d", epochNum)
	}

	// history of the short stake under bob is untouched
	assert.EqualValues(t, 500, e.stakerPower(bob, 5))
	assert.EqualValues(t, 0, e.stakerPower(bob, 6))
}

func TestMergeAfterFold(t *testing.T) {
	e := newEnv(t)

	// a ten-year stake under bob runs alongside the merge
	_, err := e.engine.CreateStake(bob, bob, big.NewInt(1000), 130)
	require.NoError(t, err)

	long, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)
	short, err := e.engine.CreateStake(alice, alice, big.NewInt(500), 13)
	require.NoError(t, err)

	e.advanceTo(5)
	require.NoError(t, e.engine.CalculateTotalPowerUpTo(5))

	var before []int64
	for epochNum := uint32(0); epochNum <= 5; epochNum++ {
		before = append(before, e.totalPower(epochNum))
	}

	merged, err := e.engine.MergeStakes(alice, long, alice, short, alice)
	require.NoError(t, err)

	// folded epochs stay frozen across the merge
	for epochNum := uint32(0); epochNum <= 5; epochNum++ {
		assert.EqualValues(t, before[epochNum], e.totalPower(epochNum), "epoch %d", epochNum)
	}

	// the merged stake decays like a single 1500 stake locked for 21 epochs,
	// and totals track it plus the ten-year stake at every later epoch
	policy := e.engine.Policy()
	for epochNum := uint32(6); epochNum <= 28; epochNum++ {
		expected := policy.StakePowerAt(big.NewInt(1500), 6, 21, epochNum).Int64()
		assert.EqualValues(t, expected, e.stakerPower(alice, epochNum), "epoch %d", epochNum)

		tenYear := policy.StakePowerAt(big.NewInt(1000), 1, 130, epochNum).Int64()
		assert.EqualValues(t, expected+tenYear, e.totalPower(epochNum), "epoch %d", epochNum)
	}

	stake, err := e.engine.GetStake(merged)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), stake.Amount)
	assert.Equal(t, uint32(27), stake.FinalEpoch())

	// the ten-year stake halves at its cliff
	assert.EqualValues(t, 3500, e.stakerPower(bob, 65))
	assert.EqualValues(t, 1750, e.stakerPower(bob, 66))
	assert.EqualValues(t, 3500, e.totalPower(65))
	assert.EqualValues(t, 1750, e.totalPower(66))
}

func TestMergeExpired(t *testing.T) {
	e := newEnv(t)

	id1, err := e.engine.CreateStake(alice, alice, big.NewInt(500), 13)
	require.NoError(t, err)
	id2, err := e.engine.CreateStake(alice, alice, big.NewInt(500), 13)
	require.NoError(t, err)

	e.advanceTo(13)
	_, err = e.engine.MergeStakes(alice, id1, alice, id2, alice)
	assert.ErrorIs(t, err, reverts.ErrStakeExpired)
}

func TestIncreaseAmountOnly(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	e.advanceTo(3)
	newID, err := e.engine.IncreaseStake(alice, alice, id, big.NewInt(500), 0)
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)

	// remaining lockup unchanged, amount grown
	stake, err := e.engine.GetStake(newID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), stake.Amount)
	assert.Equal(t, uint32(27), stake.FinalEpoch())

	assert.EqualValues(t, 1150, e.stakerPower(alice, 3))
	assert.EqualValues(t, 1725, e.stakerPower(alice, 4)) // 1500 * 1.15
	assert.EqualValues(t, 1725, e.totalPower(4))
	assert.EqualValues(t, 1500, e.totalPower(14))
	assert.EqualValues(t, 0, e.totalPower(27))

	assert.EqualValues(t, 998_500, e.balance(alice))
}

func TestIncreaseExtendLockup(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	e.advanceTo(3)

	// remaining 10 + 1 = 11 is not a valid lockup
	_, err = e.engine.IncreaseStake(alice, alice, id, big.NewInt(0), 1)
	assert.ErrorIs(t, err, reverts.ErrInvalidLockupPeriod)

	// remaining 10 + 3 = 13 restores a one-year lockup ending at epoch 17
	newID, err := e.engine.IncreaseStake(alice, alice, id, big.NewInt(0), 3)
	require.NoError(t, err)

	stake, err := e.engine.GetStake(newID)
	require.NoError(t, err)
	assert.Equal(t, uint32(17), stake.FinalEpoch())

	assert.EqualValues(t, 1000, e.stakerPower(alice, 4))
	assert.EqualValues(t, 1000, e.stakerPower(alice, 16))
	assert.EqualValues(t, 0, e.stakerPower(alice, 17))
	assert.EqualValues(t, 1000, e.totalPower(16))
	assert.EqualValues(t, 0, e.totalPower(17))

	// no principal moved
	assert.EqualValues(t, 999_000, e.balance(alice))
}

func TestIncreaseRejections(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	_, err = e.engine.IncreaseStake(alice, alice, id, big.NewInt(0), 0)
	assert.ErrorIs(t, err, reverts.ErrNothingToIncrease)
	_, err = e.engine.IncreaseStake(bob, alice, id, big.NewInt(100), 0)
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)

	// an expired stake cannot take more principal without a new lockup
	e.advanceTo(14)
	_, err = e.engine.IncreaseStake(alice, alice, id, big.NewInt(100), 0)
	assert.ErrorIs(t, err, reverts.ErrStakeExpired)
}

func TestWithdraw(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	e.advanceTo(13)
	err = e.engine.WithdrawStake(alice, alice, id)
	assert.ErrorIs(t, err, reverts.ErrStakeLocked)

	e.advanceTo(14)
	err = e.engine.WithdrawStake(bob, alice, id)
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)
	require.NoError(t, e.engine.WithdrawStake(alice, alice, id))

	assert.EqualValues(t, 1_000_000, e.balance(alice))
	assert.EqualValues(t, 0, e.balance(engineAddr))

	// the receipt is burned; a second withdrawal cannot be authorized
	err = e.engine.WithdrawStake(alice, alice, id)
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)

	// historical power queries still see the stake
	assert.EqualValues(t, 1000, e.stakerPower(alice, 5))
}

func TestDelegateStakePower(t *testing.T) {
	e := newEnv(t)

	id, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	e.advanceTo(5)
	err = e.engine.DelegateStakePower(bob, id, alice, bob)
	assert.ErrorIs(t, err, reverts.ErrNotReceiptOwner)
	require.NoError(t, e.engine.DelegateStakePower(alice, id, alice, bob))

	// attribution moves next epoch; the total is untouched
	assert.EqualValues(t, 1150, e.stakerPower(alice, 5))
	assert.EqualValues(t, 0, e.stakerPower(bob, 5))
	assert.EqualValues(t, 0, e.stakerPower(alice, 6))
	assert.EqualValues(t, 1150, e.stakerPower(bob, 6))
	assert.EqualValues(t, 1150, e.totalPower(6))

	stake, err := e.engine.GetStake(id)
	require.NoError(t, err)
	assert.Equal(t, bob, stake.Beneficiary)
}

// after folding up to an epoch, later mutations must not change any total at
// or below it
func TestHistoryImmutableAfterFold(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	e.advanceTo(5)
	require.NoError(t, e.engine.CalculateTotalPowerUpTo(5))

	var before []int64
	for epochNum := uint32(0); epochNum <= 5; epochNum++ {
		before = append(before, e.totalPower(epochNum))
	}

	_, err = e.engine.CreateStake(bob, bob, big.NewInt(5000), 130)
	require.NoError(t, err)

	for epochNum := uint32(0); epochNum <= 5; epochNum++ {
		assert.EqualValues(t, before[epochNum], e.totalPower(epochNum), "epoch %d", epochNum)
	}
	assert.EqualValues(t, 1000+17500, e.totalPower(6))
}

func TestCalculateTotalPower(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	e.advanceTo(7)
	require.NoError(t, e.engine.CalculateTotalPower())

	mark, err := e.engine.TotalPowerWatermark()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), mark)

	// a failed fold leaves no partial writes
	err = e.engine.CalculateTotalPowerUpTo(7)
	assert.ErrorIs(t, err, reverts.ErrPowerAlreadyCalculated)
}

func TestBatchQueries(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 13)
	require.NoError(t, err)

	epochs := []uint32{0, 1, 13, 14}
	staker, err := e.engine.StakerPowers(alice, epochs)
	require.NoError(t, err)
	total, err := e.engine.TotalPowers(epochs)
	require.NoError(t, err)

	expected := []int64{0, 1000, 1000, 0}
	for i := range epochs {
		assert.EqualValues(t, expected[i], staker[i].Int64(), "epoch %d", epochs[i])
		assert.EqualValues(t, expected[i], total[i].Int64(), "epoch %d", epochs[i])
	}
}

func TestSimulateStakePowers(t *testing.T) {
	e := newEnv(t)
	e.advanceTo(4)

	curve, err := e.engine.SimulateStakePowers(big.NewInt(1000), 26)
	require.NoError(t, err)
	require.Len(t, curve, 3)
	assert.Equal(t, uint32(5), curve[0].Epoch)
	assert.Equal(t, big.NewInt(1150), curve[0].Power)
	assert.Equal(t, uint32(18), curve[1].Epoch)
	assert.Equal(t, big.NewInt(1000), curve[1].Power)
	assert.Equal(t, uint32(31), curve[2].Epoch)
	assert.Zero(t, curve[2].Power.Sign())

	_, err = e.engine.SimulateStakePowers(big.NewInt(150), 26)
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)

	// simulation writes nothing
	assert.EqualValues(t, 0, e.totalPower(5))
}

func TestStakerScheduledPowerAt(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.CreateStake(alice, alice, big.NewInt(1000), 26)
	require.NoError(t, err)

	// before any delegation the audit view matches the live attribution
	for _, epochNum := range []uint32{0, 1, 14, 27} {
		scheduled, err := e.engine.StakerScheduledPowerAt(alice, epochNum)
		require.NoError(t, err)
		assert.EqualValues(t, e.stakerPower(alice, epochNum), scheduled.Int64(), "epoch %d", epochNum)
	}
}
