// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package beneficiary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velocknet/velock/kv"
	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/velock"
)

var (
	alice = velock.BytesToAddress([]byte("alice"))
	bob   = velock.BytesToAddress([]byte("bob"))
)

func newTestSet() *Set {
	st := state.New(kv.NewMem())
	return New(slots.NewContext(velock.BytesToAddress([]byte("engine")), st))
}

func TestEmptySet(t *testing.T) {
	set := newTestSet()

	ids, err := set.StakesOfAt(alice, 100)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAddVisibleFromEffectiveEpoch(t *testing.T) {
	set := newTestSet()

	require.NoError(t, set.Add(alice, 1, 5))

	ids, err := set.StakesOfAt(alice, 4)
	require.NoError(t, err)
	assert.Empty(t, ids, "membership must not be visible before its effective epoch")

	ids, err = set.StakesOfAt(alice, 5)
	require.NoError(t, err)
	assert.Equal(t, []velock.StakeID{1}, ids)

	ids, err = set.StakesOfAt(alice, 100)
	require.NoError(t, err)
	assert.Equal(t, []velock.StakeID{1}, ids)
}

func TestAmendInPlaceAtSameEpoch(t *testing.T) {
	set := newTestSet()

	require.NoError(t, set.Add(alice, 1, 5))
	require.NoError(t, set.Add(alice, 2, 5))

	ids, err := set.StakesOfAt(alice, 5)
	require.NoError(t, err)
	assert.Equal(t, []velock.StakeID{1, 2}, ids)
}

// snapshots for past epochs stay intact when later membership changes land
func TestHistoryPreserved(t *testing.T) {
	set := newTestSet()

	require.NoError(t, set.Add(alice, 1, 5))
	require.NoError(t, set.Add(alice, 2, 8))
	require.NoError(t, set.Remove(alice, 1, 12))

	tests := []struct {
		epoch    uint32
		expected []velock.StakeID
	}{
		{4, nil},
		{5, []velock.StakeID{1}},
		{7, []velock.StakeID{1}},
		{8, []velock.StakeID{1, 2}},
		{11, []velock.StakeID{1, 2}},
		{12, []velock.StakeID{2}},
		{20, []velock.StakeID{2}},
	}
	for _, tt := range tests {
		ids, err := set.StakesOfAt(alice, tt.epoch)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, ids, "epoch %d", tt.epoch)
	}
}

func TestRemoveMissing(t *testing.T) {
	set := newTestSet()

	err := set.Remove(alice, 1, 5)
	assert.ErrorIs(t, err, reverts.ErrStakeNotFound)

	require.NoError(t, set.Add(alice, 1, 5))
	err = set.Remove(alice, 2, 6)
	assert.ErrorIs(t, err, reverts.ErrStakeNotFound)
}

func TestContains(t *testing.T) {
	set := newTestSet()

	require.NoError(t, set.Add(alice, 1, 5))

	member, err := set.Contains(alice, 1, 5)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = set.Contains(alice, 1, 4)
	require.NoError(t, err)
	assert.False(t, member)

	member, err = set.Contains(bob, 1, 5)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestAddressesAreIsolated(t *testing.T) {
	set := newTestSet()

	require.NoError(t, set.Add(alice, 1, 5))
	require.NoError(t, set.Add(bob, 2, 5))

	ids, err := set.StakesOfAt(alice, 5)
	require.NoError(t, err)
	assert.Equal(t, []velock.StakeID{1}, ids)
	ids, err = set.StakesOfAt(bob, 5)
	require.NoError(t, err)
	assert.Equal(t, []velock.StakeID{2}, ids)
}
