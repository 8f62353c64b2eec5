// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClock(t *testing.T) {
	now := func() uint64 { return 1000 }

	_, err := NewClock(100, 0, now)
	assert.Error(t, err, "zero epoch length must be rejected")

	_, err = NewClock(2000, 10, now)
	assert.Error(t, err, "future genesis must be rejected")

	clock, err := NewClock(100, 10, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), clock.Genesis())
	assert.Equal(t, uint64(10), clock.Length())
}

func TestEpochFor(t *testing.T) {
	clock, err := NewClock(100, 10, func() uint64 { return 1000 })
	require.NoError(t, err)

	tests := []struct {
		timestamp uint64
		expected  uint32
	}{
		{0, 0},    // before genesis
		{99, 0},   // just before genesis
		{100, 0},  // genesis
		{109, 0},  // last second of epoch 0
		{110, 1},  // first second of epoch 1
		{215, 11}, // mid epoch
		{1000, 90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, clock.EpochFor(tt.timestamp), "timestamp %d", tt.timestamp)
	}
}

func TestCurrent(t *testing.T) {
	timestamp := uint64(100)
	clock, err := NewClock(100, 10, func() uint64 { return timestamp })
	require.NoError(t, err)

	assert.Equal(t, uint32(0), clock.Current())

	timestamp = 150
	assert.Equal(t, uint32(5), clock.Current())

	timestamp = 151
	assert.Equal(t, uint32(5), clock.Current())
}
