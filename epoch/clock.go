// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"time"

	"github.com/pkg/errors"
)

// Clock maps wall-clock time to a monotonically increasing epoch number.
// It is a pure function of a fixed genesis timestamp and a fixed epoch length,
// both immutable for the lifetime of the engine.
type Clock struct {
	genesis uint64 // unix seconds of epoch 0 start
	length  uint64 // seconds per epoch
	now     func() uint64
}

// NewClock creates a clock. It fails if the genesis timestamp lies in the
// future relative to the injected time source, or if the epoch length is zero.
func NewClock(genesis, length uint64, now func() uint64) (*Clock, error) {
	if length == 0 {
		return nil, errors.New("epoch length must be positive")
	}
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if current := now(); genesis > current {
		return nil, errors.Errorf("genesis timestamp %d is in the future (now %d)", genesis, current)
	}
	return &Clock{genesis: genesis, length: length, now: now}, nil
}

// EpochFor returns the epoch the given unix timestamp falls into.
// Timestamps before genesis map to epoch 0.
func (c *Clock) EpochFor(timestamp uint64) uint32 {
	if timestamp < c.genesis {
		return 0
	}
	return uint32((timestamp - c.genesis) / c.length)
}

// Current returns the epoch of the current time.
func (c *Clock) Current() uint32 {
	return c.EpochFor(c.now())
}

// Genesis returns the unix timestamp epoch 0 starts at.
func (c *Clock) Genesis() uint64 {
	return c.genesis
}

// Length returns the epoch length in seconds.
func (c *Clock) Length() uint64 {
	return c.length
}
