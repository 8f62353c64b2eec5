// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package velock

// Constants of the vote-escrow protocol.
const (
	// EpochsInYear is the number of epochs that make up one lockup year.
	EpochsInYear = uint32(13)

	// DefaultEpochLength is the wall-clock length of one epoch in seconds (4 weeks).
	DefaultEpochLength = uint64(60 * 60 * 24 * 28)

	// MinStakeIncrement is the granularity of stake amounts. Amounts are required
	// to be whole multiples so that multiplier arithmetic never loses fractions.
	MinStakeIncrement = uint64(100)

	// MinLockupEpochs is the shortest allowed lockup (1 year).
	MinLockupEpochs = EpochsInYear

	// MaxLockupEpochs is the longest continuous lockup bucket (5 years).
	MaxLockupEpochs = 5 * EpochsInYear

	// SpecialLockupEpochs is the only lockup allowed beyond MaxLockupEpochs (10 years).
	SpecialLockupEpochs = 10 * EpochsInYear
)
