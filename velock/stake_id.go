// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package velock

import (
	"encoding/binary"
	"strconv"
)

// StakeID identifies a stake record. IDs are assigned from a monotonic counter
// and are never reused, so a deleted stake's history stays addressable.
type StakeID uint64

// Bytes returns the big-endian byte form of the id, used for storage slot derivation.
func (id StakeID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// String implements stringer.
func (id StakeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsZero returns true for the zero id, which is never assigned to a stake.
func (id StakeID) IsZero() bool {
	return id == 0
}
