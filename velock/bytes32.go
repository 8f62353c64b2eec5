// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package velock

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Bytes32 array of 32 bytes.
type Bytes32 [32]byte

// String implements stringer
func (b Bytes32) String() string {
	return "0x" + hex.EncodeToString(b[:])
}

// AbbrevString returns abbrev string presentation.
func (b Bytes32) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", b[:4], b[28:])
}

// Bytes returns byte slice form of Bytes32.
func (b Bytes32) Bytes() []byte {
	return b[:]
}

// IsZero returns if Bytes32 has all zero bytes.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// ParseBytes32 converts a string presentation into Bytes32 type.
func ParseBytes32(s string) (Bytes32, error) {
	if len(s) == 32*2+2 {
		if !strings.HasPrefix(s, "0x") {
			return Bytes32{}, errors.New("hex string without 0x prefix")
		}
		s = s[2:]
	} else if len(s) != 32*2 {
		return Bytes32{}, errors.New("invalid length")
	}

	var b32 Bytes32
	if _, err := hex.Decode(b32[:], []byte(s)); err != nil {
		return Bytes32{}, err
	}
	return b32, nil
}

// MustParseBytes32 converts a string presentation into Bytes32 type, panics on error.
func MustParseBytes32(s string) Bytes32 {
	b32, err := ParseBytes32(s)
	if err != nil {
		panic(err)
	}
	return b32
}

// BytesToBytes32 converts bytes slice into Bytes32.
// If the length of b exceeds 32, b will be cropped (from the left).
// If the length of b is smaller than 32, b will be extended (from the left).
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(BytesToHash(b))
}

// BytesToHash left-pads or crops the given bytes to a 32 byte array.
func BytesToHash(b []byte) [32]byte {
	var h [32]byte
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}
