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

// Address address of account.
type Address [20]byte

// String implements the stringer interface
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// AbbrevString returns abbrev string presentation.
func (a Address) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", a[:4], a[16:])
}

// Bytes returns byte slice form of address.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero returns if address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseAddress convert string presented address into Address type.
func ParseAddress(s string) (Address, error) {
	if len(s) == 20*2+2 {
		if !strings.HasPrefix(s, "0x") {
			return Address{}, errors.New("hex string without 0x prefix")
		}
		s = s[2:]
	} else if len(s) != 20*2 {
		return Address{}, errors.New("invalid length")
	}

	var addr Address
	if _, err := hex.Decode(addr[:], []byte(s)); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// MustParseAddress convert string presented address into Address type, panic on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// BytesToAddress converts bytes slice into address.
// If the length of b exceeds 20, b will be cropped (from the left).
// If the length of b is smaller than 20, b will be extended (from the left).
func BytesToAddress(b []byte) Address {
	var addr Address
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(addr[20-len(b):], b)
	return addr
}
