// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"math/big"

	"github.com/velocknet/velock/velock"
)

// Uint256 is a wrapper for storage and retrieval of an unsigned 256-bit number,
// similar to storing an uint256 in a smart contract.
// If the provided value exceeds 256 bits it will be truncated to fit into 32 bytes.
type Uint256 struct {
	context *Context
	pos     velock.Bytes32
}

// NewUint256 creates a numeric slot wrapper.
func NewUint256(context *Context, slot velock.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

// Get reads the stored value. A missing slot yields zero.
func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set overwrites the stored value.
func (u *Uint256) Set(value *big.Int) {
	storage := velock.BytesToBytes32(value.Bytes())
	u.context.state.SetStorage(u.context.address, u.pos, storage)
}

// Add increments the stored value by the given amount.
func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Add(storage, value)
	u.Set(storage)
	return nil
}

// Sub decrements the stored value by the given amount.
func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Sub(storage, value)
	u.Set(storage)
	return nil
}
