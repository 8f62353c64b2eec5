// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/velocknet/velock/velock"
)

// Key is anything that can address a mapping entry.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, similar to a mapping in Solidity.
// Entry positions are derived by hashing the key with the mapping's base slot,
// so any number of mappings share one physical keyspace without preallocation.
type Mapping[K Key, V any] struct {
	context *Context
	basePos velock.Bytes32
}

// NewMapping creates a mapping rooted at the given base slot.
func NewMapping[K Key, V any](context *Context, pos velock.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get reads the value stored under key. A missing entry yields the zero value.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	position := velock.Blake2b(key.Bytes(), m.basePos.Bytes())
	err = m.context.state.DecodeStorage(m.context.address, position, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set writes the value under key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	position := velock.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.state.EncodeStorage(m.context.address, position, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete clears the entry stored under key.
func (m *Mapping[K, V]) Delete(key K) error {
	position := velock.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.state.EncodeStorage(m.context.address, position, func() ([]byte, error) {
		return nil, nil
	})
}
