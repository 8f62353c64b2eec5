// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/velocknet/velock/kv"
	"github.com/velocknet/velock/stackedmap"
	"github.com/velocknet/velock/velock"
)

// storageBucket scopes persisted storage words within the backing kv store.
const storageBucket = kv.Bucket("st")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr velock.Address
	key  velock.Bytes32
}

// State manages contract-style storage words over a kv store.
// All writes are buffered in a revision stack until Commit, which makes every
// mutating operation trivially all-or-nothing via checkpoints.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap
}

// New creates a state object backed by the given kv store.
func New(store kv.Store) *State {
	st := &State{store: store}
	st.sm = stackedmap.New(func(key any) (any, bool, error) {
		k := key.(storageKey)
		raw, err := storageBucket.NewGetter(store).Get(append(k.addr.Bytes(), k.key.Bytes()...))
		if err != nil {
			if store.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	})
	// the bottom checkpoint, never popped
	st.sm.Push()
	return st
}

// GetStorage returns the storage value for the given address and key.
func (s *State) GetStorage(addr velock.Address, key velock.Bytes32) (velock.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return velock.Bytes32{}, err
	}
	if len(raw) == 0 {
		return velock.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return velock.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return velock.Blake2b(raw), nil
	}
	return velock.BytesToBytes32(content), nil
}

// SetStorage sets the storage value for the given address and key.
func (s *State) SetStorage(addr velock.Address, key, value velock.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns the storage value in rlp raw for the given address and key.
func (s *State) GetRawStorage(addr velock.Address, key velock.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets the storage value in rlp raw.
func (s *State) SetRawStorage(addr velock.Address, key velock.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets the storage value encoded by the given enc method.
func (s *State) EncodeStorage(addr velock.Address, key velock.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes the storage value.
func (s *State) DecodeStorage(addr velock.Address, key velock.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit writes all buffered changes to the backing store atomically.
// The revision stack is kept as-is, so the state remains usable afterwards.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	putter := storageBucket.NewPutter(batch)

	var jerr error
	s.sm.Journal(func(key, value any) bool {
		k := key.(storageKey)
		raw := value.(rlp.RawValue)
		storeKey := append(k.addr.Bytes(), k.key.Bytes()...)
		if len(raw) == 0 {
			jerr = putter.Delete(storeKey)
		} else {
			jerr = putter.Put(storeKey, raw)
		}
		return jerr == nil
	})
	if jerr != nil {
		return &Error{jerr}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
