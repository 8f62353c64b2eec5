// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/velock"
)

// Context scopes slot access to one storage address of the shared state.
// Modules never touch state directly; they go through typed slot wrappers
// constructed from a context.
type Context struct {
	address velock.Address
	state   *state.State
}

// NewContext creates a slot access context.
func NewContext(address velock.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// State exposes the underlying state, mainly for checkpointing.
func (c *Context) State() *state.State {
	return c.state
}

// Address returns the storage address the context is scoped to.
func (c *Context) Address() velock.Address {
	return c.address
}

// NameToSlot derives a storage slot from a human readable name. Names that fit
// a single word map to themselves left-padded; longer names are hashed so they
// never silently collide on a cropped suffix.
func NameToSlot(name string) velock.Bytes32 {
	if len(name) > 32 {
		return velock.Blake2b([]byte(name))
	}
	return velock.BytesToBytes32([]byte(name))
}
