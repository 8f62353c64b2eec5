// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slots

import (
	"math/big"

	"github.com/velocknet/velock/log"
	"github.com/velocknet/velock/velock"
)

// ConfigVariable is a named engine parameter with a compiled-in default that can
// be overridden by a value written to its storage slot.
type ConfigVariable struct {
	slot        velock.Bytes32
	name        string
	value       uint32
	initialised bool
}

// NewConfigVariable creates a config variable with the given default.
func NewConfigVariable(name string, defaultValue uint32) *ConfigVariable {
	return &ConfigVariable{
		slot:        NameToSlot(name),
		name:        name,
		value:       defaultValue,
		initialised: false,
	}
}

// Get returns the effective value.
func (c *ConfigVariable) Get() uint32 {
	return c.value
}

// Name returns the variable name.
func (c *ConfigVariable) Name() string {
	return c.name
}

// Slot returns the storage slot the override is read from.
func (c *ConfigVariable) Slot() velock.Bytes32 {
	return c.slot
}

// Override reads the storage slot once and, if non-zero, replaces the default.
func (c *ConfigVariable) Override(ctx *Context) {
	if c.initialised { // early return to prevent subsequent reads
		return
	}
	storage, err := ctx.state.GetStorage(ctx.address, c.slot)
	if err != nil {
		log.Warn("failed to read config value", "slot", c.Name(), "error", err)
		return
	}
	num := new(big.Int).SetBytes(storage.Bytes())

	c.initialised = true

	if num.Uint64() != 0 {
		c.value = uint32(num.Uint64())
		log.Debug("override found new config value", "slot", c.Name(), "value", c.Get())
	} else {
		log.Debug("using default config value", "slot", c.Name(), "value", c.Get())
	}
}
