// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velocknet/velock/kv"
	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/velock"
)

var (
	alice = velock.BytesToAddress([]byte("alice"))
	bob   = velock.BytesToAddress([]byte("bob"))
)

func newTestLedger() *Ledger {
	st := state.New(kv.NewMem())
	return New(slots.NewContext(velock.BytesToAddress([]byte("engine")), st))
}

func TestMintAndBalance(t *testing.T) {
	ledger := newTestLedger()

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())

	require.NoError(t, ledger.Mint(alice, big.NewInt(5000)))
	require.NoError(t, ledger.Mint(alice, big.NewInt(1000)))

	balance, err = ledger.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(6000), balance)

	supply, err := ledger.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(6000), supply)

	assert.Error(t, ledger.Mint(alice, big.NewInt(0)))
}

func TestTransfer(t *testing.T) {
	ledger := newTestLedger()
	require.NoError(t, ledger.Mint(alice, big.NewInt(1000)))

	require.NoError(t, ledger.Transfer(alice, bob, big.NewInt(400)))

	balance, err := ledger.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), balance)
	balance, err = ledger.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), balance)

	assert.ErrorIs(t, ledger.Transfer(alice, bob, big.NewInt(601)), ErrInsufficientBalance)
	assert.Error(t, ledger.Transfer(alice, bob, big.NewInt(0)))

	// supply is conserved by transfers
	supply, err := ledger.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), supply)
}
