// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token is the fungible ledger the staking engine escrows principal
// in. It is deliberately minimal: balances, supply, mint and transfer.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/velock"
)

// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
var ErrInsufficientBalance = errors.New("insufficient token balance")

// Ledger tracks fungible token balances in state.
type Ledger struct {
	balances *slots.Mapping[velock.Address, *big.Int]
	supply   *slots.Uint256
}

// New creates a token ledger rooted at the "token-balances" slot.
func New(sctx *slots.Context) *Ledger {
	return &Ledger{
		balances: slots.NewMapping[velock.Address, *big.Int](sctx, slots.NameToSlot("token-balances")),
		supply:   slots.NewUint256(sctx, slots.NameToSlot("token-supply")),
	}
}

// BalanceOf returns the balance of addr, zero if never funded.
func (l *Ledger) BalanceOf(addr velock.Address) (*big.Int, error) {
	balance, err := l.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read balance")
	}
	if balance == nil {
		return new(big.Int), nil
	}
	return balance, nil
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.supply.Get()
}

// Mint credits addr and grows the supply.
func (l *Ledger) Mint(addr velock.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return errors.New("mint amount must be positive")
	}
	balance, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := l.balances.Set(addr, new(big.Int).Add(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to write balance")
	}
	return errors.Wrap(l.supply.Add(amount), "failed to grow supply")
}

// Transfer moves amount from one address to another.
func (l *Ledger) Transfer(from, to velock.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return errors.New("transfer amount must be positive")
	}
	fromBalance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return errors.Wrap(err, "failed to write balance")
	}
	return errors.Wrap(l.balances.Set(to, new(big.Int).Add(toBalance, amount)), "failed to write balance")
}
