// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package receipt tracks ownership of stake positions. A receipt is minted
// when a stake is created, transferred freely, and burned when the stake is
// retired. Holding the receipt is what authorizes acting on the stake.
package receipt

import (
	"github.com/pkg/errors"

	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/velock"
)

// Registry maps stake ids to their current owners. The zero address means the
// receipt does not exist, either never minted or burned.
type Registry struct {
	owners *slots.Mapping[velock.StakeID, velock.Address]
}

// New creates a registry rooted at the "receipts" slot.
func New(sctx *slots.Context) *Registry {
	return &Registry{
		owners: slots.NewMapping[velock.StakeID, velock.Address](sctx, slots.NameToSlot("receipts")),
	}
}

// OwnerOf returns the current owner of the receipt, or the zero address if it
// does not exist.
func (r *Registry) OwnerOf(id velock.StakeID) (velock.Address, error) {
	owner, err := r.owners.Get(id)
	if err != nil {
		return velock.Address{}, errors.Wrap(err, "failed to read receipt owner")
	}
	return owner, nil
}

// Mint issues the receipt for a freshly created stake.
func (r *Registry) Mint(id velock.StakeID, owner velock.Address) error {
	if owner.IsZero() {
		return errors.New("receipt owner must not be zero")
	}
	existing, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if !existing.IsZero() {
		return errors.Errorf("receipt %d already minted", id)
	}
	return errors.Wrap(r.owners.Set(id, owner), "failed to write receipt owner")
}

// Burn destroys the receipt of a retired stake.
func (r *Registry) Burn(id velock.StakeID) error {
	return errors.Wrap(r.owners.Delete(id), "failed to burn receipt")
}

// Transfer hands the receipt to a new owner. The caller must hold it.
func (r *Registry) Transfer(id velock.StakeID, from, to velock.Address) error {
	if to.IsZero() {
		return errors.New("receipt recipient must not be zero")
	}
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from || owner.IsZero() {
		return errors.Errorf("receipt %d not owned by %s", id, from)
	}
	return errors.Wrap(r.owners.Set(id, to), "failed to write receipt owner")
}
