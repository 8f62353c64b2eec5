// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package beneficiary tracks which stakes count toward an address, versioned by
// epoch. Membership changes never rewrite history: they land in a snapshot for
// the epoch they take effect in, and queries resolve the newest snapshot at or
// before the requested epoch.
package beneficiary

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/velock"
)

// Snapshot is the full membership of one address as of Epoch. It stays
// authoritative until superseded by a snapshot with a higher epoch.
type Snapshot struct {
	Epoch    uint32
	StakeIDs []velock.StakeID
}

// Set stores per-address membership histories.
type Set struct {
	histories *slots.Mapping[velock.Address, []Snapshot]
}

// New creates a beneficiary set rooted at the "beneficiaries" slot.
func New(sctx *slots.Context) *Set {
	return &Set{
		histories: slots.NewMapping[velock.Address, []Snapshot](sctx, slots.NameToSlot("beneficiaries")),
	}
}

// StakesOfAt returns the stake ids counting toward the address at the given
// epoch. Addresses without a snapshot at or before the epoch have none.
func (s *Set) StakesOfAt(addr velock.Address, epoch uint32) ([]velock.StakeID, error) {
	history, err := s.histories.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load beneficiary history")
	}
	// newest snapshot with Epoch <= epoch; history is sorted ascending
	idx := sort.Search(len(history), func(i int) bool {
		return history[i].Epoch > epoch
	})
	if idx == 0 {
		return nil, nil
	}
	return history[idx-1].StakeIDs, nil
}

// Add records that id counts toward addr from effectiveEpoch onward.
func (s *Set) Add(addr velock.Address, id velock.StakeID, effectiveEpoch uint32) error {
	return s.amend(addr, effectiveEpoch, func(ids []velock.StakeID) ([]velock.StakeID, error) {
		return append(ids, id), nil
	})
}

// Remove records that id stops counting toward addr from effectiveEpoch onward.
// It fails with ErrStakeNotFound if the stake is not a current member.
func (s *Set) Remove(addr velock.Address, id velock.StakeID, effectiveEpoch uint32) error {
	return s.amend(addr, effectiveEpoch, func(ids []velock.StakeID) ([]velock.StakeID, error) {
		for i, member := range ids {
			if member == id {
				return append(ids[:i], ids[i+1:]...), nil
			}
		}
		return nil, reverts.ErrStakeNotFound
	})
}

// Contains reports whether id counts toward addr at the given epoch.
func (s *Set) Contains(addr velock.Address, id velock.StakeID, epoch uint32) (bool, error) {
	ids, err := s.StakesOfAt(addr, epoch)
	if err != nil {
		return false, err
	}
	for _, member := range ids {
		if member == id {
			return true, nil
		}
	}
	return false, nil
}

// amend applies change to the membership effective at effectiveEpoch. If the
// newest snapshot already sits at that epoch it is edited in place, otherwise
// its membership is cloned into a new snapshot. Changes always target the
// newest snapshot; effective epochs are current+1, which can never precede an
// existing snapshot.
func (s *Set) amend(addr velock.Address, effectiveEpoch uint32, change func([]velock.StakeID) ([]velock.StakeID, error)) error {
	history, err := s.histories.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to load beneficiary history")
	}

	var base []velock.StakeID
	if n := len(history); n > 0 {
		base = history[n-1].StakeIDs
		if history[n-1].Epoch == effectiveEpoch {
			history = history[:n-1]
		}
	}
	changed, err := change(append([]velock.StakeID(nil), base...))
	if err != nil {
		return err
	}
	history = append(history, Snapshot{Epoch: effectiveEpoch, StakeIDs: changed})
	return s.histories.Set(addr, history)
}
