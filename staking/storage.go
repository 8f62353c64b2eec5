// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/velock"
)

// storage is the append-only stake record store. Records are never deleted:
// historical power queries fold over stakes that were members at past epochs,
// retired or not.
type storage struct {
	stakes  *slots.Mapping[velock.StakeID, *Stake]
	counter *slots.Uint256
}

func newStorage(sctx *slots.Context) *storage {
	return &storage{
		stakes:  slots.NewMapping[velock.StakeID, *Stake](sctx, slots.NameToSlot("stakes")),
		counter: slots.NewUint256(sctx, slots.NameToSlot("stakes-counter")),
	}
}

// mintID allocates the next stake id. Ids start at 1; zero is reserved as the
// null id.
func (s *storage) mintID() (velock.StakeID, error) {
	current, err := s.counter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read stake counter")
	}
	next := new(big.Int).Add(current, big.NewInt(1))
	s.counter.Set(next)
	return velock.StakeID(next.Uint64()), nil
}

func (s *storage) getStake(id velock.StakeID) (*Stake, error) {
	stake, err := s.stakes.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load stake")
	}
	if stake == nil || stake.IsEmpty() {
		return nil, reverts.ErrStakeNotFound
	}
	return stake, nil
}

func (s *storage) setStake(id velock.StakeID, stake *Stake) error {
	return errors.Wrap(s.stakes.Set(id, stake), "failed to store stake")
}
