// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger persists per-epoch power deltas in a namespace-addressable
// bitpacked store. Two consecutive epochs share one 32-byte storage word,
// halving the word reads of sequential epoch scans.
package ledger

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/metrics"
	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/velock"
)

var (
	metricWordReads  = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("ledger_word_reads_count") })
	metricWordWrites = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("ledger_word_writes_count") })
)

var (
	// halfBound is 2^127, the exclusive magnitude bound of one packed half-word.
	halfBound = new(big.Int).Lsh(big.NewInt(1), 127)
	// wordModulus is 2^128, used for two's complement conversion.
	wordModulus = new(big.Int).Lsh(big.NewInt(1), 128)
)

// TotalPowerNamespace returns the namespace of the global power ledger.
func TotalPowerNamespace() velock.Bytes32 {
	return slots.NameToSlot("total-power")
}

// PowerNamespace returns the per-beneficiary ledger namespace of an address.
func PowerNamespace(beneficiary velock.Address) velock.Bytes32 {
	return velock.Blake2b([]byte("beneficiary-power"), beneficiary.Bytes())
}

// Service provides epoch-indexed access to signed deltas within namespaces.
// All writers use the additive Update, never blind overwrite, because multiple
// independent stakes contribute to the same epoch slot. Set exists solely for
// the fold that rewrites deltas into absolute totals.
type Service struct {
	sctx *slots.Context
}

// New creates a ledger service over the given slot context.
func New(sctx *slots.Context) *Service {
	return &Service{sctx: sctx}
}

// Get reads the value stored for (namespace, epoch). Missing entries read as zero.
func (s *Service) Get(namespace velock.Bytes32, epoch uint32) (*big.Int, error) {
	word, err := s.sctx.State().GetStorage(s.sctx.Address(), wordSlot(namespace, epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ledger word")
	}
	metricWordReads().Add(1)
	return unpackHalf(word, epoch), nil
}

// Update adds delta to the value stored for (namespace, epoch).
func (s *Service) Update(namespace velock.Bytes32, epoch uint32, delta *big.Int) error {
	if delta.Sign() == 0 {
		return nil
	}
	return s.write(namespace, epoch, delta, true)
}

// Set overwrites the value stored for (namespace, epoch).
func (s *Service) Set(namespace velock.Bytes32, epoch uint32, value *big.Int) error {
	return s.write(namespace, epoch, value, false)
}

func (s *Service) write(namespace velock.Bytes32, epoch uint32, value *big.Int, additive bool) error {
	slot := wordSlot(namespace, epoch)
	word, err := s.sctx.State().GetStorage(s.sctx.Address(), slot)
	if err != nil {
		return errors.Wrap(err, "failed to read ledger word")
	}
	metricWordReads().Add(1)

	next := value
	if additive {
		next = new(big.Int).Add(unpackHalf(word, epoch), value)
	}
	packed, err := packHalf(word, epoch, next)
	if err != nil {
		return err
	}
	s.sctx.State().SetStorage(s.sctx.Address(), slot, packed)
	metricWordWrites().Add(1)
	return nil
}

// FoldRange folds raw deltas of [from, to] into a running sum seeded with
// start, invoking visit with each epoch's cumulative value. It never writes.
func (s *Service) FoldRange(namespace velock.Bytes32, start *big.Int, from, to uint32, visit func(epoch uint32, total *big.Int) error) error {
	running := new(big.Int).Set(start)
	for e := from; ; e++ {
		delta, err := s.Get(namespace, e)
		if err != nil {
			return err
		}
		running.Add(running, delta)
		if visit != nil {
			if err := visit(e, running); err != nil {
				return err
			}
		}
		if e == to {
			return nil
		}
	}
}

// wordSlot derives the storage word holding the given epoch's half. Even and
// odd epochs of one pair address the same word.
func wordSlot(namespace velock.Bytes32, epoch uint32) velock.Bytes32 {
	var pair [4]byte
	binary.BigEndian.PutUint32(pair[:], epoch/2)
	return velock.Blake2b(namespace.Bytes(), pair[:])
}

// unpackHalf extracts the signed 128-bit half of a word selected by epoch
// parity: even epochs occupy the low 16 bytes, odd epochs the high 16 bytes.
func unpackHalf(word velock.Bytes32, epoch uint32) *big.Int {
	var half []byte
	if epoch%2 == 0 {
		half = word[16:]
	} else {
		half = word[:16]
	}
	v := new(big.Int).SetBytes(half)
	if v.Bit(127) == 1 {
		v.Sub(v, wordModulus)
	}
	return v
}

// packHalf writes the signed 128-bit value into the half of word selected by
// epoch parity, leaving the other half untouched.
func packHalf(word velock.Bytes32, epoch uint32, value *big.Int) (velock.Bytes32, error) {
	if value.CmpAbs(halfBound) >= 0 && !(value.Sign() < 0 && value.CmpAbs(halfBound) == 0) {
		return velock.Bytes32{}, errors.Errorf("ledger value %s exceeds 128-bit bound", value)
	}
	enc := value
	if value.Sign() < 0 {
		enc = new(big.Int).Add(wordModulus, value)
	}
	var half [16]byte
	enc.FillBytes(half[:])
	if epoch%2 == 0 {
		copy(word[16:], half[:])
	} else {
		copy(word[:16], half[:])
	}
	return word, nil
}
