// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package totals maintains the system-wide power series. Epochs at or below a
// monotonic watermark hold folded absolute values and are immutable; epochs
// above it hold raw deltas that are still open to scheduling.
package totals

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/velocknet/velock/log"
	"github.com/velocknet/velock/metrics"
	"github.com/velocknet/velock/slots"
	"github.com/velocknet/velock/staking/ledger"
	"github.com/velocknet/velock/staking/reverts"
	"github.com/velocknet/velock/velock"
)

var (
	logger = log.WithContext("pkg", "totals")

	metricFoldedEpochs = metrics.LazyLoad(func() metrics.CountMeter { return metrics.Counter("totals_folded_epochs_count") })
	metricWatermark    = metrics.LazyLoad(func() metrics.GaugeMeter { return metrics.Gauge("totals_watermark_epoch_gauge") })
)

// Accumulator folds the total-power delta ledger into absolute values.
type Accumulator struct {
	ledger    *ledger.Service
	watermark *slots.Uint256
	namespace velock.Bytes32
}

// New creates an accumulator over the total-power namespace. A fresh state has
// watermark zero: epoch 0 starts with no stakes, so its total of zero is
// already a folded absolute value.
func New(sctx *slots.Context, ldg *ledger.Service) *Accumulator {
	return &Accumulator{
		ledger:    ldg,
		watermark: slots.NewUint256(sctx, slots.NameToSlot("last-calculated-total-power-epoch")),
		namespace: ledger.TotalPowerNamespace(),
	}
}

// Watermark returns the newest epoch whose total is folded and immutable.
func (a *Accumulator) Watermark() (uint32, error) {
	raw, err := a.watermark.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read total power watermark")
	}
	return uint32(raw.Uint64()), nil
}

// TotalPowerAt returns the total power at the given epoch. At or below the
// watermark this is a single absolute read; above it the raw deltas are folded
// on the fly without persisting anything.
func (a *Accumulator) TotalPowerAt(epoch uint32) (*big.Int, error) {
	mark, err := a.Watermark()
	if err != nil {
		return nil, err
	}
	if epoch <= mark {
		return a.ledger.Get(a.namespace, epoch)
	}

	total, err := a.ledger.Get(a.namespace, mark)
	if err != nil {
		return nil, err
	}
	err = a.ledger.FoldRange(a.namespace, total, mark+1, epoch, func(_ uint32, running *big.Int) error {
		total.Set(running)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// CalculateUpTo folds raw deltas into absolute totals for every epoch in
// (watermark, epoch] and advances the watermark. Only completed epochs may be
// folded, and each epoch is folded exactly once.
func (a *Accumulator) CalculateUpTo(epoch, currentEpoch uint32) error {
	if epoch > currentEpoch {
		return reverts.ErrEpochStillRunning
	}
	mark, err := a.Watermark()
	if err != nil {
		return err
	}
	if epoch <= mark {
		return reverts.ErrPowerAlreadyCalculated
	}

	total, err := a.ledger.Get(a.namespace, mark)
	if err != nil {
		return err
	}
	err = a.ledger.FoldRange(a.namespace, total, mark+1, epoch, func(e uint32, running *big.Int) error {
		if running.Sign() < 0 {
			return errors.Wrapf(reverts.ErrNegativePower, "epoch %d folds to %s", e, running)
		}
		return a.ledger.Set(a.namespace, e, running)
	})
	if err != nil {
		return err
	}

	a.watermark.Set(new(big.Int).SetUint64(uint64(epoch)))
	metricFoldedEpochs().Add(int64(epoch - mark))
	metricWatermark().Set(int64(epoch))
	logger.Debug("folded total power", "from", mark+1, "to", epoch)
	return nil
}

// ApplyDelta schedules a total-power delta at the given epoch. Folded epochs
// are immutable; a delta landing at or below the watermark means the scheduler
// produced an effective epoch in the past, which is a bug, not bad input.
func (a *Accumulator) ApplyDelta(epoch uint32, delta *big.Int) error {
	mark, err := a.Watermark()
	if err != nil {
		return err
	}
	if epoch <= mark {
		return errors.Wrapf(reverts.ErrImmutableEpoch, "delta at epoch %d, watermark %d", epoch, mark)
	}
	return a.ledger.Update(a.namespace, epoch, delta)
}
