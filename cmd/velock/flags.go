// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/velocknet/velock/velock"
)

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogFlag = cli.BoolFlag{
		Name:  "json-log",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Value: "1000",
		Usage: "stake amount, a multiple of the minimum increment",
	}
	lockupFlag = cli.Uint64Flag{
		Name:  "lockup",
		Value: uint64(velock.EpochsInYear),
		Usage: "lockup duration in epochs",
	}
	genesisFlag = cli.Uint64Flag{
		Name:  "genesis",
		Value: uint64(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Unix()),
		Usage: "unix timestamp epoch 0 starts at",
	}
	epochLengthFlag = cli.Uint64Flag{
		Name:  "epoch-length",
		Value: velock.DefaultEpochLength,
		Usage: "epoch length in seconds",
	}
)
