// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/velocknet/velock/epoch"
	"github.com/velocknet/velock/kv"
	"github.com/velocknet/velock/staking"
	"github.com/velocknet/velock/state"
	"github.com/velocknet/velock/velock"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "velock",
		Usage:     "vote-escrow staking engine toolkit",
		Copyright: "2025 velock developers",
		Flags: []cli.Flag{
			verbosityFlag,
			jsonLogFlag,
		},
		Commands: []cli.Command{
			{
				Name:  "simulate",
				Usage: "preview the power decay curve of a prospective stake",
				Flags: []cli.Flag{
					amountFlag,
					lockupFlag,
					verbosityFlag,
					jsonLogFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: simulateAction,
			},
			{
				Name:  "epoch",
				Usage: "show epoch clock information",
				Flags: []cli.Flag{
					genesisFlag,
					epochLengthFlag,
					verbosityFlag,
					jsonLogFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: epochAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func simulateAction(ctx *cli.Context) error {
	initLogger(ctx)

	closeMetrics, err := initMetrics(ctx)
	if err != nil {
		return err
	}
	defer closeMetrics()

	amount, err := parseAmount(ctx.String(amountFlag.Name))
	if err != nil {
		return err
	}
	lockup := uint32(ctx.Uint64(lockupFlag.Name))

	// a throwaway in-memory engine; simulation never persists anything
	st := state.New(kv.NewMem())
	clock, err := epoch.NewClock(uint64(time.Now().Unix()), velock.DefaultEpochLength, nil)
	if err != nil {
		return err
	}
	engine := staking.New(velock.BytesToAddress([]byte("velock-engine")), st, clock)

	curve, err := engine.SimulateStakePowers(amount, lockup)
	if err != nil {
		return err
	}

	fmt.Printf("decay curve for amount %s, lockup %d epochs:\n", amount, lockup)
	for _, point := range curve {
		fmt.Printf("  epoch %6d  power %s\n", point.Epoch, point.Power)
	}
	return nil
}

func epochAction(ctx *cli.Context) error {
	initLogger(ctx)

	closeMetrics, err := initMetrics(ctx)
	if err != nil {
		return err
	}
	defer closeMetrics()

	genesis := ctx.Uint64(genesisFlag.Name)
	length := ctx.Uint64(epochLengthFlag.Name)

	clock, err := epoch.NewClock(genesis, length, nil)
	if err != nil {
		return err
	}

	current := clock.Current()
	fmt.Printf("genesis timestamp: %d\n", clock.Genesis())
	fmt.Printf("epoch length:      %ds\n", clock.Length())
	fmt.Printf("current epoch:     %d\n", current)
	fmt.Printf("next epoch at:     %s\n", time.Unix(int64(clock.Genesis()+uint64(current+1)*clock.Length()), 0).Format(time.RFC3339))
	return nil
}
