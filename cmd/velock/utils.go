// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/velocknet/velock/log"
	"github.com/velocknet/velock/metrics"
)

func initLogger(ctx *cli.Context) {
	level := new(slog.LevelVar)
	level.Set(verbosityToLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogFlag.Name) {
		handler = log.JSONHandler(os.Stderr)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(slog.New(handler))
}

func verbosityToLevel(verbosity int) slog.Level {
	switch verbosity {
	case 0:
		return slog.LevelError + 4 // crit only
	case 1:
		return slog.LevelError
	case 2:
		return slog.LevelWarn
	case 3:
		return slog.LevelInfo
	case 4:
		return slog.LevelDebug
	default:
		return slog.LevelDebug - 4 // trace
	}
}

// initMetrics switches the metrics backend to prometheus and serves it over
// http when enabled. The returned close func is always safe to defer.
func initMetrics(ctx *cli.Context) (func(), error) {
	if !ctx.Bool(enableMetricsFlag.Name) {
		return func() {}, nil
	}

	metrics.InitializePrometheusMetrics()

	url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
	if err != nil {
		return nil, errors.Wrap(err, "unable to start metrics server")
	}
	log.Info("metrics server started", "url", url)
	return closeFunc, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(listener)
	}()
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		<-done
	}, nil
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return amount, nil
}
