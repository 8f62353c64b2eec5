// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	LevelTrace = slog.LevelDebug - 4
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.LevelError + 4

	levelMaxVerbosity = LevelTrace
)

// Logger is the structured logger used across the engine.
type Logger = *slog.Logger

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(DiscardHandler()))
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() Logger {
	return root.Load()
}

// New returns a logger emitting through the given handler.
func New(h slog.Handler) Logger {
	return slog.New(h)
}

// WithContext returns a logger that always reports the given key/value context.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// The following functions bypass the exported logger methods (logger.Debug etc.)
// to keep the call depth the same for all paths.

// Trace logs at the trace level on the root logger.
func Trace(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelTrace, msg, ctx...)
}

// Debug logs at the debug level on the root logger.
func Debug(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelDebug, msg, ctx...)
}

// Info logs at the info level on the root logger.
func Info(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelInfo, msg, ctx...)
}

// Warn logs at the warn level on the root logger.
func Warn(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelWarn, msg, ctx...)
}

// Error logs at the error level on the root logger.
func Error(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelError, msg, ctx...)
}

// Crit logs at the crit level on the root logger and exits.
func Crit(msg string, ctx ...any) {
	Root().Log(context.Background(), LevelCrit, msg, ctx...)
	os.Exit(1)
}

// LevelString returns a 5-character string containing the name of a Lvl.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCrit:
		return "crit"
	default:
		return "unknown"
	}
}
