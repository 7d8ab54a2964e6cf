// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"log/slog"

	"github.com/gogpu/slidecanvas/internal/logging"
)

// SetLogger configures the logger for slidecanvas and all its sub-packages.
// By default, slidecanvas produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by slidecanvas:
//   - [slog.LevelDebug]: per-pass reconciliation counts, acquisition retries
//   - [slog.LevelInfo]: surface lifecycle, generation changes, degrade flips
//   - [slog.LevelWarn]: dropped edit events, failed images, stale completions
//   - [slog.LevelError]: failed reconciliation passes, exhausted acquisition
//
// Example:
//
//	slidecanvas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by slidecanvas.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
