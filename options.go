// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/slidecanvas/config"
	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Defaults: goroutine-backed loop, best available backend
//	eng := slidecanvas.New(store)
//
//	// Deterministic, pixel-less engine for tests
//	d := loop.NewManual(time.Now())
//	eng := slidecanvas.New(store, slidecanvas.WithDispatcher(d), slidecanvas.WithBackend(surface.BackendHeadless))
type Option func(*engineOptions)

type engineOptions struct {
	cfg        config.Config
	logger     *slog.Logger
	registerer prometheus.Registerer
	dispatcher loop.Dispatcher
	clock      frame.Clock
	loader     resource.Loader
	registry   *surface.Registry
	fonts      *surface.Fonts
	spawn      func(func())
}

func defaultOptions() engineOptions {
	return engineOptions{cfg: config.Default()}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *engineOptions) {
		o.cfg = cfg
	}
}

// WithBackend selects a painter backend by name, overriding the
// configuration.
func WithBackend(name string) Option {
	return func(o *engineOptions) {
		o.cfg.Surface.Backend = name
	}
}

// WithLogger sets the logger for this engine instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithRegisterer enables Prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *engineOptions) {
		o.registerer = reg
	}
}

// WithDispatcher sets the UI dispatcher. Without it the engine creates a
// loop.Loop that the host runs with Engine.Run.
func WithDispatcher(d loop.Dispatcher) Option {
	return func(o *engineOptions) {
		o.dispatcher = d
	}
}

// WithClock sets the frame clock. The default is a TickerClock on the
// dispatcher at the configured frame interval.
func WithClock(c frame.Clock) Option {
	return func(o *engineOptions) {
		o.clock = c
	}
}

// WithLoader replaces the image loader.
func WithLoader(l resource.Loader) Option {
	return func(o *engineOptions) {
		o.loader = l
	}
}

// WithRegistry sets the painter backend registry.
func WithRegistry(r *surface.Registry) Option {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithFonts shares a font cache between engines.
func WithFonts(f *surface.Fonts) Option {
	return func(o *engineOptions) {
		o.fonts = f
	}
}

// WithSpawn sets how background image work is started. The default runs
// each load on its own goroutine.
func WithSpawn(spawn func(func())) Option {
	return func(o *engineOptions) {
		o.spawn = spawn
	}
}
