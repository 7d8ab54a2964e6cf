// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package perf measures the achieved frame rate of a surface and decides
// when rendering should degrade.
package perf

import (
	"log/slog"
	"time"

	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/metrics"
)

// Defaults for Options.
const (
	DefaultWindow     = time.Second
	DefaultMinFPS     = 30
	DefaultIdleGap    = 250 * time.Millisecond
	DefaultMinSamples = 5
)

// Options configures a Monitor.
type Options struct {
	// Window is the rolling window frame rate is measured over.
	Window time.Duration
	// MinFPS is the lowest frame rate still considered good.
	MinFPS float64
	// IdleGap is the longest pause between frames that still counts as
	// continuous rendering. A longer pause restarts the measurement, since a
	// surface that is idle is not slow.
	IdleGap time.Duration
	// MinSamples is the number of frame intervals needed before the
	// monitor judges performance. Below it, performance is good.
	MinSamples int
	// Adaptive lets a bad frame rate turn on degrade mode.
	Adaptive bool
	// Mount labels the metrics series.
	Mount   string
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// State is the monitor's verdict.
type State struct {
	FPS     float64
	Good    bool
	Degrade bool
}

// Monitor keeps a rolling window of frame timestamps. It belongs to the UI
// goroutine and is not safe for concurrent use.
type Monitor struct {
	opts      Options
	logger    *slog.Logger
	frames    []time.Time
	state     State
	listeners map[int]func(State)
	nextID    int
}

// New returns a monitor that considers performance good until measured.
func New(opts Options) *Monitor {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MinFPS <= 0 {
		opts.MinFPS = DefaultMinFPS
	}
	if opts.IdleGap <= 0 {
		opts.IdleGap = DefaultIdleGap
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	return &Monitor{
		opts:      opts,
		logger:    logging.Or(opts.Logger),
		state:     State{Good: true},
		listeners: make(map[int]func(State)),
	}
}

// Observe records a painted frame. It has the signature of
// frame.Scheduler.Observe callbacks.
func (m *Monitor) Observe(now time.Time) {
	if n := len(m.frames); n > 0 && now.Sub(m.frames[n-1]) > m.opts.IdleGap {
		m.frames = m.frames[:0]
	}
	m.frames = append(m.frames, now)

	cutoff := now.Add(-m.opts.Window)
	drop := 0
	for drop < len(m.frames) && m.frames[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		m.frames = append(m.frames[:0], m.frames[drop:]...)
	}
	m.update()
}

// FPS returns the frame rate over the window, or 0 with fewer than two
// frames.
func (m *Monitor) FPS() float64 { return m.state.FPS }

// Good reports whether the frame rate is at least MinFPS. It is true until
// enough frames have been observed.
func (m *Monitor) Good() bool { return m.state.Good }

// Degrade reports whether rendering should degrade.
func (m *Monitor) Degrade() bool { return m.state.Degrade }

// State returns the current verdict.
func (m *Monitor) State() State { return m.state }

// Adaptive reports whether degrade mode may engage.
func (m *Monitor) Adaptive() bool { return m.opts.Adaptive }

// SetAdaptive opts in or out of degrade mode.
func (m *Monitor) SetAdaptive(on bool) {
	m.opts.Adaptive = on
	m.update()
}

// Reset forgets all samples, e.g. after the surface was replaced.
func (m *Monitor) Reset() {
	m.frames = m.frames[:0]
	m.update()
}

// OnChange registers fn to run whenever Good or Degrade flips.
func (m *Monitor) OnChange(fn func(State)) (remove func()) {
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Monitor) update() {
	next := State{Good: true}
	if n := len(m.frames); n >= 2 {
		span := m.frames[n-1].Sub(m.frames[0]).Seconds()
		if span > 0 {
			next.FPS = float64(n-1) / span
		}
		if n-1 >= m.opts.MinSamples {
			next.Good = next.FPS >= m.opts.MinFPS
		}
	}
	next.Degrade = m.opts.Adaptive && !next.Good

	prev := m.state
	m.state = next
	m.opts.Metrics.Frames(m.opts.Mount, next.FPS, next.Degrade)
	if prev.Good == next.Good && prev.Degrade == next.Degrade {
		return
	}
	m.logger.Info("perf: performance changed",
		"mount", m.opts.Mount,
		"fps", next.FPS,
		"good", next.Good,
		"degrade", next.Degrade)
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[id]; ok {
			fn(next)
		}
	}
}
