// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/viewport"
)

// Acquisition defaults.
const (
	DefaultMaxAttempts   = 10
	DefaultRetryDelay    = 16 * time.Millisecond
	DefaultBackoffFactor = 1.5
	maxRetryDelay        = time.Second
)

// State is the state of a Handle.
type State int

// Handle states.
const (
	StatePending State = iota
	StateLive
	StateErrored
	StateReleased
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLive:
		return "live"
	case StateErrored:
		return "errored"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Handle is the result of Acquire. It stays valid until released or
// replaced by an acquisition with a different editable flag.
type Handle struct {
	mount      Mount
	editable   bool
	zoom       float64
	state      State
	surface    *Surface
	err        error
	generation uint64
	attempts   int
	waiters    []func(*Handle, error)
}

// Mount returns the mount point.
func (h *Handle) Mount() Mount { return h.mount }

// Editable reports the editable flag the surface was constructed with.
func (h *Handle) Editable() bool { return h.editable }

// State returns the handle state.
func (h *Handle) State() State { return h.state }

// Err returns the initialization error of an errored handle.
func (h *Handle) Err() error { return h.err }

// Surface returns the live surface, or nil.
func (h *Handle) Surface() *Surface {
	if h.state != StateLive {
		return nil
	}
	return h.surface
}

// Generation returns the mount generation the surface was created in.
func (h *Handle) Generation() uint64 { return h.generation }

// Attempts returns how many acquisition attempts were made.
func (h *Handle) Attempts() int { return h.attempts }

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Dispatcher loop.Dispatcher
	Clock      frame.Clock
	Registry   *Registry
	// Backend selects a painter backend by name; empty picks the best
	// available.
	Backend       string
	Policy        viewport.Policy
	MaxAttempts   int
	RetryDelay    time.Duration
	BackoffFactor float64
	Fonts         *Fonts
	Logger        *slog.Logger
	// OnGeneration is called whenever a mount generation changes.
	OnGeneration func(mount string, generation uint64)
}

// ManagerStats counts surface lifecycle events.
type ManagerStats struct {
	Created  uint64
	Disposed uint64
	Failed   uint64
}

type slot struct {
	handle     *Handle
	generation uint64
}

// Manager owns surface creation and disposal per mount point.
type Manager struct {
	opts   ManagerOptions
	logger *slog.Logger
	slots  map[string]*slot
	stats  ManagerStats
}

// NewManager returns a manager. Dispatcher is required; Clock defaults to a
// TickerClock on the dispatcher.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = frame.NewTickerClock(opts.Dispatcher, 0)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.BackoffFactor < 1 {
		opts.BackoffFactor = DefaultBackoffFactor
	}
	if opts.Policy == (viewport.Policy{}) {
		opts.Policy = viewport.DefaultPolicy()
	}
	return &Manager{
		opts:   opts,
		logger: logging.Or(opts.Logger),
		slots:  make(map[string]*slot),
	}
}

// Stats returns lifecycle counters.
func (m *Manager) Stats() ManagerStats { return m.stats }

// Generation returns the current generation of a mount.
func (m *Manager) Generation(mountID string) uint64 {
	if sl, ok := m.slots[mountID]; ok {
		return sl.generation
	}
	return 0
}

// Current reports whether work started under (mountID, generation) may
// still touch the mount's surface.
func (m *Manager) Current(mountID string, generation uint64) bool {
	sl, ok := m.slots[mountID]
	if !ok || sl.generation != generation || sl.handle == nil {
		return false
	}
	return sl.handle.state == StateLive
}

// Live reports whether h holds the live surface of its mount.
func (m *Manager) Live(h *Handle) bool {
	return h != nil && h.state == StateLive && m.Current(h.mount.ID(), h.generation)
}

// Acquire binds a surface to mount. It is idempotent while mount and
// editable are unchanged. When editable changes, the old surface is disposed
// before the new one is created.
//
// done is called once the handle is live or errored; it may be called
// before Acquire returns.
func (m *Manager) Acquire(mount Mount, editable bool, zoom float64, done func(*Handle, error)) *Handle {
	id := mount.ID()
	sl, ok := m.slots[id]
	if !ok {
		sl = &slot{}
		m.slots[id] = sl
	}

	if h := sl.handle; h != nil {
		// Slots are keyed by id, so a different Mount value with the same
		// id is the same container and is adopted.
		if h.editable == editable {
			h.mount = mount
			switch h.state {
			case StateLive:
				h.zoom = zoom
				notify(done, h, nil)
				return h
			case StatePending:
				h.zoom = zoom
				if done != nil {
					h.waiters = append(h.waiters, done)
				}
				return h
			case StateErrored:
				notify(done, h, h.err)
				return h
			}
		}
		m.release(sl, h)
	}

	h := &Handle{mount: mount, editable: editable, zoom: zoom, generation: sl.generation}
	if done != nil {
		h.waiters = append(h.waiters, done)
	}
	sl.handle = h
	m.attempt(h)
	return h
}

// Reset retries acquisition for an errored handle and returns the new
// handle. It is the host's retry affordance after an InitializationError.
func (m *Manager) Reset(h *Handle, done func(*Handle, error)) *Handle {
	sl, ok := m.slots[h.mount.ID()]
	if ok && sl.handle == h {
		sl.handle = nil
	}
	return m.Acquire(h.mount, h.editable, h.zoom, done)
}

// Release disposes the surface of h. Work carrying the old generation is
// invalidated. Releasing twice is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil || h.state == StateReleased {
		return
	}
	sl, ok := m.slots[h.mount.ID()]
	if !ok || sl.handle != h {
		h.state = StateReleased
		return
	}
	m.release(sl, h)
	delete(m.slots, h.mount.ID())
	// Keep the generation monotonic if the mount is acquired again.
	m.slots[h.mount.ID()] = &slot{generation: sl.generation}
}

// Transform computes the viewport transform for h's mount at zoom.
func (m *Manager) Transform(h *Handle, zoom float64) viewport.Transform {
	w, ht := h.mount.Size()
	return viewport.Compute(m.opts.Policy, viewport.Input{
		ContainerWidth:   w,
		ContainerHeight:  ht,
		Zoom:             zoom,
		DevicePixelRatio: h.mount.DevicePixelRatio(),
	})
}

// Resize re-applies the mount size and zoom to h's surface.
func (m *Manager) Resize(h *Handle, zoom float64) (viewport.Transform, error) {
	if !m.Live(h) {
		return viewport.Transform{}, ErrHandleReleased
	}
	h.zoom = zoom
	t := m.Transform(h, zoom)
	return t, h.surface.Resize(t)
}

func (m *Manager) release(sl *slot, h *Handle) {
	prev := h.state
	h.state = StateReleased
	h.waiters = nil
	if sl.handle == h {
		sl.handle = nil
	}
	if prev != StateLive {
		return
	}
	if err := h.surface.Dispose(); err != nil {
		m.logger.Warn("surface: dispose failed", "mount", h.mount.ID(), "err", err)
	}
	sl.generation++
	m.stats.Disposed++
	m.logger.Info("surface: disposed", "mount", h.mount.ID(), "generation", sl.generation)
	if m.opts.OnGeneration != nil {
		m.opts.OnGeneration(h.mount.ID(), sl.generation)
	}
}

func (m *Manager) attempt(h *Handle) {
	sl, ok := m.slots[h.mount.ID()]
	if !ok || sl.handle != h || h.state != StatePending {
		return
	}
	h.attempts++

	if !h.mount.Attached() {
		if h.attempts >= m.opts.MaxAttempts {
			m.fail(h, ErrMountDetached)
			return
		}
		delay := m.retryDelay(h.attempts)
		m.logger.Debug("surface: mount not attached, retrying", "mount", h.mount.ID(), "attempt", h.attempts, "delay", delay)
		m.opts.Dispatcher.PostAfter(delay, func() { m.attempt(h) })
		return
	}

	s, err := m.construct(h)
	if err != nil {
		m.fail(h, err)
		return
	}
	h.surface = s
	h.state = StateLive
	h.generation = sl.generation
	m.stats.Created++
	m.logger.Info("surface: acquired",
		"mount", h.mount.ID(),
		"editable", h.editable,
		"generation", h.generation,
		"size", fmt.Sprintf("%dx%d", s.transform.SurfaceWidth, s.transform.SurfaceHeight))
	m.flush(h, nil)
}

// construct builds painter and surface, converting panics from backends
// into errors.
func (m *Manager) construct(h *Handle) (s *Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("surface: backend panicked: %v", r)
		}
	}()
	t := m.Transform(h, h.zoom)
	bo := BackendOptions{Width: t.SurfaceWidth, Height: t.SurfaceHeight, Fonts: m.opts.Fonts}
	if gm, ok := h.mount.(GPUMount); ok {
		bo.Provider = gm.DeviceProvider()
	}
	p, err := m.opts.Registry.New(m.opts.Backend, bo)
	if err != nil {
		return nil, err
	}
	return New(h.mount.ID(), p, Options{
		Editable:  h.editable,
		Transform: t,
		Clock:     m.opts.Clock,
		Logger:    m.logger,
	}), nil
}

func (m *Manager) fail(h *Handle, cause error) {
	h.state = StateErrored
	h.err = &InitializationError{Mount: h.mount.ID(), Attempts: h.attempts, Err: cause}
	m.stats.Failed++
	m.logger.Error("surface: initialization failed", "mount", h.mount.ID(), "attempts", h.attempts, "err", cause)
	m.flush(h, h.err)
}

func (m *Manager) flush(h *Handle, err error) {
	waiters := h.waiters
	h.waiters = nil
	for _, fn := range waiters {
		fn(h, err)
	}
}

func (m *Manager) retryDelay(attempt int) time.Duration {
	d := float64(m.opts.RetryDelay) * math.Pow(m.opts.BackoffFactor, float64(attempt-1))
	return min(time.Duration(d), maxRetryDelay)
}

func notify(done func(*Handle, error), h *Handle, err error) {
	if done != nil {
		done(h, err)
	}
}
