// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gogpu/slidecanvas/config"
	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/metrics"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
)

// Stats summarizes an engine.
type Stats struct {
	Mounts   int
	Surfaces surface.ManagerStats
}

// Engine binds a document store to any number of mount points.
type Engine struct {
	store   document.Store
	cfg     config.Config
	logger  *slog.Logger
	d       loop.Dispatcher
	loop    *loop.Loop
	mgr     *surface.Manager
	loader  resource.Loader
	metrics *metrics.Recorder
	spawn   func(func())

	handles     map[string]*Handle
	unsubscribe func()
	closed      bool
}

// New returns an engine over store. Invalid configuration falls back to
// the defaults with a logged error.
func New(store document.Store, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.Or(o.logger)
	if err := o.cfg.Validate(); err != nil {
		logger.Error("slidecanvas: invalid configuration, using defaults", "err", err)
		backend := o.cfg.Surface.Backend
		o.cfg = config.Default()
		o.cfg.Surface.Backend = backend
	}

	e := &Engine{
		store:   store,
		cfg:     o.cfg,
		logger:  logger,
		d:       o.dispatcher,
		loader:  o.loader,
		spawn:   o.spawn,
		handles: make(map[string]*Handle),
	}
	if o.registerer != nil {
		e.metrics = metrics.New(o.registerer)
	}
	if e.d == nil {
		e.loop = loop.New()
		e.d = e.loop
	}
	if e.loader == nil {
		lo := o.cfg.Loader()
		lo.Logger = logger
		lo.OnLoad = func(scheme resource.Scheme, err error, elapsed time.Duration) {
			e.metrics.ImageLoad(scheme.String(), err == nil, elapsed.Seconds())
		}
		e.loader = resource.NewLoader(lo)
	}
	clock := o.clock
	if clock == nil {
		clock = frame.NewTickerClock(e.d, o.cfg.Render.FrameInterval)
	}
	e.mgr = surface.NewManager(surface.ManagerOptions{
		Dispatcher:    e.d,
		Clock:         clock,
		Registry:      o.registry,
		Backend:       o.cfg.Surface.Backend,
		Policy:        o.cfg.Policy(),
		MaxAttempts:   o.cfg.Surface.MaxAttempts,
		RetryDelay:    o.cfg.Surface.RetryDelay,
		BackoffFactor: o.cfg.Surface.BackoffFactor,
		Fonts:         o.fonts,
		Logger:        logger,
		OnGeneration:  e.onGeneration,
	})
	e.unsubscribe = store.Subscribe(e.onChange)
	return e
}

// Run runs the engine's own loop until ctx is done. It returns immediately
// with an error when the engine was built WithDispatcher.
func (e *Engine) Run(ctx context.Context) error {
	if e.loop == nil {
		return errors.New("slidecanvas: engine uses an external dispatcher")
	}
	return e.loop.Run(ctx)
}

// Dispatcher returns the dispatcher engine methods must run on.
func (e *Engine) Dispatcher() loop.Dispatcher { return e.d }

// Config returns the effective configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Stats returns engine counters.
func (e *Engine) Stats() Stats {
	return Stats{Mounts: len(e.handles), Surfaces: e.mgr.Stats()}
}

// Handles returns the mounted handles ordered by mount id.
func (e *Engine) Handles() []*Handle {
	out := make([]*Handle, 0, len(e.handles))
	for _, h := range e.handles {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b *Handle) int {
		switch {
		case a.mount.ID() < b.mount.ID():
			return -1
		case a.mount.ID() > b.mount.ID():
			return 1
		}
		return 0
	})
	return out
}

// Mount binds slideID to mount and starts acquiring its surface. The handle
// is returned before the surface is live; OnError listeners learn about
// initialization failures.
func (e *Engine) Mount(mount surface.Mount, slideID int, editable bool, zoom float64) (*Handle, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if mount == nil || mount.ID() == "" {
		return nil, fmt.Errorf("slidecanvas: mount point needs an id")
	}
	if _, ok := e.handles[mount.ID()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyMounted, mount.ID())
	}
	if _, ok := e.store.Slide(slideID); !ok {
		return nil, fmt.Errorf("%w: %d", document.ErrSlideNotFound, slideID)
	}
	h := newHandle(e, mount, slideID, editable, zoom)
	e.handles[mount.ID()] = h
	e.logger.Info("slidecanvas: mounted", "handle", h.id, "mount", mount.ID(), "slide", slideID, "editable", editable)
	h.acquire()
	return h, nil
}

// Close disposes every handle and stops listening to the store. It is
// idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	for _, h := range e.Handles() {
		h.Dispose()
	}
	e.closed = true
	e.unsubscribe()
	return nil
}

// onChange receives store notifications on the writer's goroutine and
// moves them onto the dispatcher.
func (e *Engine) onChange(c document.Change) {
	e.d.Post(func() {
		if e.closed {
			return
		}
		for _, h := range e.Handles() {
			h.onChange(c)
		}
	})
}

func (e *Engine) onGeneration(mount string, gen uint64) {
	e.metrics.SurfaceGeneration(mount, gen)
	e.metrics.SurfaceDisposed()
}

// ordinal returns the 1-based position of a slide.
func (e *Engine) ordinal(slideID int) int {
	if o, ok := e.store.(interface{ Ordinal(int) int }); ok {
		return o.Ordinal(slideID)
	}
	for i, sl := range e.store.Slides() {
		if sl.ID == slideID {
			return i + 1
		}
	}
	return 0
}
