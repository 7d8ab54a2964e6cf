// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/metrics"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
)

// DefaultAnimation is the length of the entrance animation for inserted
// elements.
const DefaultAnimation = 240 * time.Millisecond

// Options parameterizes one pass.
type Options struct {
	// Ordinal is the 1-based position of the slide, shown on the empty-slide
	// placeholder.
	Ordinal int
	// Editable makes content selectable and adds the empty-slide
	// affordances.
	Editable bool
	// Degrade disables shadows and entrance animations.
	Degrade bool
	// Insert names an element that was just added and should animate in.
	Insert string
	// Generation is the surface generation the pass runs under. Async work
	// started by the pass is dropped once it is no longer current.
	Generation uint64
}

// Ops counts the structural operations of one pass.
type Ops struct {
	Created int
	Updated int
	Moved   int
	Removed int
}

// Total returns the number of operations.
func (o Ops) Total() int { return o.Created + o.Updated + o.Moved + o.Removed }

// Stats accumulates over the reconciler's lifetime.
type Stats struct {
	Passes   uint64
	Failures uint64
	// Created counts display objects constructed. An element keeping its
	// id never adds to it.
	Created uint64
	Updated uint64
	Moved   uint64
	Removed uint64

	ImagesLoaded uint64
	ImagesFailed uint64
	// Stale counts completions dropped for an outdated generation.
	Stale uint64
	// Superseded counts completions dropped because the slot changed.
	Superseded uint64
}

// Config configures a Reconciler.
type Config struct {
	// Dispatcher receives async completions. Required when Loader is set.
	Dispatcher loop.Dispatcher
	Loader     resource.Loader
	// Current reports whether work started under generation may still touch
	// the target. Nil treats every generation as current.
	Current func(generation uint64) bool
	// Spawn runs background work. Nil starts a goroutine.
	Spawn func(func())
	// Animation is the entrance animation length. Zero selects
	// DefaultAnimation; negative disables it.
	Animation time.Duration
	// MaxFailures is the consecutive failure count that makes an error
	// persistent. Zero selects DefaultMaxFailures.
	MaxFailures int
	// OnError is called with persistent failures.
	OnError func(*Error)
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Reconciler mirrors slides onto a Target. It belongs to the UI goroutine
// and is not safe for concurrent use.
type Reconciler struct {
	cfg      Config
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	pending  map[string]*pendingLoad
	failures map[int]int
	stats    Stats
}

// New returns a Reconciler.
func New(cfg Config) *Reconciler {
	if cfg.Animation == 0 {
		cfg.Animation = DefaultAnimation
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Spawn == nil {
		cfg.Spawn = func(fn func()) { go fn() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		cfg:      cfg,
		logger:   logging.Or(cfg.Logger),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]*pendingLoad),
		failures: make(map[int]int),
	}
}

// Stats returns lifetime counters.
func (r *Reconciler) Stats() Stats { return r.stats }

// Failures returns the consecutive failure count of a slide.
func (r *Reconciler) Failures(slideID int) int { return r.failures[slideID] }

// PendingLoads returns the number of image loads in flight.
func (r *Reconciler) PendingLoads() int { return len(r.pending) }

// Cancel aborts in-flight image loads. Their completions are still
// delivered and dropped.
func (r *Reconciler) Cancel() {
	for id, p := range r.pending {
		p.cancel()
		delete(r.pending, id)
	}
}

// Close cancels in-flight loads for good.
func (r *Reconciler) Close() {
	r.Cancel()
	r.cancel()
}

// Reconcile runs one pass for slide against t. On failure the target shows
// a single error glyph and the returned error is an *Error.
func (r *Reconciler) Reconcile(t Target, slide document.Slide, opts Options) (Ops, error) {
	r.stats.Passes++
	ops, err := r.guarded(t, slide, opts)
	r.stats.Created += uint64(ops.Created)
	r.stats.Updated += uint64(ops.Updated)
	r.stats.Moved += uint64(ops.Moved)
	r.stats.Removed += uint64(ops.Removed)
	r.cfg.Metrics.Pass(ops.Created, ops.Updated, ops.Moved, ops.Removed)
	if err != nil {
		return ops, r.fail(t, slide.ID, err)
	}
	delete(r.failures, slide.ID)
	r.logger.Debug("reconcile: pass",
		"slide", slide.ID,
		"generation", opts.Generation,
		"created", ops.Created,
		"updated", ops.Updated,
		"moved", ops.Moved,
		"removed", ops.Removed)
	return ops, nil
}

func (r *Reconciler) guarded(t Target, slide document.Slide, opts Options) (ops Ops, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", errPanic, v)
		}
	}()
	return r.pass(t, slide, opts)
}

func (r *Reconciler) pass(t Target, slide document.Slide, opts Options) (Ops, error) {
	var ops Ops
	want := plan(slide, opts)
	byID := make(map[string]*desired, len(want))
	for i := range want {
		byID[want[i].id] = &want[i]
	}

	// Stale objects go first. An id that survives keeps its display object
	// even when the element type changed.
	var cur []string
	for _, o := range t.Objects() {
		if _, ok := byID[o.ID()]; ok {
			cur = append(cur, o.ID())
			continue
		}
		if err := t.Remove(o.ID()); err != nil {
			return ops, err
		}
		r.drop(o.ID())
		ops.Removed++
	}

	for i := range want {
		d := &want[i]
		o, ok := t.Lookup(d.id)
		if !ok {
			o = d.build()
			animate := opts.Insert == d.id && !opts.Degrade && r.cfg.Animation > 0
			if animate && !d.image {
				o.Animate(r.cfg.Animation)
			}
			if err := t.Insert(o, i); err != nil {
				return ops, err
			}
			cur = slices.Insert(cur, i, d.id)
			ops.Created++
			if d.image {
				r.load(t, d.id, d.source, opts.Generation, animate)
			}
			continue
		}

		if j := slices.Index(cur, d.id); j != i {
			if err := t.Move(d.id, i); err != nil {
				return ops, err
			}
			cur = slices.Delete(cur, j, j+1)
			cur = slices.Insert(cur, i, d.id)
			ops.Moved++
		}

		retype := !d.compatible(o)
		reload := d.image && (retype || o.Source != d.source || (o.Kind() == surface.KindLoading && !r.loading(d.id, d.source, opts.Generation)))
		if !reload && !retype && !d.differs(o) {
			continue
		}
		if retype && !d.image {
			r.drop(d.id)
		}
		if err := t.Update(d.id, func(o *surface.Object) {
			d.apply(o)
			switch {
			case reload:
				o.SetKind(surface.KindLoading)
				o.Image = nil
			case retype:
				o.SetKind(d.kind)
				o.Image = nil
			}
		}); err != nil {
			return ops, err
		}
		ops.Updated++
		if reload {
			r.load(t, d.id, d.source, opts.Generation, false)
		}
	}

	if ops.Total() > 0 {
		t.RequestRender()
	}
	return ops, nil
}

func (r *Reconciler) fail(t Target, slideID int, cause error) error {
	n := r.failures[slideID] + 1
	r.failures[slideID] = n
	r.stats.Failures++
	r.cfg.Metrics.Failure()
	r.Cancel()

	e := &Error{SlideID: slideID, Consecutive: n, Persistent: n >= r.cfg.MaxFailures, Err: cause}
	if err := showError(t); err != nil {
		r.logger.Error("reconcile: cannot show error glyph", "slide", slideID, "err", err)
	}
	r.logger.Error("reconcile: pass failed", "slide", slideID, "consecutive", n, "err", cause)
	if n == r.cfg.MaxFailures && r.cfg.OnError != nil {
		r.cfg.OnError(e)
	}
	return e
}

// showError replaces the display list with a single error glyph.
func showError(t Target) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", errPanic, v)
		}
	}()
	if err := t.Clear(); err != nil {
		return err
	}
	if err := t.Insert(errorGlyph(), 0); err != nil {
		return err
	}
	t.RequestRender()
	return nil
}
