// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package edit

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/metrics"
	"github.com/gogpu/slidecanvas/surface"
)

// Edit outcomes as reported to metrics.
const (
	OutcomeApplied  = "applied"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
)

// Source is the surface side of the bridge. *surface.Surface implements it.
type Source interface {
	On(fn func(surface.Event)) (remove func())
	Lookup(id string) (*surface.Object, bool)
	Update(id string, fn func(*surface.Object)) error
}

var _ Source = (*surface.Surface)(nil)

// Store is the model side of the bridge. document.Store implements it.
type Store interface {
	Slide(id int) (document.Slide, bool)
	UpdateElement(slideID int, elementID string, u document.Update, meta document.Meta) error
}

// ChangeFunc receives each committed user edit.
type ChangeFunc func(elementID string, u document.Update)

// Config binds a bridge to one slide and surface generation. Mount names
// the mount point of the surface and tags every write with it.
type Config struct {
	Store      Store
	SlideID    int
	Generation uint64
	Mount      string
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// Stats counts events by outcome.
type Stats struct {
	Applied  uint64
	Dropped  uint64
	Rejected uint64
}

// Bridge forwards manipulations of one surface to the model.
type Bridge struct {
	src       Source
	cfg       Config
	logger    *slog.Logger
	remove    func()
	listeners map[int]ChangeFunc
	nextID    int
	stats     Stats
}

// Attach subscribes a new bridge to src.
func Attach(src Source, cfg Config) *Bridge {
	b := &Bridge{
		src:       src,
		cfg:       cfg,
		logger:    logging.Or(cfg.Logger),
		listeners: make(map[int]ChangeFunc),
	}
	b.remove = src.On(b.onEvent)
	return b
}

// Generation returns the surface generation the bridge writes under.
func (b *Bridge) Generation() uint64 { return b.cfg.Generation }

// Stats returns event counters.
func (b *Bridge) Stats() Stats { return b.stats }

// OnChange registers fn for committed edits. Listeners run in registration
// order after the model write.
func (b *Bridge) OnChange(fn ChangeFunc) (remove func()) {
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() { delete(b.listeners, id) }
}

// Detach unsubscribes from the surface. Further events are ignored.
func (b *Bridge) Detach() {
	if b.remove != nil {
		b.remove()
		b.remove = nil
	}
}

func (b *Bridge) onEvent(ev surface.Event) {
	if ev.Type != surface.EventModified || b.remove == nil {
		return
	}
	_ = b.Handle(ev)
}

// Handle processes one Modified event. Errors have already been logged and
// counted; they are returned for callers that forward events themselves.
func (b *Bridge) Handle(ev surface.Event) error {
	o, err := b.resolve(ev.ObjectID)
	if err != nil {
		b.stats.Dropped++
		b.cfg.Metrics.Edit(OutcomeDropped)
		b.logger.Warn("edit: dropping event", "object", ev.ObjectID, "manipulation", ev.Manipulation.String(), "err", err)
		return err
	}

	u, err := Normalize(o, ev.Manipulation)
	if err == nil {
		err = b.cfg.Store.UpdateElement(b.cfg.SlideID, ev.ObjectID, u, document.Meta{
			Origin:     document.OriginUser,
			Generation: b.cfg.Generation,
			Mount:      b.cfg.Mount,
		})
	}
	if err != nil {
		b.stats.Rejected++
		b.cfg.Metrics.Edit(OutcomeRejected)
		b.logger.Warn("edit: rejecting event", "object", ev.ObjectID, "manipulation", ev.Manipulation.String(), "err", err)
		b.restore(ev.ObjectID)
		return err
	}

	if err := b.src.Update(ev.ObjectID, func(o *surface.Object) { fold(o, u) }); err != nil {
		b.logger.Warn("edit: cannot reset display object", "object", ev.ObjectID, "err", err)
	}
	b.stats.Applied++
	b.cfg.Metrics.Edit(OutcomeApplied)
	b.notify(ev.ObjectID, u)
	return nil
}

// resolve maps an event object id to its display object, requiring a
// matching element in the model.
func (b *Bridge) resolve(id string) (*surface.Object, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty object id", ErrInvalidEditEvent)
	}
	if strings.HasPrefix(id, document.ReservedPrefix) {
		return nil, fmt.Errorf("%w: %s is engine-owned", ErrInvalidEditEvent, id)
	}
	o, ok := b.src.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: no display object %s", ErrInvalidEditEvent, id)
	}
	slide, ok := b.cfg.Store.Slide(b.cfg.SlideID)
	if !ok {
		return nil, fmt.Errorf("%w: slide %d", ErrInvalidEditEvent, b.cfg.SlideID)
	}
	if _, ok := slide.Element(id); !ok {
		return nil, fmt.Errorf("%w: no element %s on slide %d", ErrInvalidEditEvent, id, b.cfg.SlideID)
	}
	return o, nil
}

// restore puts a display object back to its model element after a
// rejected edit.
func (b *Bridge) restore(id string) {
	slide, ok := b.cfg.Store.Slide(b.cfg.SlideID)
	if !ok {
		return
	}
	e, ok := slide.Element(id)
	if !ok {
		return
	}
	err := b.src.Update(id, func(o *surface.Object) {
		o.X, o.Y = e.Position.X, e.Position.Y
		o.Width, o.Height = e.Size.Width, e.Size.Height
		o.Angle = e.Angle
		o.ScaleX, o.ScaleY = 1, 1
		if e.Props.Text != nil {
			o.Text = e.Props.Text.Content
		}
	})
	if err != nil {
		b.logger.Warn("edit: cannot restore display object", "object", id, "err", err)
	}
}

func (b *Bridge) notify(id string, u document.Update) {
	keys := make([]int, 0, len(b.listeners))
	for k := range b.listeners {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if fn, ok := b.listeners[k]; ok {
			fn(id, u)
		}
	}
}

// IsInvalid reports whether err is an edit event the bridge refused.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidEditEvent) || errors.Is(err, ErrMalformedGeometry)
}
