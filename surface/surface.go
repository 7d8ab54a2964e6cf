// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/internal/logging"
	"github.com/gogpu/slidecanvas/viewport"
)

// Stats counts structural operations performed on a surface.
type Stats struct {
	Created uint64 // objects inserted
	Removed uint64
	Moved   uint64
	Updated uint64
	Paints  uint64
}

// Options configures a new Surface.
type Options struct {
	// Editable enables selection and manipulation. It is fixed for the
	// lifetime of the surface.
	Editable bool
	// Transform is the initial viewport transform.
	Transform viewport.Transform
	// Background is painted under all objects. Zero means white.
	Background gg.RGBA
	// Clock drives repaints. Required.
	Clock frame.Clock
	// Logger overrides the package logger.
	Logger *slog.Logger
}

// Surface is a retained display list bound to a painter.
type Surface struct {
	mount     string
	editable  bool
	painter   Painter
	transform viewport.Transform
	bg        gg.RGBA
	sched     *frame.Scheduler
	logger    *slog.Logger

	objects []*Object
	byID    map[string]*Object
	serial  uint64

	fineHitTest bool
	effects     bool
	drag        *dragState
	press       string

	handlers  map[int]func(Event)
	handlerID int

	stats    Stats
	disposed bool
	onPaint  func(error)
}

// New builds a surface around an already constructed painter. Most hosts
// obtain surfaces through a Manager instead.
func New(mount string, p Painter, opts Options) *Surface {
	bg := opts.Background
	if bg == (gg.RGBA{}) {
		bg = gg.RGB(1, 1, 1)
	}
	s := &Surface{
		mount:       mount,
		editable:    opts.Editable,
		painter:     p,
		transform:   opts.Transform,
		bg:          bg,
		logger:      logging.Or(opts.Logger),
		byID:        make(map[string]*Object),
		fineHitTest: true,
		effects:     true,
		handlers:    make(map[int]func(Event)),
	}
	s.sched = frame.NewScheduler(opts.Clock, s.render)
	return s
}

// Mount returns the id of the mount point the surface is bound to.
func (s *Surface) Mount() string { return s.mount }

// Editable reports whether the surface accepts manipulation.
func (s *Surface) Editable() bool { return s.editable }

// Disposed reports whether Dispose has been called.
func (s *Surface) Disposed() bool { return s.disposed }

// Transform returns the current viewport transform.
func (s *Surface) Transform() viewport.Transform { return s.transform }

// Stats returns structural operation counters.
func (s *Surface) Stats() Stats { return s.stats }

// Scheduler exposes the frame scheduler so observers can sample frames.
func (s *Surface) Scheduler() *frame.Scheduler { return s.sched }

// Len returns the number of display objects.
func (s *Surface) Len() int { return len(s.objects) }

// Lookup returns the object with the given id.
func (s *Surface) Lookup(id string) (*Object, bool) {
	o, ok := s.byID[id]
	return o, ok
}

// Objects returns the display objects in paint order. The slice is a copy;
// the objects are shared.
func (s *Surface) Objects() []*Object {
	return slices.Clone(s.objects)
}

// IndexOf returns the paint index of id, or -1.
func (s *Surface) IndexOf(id string) int {
	return slices.IndexFunc(s.objects, func(o *Object) bool { return o.id == id })
}

// Insert adds o at paint index (clamped to [0, Len]).
func (s *Surface) Insert(o *Object, index int) error {
	if s.disposed {
		return ErrDisposed
	}
	if _, ok := s.byID[o.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateObject, o.id)
	}
	index = max(0, min(index, len(s.objects)))
	s.serial++
	o.seq = s.serial
	s.objects = slices.Insert(s.objects, index, o)
	s.byID[o.id] = o
	s.stats.Created++
	return nil
}

// Remove deletes the object with the given id.
func (s *Surface) Remove(id string) error {
	if s.disposed {
		return ErrDisposed
	}
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	delete(s.byID, id)
	if s.drag != nil && s.drag.id == id {
		s.drag = nil
	}
	s.stats.Removed++
	return nil
}

// Move changes the paint index of an object.
func (s *Surface) Move(id string, index int) error {
	if s.disposed {
		return ErrDisposed
	}
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	index = max(0, min(index, len(s.objects)-1))
	if i == index {
		return nil
	}
	o := s.objects[i]
	s.objects = slices.Delete(s.objects, i, i+1)
	s.objects = slices.Insert(s.objects, index, o)
	s.stats.Moved++
	return nil
}

// Update applies fn to the object with the given id.
func (s *Surface) Update(id string, fn func(*Object)) error {
	if s.disposed {
		return ErrDisposed
	}
	o, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	fn(o)
	s.stats.Updated++
	return nil
}

// Clear removes every object.
func (s *Surface) Clear() error {
	if s.disposed {
		return ErrDisposed
	}
	s.stats.Removed += uint64(len(s.objects))
	s.objects = nil
	s.byID = make(map[string]*Object)
	s.drag = nil
	return nil
}

// RequestRender schedules a paint on the next frame. Calls made before the
// frame fires are coalesced.
func (s *Surface) RequestRender() {
	if s.disposed {
		return
	}
	s.sched.Request()
}

// Resize applies a new viewport transform. The painter is only resized when
// the backing resolution changes; a pure visual zoom repaints nothing.
func (s *Surface) Resize(t viewport.Transform) error {
	if s.disposed {
		return ErrDisposed
	}
	old := s.transform
	s.transform = t
	if old.SameSurface(t) {
		return nil
	}
	if err := s.painter.Resize(t.SurfaceWidth, t.SurfaceHeight); err != nil {
		return fmt.Errorf("surface: resize to %dx%d: %w", t.SurfaceWidth, t.SurfaceHeight, err)
	}
	s.RequestRender()
	return nil
}

// SetFineHitTesting toggles exact shape hit testing. When off, hit tests use
// axis-aligned bounding boxes.
func (s *Surface) SetFineHitTesting(on bool) { s.fineHitTest = on }

// FineHitTesting reports whether exact hit testing is on.
func (s *Surface) FineHitTesting() bool { return s.fineHitTest }

// SetEffects toggles shadows and entrance animations at paint time.
func (s *Surface) SetEffects(on bool) { s.effects = on }

// OnPaint registers a callback invoked after every paint with its error.
func (s *Surface) OnPaint(fn func(error)) { s.onPaint = fn }

// Snapshot returns the last painted pixels, or nil for pixel-less backends.
func (s *Surface) Snapshot() image.Image {
	if s.disposed {
		return nil
	}
	return s.painter.Snapshot()
}

// Painter returns the backend painter.
func (s *Surface) Painter() Painter { return s.painter }

// Dispose releases the painter and drops all objects and handlers.
// Dispose is idempotent.
func (s *Surface) Dispose() error {
	if s.disposed {
		return nil
	}
	s.sched.Cancel()
	s.disposed = true
	s.objects = nil
	s.byID = nil
	s.handlers = nil
	s.drag = nil
	return s.painter.Close()
}

// Render paints immediately, bypassing the scheduler. Hosts that drive
// their own frame loop may call it directly.
func (s *Surface) Render() error {
	if s.disposed {
		return ErrDisposed
	}
	return s.paint(time.Now())
}

func (s *Surface) render(now time.Time) {
	if s.disposed {
		return
	}
	err := s.paint(now)
	if err != nil {
		s.logger.Warn("surface: paint failed", "mount", s.mount, "err", err)
	}
	if s.onPaint != nil {
		s.onPaint(err)
	}
}

func (s *Surface) paint(now time.Time) error {
	scene := Scene{
		Objects:    make([]PaintObject, 0, len(s.objects)),
		Transform:  s.transform,
		Background: s.bg,
		Effects:    s.effects,
	}
	animating := false
	for _, o := range s.objects {
		a, done := 1.0, true
		if s.effects {
			a, done = o.alpha(now)
		} else {
			o.appear = 0
			a = o.Opacity
		}
		if !done {
			animating = true
		}
		scene.Objects = append(scene.Objects, PaintObject{Object: o, Alpha: a})
	}
	s.stats.Paints++
	err := s.painter.Paint(scene)
	if animating {
		s.sched.Request()
	}
	return err
}
