// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gogpu/slidecanvas/actions"
	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/edit"
	"github.com/gogpu/slidecanvas/perf"
	"github.com/gogpu/slidecanvas/reconcile"
	"github.com/gogpu/slidecanvas/surface"
)

// HandleStats summarizes one mount.
type HandleStats struct {
	State      surface.State
	Generation uint64
	Reconcile  reconcile.Stats
	Surface    surface.Stats
	Edits      edit.Stats
	FPS        float64
	Degraded   bool
	// SkippedUserChanges counts model notifications that needed no pass
	// because they echoed an edit of the live surface.
	SkippedUserChanges uint64
}

// Handle is one mounted slide view.
type Handle struct {
	id       string
	e        *Engine
	logger   *slog.Logger
	mount    surface.Mount
	slideID  int
	editable bool
	zoom     float64

	sh       *surface.Handle
	attached *surface.Handle
	rec      *reconcile.Reconciler
	monitor  *perf.Monitor
	actions  *actions.Facade
	bridge   *edit.Bridge
	offEvent func()

	changed   map[int]edit.ChangeFunc
	errs      map[int]func(error)
	nextID    int
	insert    string
	scheduled bool
	skipped   uint64
	edits     edit.Stats
	disposed  bool
}

func newHandle(e *Engine, mount surface.Mount, slideID int, editable bool, zoom float64) *Handle {
	h := &Handle{
		id:       uuid.NewString(),
		e:        e,
		mount:    mount,
		slideID:  slideID,
		editable: editable,
		zoom:     zoom,
		changed:  make(map[int]edit.ChangeFunc),
		errs:     make(map[int]func(error)),
	}
	h.logger = e.logger.With("handle", h.id, "mount", mount.ID())
	h.rec = reconcile.New(reconcile.Config{
		Dispatcher: e.d,
		Loader:     e.loader,
		Current:    func(gen uint64) bool { return e.mgr.Current(mount.ID(), gen) },
		Spawn:      e.spawn,
		Animation:  e.cfg.Render.Animation,
		OnError:    func(err *reconcile.Error) { h.emitError(err) },
		Metrics:    e.metrics,
		Logger:     h.logger,
	})
	mo := e.cfg.Monitor()
	mo.Mount = mount.ID()
	mo.Metrics = e.metrics
	mo.Logger = h.logger
	h.monitor = perf.New(mo)
	h.monitor.OnChange(h.onPerformance)
	h.actions = actions.New(actions.Config{
		Store:         e.store,
		Request:       h.request,
		LogicalWidth:  e.cfg.Document.Width,
		LogicalHeight: e.cfg.Document.Height,
		Logger:        h.logger,
	})
	return h
}

// ID returns the instance id of the handle.
func (h *Handle) ID() string { return h.id }

// Mount returns the mount point.
func (h *Handle) Mount() surface.Mount { return h.mount }

// SlideID returns the active slide.
func (h *Handle) SlideID() int { return h.slideID }

// Editable reports whether the handle accepts manipulation.
func (h *Handle) Editable() bool { return h.editable }

// Zoom returns the requested zoom percentage.
func (h *Handle) Zoom() float64 { return h.zoom }

// State returns the state of the underlying surface handle.
func (h *Handle) State() surface.State {
	if h.sh == nil {
		return surface.StateReleased
	}
	return h.sh.State()
}

// Generation returns the current surface generation of the mount.
func (h *Handle) Generation() uint64 { return h.e.mgr.Generation(h.mount.ID()) }

// Surface returns the live surface, or nil.
func (h *Handle) Surface() *surface.Surface {
	if h.sh == nil || !h.e.mgr.Live(h.sh) {
		return nil
	}
	return h.sh.Surface()
}

// Monitor returns the performance monitor of the mount.
func (h *Handle) Monitor() *perf.Monitor { return h.monitor }

// Stats returns counters for the mount.
func (h *Handle) Stats() HandleStats {
	st := HandleStats{
		State:              h.State(),
		Generation:         h.Generation(),
		Reconcile:          h.rec.Stats(),
		Edits:              h.edits,
		FPS:                h.monitor.FPS(),
		Degraded:           h.monitor.Degrade(),
		SkippedUserChanges: h.skipped,
	}
	if s := h.Surface(); s != nil {
		st.Surface = s.Stats()
	}
	if h.bridge != nil {
		b := h.bridge.Stats()
		st.Edits.Applied += b.Applied
		st.Edits.Dropped += b.Dropped
		st.Edits.Rejected += b.Rejected
	}
	return st
}

// SetSlide switches the mount to another slide. The surface is kept; in
// flight image loads of the previous slide are cancelled.
func (h *Handle) SetSlide(slideID int) error {
	if h.disposed {
		return ErrDisposed
	}
	if slideID == h.slideID {
		return nil
	}
	if _, ok := h.e.store.Slide(slideID); !ok {
		return fmt.Errorf("%w: %d", document.ErrSlideNotFound, slideID)
	}
	h.rec.Cancel()
	h.slideID = slideID
	h.insert = ""
	if h.bridge != nil {
		h.attachBridge(h.sh)
	}
	h.reconcile()
	return nil
}

// SetZoom changes the zoom percentage. Above 100% only the visual scale
// changes; the surface keeps its backing resolution.
func (h *Handle) SetZoom(zoom float64) error {
	if h.disposed {
		return ErrDisposed
	}
	h.zoom = zoom
	return h.Resize()
}

// Resize re-reads the mount size, e.g. after the container was resized.
func (h *Handle) Resize() error {
	if h.disposed {
		return ErrDisposed
	}
	if h.sh == nil || !h.e.mgr.Live(h.sh) {
		return nil
	}
	_, err := h.e.mgr.Resize(h.sh, h.zoom)
	return err
}

// SetEditable toggles editing. The current surface is disposed and a new
// one acquired, so the mount generation advances by one.
func (h *Handle) SetEditable(editable bool) error {
	if h.disposed {
		return ErrDisposed
	}
	if editable == h.editable {
		return nil
	}
	h.detach()
	h.editable = editable
	h.acquire()
	return nil
}

// Reset retries acquisition after an InitializationError.
func (h *Handle) Reset() error {
	if h.disposed {
		return ErrDisposed
	}
	if h.sh == nil || h.sh.State() != surface.StateErrored {
		return nil
	}
	h.sh = h.e.mgr.Reset(h.sh, h.onAcquired)
	return nil
}

// OnElementChanged registers fn for user edits normalized by the edit
// bridge. The model has already been updated when fn runs.
func (h *Handle) OnElementChanged(fn func(elementID string, u document.Update)) (remove func()) {
	id := h.nextID
	h.nextID++
	h.changed[id] = fn
	return func() { delete(h.changed, id) }
}

// OnError registers fn for errors the host should act on:
// *InitializationError and persistent *ReconciliationError.
func (h *Handle) OnError(fn func(error)) (remove func()) {
	id := h.nextID
	h.nextID++
	h.errs[id] = fn
	return func() { delete(h.errs, id) }
}

// AddElement adds an element of type t to the active slide. It animates in
// on the next pass.
func (h *Handle) AddElement(t document.ElementType, initial *document.Props) (document.Element, error) {
	if h.disposed {
		return document.Element{}, ErrDisposed
	}
	if !h.editable {
		return document.Element{}, ErrReadOnly
	}
	return h.actions.Add(h.slideID, t, initial)
}

// RemoveElement deletes an element from the active slide.
func (h *Handle) RemoveElement(id string) error {
	if h.disposed {
		return ErrDisposed
	}
	if !h.editable {
		return ErrReadOnly
	}
	return h.actions.Remove(h.slideID, id)
}

// Render runs any pending pass and paints immediately.
func (h *Handle) Render() error {
	if h.disposed {
		return ErrDisposed
	}
	s := h.Surface()
	if s == nil {
		return ErrNotLive
	}
	if h.scheduled {
		h.scheduled = false
		h.reconcile()
	}
	return s.Render()
}

// Snapshot paints and returns the surface pixels. Pixel-less backends
// return nil.
func (h *Handle) Snapshot() (image.Image, error) {
	if err := h.Render(); err != nil {
		return nil, err
	}
	return h.Surface().Snapshot(), nil
}

// Dispose releases the surface and unmounts the handle. It is idempotent.
func (h *Handle) Dispose() {
	if h.disposed {
		return
	}
	h.detach()
	h.e.mgr.Release(h.sh)
	h.rec.Close()
	h.disposed = true
	delete(h.e.handles, h.mount.ID())
	h.e.metrics.Forget(h.mount.ID())
	h.logger.Info("slidecanvas: unmounted")
}

// acquire asks the manager for a surface matching the current flags.
func (h *Handle) acquire() {
	h.sh = h.e.mgr.Acquire(h.mount, h.editable, h.zoom, h.onAcquired)
}

// onAcquired may run before Acquire returns. The manager drops waiters of
// released handles, so sh is always the mount's current handle.
func (h *Handle) onAcquired(sh *surface.Handle, err error) {
	if h.disposed {
		return
	}
	h.sh = sh
	if err != nil {
		h.emitError(err)
		return
	}
	if h.attached == sh {
		h.schedule("")
		return
	}
	h.attach(sh)
}

// attach wires a freshly live surface.
func (h *Handle) attach(sh *surface.Handle) {
	s := sh.Surface()
	h.attached = sh
	h.e.metrics.SurfaceAcquired()
	h.e.metrics.SurfaceGeneration(h.mount.ID(), sh.Generation())

	h.monitor.Reset()
	s.Scheduler().Observe(h.monitor.Observe)
	h.applyDegrade(s, h.monitor.Degrade())
	h.offEvent = s.On(h.onSurfaceEvent)
	if h.editable {
		h.attachBridge(sh)
	}
	h.reconcile()
}

func (h *Handle) attachBridge(sh *surface.Handle) {
	if h.bridge != nil {
		h.foldEditStats()
		h.bridge.Detach()
	}
	h.bridge = edit.Attach(sh.Surface(), edit.Config{
		Store:      h.e.store,
		SlideID:    h.slideID,
		Generation: sh.Generation(),
		Mount:      h.mount.ID(),
		Metrics:    h.e.metrics,
		Logger:     h.logger,
	})
	h.bridge.OnChange(h.forwardChange)
}

// detach unhooks everything bound to the current surface.
func (h *Handle) detach() {
	if h.bridge != nil {
		h.foldEditStats()
		h.bridge.Detach()
		h.bridge = nil
	}
	if h.offEvent != nil {
		h.offEvent()
		h.offEvent = nil
	}
	h.rec.Cancel()
	h.attached = nil
	h.scheduled = false
}

func (h *Handle) foldEditStats() {
	b := h.bridge.Stats()
	h.edits.Applied += b.Applied
	h.edits.Dropped += b.Dropped
	h.edits.Rejected += b.Rejected
}

// request is the action facade's hook for a pass with an insertion hint.
func (h *Handle) request(slideID int, insert string) {
	if slideID != h.slideID {
		return
	}
	h.schedule(insert)
}

// schedule coalesces pass requests into one pass on the dispatcher.
func (h *Handle) schedule(insert string) {
	if insert != "" {
		h.insert = insert
	}
	if h.scheduled || h.disposed {
		return
	}
	h.scheduled = true
	h.e.d.Post(func() {
		if !h.scheduled {
			return
		}
		h.scheduled = false
		h.reconcile()
	})
}

// reconcile runs one pass against the live surface.
func (h *Handle) reconcile() {
	s := h.Surface()
	if s == nil || h.disposed {
		return
	}
	slide, ok := h.e.store.Slide(h.slideID)
	if !ok {
		slide = document.Slide{ID: h.slideID}
	}
	opts := reconcile.Options{
		Ordinal:    h.e.ordinal(h.slideID),
		Editable:   h.editable,
		Degrade:    h.monitor.Degrade(),
		Insert:     h.insert,
		Generation: h.sh.Generation(),
	}
	h.insert = ""
	if _, err := h.rec.Reconcile(s, slide, opts); err != nil {
		h.logger.Debug("slidecanvas: pass failed", "slide", h.slideID, "err", err)
	}
}

// onChange decides whether a model change needs a pass.
func (h *Handle) onChange(c document.Change) {
	if c.SlideID != h.slideID || h.disposed {
		return
	}
	if c.Origin == document.OriginUser && c.Mount == h.mount.ID() && h.sh != nil &&
		c.Generation == h.sh.Generation() && h.e.mgr.Live(h.sh) {
		// The bridge already folded this edit into the display object.
		h.skipped++
		return
	}
	h.schedule("")
}

func (h *Handle) onSurfaceEvent(ev surface.Event) {
	if ev.Type != surface.EventAction {
		return
	}
	t, ok := reconcile.ParseAction(ev.Action)
	if !ok {
		h.logger.Warn("slidecanvas: unknown affordance action", "action", ev.Action)
		return
	}
	if _, err := h.AddElement(t, nil); err != nil {
		h.logger.Warn("slidecanvas: affordance failed", "action", ev.Action, "err", err)
	}
}

func (h *Handle) forwardChange(id string, u document.Update) {
	for i := 0; i < h.nextID; i++ {
		if fn, ok := h.changed[i]; ok {
			fn(id, u)
		}
	}
}

func (h *Handle) emitError(err error) {
	var ie *surface.InitializationError
	if errors.As(err, &ie) {
		h.logger.Error("slidecanvas: mount failed", "attempts", ie.Attempts, "err", ie.Err)
	}
	for i := 0; i < h.nextID; i++ {
		if fn, ok := h.errs[i]; ok {
			fn(err)
		}
	}
}

func (h *Handle) onPerformance(st perf.State) {
	s := h.Surface()
	if s == nil {
		return
	}
	h.applyDegrade(s, st.Degrade)
	h.schedule("")
}

func (h *Handle) applyDegrade(s *surface.Surface, degrade bool) {
	s.SetFineHitTesting(!degrade)
	s.SetEffects(!degrade)
}
