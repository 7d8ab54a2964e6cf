// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/gogpu/gg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gogpu/slidecanvas/config"
	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/reconcile"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
)

func testDeck() document.Document {
	return document.Document{Slides: []document.Slide{
		{ID: 1, Elements: []document.Element{
			{
				ID: "box", Type: document.TypeRectangle,
				Position: document.Point{X: 100, Y: 100},
				Size:     document.Size{Width: 200, Height: 100},
				Props:    document.Props{Shape: &document.ShapeProps{Fill: "#ff0000"}},
			},
			{
				ID: "title", Type: document.TypeText, ZIndex: 1,
				Position: document.Point{X: 100, Y: 300},
				Size:     document.Size{Width: 600, Height: 120},
				Props:    document.Props{Text: &document.TextProps{Content: "Hello"}},
			},
		}},
		{ID: 2},
		{ID: 3, Elements: []document.Element{{
			ID: "photo", Type: document.TypeImage,
			Size:  document.Size{Width: 480, Height: 270},
			Props: document.Props{Image: &document.ImageProps{Source: "photo.png"}},
		}}},
	}}
}

type env struct {
	eng   *Engine
	store *document.MemoryStore
	d     *loop.Manual
	loads int
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	ev := &env{store: document.NewMemoryStore(testDeck()), d: loop.NewManual(time.Unix(0, 0))}
	loader := resource.LoaderFunc(func(context.Context, string) (*gg.ImageBuf, error) {
		ev.loads++
		return gg.ImageBufFromImage(image.NewRGBA(image.Rect(0, 0, 8, 8))), nil
	})
	base := []Option{
		WithDispatcher(ev.d),
		WithBackend(surface.BackendHeadless),
		WithLoader(loader),
		WithSpawn(func(fn func()) { fn() }),
	}
	ev.eng = New(ev.store, append(base, opts...)...)
	t.Cleanup(func() { ev.eng.Close() })
	return ev
}

func mainMount() *surface.StaticMount {
	return &surface.StaticMount{Name: "main", Width: 1664, Height: 964}
}

func ids(s *surface.Surface) []string {
	var out []string
	for _, o := range s.Objects() {
		out = append(out, o.ID())
	}
	return out
}

func TestMountRendersSlide(t *testing.T) {
	ev := newEnv(t)
	h, err := ev.eng.Mount(mainMount(), 1, false, 100)
	if err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()

	s := h.Surface()
	if s == nil {
		t.Fatalf("surface not live, state %v", h.State())
	}
	if got := ids(s); len(got) != 2 || got[0] != "box" || got[1] != "title" {
		t.Errorf("objects = %v", got)
	}
	if h.ID() == "" || h.SlideID() != 1 || h.Editable() {
		t.Errorf("handle = %s slide %d editable %v", h.ID(), h.SlideID(), h.Editable())
	}
	if st := ev.eng.Stats(); st.Mounts != 1 || st.Surfaces.Created != 1 {
		t.Errorf("Stats = %+v", st)
	}
	if p, ok := s.Painter().(*surface.HeadlessPainter); !ok || p.Frames == 0 {
		t.Error("surface never painted")
	}
}

func TestMountErrors(t *testing.T) {
	ev := newEnv(t)
	if _, err := ev.eng.Mount(mainMount(), 42, false, 100); !errors.Is(err, document.ErrSlideNotFound) {
		t.Errorf("unknown slide err = %v", err)
	}
	if _, err := ev.eng.Mount(mainMount(), 1, false, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := ev.eng.Mount(mainMount(), 2, false, 100); !errors.Is(err, ErrAlreadyMounted) {
		t.Errorf("second mount err = %v", err)
	}
	ev.eng.Close()
	if _, err := ev.eng.Mount(&surface.StaticMount{Name: "other", Width: 800, Height: 600}, 1, false, 100); !errors.Is(err, ErrClosed) {
		t.Errorf("mount after Close err = %v", err)
	}
	if ev.eng.Stats().Mounts != 0 {
		t.Error("Close left handles mounted")
	}
}

func TestEditableToggleGeneration(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	ev.d.RunPending()
	gen := h.Generation()
	before := h.Surface()

	if err := h.SetEditable(true); err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()

	if h.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", h.Generation(), gen+1)
	}
	st := ev.eng.Stats().Surfaces
	if st.Created != 2 || st.Disposed != 1 {
		t.Errorf("surfaces created %d disposed %d, want 2 and 1", st.Created, st.Disposed)
	}
	if !before.Disposed() || h.Surface() == before || !h.Surface().Editable() {
		t.Error("old surface not replaced by an editable one")
	}
	if got := ids(h.Surface()); len(got) != 2 {
		t.Errorf("new surface objects = %v", got)
	}

	// Same flag again is a no-op.
	_ = h.SetEditable(true)
	ev.d.RunPending()
	if h.Generation() != gen+1 {
		t.Errorf("idempotent SetEditable bumped the generation")
	}
}

func TestUserEditSkipsPass(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, true, 100)
	ev.d.RunPending()
	passes := h.Stats().Reconcile.Passes

	var changed []string
	h.OnElementChanged(func(id string, u document.Update) { changed = append(changed, id) })
	if err := h.Surface().ScaleObject("box", 2, 2); err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()

	if len(changed) != 1 || changed[0] != "box" {
		t.Errorf("changed = %v", changed)
	}
	sl, _ := ev.store.Slide(1)
	if e, _ := sl.Element("box"); e.Size.Width != 400 || e.Size.Height != 200 {
		t.Errorf("model size = %+v", e.Size)
	}
	st := h.Stats()
	if st.Reconcile.Passes != passes || st.SkippedUserChanges != 1 || st.Edits.Applied != 1 {
		t.Errorf("passes %d -> %d, skipped %d, edits %+v", passes, st.Reconcile.Passes, st.SkippedUserChanges, st.Edits)
	}
}

func TestTwoMountsSameSlide(t *testing.T) {
	ev := newEnv(t)
	main, err := ev.eng.Mount(mainMount(), 1, true, 100)
	if err != nil {
		t.Fatal(err)
	}
	thumb, err := ev.eng.Mount(&surface.StaticMount{Name: "thumb", Width: 800, Height: 600}, 1, false, 100)
	if err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()
	if main.Generation() != thumb.Generation() {
		t.Fatalf("generations differ: %d vs %d", main.Generation(), thumb.Generation())
	}
	passes := thumb.Stats().Reconcile.Passes

	if err := main.Surface().ScaleObject("box", 2, 2); err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()

	o, ok := thumb.Surface().Lookup("box")
	if !ok {
		t.Fatal("thumb lost box")
	}
	if o.Width != 400 || o.Height != 200 {
		t.Errorf("thumb box = %+v, want 400x200", o.Geometry)
	}
	st := thumb.Stats()
	if st.SkippedUserChanges != 0 || st.Reconcile.Passes == passes {
		t.Errorf("thumb skipped %d, passes %d -> %d", st.SkippedUserChanges, passes, st.Reconcile.Passes)
	}
	if n := main.Stats().SkippedUserChanges; n != 1 {
		t.Errorf("main skipped %d, want 1", n)
	}
}

func TestExternalChangeReconciles(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, true, 100)
	ev.d.RunPending()
	passes := h.Stats().Reconcile.Passes

	pos := document.Point{X: 500, Y: 40}
	angle := 15.0
	_ = ev.store.UpdateElement(1, "box", document.Update{Position: &pos}, document.Meta{})
	_ = ev.store.UpdateElement(1, "box", document.Update{Angle: &angle}, document.Meta{})
	ev.d.RunPending()

	o, _ := h.Surface().Lookup("box")
	if o.X != 500 || o.Y != 40 || o.Angle != 15 {
		t.Errorf("display object = %+v", o.Geometry)
	}
	if got := h.Stats().Reconcile.Passes - passes; got != 1 {
		t.Errorf("passes = %d, want 1 coalesced pass", got)
	}
}

func TestAddElementAnimates(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, true, 100)
	ev.d.RunPending()
	passes := h.Stats().Reconcile.Passes

	e, err := h.AddElement(document.TypeCircle, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()

	o, ok := h.Surface().Lookup(e.ID)
	if !ok {
		t.Fatal("added element not on surface")
	}
	if !o.Animating() {
		t.Error("inserted element does not animate")
	}
	if box, _ := h.Surface().Lookup("box"); box.Animating() {
		t.Error("existing element animates")
	}
	if got := h.Stats().Reconcile.Passes - passes; got != 1 {
		t.Errorf("passes = %d, want 1", got)
	}
	if err := h.RemoveElement(e.ID); err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()
	if _, ok := h.Surface().Lookup(e.ID); ok {
		t.Error("removed element still on surface")
	}
}

func TestViewOnlyRefusesEdits(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	ev.d.RunPending()
	if _, err := h.AddElement(document.TypeText, nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("AddElement err = %v", err)
	}
	if err := h.Surface().MoveObject("box", 1, 1); !errors.Is(err, surface.ErrReadOnly) {
		t.Errorf("MoveObject err = %v", err)
	}
}

func TestEmptySlideAffordance(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 2, true, 100)
	ev.d.RunPending()

	var target *surface.Object
	for _, o := range h.Surface().Objects() {
		if typ, ok := reconcile.ParseAction(o.Action); ok && typ == document.TypeRectangle {
			target = o
		}
	}
	if target == nil {
		t.Fatalf("no add-rectangle affordance among %v", ids(h.Surface()))
	}
	cx, cy := target.Center()
	x, y := h.Surface().Transform().ToDisplay(cx, cy)
	h.Surface().Click(x, y)
	ev.d.RunPending()

	sl, _ := ev.store.Slide(2)
	if len(sl.Elements) != 1 || sl.Elements[0].Type != document.TypeRectangle {
		t.Fatalf("slide 2 elements = %+v", sl.Elements)
	}
	if got := ids(h.Surface()); len(got) != 1 || got[0] != sl.Elements[0].ID {
		t.Errorf("objects = %v, want only the new rectangle", got)
	}
}

func TestSetSlide(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	ev.d.RunPending()
	if err := h.SetSlide(2); err != nil {
		t.Fatal(err)
	}
	got := ids(h.Surface())
	if len(got) != 1 || got[0] != reconcile.PlaceholderID {
		t.Errorf("objects = %v, want the placeholder", got)
	}
	o, _ := h.Surface().Lookup(reconcile.PlaceholderID)
	if o.Text != "Slide 2" {
		t.Errorf("placeholder text = %q", o.Text)
	}
	if err := h.SetSlide(99); !errors.Is(err, document.ErrSlideNotFound) {
		t.Errorf("SetSlide(99) err = %v", err)
	}
}

func TestZoomAsymmetric(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	ev.d.RunPending()
	base := h.Surface().Transform()

	if err := h.SetZoom(150); err != nil {
		t.Fatal(err)
	}
	zoomed := h.Surface().Transform()
	if zoomed.SurfaceWidth != base.SurfaceWidth || zoomed.SurfaceHeight != base.SurfaceHeight {
		t.Errorf("surface resolution changed: %dx%d -> %dx%d", base.SurfaceWidth, base.SurfaceHeight, zoomed.SurfaceWidth, zoomed.SurfaceHeight)
	}
	if math.Abs(zoomed.DisplayWidth-1.5*base.DisplayWidth) > 1e-6 {
		t.Errorf("display width = %v, want %v", zoomed.DisplayWidth, 1.5*base.DisplayWidth)
	}

	_ = h.SetZoom(50)
	if got := h.Surface().Transform().SurfaceWidth; got >= base.SurfaceWidth {
		t.Errorf("zoom 50 surface width = %d, want below %d", got, base.SurfaceWidth)
	}
}

func TestInitializationErrorAndReset(t *testing.T) {
	cfg := config.Default()
	cfg.Surface.Backend = surface.BackendHeadless
	cfg.Surface.MaxAttempts = 3
	ev := newEnv(t, WithConfig(cfg))
	m := &surface.StaticMount{Name: "late", Width: 800, Height: 600, Detached: true}
	h, err := ev.eng.Mount(m, 1, false, 100)
	if err != nil {
		t.Fatal(err)
	}
	var errs []error
	h.OnError(func(err error) { errs = append(errs, err) })

	ev.d.Advance(time.Second)
	ev.d.Advance(time.Second)

	var ie *InitializationError
	if len(errs) != 1 || !errors.As(errs[0], &ie) || ie.Attempts != 3 || !errors.Is(ie, surface.ErrMountDetached) {
		t.Fatalf("errors = %v", errs)
	}
	if h.State() != surface.StateErrored || h.Surface() != nil {
		t.Errorf("state = %v", h.State())
	}

	m.Detached = false
	if err := h.Reset(); err != nil {
		t.Fatal(err)
	}
	ev.d.RunPending()
	if h.Surface() == nil || len(ids(h.Surface())) != 2 {
		t.Errorf("after Reset state = %v", h.State())
	}
}

func TestLateImageAfterDispose(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 3, false, 100)
	s := h.Surface()
	if s == nil {
		t.Fatal("surface not live")
	}
	if o, _ := s.Lookup("photo"); o.Kind() != surface.KindLoading {
		t.Fatalf("photo kind = %v, want loading", o.Kind())
	}

	// The completion is queued; dispose before it runs.
	h.Dispose()
	ev.d.RunPending()

	st := h.Stats()
	if st.Reconcile.Stale != 1 || st.Reconcile.ImagesLoaded != 0 {
		t.Errorf("reconcile stats = %+v", st.Reconcile)
	}
	if !s.Disposed() || s.Len() != 0 {
		t.Error("disposed surface was repopulated")
	}
	if err := h.SetZoom(120); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetZoom after Dispose err = %v", err)
	}
	h.Dispose()
}

func TestImageLoads(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 3, false, 100)
	ev.d.RunPending()
	o, _ := h.Surface().Lookup("photo")
	if o.Kind() != surface.KindImage || ev.loads != 1 {
		t.Errorf("kind = %v loads = %d", o.Kind(), ev.loads)
	}
}

func TestDegradeFlip(t *testing.T) {
	ev := newEnv(t)
	h, _ := ev.eng.Mount(mainMount(), 1, true, 100)
	ev.d.RunPending()
	box, _ := h.Surface().Lookup("box")
	if !box.Shadow || !h.Surface().FineHitTesting() {
		t.Fatal("effects off before any measurement")
	}

	start := time.Unix(100, 0)
	for i := 0; i < 21; i++ {
		h.Monitor().Observe(start.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	ev.d.RunPending()

	if !h.Stats().Degraded {
		t.Fatal("20fps did not degrade")
	}
	if box.Shadow || h.Surface().FineHitTesting() {
		t.Errorf("degraded surface: shadow %v fine hit testing %v", box.Shadow, h.Surface().FineHitTesting())
	}
	// Degrade never touches the model.
	sl, _ := ev.store.Slide(1)
	if e, _ := sl.Element("box"); e.Size.Width != 200 {
		t.Errorf("model changed: %+v", e)
	}
}

func TestRenderAndSnapshot(t *testing.T) {
	ev := newEnv(t, WithBackend(surface.BackendSoftware))
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	img, err := h.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if img == nil {
		t.Fatal("software backend returned no pixels")
	}
	tr := h.Surface().Transform()
	if b := img.Bounds(); b.Dx() != tr.SurfaceWidth || b.Dy() != tr.SurfaceHeight {
		t.Errorf("snapshot %v, want %dx%d", b, tr.SurfaceWidth, tr.SurfaceHeight)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ev := newEnv(t, WithRegisterer(reg))
	h, _ := ev.eng.Mount(mainMount(), 1, false, 100)
	ev.d.RunPending()
	_ = h.SetEditable(true)
	ev.d.RunPending()

	m := ev.eng.metrics
	if v := testutil.ToFloat64(m.Surfaces); v != 1 {
		t.Errorf("live surfaces = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.Generation.WithLabelValues("main")); v != 1 {
		t.Errorf("generation gauge = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.Passes); v < 2 {
		t.Errorf("passes = %v", v)
	}
}

func TestInvalidConfigFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Surface.Backend = surface.BackendHeadless
	cfg.Images.Workers = 0
	ev := newEnv(t, WithConfig(cfg))
	if got := ev.eng.Config().Images.Workers; got != config.Default().Images.Workers {
		t.Errorf("workers = %d", got)
	}
	if ev.eng.Config().Surface.Backend != surface.BackendHeadless {
		t.Error("explicit backend lost in fallback")
	}
}
