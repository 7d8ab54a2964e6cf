// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/frame"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/viewport"
)

// unitTransform maps logical units 1:1 onto display pixels.
func unitTransform() viewport.Transform {
	return viewport.Compute(viewport.DefaultPolicy(), viewport.Input{
		ContainerWidth:   1600 + 2*viewport.DefaultPadding,
		ContainerHeight:  900 + 2*viewport.DefaultPadding,
		Zoom:             100,
		DevicePixelRatio: 1,
	})
}

func newTestSurface(t *testing.T, editable bool) (*Surface, *HeadlessPainter, *loop.Manual) {
	t.Helper()
	d := loop.NewManual(time.Unix(0, 0))
	tr := unitTransform()
	p := &HeadlessPainter{Width: tr.SurfaceWidth, Height: tr.SurfaceHeight}
	s := New("m1", p, Options{
		Editable:  editable,
		Transform: tr,
		Clock:     frame.NewTickerClock(d, 0),
	})
	return s, p, d
}

func rect(id string, x, y, w, h float64) *Object {
	o := NewObject(id, KindRectangle)
	o.Geometry = Geometry{X: x, Y: y, Width: w, Height: h}
	o.Fill = gg.RGB(1, 0, 0)
	o.Selectable = true
	return o
}

func ids(s *Surface) []string {
	var out []string
	for _, o := range s.Objects() {
		out = append(out, o.ID())
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUnitTransform(t *testing.T) {
	tr := unitTransform()
	if tr.Scale != 1 {
		t.Fatalf("Scale = %v, want 1", tr.Scale)
	}
}

func TestSurfaceInsertRemoveMove(t *testing.T) {
	s, _, _ := newTestSurface(t, true)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Insert(rect(id, 0, 0, 10, 10), i); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}
	if got := ids(s); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}

	if err := s.Insert(rect("a", 0, 0, 1, 1), 0); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("duplicate Insert error = %v, want ErrDuplicateObject", err)
	}

	if err := s.Move("c", 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := ids(s); !equalIDs(got, []string{"c", "a", "b"}) {
		t.Errorf("order after Move = %v", got)
	}
	if i := s.IndexOf("b"); i != 2 {
		t.Errorf("IndexOf(b) = %d, want 2", i)
	}

	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("a"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("second Remove error = %v, want ErrObjectNotFound", err)
	}
	if got := ids(s); !equalIDs(got, []string{"c", "b"}) {
		t.Errorf("order after Remove = %v", got)
	}

	st := s.Stats()
	if st.Created != 3 || st.Removed != 1 || st.Moved != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestSurfaceInsertClampsIndex(t *testing.T) {
	s, _, _ := newTestSurface(t, false)
	_ = s.Insert(rect("a", 0, 0, 1, 1), 0)
	_ = s.Insert(rect("b", 0, 0, 1, 1), 99)
	_ = s.Insert(rect("c", 0, 0, 1, 1), -5)
	if got := ids(s); !equalIDs(got, []string{"c", "a", "b"}) {
		t.Errorf("order = %v", got)
	}
}

func TestSurfaceSerialChangesOnReinsert(t *testing.T) {
	s, _, _ := newTestSurface(t, false)
	_ = s.Insert(rect("a", 0, 0, 1, 1), 0)
	o, _ := s.Lookup("a")
	first := o.Serial()
	_ = s.Remove("a")
	_ = s.Insert(rect("a", 0, 0, 1, 1), 0)
	o, _ = s.Lookup("a")
	if o.Serial() == first {
		t.Error("reinserted object kept its serial")
	}
}

func TestSurfaceRenderCoalesced(t *testing.T) {
	s, p, d := newTestSurface(t, false)
	_ = s.Insert(rect("a", 0, 0, 10, 10), 0)

	s.RequestRender()
	s.RequestRender()
	s.RequestRender()
	d.RunPending()

	if p.Frames != 1 {
		t.Errorf("Frames = %d, want 1", p.Frames)
	}
	if !equalIDs(p.Last, []string{"a"}) {
		t.Errorf("Last = %v", p.Last)
	}

	s.RequestRender()
	d.Advance(time.Second)
	if p.Frames != 2 {
		t.Errorf("Frames after second request = %d, want 2", p.Frames)
	}
}

func TestSurfaceLoadingSlotNotPainted(t *testing.T) {
	s, p, d := newTestSurface(t, false)
	_ = s.Insert(NewObject("img", KindLoading), 0)
	_ = s.Insert(rect("r", 0, 0, 1, 1), 1)
	s.RequestRender()
	d.RunPending()
	if !equalIDs(p.Last, []string{"r"}) {
		t.Errorf("Last = %v, want [r]", p.Last)
	}
}

func TestSurfaceAnimationKeepsRequestingFrames(t *testing.T) {
	s, p, d := newTestSurface(t, false)
	o := rect("a", 0, 0, 10, 10)
	o.Animate(100 * time.Millisecond)
	_ = s.Insert(o, 0)

	s.RequestRender()
	d.RunPending()
	if !s.Scheduler().Pending() {
		t.Fatal("running animation should request another frame")
	}
	for range 20 {
		d.Advance(frame.DefaultInterval)
	}
	if o.Animating() {
		t.Error("animation did not finish")
	}
	if s.Scheduler().Pending() {
		t.Error("finished animation still requests frames")
	}
	if p.Frames < 3 {
		t.Errorf("Frames = %d, want several", p.Frames)
	}
}

func TestSurfaceResize(t *testing.T) {
	s, p, d := newTestSurface(t, false)
	base := s.Transform()

	zoomed := viewport.Compute(viewport.DefaultPolicy(), viewport.Input{
		ContainerWidth:   1664,
		ContainerHeight:  964,
		Zoom:             150,
		DevicePixelRatio: 1,
	})
	if err := s.Resize(zoomed); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	d.RunPending()
	if p.Width != base.SurfaceWidth || p.Frames != 0 {
		t.Errorf("visual zoom resized the painter: width=%d frames=%d", p.Width, p.Frames)
	}

	shrunk := viewport.Compute(viewport.DefaultPolicy(), viewport.Input{
		ContainerWidth:   1664,
		ContainerHeight:  964,
		Zoom:             50,
		DevicePixelRatio: 1,
	})
	if err := s.Resize(shrunk); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	d.RunPending()
	if p.Width != shrunk.SurfaceWidth {
		t.Errorf("painter width = %d, want %d", p.Width, shrunk.SurfaceWidth)
	}
	if p.Frames != 1 {
		t.Errorf("Frames = %d, want 1", p.Frames)
	}
}

func TestSurfaceDispose(t *testing.T) {
	s, p, d := newTestSurface(t, true)
	_ = s.Insert(rect("a", 0, 0, 10, 10), 0)
	s.RequestRender()

	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := s.Dispose(); err != nil {
		t.Errorf("second Dispose: %v", err)
	}
	d.RunPending()
	if p.Frames != 0 {
		t.Error("pending frame painted after Dispose")
	}
	if !p.closed {
		t.Error("painter not closed")
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Insert", func() error { return s.Insert(rect("b", 0, 0, 1, 1), 0) }},
		{"Remove", func() error { return s.Remove("a") }},
		{"Move", func() error { return s.Move("a", 0) }},
		{"Update", func() error { return s.Update("a", func(*Object) {}) }},
		{"Clear", s.Clear},
		{"Render", s.Render},
		{"MoveObject", func() error { return s.MoveObject("a", 1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrDisposed) {
				t.Errorf("error = %v, want ErrDisposed", err)
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after Dispose", s.Len())
	}
}

func TestObjectBounds(t *testing.T) {
	o := rect("a", 0, 0, 100, 50)
	minX, minY, maxX, maxY := o.Bounds()
	if minX != 0 || minY != 0 || maxX != 100 || maxY != 50 {
		t.Errorf("Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}

	o.Angle = 90
	minX, minY, maxX, maxY = o.Bounds()
	if !near(minX, 25) || !near(minY, -25) || !near(maxX, 75) || !near(maxY, 75) {
		t.Errorf("rotated Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}

	o.Angle = 0
	o.ScaleX = 2
	if w, h := o.EffectiveSize(); w != 200 || h != 50 {
		t.Errorf("EffectiveSize = %v, %v", w, h)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{370, 10},
		{-90, 270},
		{-720, 0},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); got != tt.want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	for k := KindText; k <= KindAffordance; k++ {
		if k.String() == "unknown" {
			t.Errorf("Kind(%d) has no name", k)
		}
	}
	if Kind(99).String() != "unknown" {
		t.Error("out of range kind should be unknown")
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
