// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/slidecanvas/loop"
)

func newTestManager(t *testing.T) (*Manager, *loop.Manual) {
	t.Helper()
	d := loop.NewManual(time.Unix(0, 0))
	r := NewRegistry()
	r.Register(BackendHeadless, 1, NewHeadlessPainter, nil)
	m := NewManager(ManagerOptions{
		Dispatcher:  d,
		Registry:    r,
		MaxAttempts: 4,
		RetryDelay:  10 * time.Millisecond,
	})
	return m, d
}

func testMount(name string) *StaticMount {
	return &StaticMount{Name: name, Width: 1664, Height: 964, DPR: 1}
}

type acquireResult struct {
	calls int
	h     *Handle
	err   error
}

func (r *acquireResult) done(h *Handle, err error) {
	r.calls++
	r.h, r.err = h, err
}

func TestManagerAcquire(t *testing.T) {
	m, _ := newTestManager(t)
	mount := testMount("a")

	var res acquireResult
	h := m.Acquire(mount, true, 100, res.done)
	if res.calls != 1 || res.err != nil {
		t.Fatalf("done calls = %d err = %v", res.calls, res.err)
	}
	if h.State() != StateLive || h.Surface() == nil {
		t.Fatalf("state = %v", h.State())
	}
	if !h.Surface().Editable() {
		t.Error("surface not editable")
	}
	if got := h.Surface().Transform().SurfaceWidth; got != 1600 {
		t.Errorf("SurfaceWidth = %d, want 1600", got)
	}
	if st := m.Stats(); st.Created != 1 {
		t.Errorf("Created = %d", st.Created)
	}
}

func TestManagerAcquireIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	mount := testMount("a")

	h1 := m.Acquire(mount, false, 100, nil)
	s1 := h1.Surface()
	h2 := m.Acquire(mount, false, 150, nil)

	if h1 != h2 || h2.Surface() != s1 {
		t.Error("second Acquire with same editable flag replaced the surface")
	}
	if m.Generation("a") != 0 {
		t.Errorf("Generation = %d, want 0", m.Generation("a"))
	}
	if st := m.Stats(); st.Created != 1 || st.Disposed != 0 {
		t.Errorf("Stats = %+v", st)
	}
}

// sizedMount is a value-type Mount that is not comparable with ==.
type sizedMount struct {
	name  string
	sizes []float64
}

func (m sizedMount) ID() string { return m.name }
func (m sizedMount) Attached() bool { return true }
func (m sizedMount) Size() (float64, float64) { return m.sizes[0], m.sizes[1] }
func (m sizedMount) DevicePixelRatio() float64 { return 1 }

func TestManagerAcquireNonComparableMount(t *testing.T) {
	m, _ := newTestManager(t)

	h1 := m.Acquire(sizedMount{name: "v", sizes: []float64{1664, 964}}, true, 100, nil)
	h2 := m.Acquire(sizedMount{name: "v", sizes: []float64{1664, 964}}, true, 100, nil)

	if h1 != h2 || h2.State() != StateLive {
		t.Errorf("reacquire replaced the handle: state = %v", h2.State())
	}
	if st := m.Stats(); st.Created != 1 || st.Disposed != 0 {
		t.Errorf("Stats = %+v", st)
	}
	if m.Generation("v") != 0 {
		t.Errorf("Generation = %d, want 0", m.Generation("v"))
	}
}

func TestManagerEditableToggle(t *testing.T) {
	m, _ := newTestManager(t)
	mount := testMount("a")

	var gens []uint64
	m.opts.OnGeneration = func(_ string, g uint64) { gens = append(gens, g) }

	h1 := m.Acquire(mount, false, 100, nil)
	old := h1.Surface()
	gen0 := m.Generation("a")

	h2 := m.Acquire(mount, true, 100, nil)
	if !old.Disposed() {
		t.Error("old surface not disposed")
	}
	if h1.State() != StateReleased {
		t.Errorf("old handle state = %v", h1.State())
	}
	if got := m.Generation("a"); got != gen0+1 {
		t.Errorf("Generation = %d, want %d", got, gen0+1)
	}
	if h2.Generation() != gen0+1 {
		t.Errorf("new handle generation = %d", h2.Generation())
	}
	if !h2.Surface().Editable() {
		t.Error("new surface not editable")
	}
	if m.Current("a", gen0) {
		t.Error("old generation still current")
	}
	if !m.Current("a", gen0+1) {
		t.Error("new generation not current")
	}
	if len(gens) != 1 || gens[0] != gen0+1 {
		t.Errorf("OnGeneration calls = %v", gens)
	}
}

func TestManagerIndependentMounts(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.Acquire(testMount("a"), false, 100, nil)
	b := m.Acquire(testMount("b"), true, 100, nil)
	m.Acquire(testMount("b"), false, 100, nil)

	if a.State() != StateLive || a.Surface().Disposed() {
		t.Error("toggling mount b disturbed mount a")
	}
	if b.State() != StateReleased {
		t.Error("mount b handle not replaced")
	}
	if m.Generation("a") != 0 || m.Generation("b") != 1 {
		t.Errorf("generations a=%d b=%d", m.Generation("a"), m.Generation("b"))
	}
}

func TestManagerRetryUntilAttached(t *testing.T) {
	m, d := newTestManager(t)
	mount := testMount("late")
	mount.Detached = true

	var res acquireResult
	h := m.Acquire(mount, false, 100, res.done)
	if h.State() != StatePending || res.calls != 0 {
		t.Fatalf("state = %v calls = %d", h.State(), res.calls)
	}

	d.Advance(10 * time.Millisecond)
	if h.State() != StatePending {
		t.Fatalf("state after first retry = %v", h.State())
	}

	mount.Detached = false
	d.Advance(time.Second)
	if h.State() != StateLive {
		t.Fatalf("state = %v, want live", h.State())
	}
	if res.calls != 1 || res.err != nil {
		t.Errorf("done calls = %d err = %v", res.calls, res.err)
	}
	if h.Attempts() != 3 {
		t.Errorf("Attempts = %d, want 3", h.Attempts())
	}
}

func TestManagerRetryExhausted(t *testing.T) {
	m, d := newTestManager(t)
	mount := testMount("never")
	mount.Detached = true

	var res acquireResult
	h := m.Acquire(mount, true, 100, res.done)
	for range 10 {
		d.Advance(time.Second)
	}

	if h.State() != StateErrored {
		t.Fatalf("state = %v, want errored", h.State())
	}
	var ie *InitializationError
	if !errors.As(res.err, &ie) {
		t.Fatalf("err = %v, want *InitializationError", res.err)
	}
	if ie.Attempts != 4 || ie.Mount != "never" {
		t.Errorf("InitializationError = %+v", ie)
	}
	if !errors.Is(res.err, ErrMountDetached) {
		t.Errorf("err does not wrap ErrMountDetached: %v", res.err)
	}
	if st := m.Stats(); st.Failed != 1 || st.Created != 0 {
		t.Errorf("Stats = %+v", st)
	}

	// Acquire on an errored handle reports the same error without retrying.
	var again acquireResult
	if h2 := m.Acquire(mount, true, 100, again.done); h2 != h || !errors.Is(again.err, ErrMountDetached) {
		t.Errorf("re-Acquire = %v, %v", h2, again.err)
	}

	mount.Detached = false
	h3 := m.Reset(h, nil)
	if h3 == h || h3.State() != StateLive {
		t.Errorf("Reset state = %v", h3.State())
	}
}

func TestManagerBackendFailure(t *testing.T) {
	d := loop.NewManual(time.Unix(0, 0))
	r := NewRegistry()
	r.Register("broken", 1, func(BackendOptions) (Painter, error) {
		panic("driver exploded")
	}, nil)
	m := NewManager(ManagerOptions{Dispatcher: d, Registry: r})

	var res acquireResult
	h := m.Acquire(testMount("a"), false, 100, res.done)
	if h.State() != StateErrored {
		t.Fatalf("state = %v", h.State())
	}
	var ie *InitializationError
	if !errors.As(res.err, &ie) || ie.Attempts != 1 {
		t.Errorf("err = %v", res.err)
	}
}

func TestManagerRelease(t *testing.T) {
	m, _ := newTestManager(t)
	mount := testMount("a")
	h := m.Acquire(mount, false, 100, nil)
	s := h.Surface()

	m.Release(h)
	m.Release(h)

	if !s.Disposed() {
		t.Error("surface not disposed")
	}
	if h.Surface() != nil {
		t.Error("released handle still exposes its surface")
	}
	if m.Generation("a") != 1 {
		t.Errorf("Generation = %d, want 1", m.Generation("a"))
	}
	if st := m.Stats(); st.Disposed != 1 {
		t.Errorf("Disposed = %d, want 1", st.Disposed)
	}

	h2 := m.Acquire(mount, false, 100, nil)
	if h2.Generation() != 1 {
		t.Errorf("reacquired generation = %d, want 1", h2.Generation())
	}
	if _, err := m.Resize(h, 100); !errors.Is(err, ErrHandleReleased) {
		t.Errorf("Resize on released handle = %v", err)
	}
}

func TestManagerReleasePending(t *testing.T) {
	m, d := newTestManager(t)
	mount := testMount("a")
	mount.Detached = true

	var res acquireResult
	h := m.Acquire(mount, false, 100, res.done)
	m.Release(h)
	mount.Detached = false
	d.Advance(time.Second)

	if h.State() != StateReleased || res.calls != 0 {
		t.Errorf("state = %v calls = %d", h.State(), res.calls)
	}
}

func TestManagerResize(t *testing.T) {
	m, _ := newTestManager(t)
	mount := testMount("a")
	h := m.Acquire(mount, false, 100, nil)

	mount.Width, mount.Height = 864, 514
	tr, err := m.Resize(h, 100)
	if err != nil {
		t.Fatal(err)
	}
	if tr.SurfaceWidth != 800 {
		t.Errorf("SurfaceWidth = %d, want 800", tr.SurfaceWidth)
	}
	hp := h.Surface().Painter().(*HeadlessPainter)
	if hp.Width != 800 {
		t.Errorf("painter width = %d", hp.Width)
	}
}

func TestStaticMountDefaults(t *testing.T) {
	m := &StaticMount{Name: "x"}
	if m.DevicePixelRatio() != 1 {
		t.Errorf("DPR = %v", m.DevicePixelRatio())
	}
	if !m.Attached() {
		t.Error("static mount should be attached by default")
	}
}
