// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/slidecanvas/viewport"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device  gpucontext.Device
	queue   gpucontext.Queue
	adapter gpucontext.Adapter
	format  gputypes.TextureFormat
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		device:  &mockDevice{},
		queue:   &mockQueue{},
		adapter: &mockAdapter{},
		format:  gputypes.TextureFormatBGRA8Unorm,
	}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return m.queue }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return m.adapter }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

func smallTransform() viewport.Transform {
	return viewport.Compute(viewport.DefaultPolicy(), viewport.Input{
		ContainerWidth:   480,
		ContainerHeight:  300,
		Zoom:             100,
		DevicePixelRatio: 1,
	})
}

func redScene(tr viewport.Transform) Scene {
	o := NewObject("r", KindRectangle)
	o.Geometry = Geometry{X: 0, Y: 0, Width: 800, Height: 450}
	o.Fill = gg.RGB(1, 0, 0)
	return Scene{
		Objects:    []PaintObject{{Object: o, Alpha: 1}},
		Transform:  tr,
		Background: gg.RGB(1, 1, 1),
	}
}

func TestSoftwarePainter(t *testing.T) {
	tr := smallTransform()
	p, err := NewSoftwarePainter(BackendOptions{Width: tr.SurfaceWidth, Height: tr.SurfaceHeight})
	if err != nil {
		t.Fatalf("NewSoftwarePainter: %v", err)
	}
	defer p.Close()

	if err := p.Paint(redScene(tr)); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	img := p.Snapshot()
	if img == nil {
		t.Fatal("Snapshot returned nil")
	}
	if b := img.Bounds(); b.Dx() != tr.SurfaceWidth || b.Dy() != tr.SurfaceHeight {
		t.Errorf("snapshot size = %v, want %dx%d", b, tr.SurfaceWidth, tr.SurfaceHeight)
	}

	r, g, _, _ := img.At(20, 20).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Errorf("inside pixel = r%d g%d, want red", r>>8, g>>8)
	}
	r, g, _, _ = img.At(tr.SurfaceWidth-5, tr.SurfaceHeight-5).RGBA()
	if r>>8 < 200 || g>>8 < 200 {
		t.Errorf("outside pixel = r%d g%d, want white", r>>8, g>>8)
	}
}

func TestSoftwarePainterText(t *testing.T) {
	tr := smallTransform()
	p, err := NewSoftwarePainter(BackendOptions{Width: tr.SurfaceWidth, Height: tr.SurfaceHeight})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	o := NewObject("t", KindText)
	o.Geometry = Geometry{X: 100, Y: 100, Width: 600, Height: 120}
	o.Text = "Hello\nWorld"
	o.FontSize = 48
	o.Bold = true
	scene := Scene{Objects: []PaintObject{{Object: o, Alpha: 1}}, Transform: tr, Background: gg.RGB(1, 1, 1)}
	if err := p.Paint(scene); err != nil {
		t.Fatalf("Paint text: %v", err)
	}
}

func TestSoftwarePainterClosed(t *testing.T) {
	p, err := NewSoftwarePainter(BackendOptions{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := p.Paint(Scene{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Paint after Close = %v, want ErrDisposed", err)
	}
	if p.Snapshot() != nil {
		t.Error("Snapshot after Close should be nil")
	}
}

func TestBackendInvalidDimensions(t *testing.T) {
	factories := map[string]Factory{
		BackendSoftware: NewSoftwarePainter,
		BackendHeadless: NewHeadlessPainter,
	}
	for name, f := range factories {
		if _, err := f(BackendOptions{Width: 0, Height: 10}); !errors.Is(err, errInvalidDimensions) {
			t.Errorf("%s: error = %v, want errInvalidDimensions", name, err)
		}
	}
}

func TestGPUPainter(t *testing.T) {
	if _, err := NewGPUPainter(BackendOptions{Width: 10, Height: 10}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("no provider error = %v, want ErrBackendUnavailable", err)
	}

	tr := smallTransform()
	p, err := NewGPUPainter(BackendOptions{Width: tr.SurfaceWidth, Height: tr.SurfaceHeight, Provider: newMockProvider()})
	if err != nil {
		t.Fatalf("NewGPUPainter: %v", err)
	}
	defer p.Close()

	if _, ok := p.(CanvasPresenter); !ok {
		t.Error("gpu painter should expose its canvas")
	}
	if err := p.Paint(redScene(tr)); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if p.Snapshot() == nil {
		t.Error("gpu painter snapshot is nil")
	}
	if err := p.Resize(100, 50); err != nil {
		t.Errorf("Resize: %v", err)
	}
}

func TestHeadlessPainter(t *testing.T) {
	p, _ := NewHeadlessPainter(BackendOptions{Width: 4, Height: 4})
	hp := p.(*HeadlessPainter)
	if err := p.Paint(redScene(smallTransform())); err != nil {
		t.Fatal(err)
	}
	if hp.Frames != 1 || !equalIDs(hp.Last, []string{"r"}) {
		t.Errorf("Frames = %d Last = %v", hp.Frames, hp.Last)
	}
	if err := p.Resize(-1, 4); err == nil {
		t.Error("negative Resize should fail")
	}
	_ = p.Close()
	if err := p.Paint(Scene{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Paint after Close = %v", err)
	}
}

func TestFontsFace(t *testing.T) {
	f := NewFonts()
	a, err := f.Face("Inter", false, false, 24)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(f.faces); n != 1 {
		t.Errorf("cached faces = %d, want 1", n)
	}
	_, _ = f.Face("Inter", false, false, 24)
	if n := len(f.faces); n != 1 {
		t.Errorf("cached faces after repeat = %d, want 1", n)
	}
	if a.Size() != 24 {
		t.Errorf("Size = %v", a.Size())
	}
	d, _ := f.Face("", true, true, 0)
	if d.Size() != DefaultFontSize {
		t.Errorf("default size = %v", d.Size())
	}
	if _, err := f.Face("JetBrains Mono", true, false, 12); err != nil {
		t.Errorf("mono face: %v", err)
	}
}
