// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestComputeFitsAspect(t *testing.T) {
	p := DefaultPolicy()
	p.Padding = 0
	tr := Compute(p, Input{ContainerWidth: 1600, ContainerHeight: 1600, Zoom: 100, DevicePixelRatio: 1})
	if !approx(tr.DisplayWidth, 1600) || !approx(tr.DisplayHeight, 900) {
		t.Errorf("display = %vx%v, want 1600x900", tr.DisplayWidth, tr.DisplayHeight)
	}
	if !approx(tr.Scale, 1) {
		t.Errorf("Scale = %v, want 1", tr.Scale)
	}

	tall := Compute(p, Input{ContainerWidth: 4000, ContainerHeight: 450, Zoom: 100})
	if !approx(tall.DisplayHeight, 450) || !approx(tall.DisplayWidth, 800) {
		t.Errorf("height-bound display = %vx%v, want 800x450", tall.DisplayWidth, tall.DisplayHeight)
	}
}

func TestZoomAboveHundredKeepsResolution(t *testing.T) {
	p := DefaultPolicy()
	in := Input{ContainerWidth: 1280, ContainerHeight: 800, Zoom: 100, DevicePixelRatio: 2}
	base := Compute(p, in)
	in.Zoom = 150
	zoomed := Compute(p, in)

	if zoomed.SurfaceWidth != base.SurfaceWidth || zoomed.SurfaceHeight != base.SurfaceHeight {
		t.Errorf("surface %dx%d changed to %dx%d", base.SurfaceWidth, base.SurfaceHeight, zoomed.SurfaceWidth, zoomed.SurfaceHeight)
	}
	if !base.SameSurface(zoomed) {
		t.Error("SameSurface() = false")
	}
	if !approx(zoomed.DisplayWidth, base.DisplayWidth*1.5) || !approx(zoomed.DisplayHeight, base.DisplayHeight*1.5) {
		t.Errorf("display %v -> %v, want 1.5x", base.DisplayWidth, zoomed.DisplayWidth)
	}
	if !approx(zoomed.VisualScale, 1.5) || base.VisualScale != 1 {
		t.Errorf("VisualScale = %v / %v", base.VisualScale, zoomed.VisualScale)
	}
}

func TestZoomBelowHundredShrinksResolution(t *testing.T) {
	p := DefaultPolicy()
	in := Input{ContainerWidth: 1280, ContainerHeight: 800, Zoom: 100, DevicePixelRatio: 1}
	base := Compute(p, in)
	in.Zoom = 50
	half := Compute(p, in)

	if got, want := half.SurfaceWidth, int(math.Round(float64(base.SurfaceWidth)/2)); got != want {
		t.Errorf("SurfaceWidth = %d, want %d", got, want)
	}
	if half.VisualScale != 1 {
		t.Errorf("VisualScale = %v, want 1", half.VisualScale)
	}
	if !approx(half.DisplayWidth, base.DisplayWidth/2) {
		t.Errorf("DisplayWidth = %v, want %v", half.DisplayWidth, base.DisplayWidth/2)
	}
}

func TestClamping(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name string
		in   Input
		zoom float64
	}{
		{"zoom below range", Input{Zoom: 5}, 25},
		{"zoom above range", Input{Zoom: 900}, 200},
		{"zoom NaN", Input{Zoom: math.NaN()}, 100},
		{"zoom zero", Input{}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Compute(p, tt.in)
			if tr.Zoom != tt.zoom {
				t.Errorf("Zoom = %v, want %v", tr.Zoom, tt.zoom)
			}
			if tr.SurfaceWidth < 1 || tr.SurfaceHeight < 1 {
				t.Errorf("surface %dx%d must be positive", tr.SurfaceWidth, tr.SurfaceHeight)
			}
			if tr.DevicePixelRatio != 1 {
				t.Errorf("DevicePixelRatio = %v, want 1", tr.DevicePixelRatio)
			}
		})
	}

	tiny := Compute(p, Input{ContainerWidth: 10, ContainerHeight: 10, Zoom: 100})
	small := Compute(p, Input{ContainerWidth: MinContainerWidth, ContainerHeight: MinContainerHeight, Zoom: 100})
	if tiny != small {
		t.Errorf("tiny container not clamped to minimum: %+v vs %+v", tiny, small)
	}

	huge := Compute(p, Input{ContainerWidth: 1000, ContainerHeight: 1000, Zoom: 100, DevicePixelRatio: 12})
	if huge.DevicePixelRatio != maxDevicePixelRatio {
		t.Errorf("DevicePixelRatio = %v, want %v", huge.DevicePixelRatio, maxDevicePixelRatio)
	}
}

func TestToLogicalRoundTrip(t *testing.T) {
	tr := Compute(DefaultPolicy(), Input{ContainerWidth: 900, ContainerHeight: 700, Zoom: 175, DevicePixelRatio: 2})
	x, y := tr.ToDisplay(400, 300)
	lx, ly := tr.ToLogical(x, y)
	if math.Abs(lx-400) > eps || math.Abs(ly-300) > eps {
		t.Errorf("round trip = (%v, %v), want (400, 300)", lx, ly)
	}
}
