// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewport maps the fixed logical drawing space onto a resizable,
// zoomable, device-pixel-ratio scaled physical viewport.
//
// Zooming is asymmetric. At or below 100% the backing resolution of the
// surface shrinks with the zoom factor, which is cheaper to paint and stays
// crisp at small sizes. Above 100% the backing resolution stays at the base
// fit size and the zoom is applied as a pure visual scale, so zooming in never
// re-rasterizes at a larger resolution.
package viewport

import (
	"math"

	"github.com/gogpu/slidecanvas/document"
)

// Default policy values.
const (
	DefaultMinZoom          = 25
	DefaultMaxZoom          = 200
	DefaultPadding          = 32
	MinContainerWidth       = 320
	MinContainerHeight      = 240
	maxDevicePixelRatio     = 4
	defaultDevicePixelRatio = 1
)

// Policy configures the transform.
type Policy struct {
	LogicalWidth  float64
	LogicalHeight float64
	MinZoom       float64
	MaxZoom       float64
	// Padding is kept free on every side of the container.
	Padding float64
}

// DefaultPolicy returns the policy for the canonical 1600x900 space.
func DefaultPolicy() Policy {
	return Policy{
		LogicalWidth:  document.LogicalWidth,
		LogicalHeight: document.LogicalHeight,
		MinZoom:       DefaultMinZoom,
		MaxZoom:       DefaultMaxZoom,
		Padding:       DefaultPadding,
	}
}

// Input is the physical state of the viewport.
type Input struct {
	ContainerWidth   float64
	ContainerHeight  float64
	Zoom             float64 // percent
	DevicePixelRatio float64
}

// Transform is the result of Compute.
type Transform struct {
	LogicalWidth  float64
	LogicalHeight float64

	// DisplayWidth and DisplayHeight are the on-screen size in device
	// independent pixels, after the visual scale.
	DisplayWidth  float64
	DisplayHeight float64

	// Scale maps logical units to display pixels.
	Scale float64

	// SurfaceWidth and SurfaceHeight are the backing resolution in physical
	// pixels. SurfaceScale maps logical units to backing pixels.
	SurfaceWidth  int
	SurfaceHeight int
	SurfaceScale  float64

	// VisualScale is applied after rasterization; it is 1 at or below 100%.
	VisualScale float64

	// Zoom is the clamped zoom percentage.
	Zoom             float64
	DevicePixelRatio float64
}

// Compute derives the transform for in under p. Inputs are clamped; there
// are no error states.
func Compute(p Policy, in Input) Transform {
	p = p.normalized()

	cw := clampMin(in.ContainerWidth, MinContainerWidth)
	ch := clampMin(in.ContainerHeight, MinContainerHeight)
	dpr := in.DevicePixelRatio
	if !isFinite(dpr) || dpr < defaultDevicePixelRatio {
		dpr = defaultDevicePixelRatio
	}
	dpr = math.Min(dpr, maxDevicePixelRatio)
	zoom := ClampZoom(p, in.Zoom)

	availW := math.Max(cw-2*p.Padding, cw/2)
	availH := math.Max(ch-2*p.Padding, ch/2)
	aspect := p.LogicalWidth / p.LogicalHeight
	baseW := math.Min(availW, availH*aspect)
	baseH := baseW / aspect

	z := zoom / 100
	renderW, renderH, visual := baseW, baseH, z
	if z <= 1 {
		renderW, renderH, visual = baseW*z, baseH*z, 1
	}

	t := Transform{
		LogicalWidth:     p.LogicalWidth,
		LogicalHeight:    p.LogicalHeight,
		DisplayWidth:     renderW * visual,
		DisplayHeight:    renderH * visual,
		SurfaceWidth:     max(1, int(math.Round(renderW*dpr))),
		SurfaceHeight:    max(1, int(math.Round(renderH*dpr))),
		VisualScale:      visual,
		Zoom:             zoom,
		DevicePixelRatio: dpr,
	}
	t.Scale = t.DisplayWidth / p.LogicalWidth
	t.SurfaceScale = renderW * dpr / p.LogicalWidth
	return t
}

// ClampZoom clamps a zoom percentage to the policy range. Non-finite values
// map to 100.
func ClampZoom(p Policy, zoom float64) float64 {
	p = p.normalized()
	if !isFinite(zoom) || zoom == 0 {
		zoom = 100
	}
	return math.Max(p.MinZoom, math.Min(p.MaxZoom, zoom))
}

// ToLogical converts a display-space point (relative to the top-left of the
// displayed surface) to logical units.
func (t Transform) ToLogical(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return x, y
	}
	return x / t.Scale, y / t.Scale
}

// ToDisplay converts logical units to display pixels.
func (t Transform) ToDisplay(x, y float64) (float64, float64) {
	return x * t.Scale, y * t.Scale
}

// SameSurface reports whether a and b share a backing resolution, i.e.
// switching between them needs no re-rasterization.
func (t Transform) SameSurface(o Transform) bool {
	return t.SurfaceWidth == o.SurfaceWidth && t.SurfaceHeight == o.SurfaceHeight
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if !isFinite(p.LogicalWidth) || p.LogicalWidth <= 0 {
		p.LogicalWidth = d.LogicalWidth
	}
	if !isFinite(p.LogicalHeight) || p.LogicalHeight <= 0 {
		p.LogicalHeight = d.LogicalHeight
	}
	if !isFinite(p.MinZoom) || p.MinZoom <= 0 {
		p.MinZoom = d.MinZoom
	}
	if !isFinite(p.MaxZoom) || p.MaxZoom < p.MinZoom {
		p.MaxZoom = math.Max(d.MaxZoom, p.MinZoom)
	}
	if !isFinite(p.Padding) || p.Padding < 0 {
		p.Padding = 0
	}
	return p
}

func clampMin(v, lo float64) float64 {
	if !isFinite(v) || v < lo {
		return lo
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
