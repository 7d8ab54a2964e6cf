// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/integration/ggcanvas"
	"github.com/gogpu/gpucontext"
)

// Backend names registered in the default registry.
const (
	BackendGPU      = "gpu"
	BackendSoftware = "software"
	BackendHeadless = "headless"
)

// errInvalidDimensions is returned for non-positive backing sizes.
var errInvalidDimensions = errors.New("surface: invalid dimensions")

// BackendOptions is passed to backend factories.
type BackendOptions struct {
	Width, Height int
	// Provider gives GPU access; the gpu backend is only available with one.
	Provider gpucontext.DeviceProvider
	Fonts    *Fonts
}

func (o BackendOptions) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", errInvalidDimensions, o.Width, o.Height)
	}
	return nil
}

func (o BackendOptions) fonts() *Fonts {
	if o.Fonts != nil {
		return o.Fonts
	}
	return DefaultFonts()
}

// softwarePainter rasterizes on the CPU with a gg.Context.
type softwarePainter struct {
	dc     *gg.Context
	fonts  *Fonts
	closed bool
}

// NewSoftwarePainter returns a CPU painter.
func NewSoftwarePainter(opts BackendOptions) (Painter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &softwarePainter{dc: gg.NewContext(opts.Width, opts.Height), fonts: opts.fonts()}, nil
}

func (p *softwarePainter) Resize(width, height int) error {
	if p.closed {
		return ErrDisposed
	}
	return p.dc.Resize(width, height)
}

func (p *softwarePainter) Paint(scene Scene) error {
	if p.closed {
		return ErrDisposed
	}
	return drawScene(p.dc, scene, p.fonts)
}

func (p *softwarePainter) Snapshot() image.Image {
	if p.closed {
		return nil
	}
	return p.dc.Image()
}

func (p *softwarePainter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.dc.Close()
}

// gpuPainter draws through ggcanvas so the host can present the texture in
// a gogpu window.
type gpuPainter struct {
	canvas *ggcanvas.Canvas
	fonts  *Fonts
}

// NewGPUPainter returns a painter backed by a ggcanvas.Canvas.
func NewGPUPainter(opts BackendOptions) (Painter, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: gpu backend needs a device provider", ErrBackendUnavailable)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c, err := ggcanvas.New(opts.Provider, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	return &gpuPainter{canvas: c, fonts: opts.fonts()}, nil
}

// Canvas returns the underlying ggcanvas for presentation.
func (p *gpuPainter) Canvas() *ggcanvas.Canvas { return p.canvas }

func (p *gpuPainter) Resize(width, height int) error {
	return p.canvas.Resize(width, height)
}

func (p *gpuPainter) Paint(scene Scene) error {
	var paintErr error
	if err := p.canvas.Draw(func(dc *gg.Context) {
		paintErr = drawScene(dc, scene, p.fonts)
	}); err != nil {
		return err
	}
	return paintErr
}

func (p *gpuPainter) Snapshot() image.Image {
	dc := p.canvas.Context()
	if dc == nil {
		return nil
	}
	return dc.Image()
}

func (p *gpuPainter) Close() error {
	return p.canvas.Close()
}

// CanvasPresenter is implemented by painters that own a ggcanvas.
type CanvasPresenter interface {
	Canvas() *ggcanvas.Canvas
}

// HeadlessPainter records frames without producing pixels.
type HeadlessPainter struct {
	Width, Height int
	Frames        int
	// Last holds the object ids of the last frame in paint order.
	Last   []string
	closed bool
}

// NewHeadlessPainter returns a pixel-less painter.
func NewHeadlessPainter(opts BackendOptions) (Painter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &HeadlessPainter{Width: opts.Width, Height: opts.Height}, nil
}

func (p *HeadlessPainter) Resize(width, height int) error {
	if p.closed {
		return ErrDisposed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", errInvalidDimensions, width, height)
	}
	p.Width, p.Height = width, height
	return nil
}

func (p *HeadlessPainter) Paint(scene Scene) error {
	if p.closed {
		return ErrDisposed
	}
	p.Frames++
	p.Last = p.Last[:0]
	for _, o := range scene.Objects {
		if o.kind != KindLoading {
			p.Last = append(p.Last, o.id)
		}
	}
	return nil
}

func (p *HeadlessPainter) Snapshot() image.Image { return nil }

func (p *HeadlessPainter) Close() error {
	p.closed = true
	return nil
}
