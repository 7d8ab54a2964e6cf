// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/viewport"
)

// Painter turns a scene into pixels. Implementations are backends selected
// through a Registry.
type Painter interface {
	// Resize changes the backing resolution in pixels.
	Resize(width, height int) error
	// Paint draws a full frame.
	Paint(scene Scene) error
	// Snapshot returns the last frame, or nil if the backend keeps no pixels.
	Snapshot() image.Image
	// Close releases the backend. Close is idempotent.
	Close() error
}

// PaintObject is an object with its effective alpha for one frame.
type PaintObject struct {
	*Object
	Alpha float64
}

// Scene is one frame worth of paint input.
type Scene struct {
	Objects    []PaintObject
	Transform  viewport.Transform
	Background gg.RGBA
	// Effects enables shadows.
	Effects bool
}

const (
	shadowOffsetX = 6
	shadowOffsetY = 8
	lineSpacing   = 1.25
)

var (
	errorFill    = gg.RGBA{R: 0.99, G: 0.91, B: 0.91, A: 1}
	errorStroke  = gg.RGB(0.85, 0.2, 0.2)
	labelColor   = gg.RGB(0.55, 0.57, 0.6)
	controlFill  = gg.RGB(0.93, 0.94, 0.96)
	controlLabel = gg.RGB(0.2, 0.22, 0.26)
)

// drawScene renders a scene with dc. It is shared by the software and gpu
// backends.
func drawScene(dc *gg.Context, scene Scene, fonts *Fonts) error {
	dc.Identity()
	dc.ClearWithColor(scene.Background)

	k := scene.Transform.SurfaceScale
	if k <= 0 || math.IsNaN(k) {
		k = 1
	}
	var errs []error
	for _, po := range scene.Objects {
		o := po.Object
		if po.Alpha <= 0 || o.kind == KindLoading {
			continue
		}
		w, h := o.EffectiveSize()
		cx, cy := o.X+w/2, o.Y+h/2

		dc.Push()
		dc.Scale(k, k)
		dc.Translate(cx, cy)
		if o.Angle != 0 {
			dc.Rotate(o.Angle * math.Pi / 180)
		}
		if scene.Effects && o.Shadow {
			errs = append(errs, drawShadow(dc, o, w, h, po.Alpha))
		}
		errs = append(errs, drawObject(dc, o, w, h, po.Alpha, fonts))
		dc.Pop()
	}
	return errors.Join(errs...)
}

func drawObject(dc *gg.Context, o *Object, w, h, a float64, fonts *Fonts) error {
	switch o.kind {
	case KindRectangle:
		rectPath(dc, o.Rounded, w, h)
		return fillStroke(dc, o.Fill, o.Stroke, o.StrokeWidth, a)
	case KindCircle:
		dc.DrawEllipse(0, 0, w/2, h/2)
		return fillStroke(dc, o.Fill, o.Stroke, o.StrokeWidth, a)
	case KindImage:
		if o.Image == nil {
			return nil
		}
		dc.DrawImageEx(o.Image, gg.DrawImageOptions{
			X: -w / 2, Y: -h / 2,
			DstWidth: w, DstHeight: h,
			Interpolation: gg.InterpBilinear,
			Opacity:       a,
		})
		return nil
	case KindText:
		return drawText(dc, fonts, o.Text, o.TextColor, o.FontFamily, o.FontSize, o.Bold, o.Italic, o.Align, w, h, a)
	case KindLabel:
		return drawText(dc, fonts, o.Text, labelColor, o.FontFamily, o.FontSize, false, false, "center", w, h, a)
	case KindAffordance:
		rectPath(dc, true, w, h)
		if err := fillStroke(dc, controlFill, labelColor, 2, a); err != nil {
			return err
		}
		return drawText(dc, fonts, o.Text, controlLabel, "", o.FontSize, true, false, "center", w, h, a)
	case KindError:
		rectPath(dc, false, w, h)
		if err := fillStroke(dc, errorFill, errorStroke, 3, a); err != nil {
			return err
		}
		m := math.Min(w, h) / 4
		dc.SetRGBA(errorStroke.R, errorStroke.G, errorStroke.B, a)
		dc.SetLineWidth(4)
		dc.DrawLine(-m, -m, m, m)
		dc.DrawLine(-m, m, m, -m)
		return dc.Stroke()
	}
	return nil
}

func drawShadow(dc *gg.Context, o *Object, w, h, a float64) error {
	dc.Push()
	defer dc.Pop()
	dc.Translate(shadowOffsetX, shadowOffsetY)
	switch o.kind {
	case KindCircle:
		dc.DrawEllipse(0, 0, w/2, h/2)
	default:
		rectPath(dc, o.Rounded, w, h)
	}
	dc.SetRGBA(0, 0, 0, 0.18*a)
	return dc.Fill()
}

func rectPath(dc *gg.Context, rounded bool, w, h float64) {
	if rounded {
		dc.DrawRoundedRectangle(-w/2, -h/2, w, h, math.Min(w, h)*0.12)
		return
	}
	dc.DrawRectangle(-w/2, -h/2, w, h)
}

func fillStroke(dc *gg.Context, fill, stroke gg.RGBA, width, a float64) error {
	var err error
	if fill.A > 0 {
		dc.SetRGBA(fill.R, fill.G, fill.B, fill.A*a)
		if stroke.A > 0 && width > 0 {
			err = dc.FillPreserve()
		} else {
			return dc.Fill()
		}
	}
	if stroke.A > 0 && width > 0 {
		dc.SetRGBA(stroke.R, stroke.G, stroke.B, stroke.A*a)
		dc.SetLineWidth(width)
		return errors.Join(err, dc.Stroke())
	}
	dc.ClearPath()
	return err
}

func drawText(dc *gg.Context, fonts *Fonts, s string, col gg.RGBA, family string, size float64, bold, italic bool, align string, w, h, a float64) error {
	if s == "" {
		return nil
	}
	face, err := fonts.Face(family, bold, italic, size)
	if err != nil {
		return err
	}
	dc.SetFont(face)
	if col == (gg.RGBA{}) {
		col = gg.RGB(0, 0, 0)
	}
	dc.SetRGBA(col.R, col.G, col.B, col.A*a)

	lines := strings.Split(s, "\n")
	size = face.Size()
	lineH := size * lineSpacing
	y := -h/2 + size
	if align == "center" && len(lines) == 1 {
		// Single centered lines sit on the vertical middle.
		y = size / 3
	}
	for _, line := range lines {
		tw, _ := dc.MeasureString(line)
		x := -w / 2
		switch align {
		case "center":
			x = -tw / 2
		case "right":
			x = w/2 - tw
		}
		dc.DrawString(line, x, y)
		y += lineH
	}
	return nil
}
