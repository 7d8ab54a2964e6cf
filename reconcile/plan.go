// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/surface"
)

// Engine-owned object ids.
const (
	PlaceholderID = document.ReservedPrefix + "placeholder"
	ErrorGlyphID  = document.ReservedPrefix + "error"
	affordancePfx = document.ReservedPrefix + "add-"
)

// ActionPrefix prefixes the Action of add-element affordances. The suffix is
// the element type to add.
const ActionPrefix = "add:"

// AddActions are the element types offered by the empty-slide affordances.
var AddActions = []document.ElementType{document.TypeText, document.TypeRectangle, document.TypeImage}

// ParseAction returns the element type of an affordance action.
func ParseAction(action string) (document.ElementType, bool) {
	rest, ok := strings.CutPrefix(action, ActionPrefix)
	if !ok {
		return "", false
	}
	t := document.ElementType(rest)
	return t, t.Valid()
}

const (
	placeholderFontSize = 48
	affordanceWidth     = 240
	affordanceHeight    = 72
	affordanceGap       = 32
	affordanceTop       = 560
	affordanceFontSize  = 26
	errorGlyphSize      = 200
)

var (
	defaultTextColor = gg.RGB(0.07, 0.09, 0.15)
	defaultFill      = gg.Hex("#4f7cff")
)

// desired is the target state of one display object.
type desired struct {
	id     string
	kind   surface.Kind
	geom   surface.Geometry
	style  surface.Style
	image  bool
	source string
}

// compatible reports whether o already has the kind d wants. Loading and error
// slots count as images.
func (d *desired) compatible(o *surface.Object) bool {
	if d.image {
		switch o.Kind() {
		case surface.KindImage, surface.KindLoading, surface.KindError:
			return true
		}
		return false
	}
	return o.Kind() == d.kind
}

// differs reports whether o needs an update to match d. Image kind and
// pixels are owned by the loader and not compared here.
func (d *desired) differs(o *surface.Object) bool {
	return o.Geometry != d.geom || o.Style != d.style || o.ScaleX != 1 || o.ScaleY != 1
}

func (d *desired) apply(o *surface.Object) {
	o.Geometry = d.geom
	o.Style = d.style
	o.ScaleX, o.ScaleY = 1, 1
}

func (d *desired) build() *surface.Object {
	kind := d.kind
	if d.image {
		kind = surface.KindLoading
	}
	o := surface.NewObject(d.id, kind)
	d.apply(o)
	return o
}

// plan returns the desired display list for slide in paint order.
func plan(slide document.Slide, opts Options) []desired {
	if len(slide.Elements) == 0 {
		return emptyPlan(opts)
	}
	order := document.PaintOrder(slide.Elements)
	out := make([]desired, 0, len(order))
	for _, e := range order {
		out = append(out, describe(e, opts))
	}
	return out
}

// describe maps an element to its display object.
func describe(e document.Element, opts Options) desired {
	d := desired{
		id: e.ID,
		geom: surface.Geometry{
			X:      e.Position.X,
			Y:      e.Position.Y,
			Width:  e.Size.Width,
			Height: e.Size.Height,
			Angle:  e.Angle,
		},
	}
	d.style.Selectable = opts.Editable

	switch e.Type {
	case document.TypeText:
		d.kind = surface.KindText
		if p := e.Props.Text; p != nil {
			d.style.Text = p.Content
			d.style.TextColor = color(p.Color, defaultTextColor)
			d.style.FontFamily = p.FontFamily
			d.style.FontSize = p.FontSize
			d.style.Bold = p.Bold
			d.style.Italic = p.Italic
			d.style.Align = string(p.Align)
		} else {
			d.style.TextColor = defaultTextColor
		}
	case document.TypeRectangle, document.TypeCircle:
		d.kind = surface.KindRectangle
		if e.Type == document.TypeCircle {
			d.kind = surface.KindCircle
		}
		d.style.Fill = defaultFill
		if p := e.Props.Shape; p != nil {
			d.style.Fill = color(p.Fill, defaultFill)
			d.style.Stroke = color(p.Stroke, gg.RGBA{})
			d.style.StrokeWidth = p.StrokeWidth
			d.style.Rounded = p.Kind == "rounded"
		}
		d.style.Shadow = !opts.Degrade
	case document.TypeImage:
		d.kind = surface.KindImage
		d.image = true
		if p := e.Props.Image; p != nil {
			d.source = p.Source
		}
		d.style.Source = d.source
		d.style.Shadow = !opts.Degrade
	}
	return d
}

func emptyPlan(opts Options) []desired {
	out := []desired{{
		id:   PlaceholderID,
		kind: surface.KindLabel,
		geom: surface.Geometry{Width: document.LogicalWidth, Height: document.LogicalHeight},
		style: surface.Style{
			Text:     fmt.Sprintf("Slide %d", opts.Ordinal),
			FontSize: placeholderFontSize,
		},
	}}
	if !opts.Editable {
		return out
	}
	total := float64(len(AddActions))*affordanceWidth + float64(len(AddActions)-1)*affordanceGap
	x := (document.LogicalWidth - total) / 2
	for _, t := range AddActions {
		out = append(out, desired{
			id:   affordancePfx + string(t),
			kind: surface.KindAffordance,
			geom: surface.Geometry{X: x, Y: affordanceTop, Width: affordanceWidth, Height: affordanceHeight},
			style: surface.Style{
				Text:     "Add " + string(t),
				FontSize: affordanceFontSize,
				Action:   ActionPrefix + string(t),
			},
		})
		x += affordanceWidth + affordanceGap
	}
	return out
}

func errorGlyph() *surface.Object {
	o := surface.NewObject(ErrorGlyphID, surface.KindError)
	o.Geometry = surface.Geometry{
		X:      (document.LogicalWidth - errorGlyphSize) / 2,
		Y:      (document.LogicalHeight - errorGlyphSize) / 2,
		Width:  errorGlyphSize,
		Height: errorGlyphSize,
	}
	return o
}

func color(s string, def gg.RGBA) gg.RGBA {
	if s == "" {
		return def
	}
	return gg.Hex(s)
}
