// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"math"
	"time"

	"github.com/gogpu/gg"
)

// Kind is the kind of a display object.
type Kind int

// Object kinds.
const (
	KindText Kind = iota
	KindRectangle
	KindCircle
	KindImage
	// KindLoading reserves the paint position of an image whose pixels are
	// not available yet. It paints nothing.
	KindLoading
	// KindError is the glyph painted for failed images and failed passes.
	KindError
	// KindLabel is a non-interactive text label, e.g. the empty-slide placeholder.
	KindLabel
	// KindAffordance is a clickable control owned by the engine.
	KindAffordance
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	case KindImage:
		return "image"
	case KindLoading:
		return "loading"
	case KindError:
		return "error"
	case KindLabel:
		return "label"
	case KindAffordance:
		return "affordance"
	}
	return "unknown"
}

// Interactive reports whether objects of this kind can be manipulated.
func (k Kind) Interactive() bool {
	switch k {
	case KindText, KindRectangle, KindCircle, KindImage:
		return true
	}
	return false
}

// Geometry is the unscaled box of an object in logical units. Angle is in
// degrees about the box center.
type Geometry struct {
	X, Y          float64
	Width, Height float64
	Angle         float64
}

// Center returns the center of the box.
func (g Geometry) Center() (float64, float64) {
	return g.X + g.Width/2, g.Y + g.Height/2
}

// Style is everything about an object that is not geometry. It is
// comparable so callers can diff it with ==.
type Style struct {
	Fill        gg.RGBA
	Stroke      gg.RGBA
	StrokeWidth float64
	Rounded     bool

	Text       string
	TextColor  gg.RGBA
	FontFamily string
	FontSize   float64
	Bold       bool
	Italic     bool
	Align      string

	// Source is the image source the pixels were requested from.
	Source string
	// Action is the command an affordance triggers when clicked.
	Action string

	Shadow     bool
	Selectable bool
}

// Object is one display object.
type Object struct {
	id   string
	kind Kind
	seq  uint64

	Geometry
	// ScaleX and ScaleY are transient factors set by resize handles. The edit
	// bridge folds them back into Width and Height.
	ScaleX, ScaleY float64
	Style

	// Image holds decoded pixels for KindImage.
	Image *gg.ImageBuf
	// Opacity in [0,1].
	Opacity float64

	appear      time.Duration
	appearStart time.Time
}

// NewObject returns an object with unit scale and full opacity.
func NewObject(id string, kind Kind) *Object {
	return &Object{id: id, kind: kind, ScaleX: 1, ScaleY: 1, Opacity: 1}
}

// ID returns the object id.
func (o *Object) ID() string { return o.id }

// Kind returns the object kind.
func (o *Object) Kind() Kind { return o.kind }

// Serial returns the identity serial assigned on insertion. Two objects with
// the same id but different serials are different display objects.
func (o *Object) Serial() uint64 { return o.seq }

// SetKind changes the kind, e.g. a loading slot becoming an image.
func (o *Object) SetKind(k Kind) { o.kind = k }

// Animate starts an entrance animation of length d at the next paint.
func (o *Object) Animate(d time.Duration) {
	o.appear = d
	o.appearStart = time.Time{}
}

// Animating reports whether an entrance animation is pending or running.
func (o *Object) Animating() bool { return o.appear > 0 }

// EffectiveSize returns the box size with scale applied.
func (o *Object) EffectiveSize() (float64, float64) {
	return o.Width * o.ScaleX, o.Height * o.ScaleY
}

// Bounds returns the axis-aligned bounding box of the rotated, scaled box.
func (o *Object) Bounds() (minX, minY, maxX, maxY float64) {
	w, h := o.EffectiveSize()
	cx, cy := o.X+w/2, o.Y+h/2
	rad := o.Angle * math.Pi / 180
	c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	hw := (w*c + h*s) / 2
	hh := (w*s + h*c) / 2
	return cx - hw, cy - hh, cx + hw, cy + hh
}

// alpha returns the opacity for a frame at now, advancing the entrance
// animation. done is false while the animation still needs frames.
func (o *Object) alpha(now time.Time) (a float64, done bool) {
	if o.appear <= 0 {
		return o.Opacity, true
	}
	if o.appearStart.IsZero() {
		o.appearStart = now
	}
	t := float64(now.Sub(o.appearStart)) / float64(o.appear)
	if t >= 1 {
		o.appear = 0
		return o.Opacity, true
	}
	// Ease out cubic.
	t = 1 - math.Pow(1-t, 3)
	return o.Opacity * t, false
}

// contains reports whether the logical point lies in the object. fine
// selects exact shape testing over bounding boxes.
func (o *Object) contains(x, y float64, fine bool) bool {
	if !fine {
		minX, minY, maxX, maxY := o.Bounds()
		return x >= minX && x <= maxX && y >= minY && y <= maxY
	}
	w, h := o.EffectiveSize()
	cx, cy := o.X+w/2, o.Y+h/2
	rad := -o.Angle * math.Pi / 180
	dx, dy := x-cx, y-cy
	lx := dx*math.Cos(rad) - dy*math.Sin(rad)
	ly := dx*math.Sin(rad) + dy*math.Cos(rad)
	if o.kind == KindCircle {
		if w == 0 || h == 0 {
			return false
		}
		nx, ny := lx/(w/2), ly/(h/2)
		return nx*nx+ny*ny <= 1
	}
	return math.Abs(lx) <= w/2 && math.Abs(ly) <= h/2
}
