// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package edit

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/surface"
)

// Sentinel errors.
var (
	// ErrInvalidEditEvent reports an event that cannot be mapped to a model
	// element. The model is left unchanged.
	ErrInvalidEditEvent = errors.New("edit: invalid edit event")

	// ErrMalformedGeometry reports non-finite or degenerate geometry.
	ErrMalformedGeometry = errors.New("edit: malformed geometry")
)

// Normalize derives the model update for a completed manipulation of o.
// Geometry manipulations yield the full position, size and angle with the
// transient scale folded into the size. Text edits yield NFC content.
func Normalize(o *surface.Object, m surface.Manipulation) (document.Update, error) {
	if m == surface.TextEdited {
		if o.Kind() != surface.KindText {
			return document.Update{}, fmt.Errorf("%w: text edit on %s object", ErrInvalidEditEvent, o.Kind())
		}
		content := norm.NFC.String(o.Text)
		return document.Update{Content: &content}, nil
	}

	w, h := o.EffectiveSize()
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	pos := document.Point{X: o.X, Y: o.Y}
	size := document.Size{Width: w, Height: h}
	angle := surface.NormalizeAngle(o.Angle)
	u := document.Update{Position: &pos, Size: &size, Angle: &angle}
	if err := u.Validate(); err != nil {
		return document.Update{}, fmt.Errorf("%w: %w", ErrMalformedGeometry, err)
	}
	return u, nil
}

// fold writes a committed update back onto the display object and resets
// its scale.
func fold(o *surface.Object, u document.Update) {
	if u.Position != nil {
		o.X, o.Y = u.Position.X, u.Position.Y
	}
	if u.Size != nil {
		o.Width, o.Height = u.Size.Width, u.Size.Height
	}
	if u.Angle != nil {
		o.Angle = *u.Angle
	}
	if u.Content != nil {
		o.Text = *u.Content
	}
	o.ScaleX, o.ScaleY = 1, 1
}
