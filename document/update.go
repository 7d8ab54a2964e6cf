// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import "fmt"

// Update is a partial element: nil fields are left unchanged when applied.
type Update struct {
	Position *Point   `json:"position,omitempty"`
	Size     *Size    `json:"size,omitempty"`
	Angle    *float64 `json:"angle,omitempty"`
	ZIndex   *int     `json:"zIndex,omitempty"`
	// Content replaces the text content of a text element.
	Content *string     `json:"content,omitempty"`
	Text    *TextProps  `json:"text,omitempty"`
	Shape   *ShapeProps `json:"shape,omitempty"`
	Image   *ImageProps `json:"image,omitempty"`
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Position == nil && u.Size == nil && u.Angle == nil && u.ZIndex == nil &&
		u.Content == nil && u.Text == nil && u.Shape == nil && u.Image == nil
}

// IsGeometry reports whether the update only touches position, size or angle.
func (u Update) IsGeometry() bool {
	return !u.IsZero() && u.ZIndex == nil && u.Content == nil &&
		u.Text == nil && u.Shape == nil && u.Image == nil
}

// Validate rejects non-finite numbers and non-positive sizes.
func (u Update) Validate() error {
	if u.Position != nil && !finite(u.Position.X, u.Position.Y) {
		return fmt.Errorf("%w: position", ErrNonFinite)
	}
	if u.Size != nil {
		if !finite(u.Size.Width, u.Size.Height) {
			return fmt.Errorf("%w: size", ErrNonFinite)
		}
		if u.Size.Width <= 0 || u.Size.Height <= 0 {
			return ErrInvalidSize
		}
	}
	if u.Angle != nil && !finite(*u.Angle) {
		return fmt.Errorf("%w: angle", ErrNonFinite)
	}
	if u.Text != nil && !finite(u.Text.FontSize) {
		return fmt.Errorf("%w: font size", ErrNonFinite)
	}
	if u.Shape != nil && !finite(u.Shape.StrokeWidth) {
		return fmt.Errorf("%w: stroke width", ErrNonFinite)
	}
	return nil
}

// Apply returns e with u merged in. Props that do not match the element type
// are rejected.
func (e Element) Apply(u Update) (Element, error) {
	if err := u.Validate(); err != nil {
		return e, err
	}
	out := e.Clone()
	if u.Position != nil {
		out.Position = *u.Position
	}
	if u.Size != nil {
		out.Size = *u.Size
	}
	if u.Angle != nil {
		out.Angle = *u.Angle
	}
	if u.ZIndex != nil {
		out.ZIndex = *u.ZIndex
	}
	if u.Text != nil {
		if out.Type != TypeText {
			return e, ErrPropsTypeMismatch
		}
		t := *u.Text
		out.Props.Text = &t
	}
	if u.Content != nil {
		if out.Type != TypeText {
			return e, ErrPropsTypeMismatch
		}
		if out.Props.Text == nil {
			out.Props.Text = &TextProps{}
		}
		out.Props.Text.Content = *u.Content
	}
	if u.Shape != nil {
		if !out.Type.IsShape() {
			return e, ErrPropsTypeMismatch
		}
		s := *u.Shape
		out.Props.Shape = &s
	}
	if u.Image != nil {
		if out.Type != TypeImage {
			return e, ErrPropsTypeMismatch
		}
		i := *u.Image
		out.Props.Image = &i
	}
	return out, nil
}
