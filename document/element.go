// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Canonical logical drawing space.
const (
	LogicalWidth  = 1600
	LogicalHeight = 900
)

// ReservedPrefix marks ids owned by the engine (placeholders, affordances).
// Model elements may not use it.
const ReservedPrefix = "engine:"

// ElementType identifies the kind of an element.
type ElementType string

// Element types.
const (
	TypeText      ElementType = "text"
	TypeRectangle ElementType = "rectangle"
	TypeCircle    ElementType = "circle"
	TypeImage     ElementType = "image"
)

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypeRectangle, TypeCircle, TypeImage:
		return true
	}
	return false
}

// IsShape reports whether t is painted from ShapeProps.
func (t ElementType) IsShape() bool {
	return t == TypeRectangle || t == TypeCircle
}

// Point is a position in logical units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an extent in logical units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextAlign is the horizontal alignment of text inside its box.
type TextAlign string

// Text alignments.
const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextProps is the payload of a text element.
type TextProps struct {
	Content    string    `json:"content"`
	FontFamily string    `json:"fontFamily,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty"`
	Color      string    `json:"color,omitempty"`
	Bold       bool      `json:"bold,omitempty"`
	Italic     bool      `json:"italic,omitempty"`
	Align      TextAlign `json:"align,omitempty"`
}

// ShapeProps is the payload of rectangle and circle elements.
type ShapeProps struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	// Kind refines the shape, e.g. "rounded" for rectangles.
	Kind string `json:"kind,omitempty"`
}

// ImageProps is the payload of an image element. Source is a URL, a data URI
// or a file path. The element's Size is the target display size, independent
// of the intrinsic pixel size.
type ImageProps struct {
	Source string `json:"source"`
}

// Props holds the type-specific payload. Exactly one field matches the
// element type; the others are nil.
type Props struct {
	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
}

// Clone returns a deep copy of p.
func (p Props) Clone() Props {
	var out Props
	if p.Text != nil {
		t := *p.Text
		out.Text = &t
	}
	if p.Shape != nil {
		s := *p.Shape
		out.Shape = &s
	}
	if p.Image != nil {
		i := *p.Image
		out.Image = &i
	}
	return out
}

// Element is one typed, positioned item on a slide.
type Element struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	Position Point       `json:"position"`
	Size     Size        `json:"size"`
	// Angle is the rotation in degrees about the element center.
	Angle  float64 `json:"angle"`
	ZIndex int     `json:"zIndex"`
	Props  Props   `json:"props"`
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	e.Props = e.Props.Clone()
	return e
}

// Validate checks the element is well formed for storage.
func (e Element) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if strings.HasPrefix(e.ID, ReservedPrefix) {
		return ErrReservedID
	}
	if !e.Type.Valid() {
		return ErrUnknownType
	}
	if !finite(e.Position.X, e.Position.Y, e.Size.Width, e.Size.Height, e.Angle) {
		return ErrNonFinite
	}
	if e.Size.Width <= 0 || e.Size.Height <= 0 {
		return ErrInvalidSize
	}
	return nil
}

// Slide is an ordered set of elements plus speaker notes.
type Slide struct {
	ID       int       `json:"id"`
	Elements []Element `json:"elements"`
	Notes    string    `json:"notes,omitempty"`
}

// Clone returns a deep copy of s.
func (s Slide) Clone() Slide {
	out := s
	out.Elements = make([]Element, len(s.Elements))
	for i, e := range s.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}

// Validate checks every element and rejects duplicate ids.
func (s Slide) Validate() error {
	seen := make(map[string]bool, len(s.Elements))
	for _, e := range s.Elements {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("element %q: %w", e.ID, err)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateElement, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Element returns the element with the given id.
func (s Slide) Element(id string) (Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// MaxZIndex returns the highest ZIndex on the slide, or -1 when empty.
func (s Slide) MaxZIndex() int {
	maxZ := -1
	for _, e := range s.Elements {
		maxZ = max(maxZ, e.ZIndex)
	}
	return maxZ
}

// Document is the ordered list of slides owned by the host application.
type Document struct {
	Slides []Slide `json:"slides"`
}

// Validate checks every slide and rejects duplicate slide ids.
func (d Document) Validate() error {
	seen := make(map[int]bool, len(d.Slides))
	for _, sl := range d.Slides {
		if seen[sl.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateSlide, sl.ID)
		}
		seen[sl.ID] = true
		if err := sl.Validate(); err != nil {
			return fmt.Errorf("slide %d: %w", sl.ID, err)
		}
	}
	return nil
}

// PaintOrder returns the elements sorted by ZIndex, ties broken by id
// ascending. The input slice is not modified.
func PaintOrder(elements []Element) []Element {
	out := slices.Clone(elements)
	slices.SortStableFunc(out, ComparePaint)
	return out
}

// ComparePaint orders two elements for painting.
func ComparePaint(a, b Element) int {
	if c := cmp.Compare(a.ZIndex, b.ZIndex); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
