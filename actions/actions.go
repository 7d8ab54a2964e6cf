// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package actions is the single entry point for adding elements from the
// canvas. It is the only place element ids are minted.
package actions

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/internal/logging"
)

// Store is the part of document.Store the facade writes through.
type Store interface {
	Slide(id int) (document.Slide, bool)
	AddElement(slideID int, e document.Element, meta document.Meta) error
	RemoveElement(slideID int, elementID string, meta document.Meta) error
}

// Config configures a Facade.
type Config struct {
	Store Store
	// Request asks for a reconciliation pass of slideID. insert names the
	// element that was just added, or is empty.
	Request func(slideID int, insert string)
	// LogicalWidth and LogicalHeight size the canvas new elements are
	// centered on. Zero selects the document defaults.
	LogicalWidth, LogicalHeight float64
	// Now and Entropy feed id generation. Nil selects time.Now and
	// crypto/rand.
	Now     func() time.Time
	Entropy io.Reader
	Logger  *slog.Logger
}

// Facade adds and removes elements on behalf of canvas controls.
type Facade struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New returns a Facade.
func New(cfg Config) *Facade {
	if cfg.LogicalWidth <= 0 {
		cfg.LogicalWidth = document.LogicalWidth
	}
	if cfg.LogicalHeight <= 0 {
		cfg.LogicalHeight = document.LogicalHeight
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Entropy == nil {
		cfg.Entropy = rand.Reader
	}
	return &Facade{
		cfg:     cfg,
		logger:  logging.Or(cfg.Logger),
		entropy: ulid.Monotonic(cfg.Entropy, 0),
	}
}

// NewID returns a fresh element id. Ids minted by one facade sort in
// creation order.
func (f *Facade) NewID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(f.cfg.Now()), f.entropy)
	if err != nil {
		return "", fmt.Errorf("actions: mint id: %w", err)
	}
	return id.String(), nil
}

// DefaultSize returns the initial size of a new element of type t.
func DefaultSize(t document.ElementType) document.Size {
	switch t {
	case document.TypeText:
		return document.Size{Width: 600, Height: 120}
	case document.TypeRectangle:
		return document.Size{Width: 320, Height: 200}
	case document.TypeCircle:
		return document.Size{Width: 220, Height: 220}
	case document.TypeImage:
		return document.Size{Width: 480, Height: 270}
	}
	return document.Size{}
}

// DefaultProps returns the initial payload of a new element of type t.
func DefaultProps(t document.ElementType) document.Props {
	switch t {
	case document.TypeText:
		return document.Props{Text: &document.TextProps{
			Content:  "New text",
			FontSize: 40,
			Color:    "#111827",
			Align:    document.AlignLeft,
		}}
	case document.TypeRectangle, document.TypeCircle:
		return document.Props{Shape: &document.ShapeProps{Fill: "#4f7cff"}}
	case document.TypeImage:
		return document.Props{Image: &document.ImageProps{}}
	}
	return document.Props{}
}

// Add appends a new element of type t to the slide, centered with the
// default size and stacked above every existing element. Non-nil fields of
// initial replace the defaults and must match t. A reconciliation pass is
// requested with the new id as insertion hint.
func (f *Facade) Add(slideID int, t document.ElementType, initial *document.Props) (document.Element, error) {
	if !t.Valid() {
		return document.Element{}, fmt.Errorf("%w: %q", document.ErrUnknownType, t)
	}
	slide, ok := f.cfg.Store.Slide(slideID)
	if !ok {
		return document.Element{}, fmt.Errorf("%w: %d", document.ErrSlideNotFound, slideID)
	}
	props, err := merge(t, initial)
	if err != nil {
		return document.Element{}, err
	}
	id, err := f.NewID()
	if err != nil {
		return document.Element{}, err
	}

	size := DefaultSize(t)
	e := document.Element{
		ID:   id,
		Type: t,
		Position: document.Point{
			X: (f.cfg.LogicalWidth - size.Width) / 2,
			Y: (f.cfg.LogicalHeight - size.Height) / 2,
		},
		Size:   size,
		ZIndex: slide.MaxZIndex() + 1,
		Props:  props,
	}
	if err := f.cfg.Store.AddElement(slideID, e, document.Meta{Origin: document.OriginAction}); err != nil {
		return document.Element{}, err
	}
	f.logger.Info("actions: element added", "slide", slideID, "id", id, "type", string(t))
	if f.cfg.Request != nil {
		f.cfg.Request(slideID, id)
	}
	return e, nil
}

// Remove deletes an element and requests a reconciliation pass.
func (f *Facade) Remove(slideID int, id string) error {
	if err := f.cfg.Store.RemoveElement(slideID, id, document.Meta{Origin: document.OriginAction}); err != nil {
		return err
	}
	f.logger.Info("actions: element removed", "slide", slideID, "id", id)
	if f.cfg.Request != nil {
		f.cfg.Request(slideID, "")
	}
	return nil
}

func merge(t document.ElementType, initial *document.Props) (document.Props, error) {
	props := DefaultProps(t)
	if initial == nil {
		return props, nil
	}
	in := initial.Clone()
	switch {
	case in.Text != nil && t != document.TypeText,
		in.Shape != nil && !t.IsShape(),
		in.Image != nil && t != document.TypeImage:
		return props, fmt.Errorf("%w: %s", document.ErrPropsTypeMismatch, t)
	}
	if in.Text != nil {
		props.Text = in.Text
	}
	if in.Shape != nil {
		props.Shape = in.Shape
	}
	if in.Image != nil {
		props.Image = in.Image
	}
	return props, nil
}
