// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontSize is used when an object has no font size.
const DefaultFontSize = 32

type fontKey struct {
	mono, bold, italic bool
}

type faceKey struct {
	fontKey
	size float64
}

// Fonts resolves font families to gg text faces. The Go font family is
// embedded; families containing "mono" map to Go Mono and everything else to
// Go Regular. Safe for concurrent use.
type Fonts struct {
	mu      sync.Mutex
	sources map[fontKey]*text.FontSource
	faces   map[faceKey]text.Face
}

// NewFonts returns an empty font cache.
func NewFonts() *Fonts {
	return &Fonts{
		sources: make(map[fontKey]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
	}
}

var (
	defaultFontsOnce sync.Once
	defaultFonts     *Fonts
)

// DefaultFonts returns the process-wide font cache.
func DefaultFonts() *Fonts {
	defaultFontsOnce.Do(func() { defaultFonts = NewFonts() })
	return defaultFonts
}

// Face returns a face for the family and style at size logical units.
func (f *Fonts) Face(family string, bold, italic bool, size float64) (text.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	key := fontKey{mono: strings.Contains(strings.ToLower(family), "mono"), bold: bold, italic: italic}

	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[faceKey{key, size}]; ok {
		return face, nil
	}
	src, ok := f.sources[key]
	if !ok {
		var err error
		src, err = text.NewFontSource(fontData(key))
		if err != nil {
			return nil, fmt.Errorf("surface: load font: %w", err)
		}
		f.sources[key] = src
	}
	face := src.Face(size)
	f.faces[faceKey{key, size}] = face
	return face, nil
}

func fontData(k fontKey) []byte {
	switch {
	case k.mono && k.bold && k.italic:
		return gomonobolditalic.TTF
	case k.mono && k.bold:
		return gomonobold.TTF
	case k.mono && k.italic:
		return gomonoitalic.TTF
	case k.mono:
		return gomono.TTF
	case k.bold && k.italic:
		return gobolditalic.TTF
	case k.bold:
		return gobold.TTF
	case k.italic:
		return goitalic.TTF
	}
	return goregular.TTF
}
