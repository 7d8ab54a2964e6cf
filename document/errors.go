// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"errors"
	"math"
)

// Sentinel errors for document operations.
var (
	ErrSlideNotFound     = errors.New("document: slide not found")
	ErrElementNotFound   = errors.New("document: element not found")
	ErrDuplicateElement  = errors.New("document: duplicate element id")
	ErrDuplicateSlide    = errors.New("document: duplicate slide id")
	ErrEmptyID           = errors.New("document: empty element id")
	ErrReservedID        = errors.New("document: element id uses reserved prefix")
	ErrUnknownType       = errors.New("document: unknown element type")
	ErrNonFinite         = errors.New("document: non-finite geometry")
	ErrInvalidSize       = errors.New("document: size must be positive")
	ErrPropsTypeMismatch = errors.New("document: props do not match element type")
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
