// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"errors"
	"fmt"
)

// Resource errors.
var (
	// ErrEmptySource is returned for an empty source reference.
	ErrEmptySource = errors.New("resource: empty source")

	// ErrUnsupportedSource is returned for source schemes the loader cannot
	// resolve.
	ErrUnsupportedSource = errors.New("resource: unsupported source")

	// ErrTooLarge is returned when encoded bytes exceed the size cap.
	ErrTooLarge = errors.New("resource: source exceeds size limit")

	// ErrMalformedDataURI is returned for data: URIs that cannot be parsed.
	ErrMalformedDataURI = errors.New("resource: malformed data URI")

	// ErrHTTPStatus is returned for non-2xx responses.
	ErrHTTPStatus = errors.New("resource: unexpected HTTP status")
)

// LoadError reports that an image source could not be fetched or decoded.
// It is local to one element: the engine paints an error placeholder and
// carries on.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("resource: load %s: %v", shorten(e.Source), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// shorten keeps data URIs readable in logs and errors.
func shorten(src string) string {
	const limit = 64
	if len(src) <= limit {
		return src
	}
	return src[:limit] + "..."
}
