// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
)

// Common errors returned by surface operations.
var (
	// ErrDisposed is returned when a disposed surface is used.
	ErrDisposed = errors.New("surface: disposed")

	// ErrReadOnly is returned by interaction calls on a view-only surface.
	ErrReadOnly = errors.New("surface: read-only")

	// ErrDuplicateObject is returned when inserting an id that already exists.
	ErrDuplicateObject = errors.New("surface: duplicate object id")

	// ErrObjectNotFound is returned for an unknown object id.
	ErrObjectNotFound = errors.New("surface: object not found")

	// ErrMountDetached is returned while a mount point is not attached.
	ErrMountDetached = errors.New("surface: mount point not attached")

	// ErrBackendUnavailable is returned when no painter backend can be used.
	ErrBackendUnavailable = errors.New("surface: no available backend")

	// ErrUnknownBackend is returned for an unregistered backend name.
	ErrUnknownBackend = errors.New("surface: unknown backend")

	// ErrHandleReleased is returned when a released handle is used.
	ErrHandleReleased = errors.New("surface: handle released")
)

// InitializationError reports that a surface could not be constructed for a
// mount point. It is fatal for that mount until the host resets it.
type InitializationError struct {
	Mount    string
	Attempts int
	Err      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("surface: initialization of mount %q failed after %d attempt(s): %v", e.Mount, e.Attempts, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
