// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package slidecanvas

import (
	"errors"

	"github.com/gogpu/slidecanvas/edit"
	"github.com/gogpu/slidecanvas/reconcile"
	"github.com/gogpu/slidecanvas/resource"
	"github.com/gogpu/slidecanvas/surface"
)

// Error taxonomy. Hosts test for these with errors.As.
type (
	// InitializationError reports a surface that could not be constructed
	// after bounded retries. The mount stays errored until Handle.Reset.
	InitializationError = surface.InitializationError

	// ReconciliationError reports a failed reconciliation pass. Persistent
	// errors are delivered to OnError listeners.
	ReconciliationError = reconcile.Error

	// ResourceLoadError reports an image that could not be fetched or
	// decoded. It is shown as a placeholder and never escalated.
	ResourceLoadError = resource.LoadError
)

// Sentinel errors.
var (
	// ErrInvalidEditEvent reports a manipulation that names no model element.
	ErrInvalidEditEvent = edit.ErrInvalidEditEvent

	// ErrClosed is returned by a closed engine.
	ErrClosed = errors.New("slidecanvas: engine closed")

	// ErrDisposed is returned by a disposed handle.
	ErrDisposed = errors.New("slidecanvas: handle disposed")

	// ErrAlreadyMounted is returned when a mount point already has a handle.
	ErrAlreadyMounted = errors.New("slidecanvas: mount point already in use")

	// ErrNotLive is returned when an operation needs a live surface.
	ErrNotLive = errors.New("slidecanvas: surface not live")

	// ErrReadOnly is returned for edits through a view-only handle.
	ErrReadOnly = errors.New("slidecanvas: handle is not editable")
)
