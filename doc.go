// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package slidecanvas keeps a declarative slide model and a retained 2D
// surface in sync.
//
// # Overview
//
// A host owns the document (slides of typed, positioned elements) behind a
// document.Store and mounts an Engine onto one or more mount points. For
// every mount the engine acquires a surface, mirrors the active slide onto
// it with an id-keyed reconciler, and, when the mount is editable, turns
// user manipulation of display objects back into model updates.
//
//	store := document.NewMemoryStore(deck)
//	eng := slidecanvas.New(store, slidecanvas.WithConfig(cfg))
//	go eng.Run(ctx)
//
//	h, err := eng.Mount(window, slideID, true, 100)
//	h.OnElementChanged(func(id string, u document.Update) { ... })
//
// # Threading
//
// The engine is single-threaded and cooperative. Engine and Handle methods
// must run on the dispatcher goroutine; other goroutines use
// loop.Loop.Do. Image decoding is the only work done elsewhere, and its
// results are delivered back through the dispatcher and discarded when the
// surface they were started for has been disposed.
//
// # Coordinates
//
// All geometry is in logical units of a fixed 1600x900 space. The viewport
// package maps it onto the physical container at a zoom percentage.
//
// # Logging
//
// The engine is silent by default. Call SetLogger to route its slog output.
package slidecanvas

// Version is the engine version.
const Version = "0.3.0"
