// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface provides the retained-mode drawing surface the engine
// mirrors slides onto, and the lifecycle manager that binds surfaces to
// mount points.
//
// # Display objects
//
// A Surface holds an ordered list of Objects keyed by id. Objects are a
// derived, disposable cache of the document model: they can be destroyed and
// rebuilt at any time. Geometry is stored in logical units; the viewport
// transform is applied only when painting and when mapping pointer input.
//
// # Painting
//
// Surfaces never paint synchronously. RequestRender marks the surface dirty
// and the frame scheduler paints once on the next frame, however many
// requests were made. Pixels are produced by a Painter chosen through the
// backend Registry:
//
//   - software: rasterizes with a gg.Context
//   - gpu: draws through gg's ggcanvas into a GPU texture
//   - headless: records paints without producing pixels
//
// # Lifecycle
//
// Manager guarantees one live surface per mount point and a generation
// counter that increments every time a surface is disposed. Asynchronous
// work captures the generation when it starts and must compare it before
// touching a surface.
//
// # Thread Safety
//
// Surface and Manager are NOT safe for concurrent use. They belong to the
// UI goroutine of a loop.Dispatcher.
package surface
