// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package reconcile makes a surface's display list match a slide.
//
// Reconciliation is keyed by element id. Each pass computes the desired
// display objects for the slide in paint order (zIndex, then id), removes
// objects that are stale or changed kind, inserts missing ones at their
// paint position, moves misplaced ones and updates only objects whose
// geometry or style differ. A pass over an unchanged slide performs no
// operations; a pass that changes anything requests exactly one repaint.
//
// Image elements first occupy a loading slot that reserves their paint
// position without painting. Pixels are fetched off the UI goroutine and
// handed back through the dispatcher; a completion whose surface generation
// is no longer current is discarded without touching any surface.
//
// The reconciler never writes to the document model.
package reconcile
