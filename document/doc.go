// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package document defines the slide document model: slides, typed elements,
// and the store through which the engine reads slides and writes element
// updates.
//
// All geometry is expressed in logical units of a fixed canonical drawing
// space (LogicalWidth x LogicalHeight), never in physical pixels.
//
// Element ids are the sole key used to match model elements to display
// objects. Paint order is given by ZIndex with ties broken by id; the order
// of the Elements slice is insertion history only.
package document
