// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package edit turns manipulations of display objects into model updates.
//
// A Bridge listens to the Modified events of one editable surface for one
// surface generation. For every event it resolves the element id, folds any
// transient scale into the element size, normalizes the angle and text, and
// commits a document.Update tagged OriginUser with that generation. The
// display object is then reset to unit scale so repeated edits do not
// compound.
//
// Events naming an unknown element are dropped with ErrInvalidEditEvent and
// never reach the model.
package edit
