// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reconcile

import "github.com/gogpu/slidecanvas/surface"

// Target is the part of a surface the reconciler mutates. *surface.Surface
// implements it.
type Target interface {
	Lookup(id string) (*surface.Object, bool)
	Objects() []*surface.Object
	Insert(o *surface.Object, index int) error
	Remove(id string) error
	Move(id string, index int) error
	Update(id string, fn func(*surface.Object)) error
	Clear() error
	RequestRender()
}

var _ Target = (*surface.Surface)(nil)
