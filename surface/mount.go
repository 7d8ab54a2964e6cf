// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "github.com/gogpu/gpucontext"

// Mount is the physical element a surface is bound to, e.g. a window region
// or an offscreen target. Its id is the instance id used to key surfaces.
type Mount interface {
	ID() string
	// Attached reports whether the mount is part of the visible tree and
	// can host a surface.
	Attached() bool
	// Size returns the container size in device independent pixels.
	Size() (width, height float64)
	DevicePixelRatio() float64
}

// GPUMount is implemented by mounts that can share a GPU device.
type GPUMount interface {
	Mount
	DeviceProvider() gpucontext.DeviceProvider
}

// StaticMount is a Mount with fixed properties, useful for offscreen
// rendering and tests.
type StaticMount struct {
	Name     string
	Width    float64
	Height   float64
	DPR      float64
	Detached bool
}

// ID implements Mount.
func (m *StaticMount) ID() string { return m.Name }

// Attached implements Mount.
func (m *StaticMount) Attached() bool { return !m.Detached }

// Size implements Mount.
func (m *StaticMount) Size() (float64, float64) { return m.Width, m.Height }

// DevicePixelRatio implements Mount.
func (m *StaticMount) DevicePixelRatio() float64 {
	if m.DPR <= 0 {
		return 1
	}
	return m.DPR
}
