// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a painter backend.
// Implementations should validate options and return descriptive errors.
type Factory func(opts BackendOptions) (Painter, error)

// RegistryEntry represents a registered painter backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Factory creates painter instances.
	Factory Factory

	// Available reports whether the backend can serve the given options.
	// Nil means always available.
	Available func(opts BackendOptions) bool
}

func (e *RegistryEntry) available(opts BackendOptions) bool {
	return e.Available == nil || e.Available(opts)
}

// Registry manages painter backends.
//
// Example registration:
//
//	reg := surface.NewRegistry()
//	reg.Register("skia", 50, skiaFactory, nil)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// NewDefaultRegistry returns a registry with the gpu, software and headless
// backends.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(BackendGPU, 100, NewGPUPainter, func(o BackendOptions) bool { return o.Provider != nil })
	r.Register(BackendSoftware, 10, NewSoftwarePainter, nil)
	r.Register(BackendHeadless, 1, NewHeadlessPainter, nil)
	return r
}

var globalRegistry = NewDefaultRegistry()

// Register adds a backend to the global registry.
func Register(name string, priority int, factory Factory, available func(BackendOptions) bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// DefaultRegistry returns the global registry.
func DefaultRegistry() *Registry { return globalRegistry }

// Register adds or replaces a backend.
func (r *Registry) Register(name string, priority int, factory Factory, available func(BackendOptions) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &RegistryEntry{Name: name, Priority: priority, Factory: factory, Available: available}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Get returns a backend entry.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns all backend names sorted by priority (highest first).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return namesOf(r.sorted(nil))
}

// Available returns the names of backends that can serve opts, by priority.
func (r *Registry) Available(opts BackendOptions) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return namesOf(r.sorted(func(e *RegistryEntry) bool { return e.available(opts) }))
}

// New creates a painter with the named backend, or the best available one
// when name is empty.
func (r *Registry) New(name string, opts BackendOptions) (Painter, error) {
	r.mu.RLock()
	var entry *RegistryEntry
	if name != "" {
		e, ok := r.entries[name]
		if !ok {
			r.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}
		if !e.available(opts) {
			r.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, name)
		}
		entry = e
	} else {
		best := r.sorted(func(e *RegistryEntry) bool { return e.available(opts) })
		if len(best) == 0 {
			r.mu.RUnlock()
			return nil, ErrBackendUnavailable
		}
		entry = best[0]
	}
	r.mu.RUnlock()
	return entry.Factory(opts)
}

// sorted returns entries passing keep, by priority then name. Caller holds mu.
func (r *Registry) sorted(keep func(*RegistryEntry) bool) []*RegistryEntry {
	out := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func namesOf(entries []*RegistryEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
