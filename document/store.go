// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"fmt"
	"slices"
	"sync"
)

// Origin tags who caused a model change.
type Origin int

// Change origins.
const (
	// OriginProgrammatic is an external edit by the host (style panels, scripts).
	OriginProgrammatic Origin = iota
	// OriginUser is a user manipulation normalized by the edit bridge.
	OriginUser
	// OriginImport is a bulk load from a file or database.
	OriginImport
	// OriginAction is an element added by the canvas action facade.
	OriginAction
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginImport:
		return "import"
	case OriginAction:
		return "action"
	default:
		return "programmatic"
	}
}

// ChangeKind is the kind of mutation.
type ChangeKind int

// Change kinds.
const (
	ChangeUpdated ChangeKind = iota
	ChangeAdded
	ChangeRemoved
	ChangeReplaced
)

// Change describes one committed mutation.
type Change struct {
	SlideID   int
	ElementID string // empty for ChangeReplaced
	Kind      ChangeKind
	Origin    Origin
	// Generation is the surface generation the change was produced under.
	// Only meaningful for OriginUser.
	Generation uint64
	// Mount names the mount point whose surface produced a user edit.
	// Generations count per mount, so both identify the producing surface.
	Mount string
}

// Meta carries the origin of a write and, for user edits, the mount and
// surface generation that produced it.
type Meta struct {
	Origin     Origin
	Generation uint64
	Mount      string
}

// Store is the document model as seen by the engine. Writes commit before
// subscribers are notified.
type Store interface {
	Slide(id int) (Slide, bool)
	Slides() []Slide
	AddElement(slideID int, e Element, meta Meta) error
	UpdateElement(slideID int, elementID string, u Update, meta Meta) error
	RemoveElement(slideID int, elementID string, meta Meta) error
	ReplaceSlide(s Slide, meta Meta) error
	Subscribe(fn func(Change)) (cancel func())
}

// MemoryStore is an in-memory Store. It is safe for concurrent use;
// subscribers are called synchronously on the writer's goroutine after the
// lock is released.
type MemoryStore struct {
	mu     sync.RWMutex
	slides []Slide

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// NewMemoryStore returns a store holding a copy of doc.
func NewMemoryStore(doc Document) *MemoryStore {
	s := &MemoryStore{subs: make(map[int]func(Change))}
	for _, sl := range doc.Slides {
		s.slides = append(s.slides, sl.Clone())
	}
	return s
}

// Slide returns a copy of the slide with the given id.
func (s *MemoryStore) Slide(id int) (Slide, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.slides[i].Clone(), true
	}
	return Slide{}, false
}

// Slides returns copies of all slides in document order.
func (s *MemoryStore) Slides() []Slide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slide, len(s.slides))
	for i, sl := range s.slides {
		out[i] = sl.Clone()
	}
	return out
}

// Ordinal returns the 1-based position of a slide, or 0 if absent.
func (s *MemoryStore) Ordinal(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) + 1
}

// AddElement appends e to the slide.
func (s *MemoryStore) AddElement(slideID int, e Element, meta Meta) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	i := s.indexOf(slideID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlideNotFound, slideID)
	}
	if _, ok := s.slides[i].Element(e.ID); ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateElement, e.ID)
	}
	s.slides[i].Elements = append(s.slides[i].Elements, e.Clone())
	s.mu.Unlock()

	s.notify(Change{SlideID: slideID, ElementID: e.ID, Kind: ChangeAdded, Origin: meta.Origin, Generation: meta.Generation, Mount: meta.Mount})
	return nil
}

// UpdateElement merges u into the element.
func (s *MemoryStore) UpdateElement(slideID int, elementID string, u Update, meta Meta) error {
	s.mu.Lock()
	i := s.indexOf(slideID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlideNotFound, slideID)
	}
	j := slices.IndexFunc(s.slides[i].Elements, func(e Element) bool { return e.ID == elementID })
	if j < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrElementNotFound, elementID)
	}
	next, err := s.slides[i].Elements[j].Apply(u)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.slides[i].Elements[j] = next
	s.mu.Unlock()

	s.notify(Change{SlideID: slideID, ElementID: elementID, Kind: ChangeUpdated, Origin: meta.Origin, Generation: meta.Generation, Mount: meta.Mount})
	return nil
}

// RemoveElement deletes the element from the slide.
func (s *MemoryStore) RemoveElement(slideID int, elementID string, meta Meta) error {
	s.mu.Lock()
	i := s.indexOf(slideID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlideNotFound, slideID)
	}
	els := s.slides[i].Elements
	j := slices.IndexFunc(els, func(e Element) bool { return e.ID == elementID })
	if j < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrElementNotFound, elementID)
	}
	s.slides[i].Elements = slices.Delete(els, j, j+1)
	s.mu.Unlock()

	s.notify(Change{SlideID: slideID, ElementID: elementID, Kind: ChangeRemoved, Origin: meta.Origin, Generation: meta.Generation, Mount: meta.Mount})
	return nil
}

// ReplaceSlide replaces the slide with the same id, or appends it when new.
func (s *MemoryStore) ReplaceSlide(sl Slide, meta Meta) error {
	if err := sl.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if i := s.indexOf(sl.ID); i >= 0 {
		s.slides[i] = sl.Clone()
	} else {
		s.slides = append(s.slides, sl.Clone())
	}
	s.mu.Unlock()

	s.notify(Change{SlideID: sl.ID, Kind: ChangeReplaced, Origin: meta.Origin, Generation: meta.Generation, Mount: meta.Mount})
	return nil
}

// Replace swaps the whole document. Subscribers see one ChangeReplaced
// per slide of doc.
func (s *MemoryStore) Replace(doc Document, meta Meta) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	slides := make([]Slide, 0, len(doc.Slides))
	for _, sl := range doc.Slides {
		slides = append(slides, sl.Clone())
	}
	s.mu.Lock()
	s.slides = slides
	s.mu.Unlock()

	for _, sl := range slides {
		s.notify(Change{SlideID: sl.ID, Kind: ChangeReplaced, Origin: meta.Origin, Generation: meta.Generation, Mount: meta.Mount})
	}
	return nil
}

// Subscribe registers fn for change notifications.
func (s *MemoryStore) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *MemoryStore) notify(c Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (s *MemoryStore) indexOf(id int) int {
	return slices.IndexFunc(s.slides, func(sl Slide) bool { return sl.ID == id })
}
