// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"math"
	"slices"
)

// Manipulation is what the user did to an object.
type Manipulation int

// Manipulations.
const (
	Moved Manipulation = iota
	Scaled
	Rotated
	TextEdited
)

func (m Manipulation) String() string {
	switch m {
	case Moved:
		return "move"
	case Scaled:
		return "scale"
	case Rotated:
		return "rotate"
	case TextEdited:
		return "text"
	}
	return "unknown"
}

// EventType distinguishes surface events.
type EventType int

// Event types.
const (
	// EventModified fires when a manipulation completes.
	EventModified EventType = iota
	// EventAction fires when an affordance is clicked.
	EventAction
)

// Event is delivered to handlers registered with On.
type Event struct {
	Type         EventType
	ObjectID     string
	Manipulation Manipulation
	// Action is set for EventAction.
	Action string
}

type dragState struct {
	id             string
	startX, startY float64
	objX, objY     float64
	moved          bool
}

// On registers fn for surface events. The returned function removes it.
func (s *Surface) On(fn func(Event)) (remove func()) {
	if s.disposed {
		return func() {}
	}
	id := s.handlerID
	s.handlerID++
	s.handlers[id] = fn
	return func() {
		if s.handlers != nil {
			delete(s.handlers, id)
		}
	}
}

// Emit delivers ev to handlers. Hosts use it to forward completions from
// their own editors (for example a native text field over a text object).
func (s *Surface) Emit(ev Event) {
	if s.disposed {
		return
	}
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := s.handlers[id]; ok {
			fn(ev)
		}
	}
}

// HitTest returns the topmost interactive object at a display-space point.
// Affordances are hit on view-only surfaces as well; content objects only
// on editable ones.
func (s *Surface) HitTest(x, y float64) (*Object, bool) {
	if s.disposed {
		return nil, false
	}
	lx, ly := s.transform.ToLogical(x, y)
	for i := len(s.objects) - 1; i >= 0; i-- {
		o := s.objects[i]
		switch {
		case o.kind == KindAffordance:
		case s.editable && o.kind.Interactive() && o.Selectable:
		default:
			continue
		}
		if o.contains(lx, ly, s.fineHitTest) {
			return o, true
		}
	}
	return nil, false
}

// PointerDown starts a press at a display-space point.
func (s *Surface) PointerDown(x, y float64) {
	if s.disposed {
		return
	}
	s.drag, s.press = nil, ""
	o, ok := s.HitTest(x, y)
	if !ok {
		return
	}
	if o.kind == KindAffordance {
		s.press = o.id
		return
	}
	lx, ly := s.transform.ToLogical(x, y)
	s.drag = &dragState{id: o.id, startX: lx, startY: ly, objX: o.X, objY: o.Y}
}

// PointerMove drags the pressed object.
func (s *Surface) PointerMove(x, y float64) {
	if s.disposed || s.drag == nil {
		return
	}
	o, ok := s.byID[s.drag.id]
	if !ok {
		s.drag = nil
		return
	}
	lx, ly := s.transform.ToLogical(x, y)
	o.X = s.drag.objX + (lx - s.drag.startX)
	o.Y = s.drag.objY + (ly - s.drag.startY)
	s.drag.moved = true
	s.RequestRender()
}

// PointerUp ends a press. A completed drag emits EventModified; a press
// released over the same affordance emits EventAction.
func (s *Surface) PointerUp(x, y float64) {
	if s.disposed {
		return
	}
	drag, press := s.drag, s.press
	s.drag, s.press = nil, ""
	if drag != nil {
		if drag.moved {
			s.Emit(Event{Type: EventModified, ObjectID: drag.id, Manipulation: Moved})
		}
		return
	}
	if press == "" {
		return
	}
	if o, ok := s.HitTest(x, y); ok && o.id == press {
		s.Emit(Event{Type: EventAction, ObjectID: o.id, Action: o.Action})
	}
}

// Click is a press and release at the same point.
func (s *Surface) Click(x, y float64) {
	s.PointerDown(x, y)
	s.PointerUp(x, y)
}

// MoveObject translates an object by a logical offset, as keyboard nudges do.
func (s *Surface) MoveObject(id string, dx, dy float64) error {
	o, err := s.manipulable(id)
	if err != nil {
		return err
	}
	o.X += dx
	o.Y += dy
	s.RequestRender()
	s.Emit(Event{Type: EventModified, ObjectID: id, Manipulation: Moved})
	return nil
}

// ScaleObject multiplies the transient scale of an object, as corner
// handles do. Width and Height are left unchanged.
func (s *Surface) ScaleObject(id string, sx, sy float64) error {
	o, err := s.manipulable(id)
	if err != nil {
		return err
	}
	o.ScaleX *= sx
	o.ScaleY *= sy
	s.RequestRender()
	s.Emit(Event{Type: EventModified, ObjectID: id, Manipulation: Scaled})
	return nil
}

// RotateObject sets the angle of an object in degrees.
func (s *Surface) RotateObject(id string, degrees float64) error {
	o, err := s.manipulable(id)
	if err != nil {
		return err
	}
	o.Angle = degrees
	s.RequestRender()
	s.Emit(Event{Type: EventModified, ObjectID: id, Manipulation: Rotated})
	return nil
}

// EditText replaces the content of a text object.
func (s *Surface) EditText(id, content string) error {
	o, err := s.manipulable(id)
	if err != nil {
		return err
	}
	if o.kind != KindText {
		return fmt.Errorf("surface: object %s is %s, not text", id, o.kind)
	}
	o.Text = content
	s.RequestRender()
	s.Emit(Event{Type: EventModified, ObjectID: id, Manipulation: TextEdited})
	return nil
}

func (s *Surface) manipulable(id string) (*Object, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	if !s.editable {
		return nil, ErrReadOnly
	}
	o, ok := s.byID[id]
	if !ok || !o.kind.Interactive() {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return o, nil
}

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return a
}
