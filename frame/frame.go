// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame coalesces repaint requests into at most one paint per frame.
package frame

import (
	"time"

	"github.com/gogpu/slidecanvas/loop"
)

// DefaultInterval is the frame interval of TickerClock (about 60 Hz).
const DefaultInterval = 16 * time.Millisecond

// Clock delivers frame callbacks on the UI goroutine.
type Clock interface {
	RequestFrame(fn func(now time.Time))
}

// ImmediateClock runs frame callbacks as the next task on the dispatcher.
// It is the fallback when no frame boundary exists (headless rendering).
type ImmediateClock struct {
	Dispatcher loop.Dispatcher
}

// RequestFrame implements Clock.
func (c ImmediateClock) RequestFrame(fn func(now time.Time)) {
	d := c.Dispatcher
	d.Post(func() { fn(d.Now()) })
}

// TickerClock aligns frame callbacks to a fixed interval measured from the
// previous frame. It must only be used from the UI goroutine.
type TickerClock struct {
	d        loop.Dispatcher
	interval time.Duration
	last     time.Time
}

// NewTickerClock returns a clock with the given interval; zero selects
// DefaultInterval.
func NewTickerClock(d loop.Dispatcher, interval time.Duration) *TickerClock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TickerClock{d: d, interval: interval}
}

// RequestFrame implements Clock.
func (c *TickerClock) RequestFrame(fn func(now time.Time)) {
	delay := time.Duration(0)
	if !c.last.IsZero() {
		delay = c.last.Add(c.interval).Sub(c.d.Now())
	}
	c.d.PostAfter(max(delay, 0), func() {
		now := c.d.Now()
		c.last = now
		fn(now)
	})
}

// Scheduler turns any number of Request calls made before the next frame
// into a single paint. It is not safe for concurrent use.
type Scheduler struct {
	clock     Clock
	paint     func(now time.Time)
	pending   bool
	token     uint64
	frames    uint64
	requests  uint64
	observers []func(now time.Time)
}

// NewScheduler returns a scheduler that calls paint on frames of clock.
func NewScheduler(clock Clock, paint func(now time.Time)) *Scheduler {
	return &Scheduler{clock: clock, paint: paint}
}

// Request asks for a paint on the next frame.
func (s *Scheduler) Request() {
	s.requests++
	if s.pending {
		return
	}
	s.pending = true
	tok := s.token
	s.clock.RequestFrame(func(now time.Time) {
		if tok != s.token || !s.pending {
			return
		}
		s.pending = false
		s.frames++
		s.paint(now)
		for _, fn := range s.observers {
			fn(now)
		}
	})
}

// Cancel drops a pending paint. Later requests schedule normally.
func (s *Scheduler) Cancel() {
	s.pending = false
	s.token++
}

// Pending reports whether a paint is scheduled.
func (s *Scheduler) Pending() bool { return s.pending }

// Frames returns the number of paints performed.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Requests returns the number of Request calls.
func (s *Scheduler) Requests() uint64 { return s.requests }

// Observe registers fn to run after every paint with the frame time.
func (s *Scheduler) Observe(fn func(now time.Time)) {
	s.observers = append(s.observers, fn)
}
