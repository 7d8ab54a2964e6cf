// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package loop

import (
	"slices"
	"sync"
	"time"
)

// Manual is a deterministic Dispatcher driven by the caller. Nothing runs
// until RunPending or Advance is called. Time only moves through Advance.
//
// Post and PostAfter are safe for concurrent use, which lets background
// goroutines hand work back exactly as they would with Loop.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []timer
	seq    int
}

type timer struct {
	at  time.Time
	seq int
	fn  func()
}

// NewManual returns a Manual dispatcher whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Post queues fn.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// PostAfter queues fn once the clock has advanced by d.
func (m *Manual) PostAfter(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d <= 0 {
		m.queue = append(m.queue, fn)
		return
	}
	m.seq++
	m.timers = append(m.timers, timer{at: m.now.Add(d), seq: m.seq, fn: fn})
}

// Now returns the manual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of queued tasks and timers.
func (m *Manual) Pending() (tasks, timers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), len(m.timers)
}

// RunPending runs queued tasks, including tasks they post, until the queue
// is empty. It returns the number of tasks run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// Advance moves the clock forward by d, releasing due timers in deadline
// order, and runs everything that becomes ready.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	slices.SortFunc(m.timers, func(a, b timer) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
	i := 0
	for i < len(m.timers) && !m.timers[i].at.After(m.now) {
		m.queue = append(m.queue, m.timers[i].fn)
		i++
	}
	m.timers = slices.Delete(m.timers, 0, i)
	m.mu.Unlock()
	return m.RunPending()
}
