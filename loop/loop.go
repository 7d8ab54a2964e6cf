// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package loop provides the cooperative, single-threaded event loop the
// engine runs on. Model mutation, reconciliation and surface disposal all
// happen on the loop; background work (image decoding, retry timers) posts
// its continuation back to it.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Do when the loop is not running.
var ErrStopped = errors.New("loop: stopped")

// Dispatcher schedules work on the UI goroutine.
type Dispatcher interface {
	// Post queues fn to run after the current task.
	Post(fn func())
	// PostAfter queues fn to run no earlier than d from now.
	PostAfter(d time.Duration, fn func())
	// Now returns the loop's notion of the current time.
	Now() time.Time
}

// Loop is a goroutine-backed Dispatcher. The goroutine calling Run is the UI
// goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
}

// New creates a loop. Call Run to start processing.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// Post queues fn. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// PostAfter queues fn after d. Safe for concurrent use.
func (l *Loop) PostAfter(d time.Duration, fn func()) {
	if d <= 0 {
		l.Post(fn)
		return
	}
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// Do runs fn on the loop and waits for it to return.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if !running {
		return ErrStopped
	}

	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
