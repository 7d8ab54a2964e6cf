// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reconcile

import (
	"errors"
	"fmt"
)

// DefaultMaxFailures is the number of consecutive failed passes for one
// slide after which the failure is reported as persistent.
const DefaultMaxFailures = 3

// errPanic wraps a value recovered from a panicking pass.
var errPanic = errors.New("reconcile: panic")

// Error reports a failed reconciliation pass. The surface has been cleared
// and shows a single error glyph.
type Error struct {
	SlideID int
	// Consecutive counts failed passes for SlideID since the last success.
	Consecutive int
	// Persistent is set once Consecutive reaches the escalation threshold.
	Persistent bool
	Err        error
}

func (e *Error) Error() string {
	state := "transient"
	if e.Persistent {
		state = "persistent"
	}
	return fmt.Sprintf("reconcile: slide %d failed %d time(s) (%s): %v", e.SlideID, e.Consecutive, state, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
