// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stepper

import (
	"errors"
	"fmt"
)

// ErrAngleLimit is matched by every *LimitError
var ErrAngleLimit = errors.New("stepper: position limit exceeded")

// Limit is an optional soft bound on motor position. The zero value is
// unbounded.
type Limit struct {
	bounded bool
	step    int64
}

// Unbounded returns a limit that never clamps
func Unbounded() Limit { return Limit{} }

// Bounded returns a limit at step
func Bounded(step int64) Limit { return Limit{bounded: true, step: step} }

// Step returns the bound and whether one is set
func (l Limit) Step() (int64, bool) { return l.step, l.bounded }

// IsBounded reports whether the limit clamps
func (l Limit) IsBounded() bool { return l.bounded }

func (l Limit) String() string {
	if !l.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", l.step)
}

// LimitError reports a move that ended beyond a soft limit and was clamped.
// The pulses for the full move were already issued.
type LimitError struct {
	Requested int64
	Clamped   int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("stepper: target step %d beyond limit, clamped to %d", e.Requested, e.Clamped)
}

func (e *LimitError) Unwrap() error { return ErrAngleLimit }
