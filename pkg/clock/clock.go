// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package clock provides the time and busy-wait capability shared by the chip
// driver and the stepper pulse generator. Hardware code never calls the time
// package directly so tests can run without real delays.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time and blocks the caller for a duration.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock. Sleep blocks the calling goroutine, which on the
// controller loop means every other peripheral waits too.
type System struct{}

// Now returns time.Now.
func (System) Now() time.Time { return time.Now() }

// Sleep blocks for d.
func (System) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// Fake is a manually driven clock. Sleep advances the clock instantly and
// records the total time slept.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	slept  time.Duration
	sleeps int
}

// NewFake returns a Fake starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d > 0 {
		f.now = f.now.Add(d)
		f.slept += d
	}
	f.sleeps++
}

// Advance moves the fake time forward without counting it as sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Slept returns the accumulated sleep duration.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slept
}

// Sleeps returns how many times Sleep was called.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
