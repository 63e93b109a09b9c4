// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package actuator implements the per-peripheral controllers and the
// round-robin loop that ticks them.
//
// Every controller owns one listening socket. A tick checks the connection,
// reads at most one whole frame, reacts to the messages it recognizes and
// returns. Ticks never retry and never wait on the network.
package actuator

import (
	"context"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/logging"
)

// Controller is one peripheral's control task
type Controller interface {
	Name() string
	// Start opens the controller's listening socket
	Start() error
	// Tick runs one non-blocking iteration
	Tick()
}

// Loop ticks controllers in a fixed order
type Loop struct {
	controllers []Controller
	log         *logging.Logger
	clock       clock.Clock
	idle        time.Duration
	rounds      uint64
}

// LoopOpts configures a Loop
type LoopOpts struct {
	// Idle is slept between rounds; zero spins
	Idle  time.Duration
	Clock clock.Clock
}

// NewLoop creates a loop over controllers in the given order
func NewLoop(log *logging.Logger, opts LoopOpts, controllers ...Controller) *Loop {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return &Loop{
		controllers: controllers,
		log:         log,
		clock:       opts.Clock,
		idle:        opts.Idle,
	}
}

// Controllers returns the controllers in tick order
func (l *Loop) Controllers() []Controller {
	return l.controllers
}

// Start starts every controller. A controller that fails to start is logged
// and still ticked; its socket stays closed.
func (l *Loop) Start() {
	for _, c := range l.controllers {
		if err := c.Start(); err != nil {
			l.log.Error("%s: %v", c.Name(), err)
		}
	}
}

// RunOnce ticks each controller once
func (l *Loop) RunOnce() {
	for _, c := range l.controllers {
		c.Tick()
	}
	l.rounds++
}

// Rounds returns the number of completed rounds
func (l *Loop) Rounds() uint64 { return l.rounds }

// Run repeats RunOnce until ctx is done. A round in progress always
// completes.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("control loop running %d controllers", len(l.controllers))
	for {
		select {
		case <-ctx.Done():
			l.log.Info("control loop stopped after %d rounds", l.rounds)
			return ctx.Err()
		default:
		}
		l.RunOnce()
		if l.idle > 0 {
			l.clock.Sleep(l.idle)
		}
	}
}
