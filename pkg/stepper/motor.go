// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stepper

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"periph.io/x/conn/v3/gpio"
)

// Default pulse timing
const (
	DefaultPulseWidth    = 5 * time.Microsecond
	DefaultPulseInterval = 500 * time.Microsecond
)

// Ops is the motion interface the turret drives
type Ops interface {
	// Step moves n steps (positive is clockwise). Limits are enforced unless
	// ignoreLimits is set.
	Step(n int64, ignoreLimits bool) error
	ToStep(target int64) error
	ToAngle(deg float64) error
	Home(overshoot uint32) error
	CurrentStep() int64
}

// Config is the per-motor calibration
type Config struct {
	StepsPerRev uint32
	Microsteps  uint32
	Invert      bool

	PulseWidth    time.Duration
	PulseInterval time.Duration

	// Clockwise is the upper position bound, CounterClockwise the lower
	Clockwise        Limit
	CounterClockwise Limit

	// HomeClockwise drives toward the clockwise hard stop when homing
	HomeClockwise bool
}

// Motor is a step/direction driver. It blocks for the whole pulse train of
// each move.
type Motor struct {
	name    string
	step    gpio.PinOut
	dir     gpio.PinOut
	clock   clock.Clock
	cfg     Config
	current int64
}

var _ Ops = (*Motor)(nil)

// New creates a motor at position 0
func New(name string, step, dir gpio.PinOut, clk clock.Clock, cfg Config) (*Motor, error) {
	if step == nil || dir == nil {
		return nil, errors.New("stepper: step and direction pins are required")
	}
	if cfg.StepsPerRev == 0 {
		return nil, errors.New("stepper: steps per revolution must be non-zero")
	}
	if cfg.Microsteps == 0 {
		cfg.Microsteps = 1
	}
	if cfg.PulseWidth == 0 {
		cfg.PulseWidth = DefaultPulseWidth
	}
	if cfg.PulseInterval == 0 {
		cfg.PulseInterval = DefaultPulseInterval
	}
	cw, cwOK := cfg.Clockwise.Step()
	ccw, ccwOK := cfg.CounterClockwise.Step()
	if cwOK && ccwOK && ccw > cw {
		return nil, fmt.Errorf("stepper: counter-clockwise limit %d above clockwise limit %d", ccw, cw)
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Motor{name: name, step: step, dir: dir, clock: clk, cfg: cfg}, nil
}

func (m *Motor) String() string { return m.name }

// StepsPerRev returns the effective steps per revolution including microsteps
func (m *Motor) StepsPerRev() uint32 {
	return m.cfg.StepsPerRev * m.cfg.Microsteps
}

// CurrentStep returns the logical position
func (m *Motor) CurrentStep() int64 { return m.current }

// CurrentAngle returns the logical position in degrees
func (m *Motor) CurrentAngle() float64 {
	return StepsToAngle(m.current, m.StepsPerRev())
}

func (m *Motor) Step(n int64, ignoreLimits bool) error {
	if n == 0 {
		return nil
	}

	clockwise := n > 0
	level := gpio.Level(clockwise != m.cfg.Invert)
	if err := m.dir.Out(level); err != nil {
		return fmt.Errorf("%s: set direction: %w", m.name, err)
	}

	count := n
	if count < 0 {
		count = -count
	}
	for i := int64(0); i < count; i++ {
		if err := m.pulse(); err != nil {
			moved := i
			if !clockwise {
				moved = -i
			}
			m.current = m.clamp(m.current + moved)
			return fmt.Errorf("%s: pulse %d of %d: %w", m.name, i+1, count, err)
		}
	}

	requested := m.current + n
	m.current = m.clamp(requested)
	if m.current != requested && !ignoreLimits {
		return &LimitError{Requested: requested, Clamped: m.current}
	}
	return nil
}

func (m *Motor) ToStep(target int64) error {
	return m.Step(target-m.current, false)
}

func (m *Motor) ToAngle(deg float64) error {
	return m.ToStep(AngleToSteps(deg, m.StepsPerRev()))
}

// Home drives overshoot steps into the hard stop, ignoring limits, then
// returns to step 0
func (m *Motor) Home(overshoot uint32) error {
	n := int64(overshoot)
	if !m.cfg.HomeClockwise {
		n = -n
	}
	if err := m.Step(n, true); err != nil {
		return fmt.Errorf("%s: homing: %w", m.name, err)
	}
	return m.ToStep(0)
}

func (m *Motor) pulse() error {
	if err := m.step.Out(gpio.High); err != nil {
		return err
	}
	m.clock.Sleep(m.cfg.PulseWidth)
	if err := m.step.Out(gpio.Low); err != nil {
		return err
	}
	m.clock.Sleep(m.cfg.PulseInterval)
	return nil
}

func (m *Motor) clamp(pos int64) int64 {
	if cw, ok := m.cfg.Clockwise.Step(); ok && pos > cw {
		return cw
	}
	if ccw, ok := m.cfg.CounterClockwise.Step(); ok && pos < ccw {
		return ccw
	}
	return pos
}
