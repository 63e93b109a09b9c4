// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package actuator

import (
	"fmt"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/frame"
	"periph.io/x/conn/v3/gpio"
)

// SwitchOpts configures a switched output
type SwitchOpts struct {
	ActiveLow bool
	// MaxRun switches the output off after it has been on this long; zero
	// disables the limit
	MaxRun time.Duration
	Clock  clock.Clock
}

// Switch drives one digital output from Lights, Pump or Siren messages
type Switch struct {
	ep      *Endpoint
	pin     gpio.PinOut
	msgType uint8
	opts    SwitchOpts

	on      bool
	onSince time.Time
}

// NewLights creates the light bar controller
func NewLights(ep *Endpoint, pin gpio.PinOut, opts SwitchOpts) *Switch {
	return newSwitch(ep, pin, frame.MsgLights, opts)
}

// NewPump creates the water pump controller
func NewPump(ep *Endpoint, pin gpio.PinOut, opts SwitchOpts) *Switch {
	return newSwitch(ep, pin, frame.MsgPump, opts)
}

// NewSiren creates the siren controller
func NewSiren(ep *Endpoint, pin gpio.PinOut, opts SwitchOpts) *Switch {
	return newSwitch(ep, pin, frame.MsgSiren, opts)
}

func newSwitch(ep *Endpoint, pin gpio.PinOut, msgType uint8, opts SwitchOpts) *Switch {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return &Switch{ep: ep, pin: pin, msgType: msgType, opts: opts}
}

func (s *Switch) Name() string        { return s.ep.Name() }
func (s *Switch) Endpoint() *Endpoint { return s.ep }

// On reports the last state driven onto the pin
func (s *Switch) On() bool { return s.on }

// Start drives the output off and opens the socket
func (s *Switch) Start() error {
	if err := s.set(frame.TurnOff); err != nil {
		return err
	}
	return s.ep.Start()
}

// Tick enforces the run limit, then handles at most one frame. The run limit
// is checked even while no operator is connected.
func (s *Switch) Tick() {
	if s.on && s.opts.MaxRun > 0 && s.opts.Clock.Now().Sub(s.onSince) >= s.opts.MaxRun {
		s.ep.log.Info("max run time %v reached, switching off", s.opts.MaxRun)
		if err := s.set(frame.TurnOff); err != nil {
			s.ep.log.Error("%v", err)
		}
	}

	if !s.ep.Connected() {
		return
	}
	m, ok := s.ep.Receive()
	if !ok || m.Type() != s.msgType {
		return
	}

	sw, ok := switchOf(m)
	if !ok {
		return
	}
	if err := s.Set(sw); err != nil {
		s.ep.log.Error("%v", err)
	}
}

// Set drives the output directly, as when a message is relayed from another
// controller
func (s *Switch) Set(sw frame.Switch) error {
	if err := s.set(sw); err != nil {
		return err
	}
	s.ep.log.Info("switched %s", sw)
	return nil
}

func (s *Switch) set(sw frame.Switch) error {
	on := sw == frame.TurnOn
	level := gpio.Level(on != s.opts.ActiveLow)
	if err := s.pin.Out(level); err != nil {
		return fmt.Errorf("drive %s: %w", s.pin, err)
	}
	if on && !s.on {
		s.onSince = s.opts.Clock.Now()
	}
	s.on = on
	return nil
}

func switchOf(m frame.Message) (frame.Switch, bool) {
	switch v := m.(type) {
	case frame.Lights:
		return v.Switch, true
	case frame.Pump:
		return v.Switch, true
	case frame.Siren:
		return v.Switch, true
	}
	return 0, false
}
