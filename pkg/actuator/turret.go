// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package actuator

import (
	"math"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/stepper"
)

// Turret drives a pan/tilt pair of steppers
type Turret struct {
	ep        *Endpoint
	pan       stepper.Ops
	tilt      stepper.Ops
	homeSteps uint32
}

// NewTurret creates a turret controller on ep
func NewTurret(ep *Endpoint, pan, tilt stepper.Ops, homeSteps uint32) *Turret {
	return &Turret{ep: ep, pan: pan, tilt: tilt, homeSteps: homeSteps}
}

func (t *Turret) Name() string        { return t.ep.Name() }
func (t *Turret) Start() error        { return t.ep.Start() }
func (t *Turret) Endpoint() *Endpoint { return t.ep }

// Steps returns the current pan and tilt positions
func (t *Turret) Steps() (pan, tilt int32) {
	return saturate(t.pan.CurrentStep()), saturate(t.tilt.CurrentStep())
}

// Home homes both axes into their hard stops. Errors are logged.
func (t *Turret) Home() {
	t.ep.log.Info("homing with %d steps", t.homeSteps)
	if err := t.pan.Home(t.homeSteps); err != nil {
		t.ep.log.Error("pan: %v", err)
	}
	if err := t.tilt.Home(t.homeSteps); err != nil {
		t.ep.log.Error("tilt: %v", err)
	}
	pan, tilt := t.Steps()
	t.ep.log.Info("homed at pan=%d tilt=%d", pan, tilt)
}

func (t *Turret) Tick() {
	if !t.ep.Connected() {
		return
	}
	m, ok := t.ep.Receive()
	if !ok {
		return
	}

	switch v := m.(type) {
	case frame.TurretPollSteps:
		pan, tilt := t.Steps()
		t.ep.Reply(frame.TurretSteps{Pan: pan, Tilt: tilt})
	case frame.TurretSetSteps:
		if err := t.pan.ToStep(int64(v.Pan)); err != nil {
			t.ep.log.Error("pan: %v", err)
		}
		if err := t.tilt.ToStep(int64(v.Tilt)); err != nil {
			t.ep.log.Error("tilt: %v", err)
		}
	}
}

func saturate(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
