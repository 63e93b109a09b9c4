// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package actuator

import (
	"github.com/Thermoquad/hydrant/pkg/frame"
)

// MainCtl answers pings, relays pump commands and records the thermal
// camera's signature offset
type MainCtl struct {
	ep   *Endpoint
	pump *Switch

	flir     [2]uint8
	flirSeen bool
}

// NewMainCtl creates the main controller on ep
func NewMainCtl(ep *Endpoint) *MainCtl {
	return &MainCtl{ep: ep}
}

func (c *MainCtl) Name() string        { return c.ep.Name() }
func (c *MainCtl) Start() error        { return c.ep.Start() }
func (c *MainCtl) Endpoint() *Endpoint { return c.ep }

// RelayPump routes Pump messages received here to the pump output
func (c *MainCtl) RelayPump(pump *Switch) { c.pump = pump }

// FlirSignatureOffset returns the latest reported offset, if any
func (c *MainCtl) FlirSignatureOffset() ([2]uint8, bool) {
	return c.flir, c.flirSeen
}

func (c *MainCtl) Tick() {
	if !c.ep.Connected() {
		return
	}
	m, ok := c.ep.Receive()
	if !ok {
		return
	}

	switch v := m.(type) {
	case frame.Ping:
		c.ep.Reply(v)
	case frame.FlirSignatureOffset:
		c.flir = v.Offset
		c.flirSeen = true
		c.ep.log.Info("flir signature offset x=%d y=%d", v.Offset[0], v.Offset[1])
	case frame.Pump:
		if c.pump == nil {
			c.ep.log.Verbose("pump %s ignored, no pump attached", v.Switch)
			return
		}
		if err := c.pump.Set(v.Switch); err != nil {
			c.ep.log.Error("pump relay: %v", err)
		}
	}
}
