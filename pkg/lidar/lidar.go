// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package lidar reads a LIDAR-Lite v3 compatible rangefinder over I²C.
package lidar

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// I2CAddr is the factory default address
const I2CAddr uint16 = 0x62

const (
	regAcqCommand  = 0x00
	regStatus      = 0x01
	regFullDelayHi = 0x8F

	acqMeasureWithBias = 0x04
	statusBusy         = 0x01
)

// Defaults for the busy poll
const (
	DefaultMaxPolls     = 100
	DefaultPollInterval = 200 * time.Microsecond
)

// ErrBusy is returned when the device does not finish a measurement within
// the poll budget
var ErrBusy = errors.New("lidar: measurement did not complete")

// Opts tunes the busy poll
type Opts struct {
	MaxPolls     int
	PollInterval time.Duration
}

// Dev is a handle to the rangefinder
type Dev struct {
	c     conn.Conn
	clock clock.Clock
	opts  Opts
}

// NewI2C returns a rangefinder on bus b at addr
func NewI2C(b i2c.Bus, addr uint16, clk clock.Clock, opts Opts) *Dev {
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = DefaultMaxPolls
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Dev{c: &i2c.Dev{Bus: b, Addr: addr}, clock: clk, opts: opts}
}

func (d *Dev) String() string {
	return fmt.Sprintf("LIDAR-Lite(%s)", d.c)
}

// Halt implements conn.Resource
func (d *Dev) Halt() error { return nil }

// Distance triggers one measurement and returns it in centimeters
func (d *Dev) Distance() (uint32, error) {
	if err := d.c.Tx([]byte{regAcqCommand, acqMeasureWithBias}, nil); err != nil {
		return 0, fmt.Errorf("lidar: start measurement: %w", err)
	}

	if err := d.waitReady(); err != nil {
		return 0, err
	}

	var buf [2]byte
	if err := d.c.Tx([]byte{regFullDelayHi}, buf[:]); err != nil {
		return 0, fmt.Errorf("lidar: read distance: %w", err)
	}
	return uint32(buf[0])<<8 | uint32(buf[1]), nil
}

// Sense returns the distance as a physic.Distance
func (d *Dev) Sense() (physic.Distance, error) {
	cm, err := d.Distance()
	if err != nil {
		return 0, err
	}
	return physic.Distance(cm) * 10 * physic.MilliMetre, nil
}

func (d *Dev) waitReady() error {
	var status [1]byte
	for i := 0; i < d.opts.MaxPolls; i++ {
		if err := d.c.Tx([]byte{regStatus}, status[:]); err != nil {
			return fmt.Errorf("lidar: read status: %w", err)
		}
		if status[0]&statusBusy == 0 {
			return nil
		}
		d.clock.Sleep(d.opts.PollInterval)
	}
	return ErrBusy
}
