// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package board brings up the host peripherals and hands out owned handles
// for the SPI bus, GPIO pins and I²C bus.
package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/config"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// resetPulse is how long the chip's RSTn line is held low
const resetPulse = 500 * time.Microsecond

// Board owns the host peripheral handles. It is created once at boot and
// used from a single goroutine.
type Board struct {
	spiPort spi.PortCloser
	spiConn spi.Conn
	cs      gpio.PinOut
	reset   gpio.PinOut
	i2c     i2c.BusCloser
	clock   clock.Clock
	drivers []string
}

// Open initializes the host drivers and opens the SPI port, chip-select pin
// and I²C bus named in cfg
func Open(cfg config.BusConfig, clk clock.Clock) (*Board, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	if clk == nil {
		clk = clock.System{}
	}
	b := &Board{clock: clk}
	for _, d := range state.Loaded {
		b.drivers = append(b.drivers, d.String())
	}

	if err := b.openSPI(cfg); err != nil {
		return nil, err
	}
	if cfg.Reset != "" {
		if b.reset, err = Pin(cfg.Reset); err != nil {
			b.Close()
			return nil, fmt.Errorf("reset pin: %w", err)
		}
	}
	if b.i2c, err = i2creg.Open(cfg.I2CBus); err != nil {
		b.Close()
		return nil, fmt.Errorf("open I2C bus %q: %w", cfg.I2CBus, err)
	}
	return b, nil
}

func (b *Board) openSPI(cfg config.BusConfig) error {
	cs, err := Pin(cfg.ChipSelect)
	if err != nil {
		return fmt.Errorf("chip select: %w", err)
	}
	b.cs = cs
	if err := b.cs.Out(gpio.High); err != nil {
		return fmt.Errorf("chip select idle: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return fmt.Errorf("open SPI port %q: %w", cfg.SPIPort, err)
	}
	// Mode 0, manual chip select
	conn, err := port.Connect(physic.Frequency(cfg.SPISpeedHz)*physic.Hertz, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("connect SPI port %q: %w", cfg.SPIPort, err)
	}
	b.spiPort = port
	b.spiConn = conn
	return nil
}

// Drivers lists the host drivers that loaded
func (b *Board) Drivers() []string { return b.drivers }

// Bus returns the W5500 register bus over the board's SPI connection
func (b *Board) Bus() *w5500.Bus {
	return w5500.NewBus(b.spiConn, b.cs, b.clock)
}

// I2C returns the board's I²C bus
func (b *Board) I2C() i2c.Bus { return b.i2c }

// ResetChip pulses the hardware reset line when one is configured
func (b *Board) ResetChip() error {
	if b.reset == nil {
		return nil
	}
	return PulseReset(b.reset, b.clock)
}

// Close releases the SPI port and I²C bus
func (b *Board) Close() error {
	var errs []error
	if b.spiPort != nil {
		errs = append(errs, b.spiPort.Close())
	}
	if b.i2c != nil {
		errs = append(errs, b.i2c.Close())
	}
	return errors.Join(errs...)
}

// Pin looks up a GPIO by name
func Pin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("pin name is empty")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no GPIO named %q", name)
	}
	return p, nil
}

// PulseReset holds RSTn low, releases it and waits for the chip to come up
func PulseReset(pin gpio.PinOut, clk clock.Clock) error {
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert reset: %w", err)
	}
	clk.Sleep(resetPulse)
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("release reset: %w", err)
	}
	clk.Sleep(w5500.ResetSettle)
	return nil
}
