// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// Bus issues raw register transactions on the SPI bus.
//
// Every transaction holds chip-select low for its whole duration. A Bus is not
// safe for concurrent use: the chip has one chip-select line and transactions
// must never interleave.
type Bus struct {
	conn  spi.Conn
	cs    gpio.PinOut
	clock clock.Clock
}

// NewBus creates a bus over an SPI connection. cs may be nil when the SPI
// port drives chip-select itself.
func NewBus(conn spi.Conn, cs gpio.PinOut, clk clock.Clock) *Bus {
	if clk == nil {
		clk = clock.System{}
	}
	return &Bus{conn: conn, cs: cs, clock: clk}
}

// Clock returns the delay capability used for settle times
func (b *Bus) Clock() clock.Clock {
	return b.clock
}

// Read clocks out the header and clocks in n data bytes
func (b *Bus) Read(h Header, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("read %s: invalid length %d", h, n)
	}
	w := make([]byte, HeaderSize+n)
	copy(w, h[:])
	r := make([]byte, len(w))

	if err := b.transfer(w, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", h, err)
	}
	return r[HeaderSize:], nil
}

// Write clocks out the header followed by data
func (b *Bus) Write(h Header, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("write %s: empty payload", h)
	}
	w := make([]byte, HeaderSize+len(data))
	copy(w, h[:])
	copy(w[HeaderSize:], data)
	r := make([]byte, len(w))

	if err := b.transfer(w, r); err != nil {
		return fmt.Errorf("write %s: %w", h, err)
	}
	return nil
}

// transfer runs one full-duplex transaction framed by chip-select.
// Chip-select is released even when the transfer fails.
func (b *Bus) transfer(w, r []byte) error {
	if b.cs != nil {
		if err := b.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("assert chip-select: %w", err)
		}
	}

	txErr := b.conn.Tx(w, r)

	if b.cs != nil {
		if err := b.cs.Out(gpio.High); err != nil {
			return errors.Join(txErr, fmt.Errorf("release chip-select: %w", err))
		}
	}
	return txErr
}
