// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Chip is a handle to one W5500 on a bus
type Chip struct {
	bus *Bus
}

// New returns a chip handle using bus for every transaction
func New(bus *Bus) *Chip {
	return &Chip{bus: bus}
}

// Bus returns the underlying bus
func (c *Chip) Bus() *Bus {
	return c.bus
}

func (c *Chip) settle(d time.Duration) {
	c.bus.clock.Sleep(d)
}

// readReg reads a whole register from block
func (c *Chip) readReg(block BlockSelect, reg Register) ([]byte, error) {
	h := NewHeader(reg.Address, NewControlByte(block, Read, VariableLength))
	return c.bus.Read(h, reg.Size)
}

// writeReg writes a whole register in block; data must match the register width
func (c *Chip) writeReg(block BlockSelect, reg Register, data []byte) error {
	if len(data) != reg.Size {
		return fmt.Errorf("register 0x%04X is %d bytes wide, got %d", reg.Address, reg.Size, len(data))
	}
	h := NewHeader(reg.Address, NewControlByte(block, Write, VariableLength))
	return c.bus.Write(h, data)
}

func (c *Chip) read8(block BlockSelect, reg Register) (uint8, error) {
	if reg.Size != 1 {
		return 0, fmt.Errorf("register 0x%04X is %d bytes wide, not 1", reg.Address, reg.Size)
	}
	buf, err := c.readReg(block, reg)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *Chip) read16(block BlockSelect, reg Register) (uint16, error) {
	if reg.Size != 2 {
		return 0, fmt.Errorf("register 0x%04X is %d bytes wide, not 2", reg.Address, reg.Size)
	}
	buf, err := c.readReg(block, reg)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (c *Chip) write8(block BlockSelect, reg Register, v uint8) error {
	return c.writeReg(block, reg, []byte{v})
}

func (c *Chip) write16(block BlockSelect, reg Register, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return c.writeReg(block, reg, buf[:])
}
