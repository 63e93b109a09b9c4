// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import "fmt"

// BlockSelect selects the on-chip memory region a transaction addresses (5 bits)
type BlockSelect uint8

// BlockCommon addresses the common register block
const BlockCommon BlockSelect = 0x00

// Direction is the read/write bit of the control byte
type Direction uint8

const (
	Read  Direction = 0
	Write Direction = 1
)

// OperatingMode selects how many data bytes follow the header (2 bits)
type OperatingMode uint8

const (
	// VariableLength lets chip-select framing decide the data length.
	// Every transaction in this driver uses it.
	VariableLength OperatingMode = 0x00
	FixedLength1   OperatingMode = 0x01
	FixedLength2   OperatingMode = 0x02
	FixedLength4   OperatingMode = 0x03
)

// ControlByte is the third header byte: BSB[7:3] | RWB[2] | OM[1:0]
type ControlByte uint8

// NewControlByte packs block, direction and mode into a control byte.
// Each field is masked to its width so fields can never overlap.
func NewControlByte(block BlockSelect, dir Direction, mode OperatingMode) ControlByte {
	return ControlByte((uint8(block)&0x1F)<<3 | (uint8(dir)&0x01)<<2 | uint8(mode)&0x03)
}

// SocketIndex identifies one of the eight hardware sockets
type SocketIndex uint8

// Valid reports whether the index names a hardware socket
func (s SocketIndex) Valid() bool {
	return s < SocketCount
}

// Register returns the block select of the socket's register block
func (s SocketIndex) Register() BlockSelect {
	return BlockSelect(uint8(s)*4 + 1)
}

// TX returns the block select of the socket's transmit buffer
func (s SocketIndex) TX() BlockSelect {
	return BlockSelect(uint8(s)*4 + 2)
}

// RX returns the block select of the socket's receive buffer
func (s SocketIndex) RX() BlockSelect {
	return BlockSelect(uint8(s)*4 + 3)
}

// Header is the 3-byte SPI frame header: big-endian address then control byte
type Header [HeaderSize]byte

// NewHeader builds the header addressing address within the block named by cb
func NewHeader(address uint16, cb ControlByte) Header {
	return Header{byte(address >> 8), byte(address), byte(cb)}
}

// Address returns the 16-bit offset carried by the header
func (h Header) Address() uint16 {
	return uint16(h[0])<<8 | uint16(h[1])
}

// Control returns the control byte carried by the header
func (h Header) Control() ControlByte {
	return ControlByte(h[2])
}

// String formats the header for diagnostics
func (h Header) String() string {
	return fmt.Sprintf("addr=0x%04X ctrl=0x%02X", h.Address(), h[2])
}
