// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

var (
	// ErrInvalidSocket is returned for socket indexes outside 0-7
	ErrInvalidSocket = errors.New("invalid socket index")

	// ErrTxBufferFull is returned by Send when the TX buffer cannot hold the data
	ErrTxBufferFull = errors.New("tx buffer full")
)

// keepAliveUnit is the Sn_KPALVTR resolution
const keepAliveUnit = 5 * time.Second

// Socket gives typed access to one socket's register block and buffers.
// Every call is a point-in-time register access; nothing blocks waiting for
// a state transition.
type Socket struct {
	chip  *Chip
	index SocketIndex
}

// NewSocket returns a handle to socket index on chip
func NewSocket(chip *Chip, index SocketIndex) (*Socket, error) {
	if !index.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSocket, index)
	}
	return &Socket{chip: chip, index: index}, nil
}

// Index returns the socket index
func (s *Socket) Index() SocketIndex {
	return s.index
}

func (s *Socket) read8(reg Register) (uint8, error) {
	return s.chip.read8(s.index.Register(), reg)
}

func (s *Socket) read16(reg Register) (uint16, error) {
	return s.chip.read16(s.index.Register(), reg)
}

func (s *Socket) write8(reg Register, v uint8) error {
	return s.chip.write8(s.index.Register(), reg, v)
}

func (s *Socket) write16(reg Register, v uint16) error {
	return s.chip.write16(s.index.Register(), reg, v)
}

// Mode reads the protocol from Sn_MR
func (s *Socket) Mode() (Protocol, error) {
	v, err := s.read8(RegSnMode)
	if err != nil {
		return 0, err
	}
	return Protocol(v & 0x0F), nil
}

// SetMode writes the protocol to Sn_MR
func (s *Socket) SetMode(p Protocol) error {
	return s.write8(RegSnMode, uint8(p))
}

// Command writes Sn_CR and waits for the chip to accept it
func (s *Socket) Command(cmd Command) error {
	if err := s.write8(RegSnCommand, uint8(cmd)); err != nil {
		return fmt.Errorf("socket %d %s: %w", s.index, cmd, err)
	}
	s.chip.settle(CommandSettle)
	return nil
}

// Interrupt reads Sn_IR
func (s *Socket) Interrupt() (uint8, error) {
	return s.read8(RegSnInterrupt)
}

// ClearInterrupt clears the given Sn_IR bits
func (s *Socket) ClearInterrupt(bits uint8) error {
	return s.write8(RegSnInterrupt, bits)
}

// Status reads Sn_SR after the settle delay
func (s *Socket) Status() (Status, error) {
	s.chip.settle(StatusSettle)
	v, err := s.read8(RegSnStatus)
	if err != nil {
		return Status{}, err
	}
	return StatusFromByte(v), nil
}

// Port reads Sn_PORT
func (s *Socket) Port() (uint16, error) {
	return s.read16(RegSnSourcePort)
}

// SetPort writes Sn_PORT
func (s *Socket) SetPort(port uint16) error {
	return s.write16(RegSnSourcePort, port)
}

// DestinationIP reads Sn_DIPR
func (s *Socket) DestinationIP() (netip.Addr, error) {
	buf, err := s.chip.readReg(s.index.Register(), RegSnDestIP)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom4([4]byte(buf)), nil
}

// SetDestinationIP writes Sn_DIPR
func (s *Socket) SetDestinationIP(addr netip.Addr) error {
	if !addr.Is4() {
		return fmt.Errorf("destination must be IPv4, got %v", addr)
	}
	a := addr.As4()
	return s.chip.writeReg(s.index.Register(), RegSnDestIP, a[:])
}

// DestinationPort reads Sn_DPORT
func (s *Socket) DestinationPort() (uint16, error) {
	return s.read16(RegSnDestPort)
}

// SetDestinationPort writes Sn_DPORT
func (s *Socket) SetDestinationPort(port uint16) error {
	return s.write16(RegSnDestPort, port)
}

// Peer returns the remote address of an established connection
func (s *Socket) Peer() (netip.AddrPort, error) {
	ip, err := s.DestinationIP()
	if err != nil {
		return netip.AddrPort{}, err
	}
	port, err := s.DestinationPort()
	if err != nil {
		return netip.AddrPort{}, err
	}
	return netip.AddrPortFrom(ip, port), nil
}

// MaxSegmentSize reads Sn_MSSR
func (s *Socket) MaxSegmentSize() (uint16, error) {
	return s.read16(RegSnMaxSegment)
}

// SetMaxSegmentSize writes Sn_MSSR
func (s *Socket) SetMaxSegmentSize(v uint16) error {
	return s.write16(RegSnMaxSegment, v)
}

// TTL reads Sn_TTL
func (s *Socket) TTL() (uint8, error) {
	return s.read8(RegSnTTL)
}

// SetTTL writes Sn_TTL
func (s *Socket) SetTTL(v uint8) error {
	return s.write8(RegSnTTL, v)
}

// validBufferKB reports whether kb is a buffer size the chip accepts
func validBufferKB(kb uint8) bool {
	switch kb {
	case 0, 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// RXBufferSize reads Sn_RXBUF_SIZE in kilobytes
func (s *Socket) RXBufferSize() (uint8, error) {
	return s.read8(RegSnRXBufSize)
}

// SetRXBufferSize writes Sn_RXBUF_SIZE in kilobytes
func (s *Socket) SetRXBufferSize(kb uint8) error {
	if !validBufferKB(kb) {
		return fmt.Errorf("invalid rx buffer size %dKB", kb)
	}
	return s.write8(RegSnRXBufSize, kb)
}

// TXBufferSize reads Sn_TXBUF_SIZE in kilobytes
func (s *Socket) TXBufferSize() (uint8, error) {
	return s.read8(RegSnTXBufSize)
}

// SetTXBufferSize writes Sn_TXBUF_SIZE in kilobytes
func (s *Socket) SetTXBufferSize(kb uint8) error {
	if !validBufferKB(kb) {
		return fmt.Errorf("invalid tx buffer size %dKB", kb)
	}
	return s.write8(RegSnTXBufSize, kb)
}

// TXFreeSize reads Sn_TX_FSR after the settle delay
func (s *Socket) TXFreeSize() (uint16, error) {
	s.chip.settle(StatusSettle)
	return s.read16(RegSnTXFreeSize)
}

// TXReadPointer reads Sn_TX_RD
func (s *Socket) TXReadPointer() (uint16, error) {
	return s.read16(RegSnTXRead)
}

// TXWritePointer reads Sn_TX_WR
func (s *Socket) TXWritePointer() (uint16, error) {
	return s.read16(RegSnTXWrite)
}

// SetTXWritePointer writes Sn_TX_WR
func (s *Socket) SetTXWritePointer(v uint16) error {
	return s.write16(RegSnTXWrite, v)
}

// ReceivedSize reads Sn_RX_RSR after the settle delay
func (s *Socket) ReceivedSize() (uint16, error) {
	s.chip.settle(StatusSettle)
	return s.read16(RegSnRXReceived)
}

// RXReadPointer reads Sn_RX_RD
func (s *Socket) RXReadPointer() (uint16, error) {
	return s.read16(RegSnRXRead)
}

// SetRXReadPointer writes Sn_RX_RD
func (s *Socket) SetRXReadPointer(v uint16) error {
	return s.write16(RegSnRXRead, v)
}

// RXWritePointer reads Sn_RX_WR
func (s *Socket) RXWritePointer() (uint16, error) {
	return s.read16(RegSnRXWrite)
}

// KeepAlive reads Sn_KPALVTR
func (s *Socket) KeepAlive() (time.Duration, error) {
	v, err := s.read8(RegSnKeepAliveTm)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * keepAliveUnit, nil
}

// SetKeepAlive writes Sn_KPALVTR, rounded down to 5s units. Zero disables
// automatic keep-alive.
func (s *Socket) SetKeepAlive(d time.Duration) error {
	units := d / keepAliveUnit
	if units < 0 || units > 0xFF {
		return fmt.Errorf("keep-alive %v out of range", d)
	}
	return s.write8(RegSnKeepAliveTm, uint8(units))
}

// Receive copies up to len(p) received bytes into p, advances Sn_RX_RD and
// issues RECV. It returns 0 without touching the chip pointers when nothing
// is waiting.
func (s *Socket) Receive(p []byte) (int, error) {
	avail, err := s.ReceivedSize()
	if err != nil {
		return 0, err
	}
	n := min(len(p), int(avail))
	if n == 0 {
		return 0, nil
	}

	ptr, err := s.RXReadPointer()
	if err != nil {
		return 0, err
	}
	h := NewHeader(ptr, NewControlByte(s.index.RX(), Read, VariableLength))
	data, err := s.chip.bus.Read(h, n)
	if err != nil {
		return 0, fmt.Errorf("socket %d receive: %w", s.index, err)
	}
	copy(p, data)

	if err := s.SetRXReadPointer(ptr + uint16(n)); err != nil {
		return 0, err
	}
	if err := s.Command(CmdRecv); err != nil {
		return 0, err
	}
	return n, nil
}

// Send writes p into the TX buffer, advances Sn_TX_WR and issues SEND.
// The whole of p is sent or nothing is.
func (s *Socket) Send(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > 0xFFFF {
		return 0, fmt.Errorf("socket %d send: %d bytes exceeds buffer addressing", s.index, len(p))
	}

	free, err := s.TXFreeSize()
	if err != nil {
		return 0, err
	}
	if int(free) < len(p) {
		return 0, fmt.Errorf("socket %d: %w (%d free, %d needed)", s.index, ErrTxBufferFull, free, len(p))
	}

	ptr, err := s.TXWritePointer()
	if err != nil {
		return 0, err
	}
	h := NewHeader(ptr, NewControlByte(s.index.TX(), Write, VariableLength))
	if err := s.chip.bus.Write(h, p); err != nil {
		return 0, fmt.Errorf("socket %d send: %w", s.index, err)
	}

	if err := s.SetTXWritePointer(ptr + uint16(len(p))); err != nil {
		return 0, err
	}
	if err := s.Command(CmdSend); err != nil {
		return 0, err
	}
	return len(p), nil
}
