// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package w5500test provides an in-memory W5500 that implements spi.Conn.
//
// The emulator decodes SPI headers, keeps the common block, socket register
// blocks and 2KB ring buffers per socket, and reacts to socket commands well
// enough to drive the passive-open TCP state machine from tests. The remote
// peer is simulated with Connect, Deliver and Disconnect.
package w5500test

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

const (
	headerSize = 3
	sockets    = 8
	bufferSize = 2048
	blockSize  = 0x10000
)

// Socket register offsets used by the emulator
const (
	snMode     = 0x00
	snCommand  = 0x01
	snStatus   = 0x03
	snDestIP   = 0x0C
	snDestPort = 0x10
	snRXBuf    = 0x1E
	snTXBuf    = 0x1F
	snTXFree   = 0x20
	snTXRead   = 0x22
	snTXWrite  = 0x24
	snRXRecv   = 0x26
	snRXRead   = 0x28
	snRXWrite  = 0x2A
)

// Raw status values
const (
	StatusClosed      = 0x00
	StatusInit        = 0x13
	StatusListen      = 0x14
	StatusSynSent     = 0x15
	StatusEstablished = 0x17
	StatusCloseWait   = 0x1C
	StatusUDP         = 0x22
	StatusMACRAW      = 0x42
)

// Chip emulates a W5500 behind an SPI connection
type Chip struct {
	mu           sync.Mutex
	blocks       map[uint8][]byte
	sent         [sockets][]byte
	commands     [sockets][]uint8
	transactions int
	failNext     error
}

// New returns an emulator in its power-on state
func New() *Chip {
	c := &Chip{blocks: make(map[uint8][]byte)}
	common := c.block(0)
	common[0x0019] = 0x07 // RTR = 2000
	common[0x001A] = 0xD0
	common[0x001B] = 0x08 // RCR
	common[0x002E] = 0xBF // PHYCFGR: link up, 100M, full duplex
	common[0x0039] = 0x04 // VERSIONR
	for s := 0; s < sockets; s++ {
		reg := c.block(registerBlock(s))
		reg[snRXBuf] = 2
		reg[snTXBuf] = 2
	}
	return c
}

func registerBlock(s int) uint8 { return uint8(s*4 + 1) }
func txBlock(s int) uint8       { return uint8(s*4 + 2) }
func rxBlock(s int) uint8       { return uint8(s*4 + 3) }

func (c *Chip) block(bsb uint8) []byte {
	b, ok := c.blocks[bsb]
	if !ok {
		b = make([]byte, blockSize)
		c.blocks[bsb] = b
	}
	return b
}

// String implements conn.Resource
func (c *Chip) String() string {
	return "w5500test"
}

// Duplex implements conn.Conn
func (c *Chip) Duplex() conn.Duplex {
	return conn.Full
}

// TxPackets implements spi.Conn
func (c *Chip) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// FailNext makes the next transaction return err
func (c *Chip) FailNext(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = err
}

// Transactions returns the number of completed SPI transactions
func (c *Chip) Transactions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transactions
}

// Tx implements conn.Conn. w carries the 3-byte header followed by write data
// or dummy bytes; r receives the read data at the same offsets.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failNext != nil {
		err := c.failNext
		c.failNext = nil
		return err
	}
	if len(w) < headerSize {
		return errors.New("w5500test: short transaction")
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("w5500test: buffer length mismatch w=%d r=%d", len(w), len(r))
	}

	addr := uint16(w[0])<<8 | uint16(w[1])
	bsb := w[2] >> 3
	write := w[2]&0x04 != 0
	n := len(w) - headerSize

	c.transactions++
	if bsb != 0 && bsb%4 == 0 {
		return fmt.Errorf("w5500test: reserved block select %d", bsb)
	}

	if !write {
		c.refresh(bsb)
		for i := 0; i < n; i++ {
			v := c.peek(bsb, addr+uint16(i))
			if r != nil {
				r[headerSize+i] = v
			}
		}
		return nil
	}

	for i := 0; i < n; i++ {
		c.poke(bsb, addr+uint16(i), w[headerSize+i])
	}
	if bsb != 0 && bsb%4 == 1 && addr <= snCommand && int(addr)+n > snCommand {
		s := int(bsb-1) / 4
		c.command(s, w[headerSize+int(snCommand-addr)])
	}
	return nil
}

// offset maps an address into a block, wrapping buffer blocks at their size
func offset(bsb uint8, addr uint16) int {
	if bsb != 0 && bsb%4 != 1 {
		return int(addr) & (bufferSize - 1)
	}
	return int(addr)
}

func (c *Chip) peek(bsb uint8, addr uint16) byte {
	return c.block(bsb)[offset(bsb, addr)]
}

func (c *Chip) poke(bsb uint8, addr uint16, v byte) {
	c.block(bsb)[offset(bsb, addr)] = v
}

func (c *Chip) get16(bsb uint8, addr uint16) uint16 {
	b := c.block(bsb)
	return uint16(b[addr])<<8 | uint16(b[addr+1])
}

func (c *Chip) set16(bsb uint8, addr uint16, v uint16) {
	b := c.block(bsb)
	b[addr] = byte(v >> 8)
	b[addr+1] = byte(v)
}

// refresh recomputes the derived size registers of a socket register block
func (c *Chip) refresh(bsb uint8) {
	if bsb == 0 || bsb%4 != 1 {
		return
	}
	used := c.get16(bsb, snTXWrite) - c.get16(bsb, snTXRead)
	c.set16(bsb, snTXFree, bufferSize-used)
	c.set16(bsb, snRXRecv, c.get16(bsb, snRXWrite)-c.get16(bsb, snRXRead))
}

func (c *Chip) command(s int, cmd uint8) {
	reg := registerBlock(s)
	b := c.block(reg)
	c.commands[s] = append(c.commands[s], cmd)

	switch cmd {
	case 0x01: // OPEN
		switch b[snMode] & 0x0F {
		case 0x01:
			b[snStatus] = StatusInit
		case 0x02:
			b[snStatus] = StatusUDP
		case 0x04:
			b[snStatus] = StatusMACRAW
		}
	case 0x02: // LISTEN
		if b[snStatus] == StatusInit {
			b[snStatus] = StatusListen
		}
	case 0x04: // CONNECT
		if b[snStatus] == StatusInit {
			b[snStatus] = StatusSynSent
		}
	case 0x08, 0x10: // DISCON, CLOSE
		b[snStatus] = StatusClosed
	case 0x20: // SEND
		rd := c.get16(reg, snTXRead)
		wr := c.get16(reg, snTXWrite)
		for p := rd; p != wr; p++ {
			c.sent[s] = append(c.sent[s], c.peek(txBlock(s), p))
		}
		c.set16(reg, snTXRead, wr)
	case 0x40: // RECV
		// Sn_RX_RD was already advanced by the host
	}
	b[snCommand] = 0
}

// Connect simulates a peer completing the handshake on a listening socket.
// It returns false when the socket is not listening.
func (c *Chip) Connect(s int, ip [4]byte, port uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg := registerBlock(s)
	b := c.block(reg)
	if b[snStatus] != StatusListen {
		return false
	}
	copy(b[snDestIP:snDestIP+4], ip[:])
	c.set16(reg, snDestPort, port)
	b[snStatus] = StatusEstablished
	return true
}

// Disconnect simulates the connection going away; the socket reports CLOSED
func (c *Chip) Disconnect(s int) {
	c.SetStatus(s, StatusClosed)
}

// SetStatus forces the raw Sn_SR value of socket s
func (c *Chip) SetStatus(s int, v uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block(registerBlock(s))[snStatus] = v
}

// Status returns the raw Sn_SR value of socket s
func (c *Chip) Status(s int) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block(registerBlock(s))[snStatus]
}

// Deliver appends data to the RX buffer of socket s as if received from the peer
func (c *Chip) Deliver(s int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg := registerBlock(s)
	wr := c.get16(reg, snRXWrite)
	for _, v := range data {
		c.poke(rxBlock(s), wr, v)
		wr++
	}
	c.set16(reg, snRXWrite, wr)
}

// Sent returns and clears everything socket s transmitted
func (c *Chip) Sent(s int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sent[s]
	c.sent[s] = nil
	return out
}

// Commands returns the command bytes written to socket s, oldest first
func (c *Chip) Commands(s int) []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.commands[s]...)
}

// Peek returns n bytes of block bsb starting at addr without side effects
func (c *Chip) Peek(bsb uint8, addr uint16, n int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = c.peek(bsb, addr+uint16(i))
	}
	return out
}

// Poke writes data into block bsb at addr without triggering commands
func (c *Chip) Poke(bsb uint8, addr uint16, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, v := range data {
		c.poke(bsb, addr+uint16(i), v)
	}
}
