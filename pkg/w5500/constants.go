// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package w5500 drives a WIZnet W5500 TCP/IP offload chip over SPI.
//
// The chip implements TCP and UDP internally; this package only programs its
// registers. It is layered as register addressing (control byte and 3-byte
// header), raw bus transactions, the common register block, and per-socket
// register blocks with a passive-open TCP server on top.
package w5500

import "time"

// HeaderSize is the size of the address + control byte SPI header
const HeaderSize = 3

// SocketCount is the number of independent hardware sockets
const SocketCount = 8

// ExpectedVersion is the value of VERSIONR on a genuine W5500
const ExpectedVersion = 0x04

// Settle delays. Some registers are updated asynchronously by the chip and
// must not be read immediately after the operation that changes them.
const (
	// StatusSettle precedes reads of Sn_SR, Sn_RX_RSR and Sn_TX_FSR
	StatusSettle = 10 * time.Microsecond
	// CommandSettle follows every write to Sn_CR
	CommandSettle = 100 * time.Microsecond
	// ResetSettle follows a software reset through MR
	ResetSettle = 10 * time.Millisecond
)

// Register describes a register's offset inside its block and its width in bytes
type Register struct {
	Address uint16
	Size    int
}

// Common register block
var (
	RegMode          = Register{Address: 0x0000, Size: 1} // MR
	RegGateway       = Register{Address: 0x0001, Size: 4} // GAR
	RegSubnetMask    = Register{Address: 0x0005, Size: 4} // SUBR
	RegSourceMAC     = Register{Address: 0x0009, Size: 6} // SHAR
	RegSourceIP      = Register{Address: 0x000F, Size: 4} // SIPR
	RegInterruptLow  = Register{Address: 0x0013, Size: 2} // INTLEVEL
	RegInterrupt     = Register{Address: 0x0015, Size: 1} // IR
	RegInterruptMask = Register{Address: 0x0016, Size: 1} // IMR
	RegSocketIntr    = Register{Address: 0x0017, Size: 1} // SIR
	RegSocketIntMask = Register{Address: 0x0018, Size: 1} // SIMR
	RegRetryTime     = Register{Address: 0x0019, Size: 2} // RTR
	RegRetryCount    = Register{Address: 0x001B, Size: 1} // RCR
	RegUnreachableIP = Register{Address: 0x0028, Size: 4} // UIPR
	RegUnreachPort   = Register{Address: 0x002C, Size: 2} // UPORTR
	RegPHYConfig     = Register{Address: 0x002E, Size: 1} // PHYCFGR
	RegVersion       = Register{Address: 0x0039, Size: 1} // VERSIONR
)

// Socket register block
var (
	RegSnMode        = Register{Address: 0x0000, Size: 1} // Sn_MR
	RegSnCommand     = Register{Address: 0x0001, Size: 1} // Sn_CR
	RegSnInterrupt   = Register{Address: 0x0002, Size: 1} // Sn_IR
	RegSnStatus      = Register{Address: 0x0003, Size: 1} // Sn_SR
	RegSnSourcePort  = Register{Address: 0x0004, Size: 2} // Sn_PORT
	RegSnDestMAC     = Register{Address: 0x0006, Size: 6} // Sn_DHAR
	RegSnDestIP      = Register{Address: 0x000C, Size: 4} // Sn_DIPR
	RegSnDestPort    = Register{Address: 0x0010, Size: 2} // Sn_DPORT
	RegSnMaxSegment  = Register{Address: 0x0012, Size: 2} // Sn_MSSR
	RegSnTOS         = Register{Address: 0x0015, Size: 1} // Sn_TOS
	RegSnTTL         = Register{Address: 0x0016, Size: 1} // Sn_TTL
	RegSnRXBufSize   = Register{Address: 0x001E, Size: 1} // Sn_RXBUF_SIZE
	RegSnTXBufSize   = Register{Address: 0x001F, Size: 1} // Sn_TXBUF_SIZE
	RegSnTXFreeSize  = Register{Address: 0x0020, Size: 2} // Sn_TX_FSR
	RegSnTXRead      = Register{Address: 0x0022, Size: 2} // Sn_TX_RD
	RegSnTXWrite     = Register{Address: 0x0024, Size: 2} // Sn_TX_WR
	RegSnRXReceived  = Register{Address: 0x0026, Size: 2} // Sn_RX_RSR
	RegSnRXRead      = Register{Address: 0x0028, Size: 2} // Sn_RX_RD
	RegSnRXWrite     = Register{Address: 0x002A, Size: 2} // Sn_RX_WR
	RegSnIntMask     = Register{Address: 0x002C, Size: 1} // Sn_IMR
	RegSnFragment    = Register{Address: 0x002D, Size: 2} // Sn_FRAG
	RegSnKeepAliveTm = Register{Address: 0x002F, Size: 1} // Sn_KPALVTR
)

// Mode register bits
const (
	ModeReset     = 0x80
	ModeWakeOnLAN = 0x20
	ModePingBlock = 0x10
	ModePPPoE     = 0x08
	ModeForceARP  = 0x02
)

// PHYCFGR bits
const (
	phyLink       = 0x01
	phySpeed100   = 0x02
	phyFullDuplex = 0x04
	phyReset      = 0x80
)

// Command is a value written to Sn_CR
type Command uint8

// Socket commands
const (
	CmdOpen       Command = 0x01
	CmdListen     Command = 0x02
	CmdConnect    Command = 0x04
	CmdDisconnect Command = 0x08
	CmdClose      Command = 0x10
	CmdSend       Command = 0x20
	CmdSendMAC    Command = 0x21
	CmdSendKeep   Command = 0x22
	CmdRecv       Command = 0x40
)

// String returns the command name
func (c Command) String() string {
	switch c {
	case CmdOpen:
		return "OPEN"
	case CmdListen:
		return "LISTEN"
	case CmdConnect:
		return "CONNECT"
	case CmdDisconnect:
		return "DISCON"
	case CmdClose:
		return "CLOSE"
	case CmdSend:
		return "SEND"
	case CmdSendMAC:
		return "SEND_MAC"
	case CmdSendKeep:
		return "SEND_KEEP"
	case CmdRecv:
		return "RECV"
	default:
		return "UNKNOWN"
	}
}

// Protocol is the low nibble of Sn_MR
type Protocol uint8

// Socket protocols
const (
	ProtocolClosed Protocol = 0x00
	ProtocolTCP    Protocol = 0x01
	ProtocolUDP    Protocol = 0x02
	ProtocolMACRAW Protocol = 0x04
)

// Socket interrupt bits (Sn_IR)
const (
	IntConnect    = 0x01
	IntDisconnect = 0x02
	IntReceive    = 0x04
	IntTimeout    = 0x08
	IntSendOK     = 0x10
)
