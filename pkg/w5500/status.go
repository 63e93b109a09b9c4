// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import "fmt"

// Status is the decoded Sn_SR socket state
type Status struct {
	kind StatusKind
	raw  uint8
}

// StatusKind enumerates the socket states the chip reports
type StatusKind int

// Socket states. StatusUnknown covers every byte the chip is not documented
// to produce; it is a value, not an error.
const (
	StatusClosed StatusKind = iota
	StatusInit
	StatusListen
	StatusSynSent
	StatusSynRecv
	StatusEstablished
	StatusFinWait
	StatusClosing
	StatusTimeWait
	StatusClose
	StatusLastAck
	StatusUDP
	StatusMACRAW
	StatusUnknown
)

// Raw Sn_SR values
const (
	rawClosed      = 0x00
	rawInit        = 0x13
	rawListen      = 0x14
	rawSynSent     = 0x15
	rawSynRecv     = 0x16
	rawEstablished = 0x17
	rawFinWait     = 0x18
	rawClosing     = 0x1A
	rawTimeWait    = 0x1B
	rawCloseWait   = 0x1C
	rawLastAck     = 0x1D
	rawUDP         = 0x22
	rawMACRAW      = 0x42
)

var statusByRaw = map[uint8]StatusKind{
	rawClosed:      StatusClosed,
	rawInit:        StatusInit,
	rawListen:      StatusListen,
	rawSynSent:     StatusSynSent,
	rawSynRecv:     StatusSynRecv,
	rawEstablished: StatusEstablished,
	rawFinWait:     StatusFinWait,
	rawClosing:     StatusClosing,
	rawTimeWait:    StatusTimeWait,
	rawCloseWait:   StatusClose,
	rawLastAck:     StatusLastAck,
	rawUDP:         StatusUDP,
	rawMACRAW:      StatusMACRAW,
}

// StatusFromByte decodes a raw Sn_SR value
func StatusFromByte(b uint8) Status {
	kind, ok := statusByRaw[b]
	if !ok {
		kind = StatusUnknown
	}
	return Status{kind: kind, raw: b}
}

// Kind returns the decoded state
func (s Status) Kind() StatusKind {
	return s.kind
}

// Raw returns the byte read from Sn_SR
func (s Status) Raw() uint8 {
	return s.raw
}

// Is reports whether the status is of the given kind
func (s Status) Is(kind StatusKind) bool {
	return s.kind == kind
}

// String returns the state name
func (s Status) String() string {
	if s.kind == StatusUnknown {
		return fmt.Sprintf("UNKNOWN(0x%02X)", s.raw)
	}
	return s.kind.String()
}

// String returns the state name
func (k StatusKind) String() string {
	switch k {
	case StatusClosed:
		return "CLOSED"
	case StatusInit:
		return "INIT"
	case StatusListen:
		return "LISTEN"
	case StatusSynSent:
		return "SYNSENT"
	case StatusSynRecv:
		return "SYNRECV"
	case StatusEstablished:
		return "ESTABLISHED"
	case StatusFinWait:
		return "FIN_WAIT"
	case StatusClosing:
		return "CLOSING"
	case StatusTimeWait:
		return "TIME_WAIT"
	case StatusClose:
		return "CLOSE_WAIT"
	case StatusLastAck:
		return "LAST_ACK"
	case StatusUDP:
		return "UDP"
	case StatusMACRAW:
		return "MACRAW"
	default:
		return "UNKNOWN"
	}
}
