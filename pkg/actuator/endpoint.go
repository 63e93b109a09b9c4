// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package actuator

import (
	"fmt"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/Thermoquad/hydrant/pkg/w5500"
)

// Stats counts frame traffic on one endpoint
type Stats struct {
	Received     uint64
	Decoded      uint64
	Dropped      uint64
	Replies      uint64
	SendFailures uint64
	Disconnects  uint64
	Rearms       uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("rx=%d decoded=%d dropped=%d replies=%d send_failures=%d disconnects=%d rearms=%d",
		s.Received, s.Decoded, s.Dropped, s.Replies, s.SendFailures, s.Disconnects, s.Rearms)
}

// EndpointOpts configures an Endpoint
type EndpointOpts struct {
	// RearmOnClose re-opens the listening socket when a connection that was
	// established drops to CLOSED
	RearmOnClose bool
}

// Endpoint is a controller's listening socket. It turns the socket's byte
// stream into whole frames and never returns driver errors to the caller;
// they are logged and the tick does nothing.
type Endpoint struct {
	name   string
	server *w5500.TCPServer
	log    *logging.Logger
	opts   EndpointOpts

	connected   bool
	rearmNeeded bool
	stats       Stats
	buf         frame.Frame
}

// NewEndpoint programs socket index as a TCP server on port
func NewEndpoint(name string, chip *w5500.Chip, index w5500.SocketIndex, port uint16, log *logging.Logger, opts EndpointOpts) (*Endpoint, error) {
	server, err := w5500.NewTCPServer(chip, index, port)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Endpoint{name: name, server: server, log: log, opts: opts}, nil
}

// Name returns the controller name the endpoint belongs to
func (e *Endpoint) Name() string { return e.name }

// Server exposes the underlying socket for diagnostics
func (e *Endpoint) Server() *w5500.TCPServer { return e.server }

// Stats returns a snapshot of the frame counters
func (e *Endpoint) Stats() Stats { return e.stats }

// Start opens the socket and starts listening
func (e *Endpoint) Start() error {
	if err := e.server.Start(); err != nil {
		return fmt.Errorf("%s: start listening: %w", e.name, err)
	}
	e.log.Info("listening on port %d (socket %d)", e.server.Port(), e.server.Socket().Index())
	return nil
}

// Connected polls the socket state and logs transitions once
func (e *Endpoint) Connected() bool {
	st, err := e.server.Status()
	if err != nil {
		e.log.Error("status read failed: %v", err)
		return false
	}

	established := st.Is(w5500.StatusEstablished)
	switch {
	case established && !e.connected:
		e.connected = true
		if peer, err := e.server.Socket().Peer(); err == nil {
			e.log.Info("connected: %s", peer)
		} else {
			e.log.Info("connected")
		}
	case !established && e.connected:
		e.connected = false
		e.stats.Disconnects++
		e.rearmNeeded = e.opts.RearmOnClose
		e.log.Info("disconnected: socket %s", st)
	}

	if e.rearmNeeded && st.Is(w5500.StatusClosed) {
		e.rearmNeeded = false
		if err := e.server.Rearm(); err != nil {
			e.log.Error("rearm failed: %v", err)
		} else {
			e.stats.Rearms++
			e.log.Info("rearmed listener on port %d", e.server.Port())
		}
	}
	return established
}

// Receive returns the next message when a whole frame is waiting. Frames that
// fail to decode are counted and dropped.
func (e *Endpoint) Receive() (frame.Message, bool) {
	avail, err := e.server.Available()
	if err != nil {
		e.log.Error("rx size read failed: %v", err)
		return nil, false
	}
	if avail < frame.Size {
		return nil, false
	}

	n, err := e.server.Receive(e.buf[:])
	if err != nil {
		e.log.Error("receive failed: %v", err)
		return nil, false
	}
	if n != frame.Size {
		e.log.Error("short frame read: %d of %d bytes", n, frame.Size)
		return nil, false
	}
	e.stats.Received++
	e.log.Hex("rx frame", e.buf.Payload())

	m, ok := frame.Decode(&e.buf)
	if !ok {
		e.stats.Dropped++
		e.log.Verbose("dropped undecodable frame (len %d)", e.buf.Len())
		return nil, false
	}
	e.stats.Decoded++
	e.log.Debug("received %s", frame.FormatMessage(m))
	return m, true
}

// Reply encodes m and queues it on the socket
func (e *Endpoint) Reply(m frame.Message) bool {
	f, ok := frame.Encode(m)
	if !ok {
		e.stats.SendFailures++
		e.log.Error("cannot encode reply %s", frame.FormatMessage(m))
		return false
	}
	if _, err := e.server.Send(f[:]); err != nil {
		e.stats.SendFailures++
		e.log.Error("send %s failed: %v", frame.FormatMessageType(m.Type()), err)
		return false
	}
	e.stats.Replies++
	e.log.Debug("replied %s", frame.FormatMessage(m))
	return true
}
