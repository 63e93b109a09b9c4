// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/hydrant/pkg/frame"
)

// ErrUndecodable is returned for a whole frame that does not decode
var ErrUndecodable = errors.New("frame does not decode")

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// FrameConn exchanges whole frames over a Connection
type FrameConn struct {
	conn Connection
}

// NewFrameConn wraps c
func NewFrameConn(c Connection) *FrameConn {
	return &FrameConn{conn: c}
}

// Send encodes m into a frame and writes it
func (f *FrameConn) Send(m frame.Message) error {
	fr, ok := frame.Encode(m)
	if !ok {
		return fmt.Errorf("%s: %w", frame.FormatMessageType(m.Type()), frame.ErrFrameOverflow)
	}
	return f.WriteFrame(&fr)
}

// WriteFrame writes a raw frame
func (f *FrameConn) WriteFrame(fr *frame.Frame) error {
	if _, err := f.conn.Write(fr[:]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one whole frame. A zero timeout waits forever.
func (f *FrameConn) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	if d, ok := f.conn.(readDeadliner); ok {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := d.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	var fr frame.Frame
	if _, err := io.ReadFull(f.conn, fr[:]); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return &fr, nil
}

// Receive reads and decodes one frame
func (f *FrameConn) Receive(timeout time.Duration) (frame.Message, error) {
	fr, err := f.ReadFrame(timeout)
	if err != nil {
		return nil, err
	}
	m, ok := frame.Decode(fr)
	if !ok {
		return nil, fmt.Errorf("%w: % x", ErrUndecodable, fr.Payload())
	}
	return m, nil
}

// Request sends m and waits for one reply
func (f *FrameConn) Request(m frame.Message, timeout time.Duration) (frame.Message, error) {
	if err := f.Send(m); err != nil {
		return nil, err
	}
	return f.Receive(timeout)
}

// Close closes the underlying connection
func (f *FrameConn) Close() error {
	return f.conn.Close()
}
