// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import "fmt"

// TCPServer is a passive-open TCP socket bound to one local port.
//
// Lifecycle: NewTCPServer programs mode and port once, Open moves the socket
// to INIT, Listen to LISTEN, and the chip moves it to ESTABLISHED when a peer
// connects. Connected is a point-in-time status read; nothing here waits for a
// transition.
type TCPServer struct {
	sock *Socket
	port uint16
}

// NewTCPServer binds socket index to port in TCP mode
func NewTCPServer(chip *Chip, index SocketIndex, port uint16) (*TCPServer, error) {
	sock, err := NewSocket(chip, index)
	if err != nil {
		return nil, err
	}
	t := &TCPServer{sock: sock, port: port}
	if err := t.program(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TCPServer) program() error {
	if err := t.sock.SetMode(ProtocolTCP); err != nil {
		return fmt.Errorf("socket %d set mode: %w", t.sock.index, err)
	}
	if err := t.sock.SetPort(t.port); err != nil {
		return fmt.Errorf("socket %d set port: %w", t.sock.index, err)
	}
	return nil
}

// Socket returns the underlying register handle
func (t *TCPServer) Socket() *Socket {
	return t.sock
}

// Port returns the local port
func (t *TCPServer) Port() uint16 {
	return t.port
}

// Open issues OPEN
func (t *TCPServer) Open() error {
	return t.sock.Command(CmdOpen)
}

// Listen issues LISTEN
func (t *TCPServer) Listen() error {
	return t.sock.Command(CmdListen)
}

// Start issues OPEN then LISTEN
func (t *TCPServer) Start() error {
	if err := t.Open(); err != nil {
		return err
	}
	return t.Listen()
}

// Status reads the socket state
func (t *TCPServer) Status() (Status, error) {
	return t.sock.Status()
}

// Connected reports whether a peer is currently established
func (t *TCPServer) Connected() (bool, error) {
	st, err := t.sock.Status()
	if err != nil {
		return false, err
	}
	return st.Is(StatusEstablished), nil
}

// Accept is Connected under its server-socket name
func (t *TCPServer) Accept() (bool, error) {
	return t.Connected()
}

// Disconnect issues DISCON to close the connection gracefully
func (t *TCPServer) Disconnect() error {
	return t.sock.Command(CmdDisconnect)
}

// Close issues CLOSE
func (t *TCPServer) Close() error {
	return t.sock.Command(CmdClose)
}

// Rearm closes the socket and passively opens it again so a new peer can
// connect.
func (t *TCPServer) Rearm() error {
	if err := t.Close(); err != nil {
		return err
	}
	if err := t.program(); err != nil {
		return err
	}
	return t.Start()
}

// Available returns the number of received bytes waiting
func (t *TCPServer) Available() (int, error) {
	n, err := t.sock.ReceivedSize()
	return int(n), err
}

// Receive reads up to len(p) bytes
func (t *TCPServer) Receive(p []byte) (int, error) {
	return t.sock.Receive(p)
}

// Send queues p for transmission
func (t *TCPServer) Send(p []byte) (int, error) {
	return t.sock.Send(p)
}
