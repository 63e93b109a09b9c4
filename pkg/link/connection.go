// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link carries frames between operator tooling and the controllers,
// either directly over TCP or through a WebSocket bridge.
package link

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// PasswordEnv is checked before prompting for a WebSocket password
const PasswordEnv = "HYDRANT_PASSWORD"

// Connection is a byte stream to a controller
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned by reads after the bridge connection ended
var ErrConnectionClosed = errors.New("bridge connection closed")

// TCPConnection is a direct connection to a controller port
type TCPConnection struct {
	net.Conn
}

// DialTCP connects to a controller at addr
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*TCPConnection, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &TCPConnection{Conn: conn}, nil
}

// WebSocketConnection reads and writes frames as binary WebSocket messages.
// Reads drain one message before fetching the next.
type WebSocketConnection struct {
	ws      *websocket.Conn
	pending []byte
	done    bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		if w.done {
			return 0, ErrConnectionClosed
		}
		kind, msg, err := w.ws.ReadMessage()
		if err != nil {
			w.done = true
			return 0, err
		}
		if kind == websocket.BinaryMessage {
			w.pending = msg
		}
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

// Write sends p as one binary message
func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadDeadline bounds the next read
func (w *WebSocketConnection) SetReadDeadline(t time.Time) error {
	return w.ws.SetReadDeadline(t)
}

func (w *WebSocketConnection) Close() error {
	return w.ws.Close()
}

// DialWebSocket opens a bridge connection. Credentials are sent as HTTP Basic
// auth when a username is given.
func DialWebSocket(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	switch u.Scheme {
	case "ws":
	case "wss":
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	auth := &http.Request{Header: http.Header{}}
	if username != "" {
		auth.SetBasicAuth(username, password)
	}

	ws, resp, err := dialer.DialContext(ctx, wsURL, auth.Header)
	switch {
	case err == nil:
		return &WebSocketConnection{ws: ws}, nil
	case resp != nil:
		return nil, fmt.Errorf("bridge %s refused (HTTP %d): %w", u.Host, resp.StatusCode, err)
	default:
		return nil, fmt.Errorf("bridge %s: %w", u.Host, err)
	}
}

// GetPassword returns HYDRANT_PASSWORD, or prompts on stderr. Without a
// terminal the password is read as one line from stdin.
func GetPassword() (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnv); ok && pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// OpenSerial opens a write-only 8N1 serial sink for diagnostic output
func OpenSerial(portName string, baudRate int) (io.WriteCloser, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s at %d baud: %w", portName, baudRate, err)
	}
	return port, nil
}

// Target describes where an operator command goes
type Target struct {
	// Host is a controller host for direct TCP; ignored when URL is set
	Host string
	Port uint16
	// URL is a bridge WebSocket URL
	URL           string
	Username      string
	SkipSSLVerify bool
	Timeout       time.Duration
}

// Open connects to t and returns the connection with a description of it.
// A bridge URL takes precedence over a direct host.
func Open(ctx context.Context, t Target) (Connection, string, error) {
	if t.Timeout <= 0 {
		t.Timeout = 5 * time.Second
	}

	switch {
	case t.URL != "":
		var password string
		if t.Username != "" {
			pw, err := GetPassword()
			if err != nil {
				return nil, "", err
			}
			password = pw
		}
		dialCtx, cancel := context.WithTimeout(ctx, t.Timeout)
		defer cancel()
		ws, err := DialWebSocket(dialCtx, t.URL, t.Username, password, t.SkipSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return ws, "WebSocket: " + t.URL, nil

	case t.Host != "":
		addr := net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
		tcp, err := DialTCP(ctx, addr, t.Timeout)
		if err != nil {
			return nil, "", err
		}
		return tcp, "TCP: " + addr, nil
	}
	return nil, "", errors.New("either --host or --url must be specified")
}
