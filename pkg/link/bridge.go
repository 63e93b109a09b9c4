// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/gorilla/websocket"
)

// Bridge relays WebSocket clients to controller TCP ports. Each binary
// WebSocket message carries exactly one frame. The controller is picked with
// the "target" query parameter.
type Bridge struct {
	// Targets maps names such as "turret-a" to host:port
	Targets  map[string]string
	Username string
	Password string
	Timeout  time.Duration
	Log      *logging.Logger

	upgrader websocket.Upgrader
}

func (b *Bridge) logger() *logging.Logger {
	if b.Log == nil {
		return logging.Discard()
	}
	return b.Log
}

func (b *Bridge) authorized(r *http.Request) bool {
	if b.Username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(b.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(b.Password)) == 1
	return userOK && passOK
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := b.logger()

	if !b.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="hydrant"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	name := r.URL.Query().Get("target")
	addr, ok := b.Targets[name]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown target %q", name), http.StatusNotFound)
		return
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	upstream, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		log.Error("bridge %s: dial %s: %v", name, addr, err)
		http.Error(w, "controller unreachable", http.StatusBadGateway)
		return
	}
	defer upstream.Close()

	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("bridge %s: upgrade: %v", name, err)
		return
	}
	defer ws.Close()

	log.Info("bridge %s: %s <-> %s", name, r.RemoteAddr, addr)
	b.relay(name, ws, upstream)
	log.Info("bridge %s: %s closed", name, r.RemoteAddr)
}

// relay copies frames both ways until either side closes
func (b *Bridge) relay(name string, ws *websocket.Conn, upstream net.Conn) {
	log := b.logger()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			upstream.Close()
			ws.Close()
		})
	}

	go func() {
		defer stop()
		fc := NewFrameConn(&TCPConnection{Conn: upstream})
		for {
			fr, err := fc.ReadFrame(0)
			if err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.BinaryMessage, fr[:]); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) != frame.Size {
			log.Verbose("bridge %s: dropped %d-byte message", name, len(data))
			continue
		}
		if _, err := upstream.Write(data); err != nil {
			break
		}
	}
	stop()
}
