// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package actuator

import (
	"github.com/Thermoquad/hydrant/pkg/frame"
)

// Rangefinder measures distance in centimeters
type Rangefinder interface {
	Distance() (uint32, error)
}

// Lidar relays rangefinder readings on request
type Lidar struct {
	ep *Endpoint
	rf Rangefinder
}

// NewLidar creates the lidar relay on ep
func NewLidar(ep *Endpoint, rf Rangefinder) *Lidar {
	return &Lidar{ep: ep, rf: rf}
}

func (l *Lidar) Name() string        { return l.ep.Name() }
func (l *Lidar) Start() error        { return l.ep.Start() }
func (l *Lidar) Endpoint() *Endpoint { return l.ep }

func (l *Lidar) Tick() {
	if !l.ep.Connected() {
		return
	}
	m, ok := l.ep.Receive()
	if !ok {
		return
	}

	if _, ok := m.(frame.LidarPoll); !ok {
		return
	}
	cm, err := l.rf.Distance()
	if err != nil {
		l.ep.log.Error("rangefinder: %v", err)
		return
	}
	l.ep.Reply(frame.LidarDistanceCm{Distance: cm})
}
