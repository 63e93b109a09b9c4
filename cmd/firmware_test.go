// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/hydrant/pkg/actuator"
	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/config"
	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"github.com/Thermoquad/hydrant/pkg/w5500/w5500test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type staticRange uint32

func (s staticRange) Distance() (uint32, error) { return uint32(s), nil }

type testBoard struct {
	emu  *w5500test.Chip
	chip *w5500.Chip
	pins map[string]*gpiotest.Pin
	log  *bytes.Buffer
	fw   *firmware
}

func (b *testBoard) pin(name string) (gpio.PinOut, error) {
	if p, ok := b.pins[name]; ok {
		return p, nil
	}
	if !strings.HasPrefix(name, "GPIO") {
		return nil, fmt.Errorf("no pin %q", name)
	}
	p := &gpiotest.Pin{N: name}
	b.pins[name] = p
	return p, nil
}

func newTestBoard(t *testing.T, cfg *config.Config) *testBoard {
	t.Helper()
	clk := clock.NewFake(time.Unix(1700000000, 0))
	emu := w5500test.New()
	b := &testBoard{
		emu:  emu,
		chip: w5500.New(w5500.NewBus(emu, nil, clk)),
		pins: make(map[string]*gpiotest.Pin),
		log:  &bytes.Buffer{},
	}
	fw, err := buildFirmware(cfg, b.chip, b.pin, staticRange(420), logging.New(b.log, logging.LevelInfo), clk, actuator.LoopOpts{})
	if err != nil {
		t.Fatalf("buildFirmware() error = %v", err)
	}
	b.fw = fw
	return b
}

func (b *testBoard) request(t *testing.T, socket int, m frame.Message) []byte {
	t.Helper()
	f, ok := frame.Encode(m)
	if !ok {
		t.Fatalf("Encode(%v) failed", m)
	}
	before := len(b.emu.Sent(socket))
	b.emu.Deliver(socket, f[:])
	b.fw.loop.RunOnce()
	return b.emu.Sent(socket)[before:]
}

func TestBuildFirmware_ControllerOrder(t *testing.T) {
	b := newTestBoard(t, config.Default())

	var names []string
	for _, c := range b.fw.loop.Controllers() {
		names = append(names, c.Name())
	}
	want := "mainctl,turret_a,turret_b,lidar,pump,lights,siren"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("controllers = %s, want %s", got, want)
	}
	if len(b.fw.turrets) != 2 {
		t.Errorf("turrets = %d, want 2", len(b.fw.turrets))
	}
}

func TestBuildFirmware_BadPin(t *testing.T) {
	cfg := config.Default()
	cfg.Pump.Pin = "P9_12"
	clk := clock.NewFake(time.Unix(0, 0))
	b := &testBoard{pins: make(map[string]*gpiotest.Pin)}
	chip := w5500.New(w5500.NewBus(w5500test.New(), nil, clk))

	_, err := buildFirmware(cfg, chip, b.pin, staticRange(0), logging.Discard(), clk, actuator.LoopOpts{})
	if err == nil || !strings.Contains(err.Error(), "pump") {
		t.Errorf("buildFirmware() error = %v, want pump pin error", err)
	}
}

func TestBoot_ListensOnEverySocket(t *testing.T) {
	cfg := config.Default()
	b := newTestBoard(t, cfg)
	if err := b.fw.boot(); err != nil {
		t.Fatalf("boot() error = %v", err)
	}

	for _, ep := range cfg.Endpoints() {
		if got := b.emu.Status(int(ep.Socket)); got != w5500test.StatusListen {
			t.Errorf("%s socket %d status = 0x%02X, want LISTEN", ep.Name, ep.Socket, got)
		}
	}
	if got := b.emu.Status(7); got != w5500test.StatusClosed {
		t.Errorf("spare socket 7 status = 0x%02X, want CLOSED", got)
	}

	if got := b.emu.Peek(0, 0x000F, 4); !bytes.Equal(got, []byte{192, 168, 1, 50}) {
		t.Errorf("SIPR = %v", got)
	}
	if got := b.emu.Peek(0, 0x0009, 6); !bytes.Equal(got, []byte{0x02, 0x48, 0x59, 0x44, 0x52, 0x01}) {
		t.Errorf("SHAR = % X", got)
	}
	if !strings.Contains(b.log.String(), "network identity 192.168.1.50") {
		t.Errorf("log missing identity line:\n%s", b.log.String())
	}
}

func TestBoot_SwitchesStartOff(t *testing.T) {
	cfg := config.Default()
	cfg.Siren.ActiveLow = true
	b := newTestBoard(t, cfg)
	if err := b.fw.boot(); err != nil {
		t.Fatal(err)
	}

	if got := b.pins[cfg.Pump.Pin].L; got != gpio.Low {
		t.Errorf("pump pin = %v, want Low", got)
	}
	if got := b.pins[cfg.Siren.Pin].L; got != gpio.High {
		t.Errorf("active-low siren pin = %v, want High", got)
	}
}

func TestBoot_UnexpectedVersionIsLogged(t *testing.T) {
	b := newTestBoard(t, config.Default())
	b.emu.Poke(0, 0x0039, []byte{0x51})

	if err := b.fw.boot(); err != nil {
		t.Fatalf("boot() error = %v, want nil", err)
	}
	if !strings.Contains(b.log.String(), "unexpected chip version") {
		t.Errorf("log missing version error:\n%s", b.log.String())
	}
}

func TestBoot_BusFailure(t *testing.T) {
	b := newTestBoard(t, config.Default())
	b.emu.FailNext(fmt.Errorf("spi: no ack"))

	if err := b.fw.boot(); err == nil || !strings.Contains(err.Error(), "chip reset") {
		t.Errorf("boot() error = %v, want chip reset failure", err)
	}
}

func TestFirmware_RoundTrips(t *testing.T) {
	cfg := config.Default()
	b := newTestBoard(t, cfg)
	if err := b.fw.boot(); err != nil {
		t.Fatal(err)
	}
	peer := [4]byte{192, 168, 1, 10}
	for _, ep := range cfg.Endpoints() {
		if !b.emu.Connect(int(ep.Socket), peer, 40000) {
			t.Fatalf("%s not listening", ep.Name)
		}
	}

	tests := []struct {
		name   string
		socket int
		send   frame.Message
		want   frame.Message
	}{
		{"ping", 0, frame.Ping{Value: 9}, frame.Ping{Value: 9}},
		{"turret a home", 1, frame.TurretPollSteps{}, frame.TurretSteps{Pan: 0, Tilt: 0}},
		{"turret b set", 2, frame.TurretSetSteps{Pan: 40, Tilt: -20}, nil},
		{"turret b poll", 2, frame.TurretPollSteps{}, frame.TurretSteps{Pan: 40, Tilt: -20}},
		{"lidar", 3, frame.LidarPoll{}, frame.LidarDistanceCm{Distance: 420}},
		{"pump on", 4, frame.Pump{Switch: frame.TurnOn}, nil},
		{"pump off via mainctl", 0, frame.Pump{Switch: frame.TurnOff}, nil},
		{"pump on via mainctl", 0, frame.Pump{Switch: frame.TurnOn}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent := b.request(t, tt.socket, tt.send)
			if tt.want == nil {
				if len(sent) != 0 {
					t.Errorf("unexpected reply of %d bytes", len(sent))
				}
				return
			}
			if len(sent) != frame.Size {
				t.Fatalf("reply = %d bytes, want %d", len(sent), frame.Size)
			}
			f, _ := frame.FromBytes(sent)
			got, ok := frame.Decode(f)
			if !ok || got != tt.want {
				t.Errorf("reply = %v, want %v", got, tt.want)
			}
		})
	}

	if got := b.pins[cfg.Pump.Pin].L; got != gpio.High {
		t.Errorf("pump pin = %v after TurnOn, want High", got)
	}
}
