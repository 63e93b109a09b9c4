// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/config"
	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"github.com/Thermoquad/hydrant/pkg/w5500/w5500test"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		target string
		args   string
		want   frame.Message
	}{
		{"mainctl", "ping 7", frame.Ping{Value: 7}},
		{"mainctl", "ping 0xff", frame.Ping{Value: 255}},
		{"mainctl", "flir 3 250", frame.FlirSignatureOffset{Offset: [2]uint8{3, 250}}},
		{"turret-a", "poll", frame.TurretPollSteps{}},
		{"turret-b", "set 120 -40", frame.TurretSetSteps{Pan: 120, Tilt: -40}},
		{"lidar", "poll", frame.LidarPoll{}},
		{"pump", "on", frame.Pump{Switch: frame.TurnOn}},
		{"lights", "off", frame.Lights{Switch: frame.TurnOff}},
		{"siren", "on", frame.Siren{Switch: frame.TurnOn}},
	}
	for _, tt := range tests {
		t.Run(tt.target+" "+tt.args, func(t *testing.T) {
			got, err := parseCommand(tt.target, strings.Fields(tt.args))
			if err != nil {
				t.Fatalf("parseCommand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseCommand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		target string
		args   string
		want   string
	}{
		{"mainctl", "", "missing command"},
		{"mainctl", "ping", "expected 1 argument"},
		{"mainctl", "ping 256", "ping value"},
		{"mainctl", "poll", "unknown command"},
		{"mainctl", "flir 1", "expected 2 argument"},
		{"turret-a", "set 1", "expected 2 argument"},
		{"turret-a", "set 1 x", "tilt"},
		{"turret-a", "set 3000000000 0", "pan"},
		{"turret-a", "poll 1", "expected 0 argument"},
		{"lidar", "set 1 2", "unknown command"},
		{"pump", "toggle", "unknown command"},
		{"pump", "on now", "expected 0 argument"},
		{"hose", "on", "unknown target"},
	}
	for _, tt := range tests {
		t.Run(tt.target+" "+tt.args, func(t *testing.T) {
			_, err := parseCommand(tt.target, strings.Fields(tt.args))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("parseCommand() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestExpectsReply(t *testing.T) {
	for _, m := range []frame.Message{frame.Ping{}, frame.TurretPollSteps{}, frame.LidarPoll{}} {
		if !expectsReply(m) {
			t.Errorf("expectsReply(%T) = false", m)
		}
	}
	for _, m := range []frame.Message{frame.TurretSetSteps{}, frame.Pump{}, frame.FlirSignatureOffset{}} {
		if expectsReply(m) {
			t.Errorf("expectsReply(%T) = true", m)
		}
	}
}

func TestTargetPorts(t *testing.T) {
	ports := targetPorts(config.Default())
	want := map[string]uint16{
		"mainctl":  3030,
		"turret-a": 3031,
		"turret-b": 3032,
		"lidar":    3033,
		"pump":     3034,
		"lights":   3035,
		"siren":    3036,
	}
	if len(ports) != len(want) {
		t.Fatalf("targetPorts() = %v", ports)
	}
	for name, port := range want {
		if ports[name] != port {
			t.Errorf("port[%s] = %d, want %d", name, ports[name], port)
		}
	}
	if got := targetNames(config.Default()); got != "lidar, lights, mainctl, pump, siren, turret-a, turret-b" {
		t.Errorf("targetNames() = %q", got)
	}
}

func TestBridgeURL(t *testing.T) {
	got, err := bridgeURL("wss://bridge.local/ws?token=x", "turret-a")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("target") != "turret-a" || u.Query().Get("token") != "x" || u.Path != "/ws" {
		t.Errorf("bridgeURL() = %s", got)
	}

	if _, err := bridgeURL("ws://bad host/%zz", "pump"); err == nil {
		t.Error("bridgeURL() accepted a malformed URL")
	}
}

func TestBridgeTargets(t *testing.T) {
	got := bridgeTargets("10.0.0.5", map[string]uint16{"pump": 3034})
	if got["pump"] != "10.0.0.5:3034" {
		t.Errorf("bridgeTargets() = %v", got)
	}
	got = bridgeTargets("fd00::5", map[string]uint16{"lidar": 3033})
	if got["lidar"] != "[fd00::5]:3033" {
		t.Errorf("bridgeTargets() IPv6 = %v", got)
	}
}

func TestPollMessage(t *testing.T) {
	if m, err := pollMessage("turret-b"); err != nil || m != (frame.TurretPollSteps{}) {
		t.Errorf("pollMessage(turret-b) = %v, %v", m, err)
	}
	if m, err := pollMessage("lidar"); err != nil || m != (frame.LidarPoll{}) {
		t.Errorf("pollMessage(lidar) = %v, %v", m, err)
	}
	if _, err := pollMessage("pump"); err == nil {
		t.Error("pollMessage(pump) succeeded")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"82 01 a1 00 07", "8201a10007"},
		{"82:10:F6", "8210f6"},
		{"0x8210f6\n", "8210f6"},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		if err != nil {
			t.Errorf("parseHex(%q) error = %v", tt.in, err)
			continue
		}
		if string(got) != string(mustHex(t, tt.want)) {
			t.Errorf("parseHex(%q) = % x", tt.in, got)
		}
	}
	if _, err := parseHex("8g"); err == nil {
		t.Error("parseHex accepted invalid hex")
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := parseHex(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDescribe(t *testing.T) {
	if got := describe(mustHex(t, "82 01 a1 00 07")); got != "PING value=7 (0x01) len=5" {
		t.Errorf("describe(message) = %q", got)
	}

	f, ok := frame.Encode(frame.Pump{Switch: frame.TurnOn})
	if !ok {
		t.Fatal("Encode failed")
	}
	if got := describe(f[:]); got != "PUMP on (0x31) len=6" {
		t.Errorf("describe(frame) = %q", got)
	}

	if got := describe([]byte{0xff}); !strings.HasPrefix(got, "INVALID len=1") {
		t.Errorf("describe(garbage) = %q", got)
	}
}

func TestPingStats(t *testing.T) {
	var s pingStats
	s.sent = 4
	s.record(2 * time.Millisecond)
	s.record(4 * time.Millisecond)
	s.record(3 * time.Millisecond)

	if s.loss() != 25 {
		t.Errorf("loss() = %v, want 25", s.loss())
	}
	if s.min != 2*time.Millisecond || s.max != 4*time.Millisecond {
		t.Errorf("min/max = %v/%v", s.min, s.max)
	}
	out := s.String()
	if !strings.Contains(out, "4 pings sent, 3 replies received, 25% loss") || !strings.Contains(out, "2ms/3ms/4ms") {
		t.Errorf("String() = %q", out)
	}

	var empty pingStats
	if empty.loss() != 0 || strings.Contains(empty.String(), "rtt") {
		t.Errorf("empty stats = %q", empty.String())
	}
}

func TestRenderDiag(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	emu := w5500test.New()
	chip := w5500.New(w5500.NewBus(emu, nil, clk))
	id, err := config.Default().Network.Identity()
	if err != nil {
		t.Fatal(err)
	}
	if err := chip.Configure(id); err != nil {
		t.Fatal(err)
	}
	srv, err := w5500.NewTCPServer(chip, 2, 3032)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	emu.Connect(2, [4]byte{192, 168, 1, 77}, 41000)

	out, err := renderDiag(chip)
	if err != nil {
		t.Fatalf("renderDiag() error = %v", err)
	}
	for _, want := range []string{"0x04", "192.168.1.50", "02:48:59:44:52:01", "link up", "ESTABLISHED", "192.168.1.77:41000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDiag_WrongVersion(t *testing.T) {
	emu := w5500test.New()
	emu.Poke(0, 0x0039, []byte{0x51})
	chip := w5500.New(w5500.NewBus(emu, nil, clock.NewFake(time.Unix(0, 0))))

	out, err := renderDiag(chip)
	if !errors.Is(err, w5500.ErrUnexpectedVersion) {
		t.Errorf("renderDiag() error = %v, want ErrUnexpectedVersion", err)
	}
	if !strings.Contains(out, "not a W5500") {
		t.Errorf("output missing version warning:\n%s", out)
	}
}
