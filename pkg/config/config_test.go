// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/hydrant/pkg/stepper"
)

func TestDefault_Valid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefault_Ports(t *testing.T) {
	cfg := Default()
	expected := map[string]uint16{
		"mainctl":  3030,
		"turret_a": 3031,
		"turret_b": 3032,
		"lidar":    3033,
		"pump":     3034,
		"lights":   3035,
		"siren":    3036,
	}
	for _, ep := range cfg.Endpoints() {
		if ep.Port != expected[ep.Name] {
			t.Errorf("%s port = %d, want %d", ep.Name, ep.Port, expected[ep.Name])
		}
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	data := []byte(`
rearm_on_close: true
network:
  ip: 10.0.0.9
  retry_time: 150ms
turret_a:
  home_steps: 400
  pan:
    max_clockwise_step: 50
    max_counter_clockwise_step: null
pump:
  max_run: 30s
log:
  level: debug
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !cfg.RearmOnClose {
		t.Error("rearm_on_close not applied")
	}
	if cfg.Network.IP != "10.0.0.9" || cfg.Network.Gateway != "192.168.1.1" {
		t.Errorf("network = %+v, want overlay on defaults", cfg.Network)
	}
	if cfg.Network.RetryTime != 150*time.Millisecond {
		t.Errorf("retry_time = %v, want 150ms", cfg.Network.RetryTime)
	}
	if cfg.TurretA.HomeSteps != 400 || cfg.TurretA.Port != PortTurretA {
		t.Errorf("turret_a = %+v", cfg.TurretA.EndpointConfig)
	}
	if cfg.Pump.MaxRun != 30*time.Second {
		t.Errorf("pump.max_run = %v, want 30s", cfg.Pump.MaxRun)
	}

	pan := cfg.TurretA.Pan.Stepper()
	if cw, ok := pan.Clockwise.Step(); !ok || cw != 50 {
		t.Errorf("pan clockwise = %v, want 50", pan.Clockwise)
	}
	if pan.CounterClockwise.IsBounded() {
		t.Error("pan counter-clockwise should be unbounded after null")
	}
	// other axes keep their own defaults
	if cw, _ := cfg.TurretB.Pan.Stepper().Clockwise.Step(); cw != 100 {
		t.Errorf("turret_b pan clockwise = %d, want default 100", cw)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrant.yaml")
	if err := os.WriteFile(path, []byte("siren:\n  pin: GPIO4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Siren.Pin != "GPIO4" {
		t.Errorf("siren.pin = %q, want GPIO4", cfg.Siren.Pin)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Parse([]byte("network: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal(Default())) error = %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
}

func TestIdentity(t *testing.T) {
	id, err := Default().Network.Identity()
	if err != nil {
		t.Fatal(err)
	}
	if id.MAC.String() != "02:48:59:44:52:01" {
		t.Errorf("MAC = %s", id.MAC)
	}
	if id.IP.String() != "192.168.1.50" || id.SubnetMask.String() != "255.255.255.0" {
		t.Errorf("identity = %+v", id)
	}
	if id.RetryTime != 200*time.Millisecond || id.RetryCount != 8 {
		t.Errorf("retry = %v/%d", id.RetryTime, id.RetryCount)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad mac", func(c *Config) { c.Network.MAC = "zz" }, "network.mac"},
		{"eui64 mac", func(c *Config) { c.Network.MAC = "02:00:00:00:00:00:00:01" }, "6-byte"},
		{"ipv6 address", func(c *Config) { c.Network.IP = "::1" }, "not IPv4"},
		{"bad gateway", func(c *Config) { c.Network.Gateway = "gw" }, "network.gateway"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"no chip select", func(c *Config) { c.Bus.ChipSelect = "" }, "chip_select"},
		{"socket out of range", func(c *Config) { c.Siren.Socket = 8 }, "out of range"},
		{"duplicate socket", func(c *Config) { c.Pump.Socket = 1 }, "socket 1 used by"},
		{"duplicate port", func(c *Config) { c.Lights.Port = PortPump }, "port 3034 used by"},
		{"zero port", func(c *Config) { c.Lidar.Port = 0 }, "port is required"},
		{"zero steps per rev", func(c *Config) { c.TurretB.Tilt.StepsPerRev = 0 }, "turret_b.tilt"},
		{"missing step pin", func(c *Config) { c.TurretA.Pan.StepPin = "" }, "turret_a.pan"},
		{"limits inverted", func(c *Config) {
			lo, hi := int64(10), int64(-10)
			c.TurretA.Tilt.MaxCounterClockwise = &lo
			c.TurretA.Tilt.MaxClockwise = &hi
		}, "above max_clockwise_step"},
		{"missing pin", func(c *Config) { c.Lights.Pin = "" }, "lights.pin"},
		{"negative max run", func(c *Config) { c.Pump.MaxRun = -time.Second }, "max_run"},
		{"lidar address", func(c *Config) { c.Lidar.Address = 0x80 }, "lidar.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.TurretA.Pan.Microsteps = 0
	_ = Validate(cfg)
	if cfg.TurretA.Pan.Microsteps != 0 {
		t.Error("Validate mutated the config")
	}
}

func TestAxisStepper_Unbounded(t *testing.T) {
	a := AxisConfig{StepsPerRev: 400}
	cfg := a.Stepper()
	if cfg.Clockwise != stepper.Unbounded() || cfg.CounterClockwise != stepper.Unbounded() {
		t.Error("nil limits should map to Unbounded")
	}
}
