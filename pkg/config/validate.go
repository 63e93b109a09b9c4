// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/Thermoquad/hydrant/pkg/w5500"
)

// Validate checks configuration correctness. It is declarative only and
// never mutates cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	if _, err := cfg.Network.Identity(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Bus.ChipSelect == "" {
		return errors.New("bus.chip_select is required")
	}

	// ------------------------------------------------------------
	// SOCKET OWNERSHIP
	// ------------------------------------------------------------

	sockets := make(map[uint8]string)
	ports := make(map[uint16]string)
	for _, ep := range cfg.Endpoints() {
		if !w5500.SocketIndex(ep.Socket).Valid() {
			return fmt.Errorf("%s: socket %d out of range 0..%d", ep.Name, ep.Socket, w5500.SocketCount-1)
		}
		if ep.Port == 0 {
			return fmt.Errorf("%s: port is required", ep.Name)
		}
		if prev, exists := sockets[ep.Socket]; exists {
			return fmt.Errorf("socket %d used by %s and %s", ep.Socket, prev, ep.Name)
		}
		if prev, exists := ports[ep.Port]; exists {
			return fmt.Errorf("port %d used by %s and %s", ep.Port, prev, ep.Name)
		}
		sockets[ep.Socket] = ep.Name
		ports[ep.Port] = ep.Name
	}

	// ------------------------------------------------------------
	// TURRET CALIBRATION
	// ------------------------------------------------------------

	turrets := []struct {
		name string
		t    TurretConfig
	}{
		{"turret_a", cfg.TurretA},
		{"turret_b", cfg.TurretB},
	}
	for _, tc := range turrets {
		for _, ax := range []struct {
			name string
			a    AxisConfig
		}{
			{"pan", tc.t.Pan},
			{"tilt", tc.t.Tilt},
		} {
			if err := validateAxis(ax.a); err != nil {
				return fmt.Errorf("%s.%s: %w", tc.name, ax.name, err)
			}
		}
	}

	// ------------------------------------------------------------
	// OUTPUTS
	// ------------------------------------------------------------

	for _, sw := range []struct {
		name string
		s    SwitchConfig
	}{
		{"pump", cfg.Pump},
		{"lights", cfg.Lights},
		{"siren", cfg.Siren},
	} {
		if sw.s.Pin == "" {
			return fmt.Errorf("%s.pin is required", sw.name)
		}
		if sw.s.MaxRun < 0 {
			return fmt.Errorf("%s.max_run must not be negative", sw.name)
		}
	}

	if cfg.Lidar.Address == 0 || cfg.Lidar.Address > 0x7F {
		return fmt.Errorf("lidar.address 0x%X is not a 7-bit I2C address", cfg.Lidar.Address)
	}

	return nil
}

func validateAxis(a AxisConfig) error {
	if a.StepPin == "" || a.DirPin == "" {
		return errors.New("step_pin and dir_pin are required")
	}
	if a.StepsPerRev == 0 {
		return errors.New("steps_per_rev must be non-zero")
	}
	if a.PulseWidth < 0 || a.PulseInterval < 0 {
		return errors.New("pulse timing must not be negative")
	}
	if a.MaxClockwise != nil && a.MaxCounterClockwise != nil && *a.MaxCounterClockwise > *a.MaxClockwise {
		return fmt.Errorf("max_counter_clockwise_step %d above max_clockwise_step %d",
			*a.MaxCounterClockwise, *a.MaxClockwise)
	}
	return nil
}

// NamedEndpoint pairs an endpoint with its controller name
type NamedEndpoint struct {
	Name string
	EndpointConfig
}

// Endpoints lists every controller socket in loop order
func (c *Config) Endpoints() []NamedEndpoint {
	return []NamedEndpoint{
		{"mainctl", c.MainCtl},
		{"turret_a", c.TurretA.EndpointConfig},
		{"turret_b", c.TurretB.EndpointConfig},
		{"lidar", c.Lidar.EndpointConfig},
		{"pump", c.Pump.EndpointConfig},
		{"lights", c.Lights.EndpointConfig},
		{"siren", c.Siren.EndpointConfig},
	}
}
