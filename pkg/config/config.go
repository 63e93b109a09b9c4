// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config holds the board configuration. Default returns the
// compiled-in firmware constants; Load overlays a YAML file on top of them.
package config

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/Thermoquad/hydrant/pkg/stepper"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"gopkg.in/yaml.v3"
)

// Config is the complete board configuration
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Bus     BusConfig     `yaml:"bus"`
	Log     LogConfig     `yaml:"log"`

	// RearmOnClose makes controllers CLOSE/OPEN/LISTEN their socket when it
	// drops from ESTABLISHED to CLOSED instead of waiting on the chip
	RearmOnClose bool `yaml:"rearm_on_close"`

	MainCtl EndpointConfig `yaml:"mainctl"`
	TurretA TurretConfig   `yaml:"turret_a"`
	TurretB TurretConfig   `yaml:"turret_b"`
	Lidar   LidarConfig    `yaml:"lidar"`
	Pump    SwitchConfig   `yaml:"pump"`
	Lights  SwitchConfig   `yaml:"lights"`
	Siren   SwitchConfig   `yaml:"siren"`
}

// NetworkConfig is the chip identity
type NetworkConfig struct {
	MAC        string        `yaml:"mac"`
	IP         string        `yaml:"ip"`
	Gateway    string        `yaml:"gateway"`
	SubnetMask string        `yaml:"subnet_mask"`
	RetryTime  time.Duration `yaml:"retry_time"`
	RetryCount uint8         `yaml:"retry_count"`
}

// BusConfig names the host peripherals
type BusConfig struct {
	SPIPort    string `yaml:"spi_port"`
	SPISpeedHz int64  `yaml:"spi_speed_hz"`
	ChipSelect string `yaml:"chip_select"`
	Reset      string `yaml:"reset"`
	I2CBus     string `yaml:"i2c_bus"`
}

// LogConfig is the diagnostic log setup
type LogConfig struct {
	Level string `yaml:"level"`
	Port  string `yaml:"port"`
	Baud  int    `yaml:"baud"`
}

// EndpointConfig is one controller's socket
type EndpointConfig struct {
	Socket uint8  `yaml:"socket"`
	Port   uint16 `yaml:"port"`
}

// AxisConfig is one stepper axis
type AxisConfig struct {
	StepPin       string        `yaml:"step_pin"`
	DirPin        string        `yaml:"dir_pin"`
	StepsPerRev   uint32        `yaml:"steps_per_rev"`
	Microsteps    uint32        `yaml:"microsteps"`
	Invert        bool          `yaml:"invert"`
	PulseWidth    time.Duration `yaml:"pulse_width"`
	PulseInterval time.Duration `yaml:"pulse_interval"`

	// Nil means unbounded
	MaxClockwise        *int64 `yaml:"max_clockwise_step"`
	MaxCounterClockwise *int64 `yaml:"max_counter_clockwise_step"`

	HomeClockwise bool `yaml:"home_clockwise"`
}

// TurretConfig is a pan/tilt turret
type TurretConfig struct {
	EndpointConfig `yaml:",inline"`
	HomeSteps      uint32     `yaml:"home_steps"`
	Pan            AxisConfig `yaml:"pan"`
	Tilt           AxisConfig `yaml:"tilt"`
}

// LidarConfig is the rangefinder relay
type LidarConfig struct {
	EndpointConfig `yaml:",inline"`
	Address        uint16 `yaml:"address"`
	MaxPolls       int    `yaml:"max_polls"`
}

// SwitchConfig is a switched output
type SwitchConfig struct {
	EndpointConfig `yaml:",inline"`
	Pin            string        `yaml:"pin"`
	ActiveLow      bool          `yaml:"active_low"`
	MaxRun         time.Duration `yaml:"max_run"`
}

// Load reads path and overlays it onto Default. Keys missing from the file
// keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML data onto Default
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Identity converts the network section for the chip
func (n NetworkConfig) Identity() (w5500.Identity, error) {
	var id w5500.Identity
	mac, err := net.ParseMAC(n.MAC)
	if err != nil {
		return id, fmt.Errorf("network.mac: %w", err)
	}
	if len(mac) != 6 {
		return id, fmt.Errorf("network.mac: %q is not a 6-byte address", n.MAC)
	}
	id.MAC = mac

	fields := []struct {
		name  string
		value string
		dst   *netip.Addr
	}{
		{"network.ip", n.IP, &id.IP},
		{"network.gateway", n.Gateway, &id.Gateway},
		{"network.subnet_mask", n.SubnetMask, &id.SubnetMask},
	}
	for _, f := range fields {
		addr, err := netip.ParseAddr(f.value)
		if err != nil {
			return id, fmt.Errorf("%s: %w", f.name, err)
		}
		if !addr.Is4() {
			return id, fmt.Errorf("%s: %s is not IPv4", f.name, addr)
		}
		*f.dst = addr
	}

	id.RetryTime = n.RetryTime
	id.RetryCount = n.RetryCount
	return id, nil
}

// Stepper converts an axis to motor calibration
func (a AxisConfig) Stepper() stepper.Config {
	cfg := stepper.Config{
		StepsPerRev:      a.StepsPerRev,
		Microsteps:       a.Microsteps,
		Invert:           a.Invert,
		PulseWidth:       a.PulseWidth,
		PulseInterval:    a.PulseInterval,
		Clockwise:        stepper.Unbounded(),
		CounterClockwise: stepper.Unbounded(),
		HomeClockwise:    a.HomeClockwise,
	}
	if a.MaxClockwise != nil {
		cfg.Clockwise = stepper.Bounded(*a.MaxClockwise)
	}
	if a.MaxCounterClockwise != nil {
		cfg.CounterClockwise = stepper.Bounded(*a.MaxCounterClockwise)
	}
	return cfg
}
