// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import "time"

// Controller ports
const (
	PortMainCtl uint16 = 3030
	PortTurretA uint16 = 3031
	PortTurretB uint16 = 3032
	PortLidar   uint16 = 3033
	PortPump    uint16 = 3034
	PortLights  uint16 = 3035
	PortSiren   uint16 = 3036
)

func bound(v int64) *int64 { return &v }

func axis(step, dir string) AxisConfig {
	return AxisConfig{
		StepPin:             step,
		DirPin:              dir,
		StepsPerRev:         200,
		Microsteps:          1,
		PulseWidth:          5 * time.Microsecond,
		PulseInterval:       800 * time.Microsecond,
		MaxClockwise:        bound(100),
		MaxCounterClockwise: bound(-100),
	}
}

// Default returns the firmware's compiled-in configuration
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			MAC:        "02:48:59:44:52:01",
			IP:         "192.168.1.50",
			Gateway:    "192.168.1.1",
			SubnetMask: "255.255.255.0",
			RetryTime:  200 * time.Millisecond,
			RetryCount: 8,
		},
		Bus: BusConfig{
			SPIPort:    "",
			SPISpeedHz: 8_000_000,
			ChipSelect: "GPIO8",
			Reset:      "GPIO25",
			I2CBus:     "",
		},
		Log: LogConfig{
			Level: "info",
			Baud:  115200,
		},
		MainCtl: EndpointConfig{Socket: 0, Port: PortMainCtl},
		TurretA: TurretConfig{
			EndpointConfig: EndpointConfig{Socket: 1, Port: PortTurretA},
			HomeSteps:      250,
			Pan:            axis("GPIO5", "GPIO6"),
			Tilt:           axis("GPIO13", "GPIO19"),
		},
		TurretB: TurretConfig{
			EndpointConfig: EndpointConfig{Socket: 2, Port: PortTurretB},
			HomeSteps:      250,
			Pan:            axis("GPIO20", "GPIO21"),
			Tilt:           axis("GPIO16", "GPIO12"),
		},
		Lidar: LidarConfig{
			EndpointConfig: EndpointConfig{Socket: 3, Port: PortLidar},
			Address:        0x62,
			MaxPolls:       100,
		},
		Pump: SwitchConfig{
			EndpointConfig: EndpointConfig{Socket: 4, Port: PortPump},
			Pin:            "GPIO17",
		},
		Lights: SwitchConfig{
			EndpointConfig: EndpointConfig{Socket: 5, Port: PortLights},
			Pin:            "GPIO27",
		},
		Siren: SwitchConfig{
			EndpointConfig: EndpointConfig{Socket: 6, Port: PortSiren},
			Pin:            "GPIO22",
		},
	}
}
