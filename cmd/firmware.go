// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/hydrant/pkg/actuator"
	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/config"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/Thermoquad/hydrant/pkg/stepper"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"periph.io/x/conn/v3/gpio"
)

// pinLookup resolves a configured pin name
type pinLookup func(name string) (gpio.PinOut, error)

// firmware is every controller wired to one chip
type firmware struct {
	cfg     *config.Config
	chip    *w5500.Chip
	log     *logging.Logger
	loop    *actuator.Loop
	main    *actuator.MainCtl
	turrets []*actuator.Turret
}

func buildFirmware(cfg *config.Config, chip *w5500.Chip, pins pinLookup, rf actuator.Rangefinder, log *logging.Logger, clk clock.Clock, opts actuator.LoopOpts) (*firmware, error) {
	if clk == nil {
		clk = clock.System{}
	}
	epOpts := actuator.EndpointOpts{RearmOnClose: cfg.RearmOnClose}
	endpoint := func(name string, ec config.EndpointConfig) (*actuator.Endpoint, error) {
		return actuator.NewEndpoint(name, chip, w5500.SocketIndex(ec.Socket), ec.Port, log.Named(name), epOpts)
	}

	fw := &firmware{cfg: cfg, chip: chip, log: log}

	ep, err := endpoint("mainctl", cfg.MainCtl)
	if err != nil {
		return nil, err
	}
	fw.main = actuator.NewMainCtl(ep)
	controllers := []actuator.Controller{fw.main}

	for _, tc := range []struct {
		name string
		cfg  config.TurretConfig
	}{
		{"turret_a", cfg.TurretA},
		{"turret_b", cfg.TurretB},
	} {
		ep, err := endpoint(tc.name, tc.cfg.EndpointConfig)
		if err != nil {
			return nil, err
		}
		pan, err := newAxis(tc.name+"/pan", tc.cfg.Pan, pins, clk)
		if err != nil {
			return nil, err
		}
		tilt, err := newAxis(tc.name+"/tilt", tc.cfg.Tilt, pins, clk)
		if err != nil {
			return nil, err
		}
		t := actuator.NewTurret(ep, pan, tilt, tc.cfg.HomeSteps)
		fw.turrets = append(fw.turrets, t)
		controllers = append(controllers, t)
	}

	ep, err = endpoint("lidar", cfg.Lidar.EndpointConfig)
	if err != nil {
		return nil, err
	}
	controllers = append(controllers, actuator.NewLidar(ep, rf))

	switches := []struct {
		name  string
		cfg   config.SwitchConfig
		build func(*actuator.Endpoint, gpio.PinOut, actuator.SwitchOpts) *actuator.Switch
	}{
		{"pump", cfg.Pump, actuator.NewPump},
		{"lights", cfg.Lights, actuator.NewLights},
		{"siren", cfg.Siren, actuator.NewSiren},
	}
	for _, sw := range switches {
		ep, err := endpoint(sw.name, sw.cfg.EndpointConfig)
		if err != nil {
			return nil, err
		}
		pin, err := pins(sw.cfg.Pin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sw.name, err)
		}
		s := sw.build(ep, pin, actuator.SwitchOpts{
			ActiveLow: sw.cfg.ActiveLow,
			MaxRun:    sw.cfg.MaxRun,
			Clock:     clk,
		})
		if sw.name == "pump" {
			fw.main.RelayPump(s)
		}
		controllers = append(controllers, s)
	}

	if opts.Clock == nil {
		opts.Clock = clk
	}
	fw.loop = actuator.NewLoop(log.Named("loop"), opts, controllers...)
	return fw, nil
}

func newAxis(name string, a config.AxisConfig, pins pinLookup, clk clock.Clock) (*stepper.Motor, error) {
	step, err := pins(a.StepPin)
	if err != nil {
		return nil, fmt.Errorf("%s step pin: %w", name, err)
	}
	dir, err := pins(a.DirPin)
	if err != nil {
		return nil, fmt.Errorf("%s dir pin: %w", name, err)
	}
	return stepper.New(name, step, dir, clk, a.Stepper())
}

// boot programs the chip identity, opens every socket and homes the turrets
func (fw *firmware) boot() error {
	id, err := fw.cfg.Network.Identity()
	if err != nil {
		return err
	}

	if err := fw.chip.Reset(); err != nil {
		return fmt.Errorf("chip reset: %w", err)
	}
	if err := fw.chip.CheckVersion(); err != nil {
		if !errors.Is(err, w5500.ErrUnexpectedVersion) {
			return fmt.Errorf("chip version: %w", err)
		}
		fw.log.Error("%v", err)
	}
	if err := fw.chip.Configure(id); err != nil {
		return fmt.Errorf("chip identity: %w", err)
	}
	fw.log.Info("network identity %s mac %s gateway %s", id.IP, id.MAC, id.Gateway)

	if phy, err := fw.chip.PHY(); err == nil {
		fw.log.Info("phy: %s", phy)
	}

	fw.loop.Start()
	for _, t := range fw.turrets {
		t.Home()
	}
	return nil
}
