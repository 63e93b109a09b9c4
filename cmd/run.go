// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/hydrant/pkg/actuator"
	"github.com/Thermoquad/hydrant/pkg/board"
	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/lidar"
	"github.com/Thermoquad/hydrant/pkg/link"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"
)

var (
	logPort  string
	logBaud  int
	logLevel string
	loopIdle time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the board and run every actuator controller",
	Long: `Boot the board and serve the actuator controllers until interrupted.

Boot sequence:
  1. Load configuration (compiled-in defaults, or --config overlay)
  2. Bring up the host SPI, GPIO and I2C drivers
  3. Reset the W5500 and program its network identity
  4. Open one listening socket per controller
  5. Home both turrets
  6. Tick every controller in round-robin order

Diagnostic output goes to stderr, or to a serial port with --log-port.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&logPort, "log-port", "", "Serial port for diagnostic output")
	runCmd.Flags().IntVar(&logBaud, "log-baud", 0, "Baud rate for --log-port (default from config)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: silent, error, info, verbose, debug")
	runCmd.Flags().DurationVar(&loopIdle, "idle", 0, "Sleep between loop rounds (0 spins)")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openLog builds the diagnostic logger from flags and config
func openLog(level, port string, baud int) (*logging.Logger, io.Closer, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if port == "" {
		return logging.New(os.Stderr, lvl), nopCloser{}, nil
	}
	w, err := link.OpenSerial(port, baud)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(w, lvl), w, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	port := cfg.Log.Port
	if logPort != "" {
		port = logPort
	}
	baud := cfg.Log.Baud
	if logBaud != 0 {
		baud = logBaud
	}
	log, logCloser, err := openLog(level, port, baud)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	clk := clock.System{}
	b, err := board.Open(cfg.Bus, clk)
	if err != nil {
		return err
	}
	defer b.Close()
	log.Info("host drivers: %v", b.Drivers())

	if err := b.ResetChip(); err != nil {
		return err
	}

	rf := lidar.NewI2C(b.I2C(), cfg.Lidar.Address, clk, lidar.Opts{MaxPolls: cfg.Lidar.MaxPolls})
	pins := func(name string) (gpio.PinOut, error) { return board.Pin(name) }

	fw, err := buildFirmware(cfg, w5500.New(b.Bus()), pins, rf, log, clk, actuator.LoopOpts{Idle: loopIdle})
	if err != nil {
		return err
	}
	if err := fw.boot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fw.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	for _, c := range fw.loop.Controllers() {
		if s, ok := c.(interface{ Endpoint() *actuator.Endpoint }); ok {
			log.Info("%s: %s", c.Name(), s.Endpoint().Stats())
		}
	}
	return nil
}
