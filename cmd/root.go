// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	// Direct TCP flags
	vehicleHost string

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	requestTimeout time.Duration

	// Board flags
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "hydrant",
	Short: "Fire-suppression vehicle controller",
	Long: `Hydrant - firmware runner and operator tooling for the fire-suppression vehicle.

The run command boots the board and serves every actuator controller on its
own TCP port. The remaining commands talk to those controllers from the
operator side, either directly or through the WebSocket bridge.

Connection modes:
  TCP:       --host 192.168.1.50
  WebSocket: --url ws://bridge/ws [--username user]

For WebSocket authentication, the password is read from the HYDRANT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vehicleHost, "host", "H", "", "Vehicle address for direct TCP")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "Bridge WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 5*time.Second, "Connect and reply timeout")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Board configuration file (YAML)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
