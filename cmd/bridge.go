// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/Thermoquad/hydrant/pkg/link"
	"github.com/Thermoquad/hydrant/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	bridgeListen string
	bridgePath   string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve a WebSocket bridge to the vehicle's controller ports",
	Long: `Accept WebSocket clients and relay each one to a controller's TCP port.

Clients pick the controller with the "target" query parameter, for example
ws://bridge:8080/ws?target=turret-a. Every binary message carries one
256-byte frame in each direction.

With --username, clients must authenticate with HTTP Basic auth. The password
is read from the HYDRANT_PASSWORD environment variable or prompted.`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeListen, "listen", ":8080", "HTTP listen address")
	bridgeCmd.Flags().StringVar(&bridgePath, "path", "/ws", "WebSocket endpoint path")
}

// bridgeTargets maps every operator target to its address on host
func bridgeTargets(host string, ports map[string]uint16) map[string]string {
	out := make(map[string]string, len(ports))
	for name, port := range ports {
		out[name] = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
	return out
}

func runBridge(cmd *cobra.Command, args []string) error {
	if vehicleHost == "" {
		return fmt.Errorf("--host must name the vehicle")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var password string
	if wsUsername != "" {
		if password, err = link.GetPassword(); err != nil {
			return err
		}
	}

	log := logging.New(os.Stderr, logging.LevelInfo).Named("bridge")
	b := &link.Bridge{
		Targets:  bridgeTargets(vehicleHost, targetPorts(cfg)),
		Username: wsUsername,
		Password: password,
		Timeout:  requestTimeout,
		Log:      log,
	}

	mux := http.NewServeMux()
	mux.Handle(bridgePath, b)
	log.Info("listening on %s%s for %s", bridgeListen, bridgePath, vehicleHost)
	return http.ListenAndServe(bridgeListen, mux)
}
