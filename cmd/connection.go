// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Thermoquad/hydrant/pkg/config"
	"github.com/Thermoquad/hydrant/pkg/link"
)

// loadConfig returns the defaults, or the file named by --config
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// targetPorts maps operator target names to controller ports
func targetPorts(cfg *config.Config) map[string]uint16 {
	out := make(map[string]uint16)
	for _, ep := range cfg.Endpoints() {
		out[strings.ReplaceAll(ep.Name, "_", "-")] = ep.Port
	}
	return out
}

func targetNames(cfg *config.Config) string {
	var names []string
	for n := range targetPorts(cfg) {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// bridgeURL adds the target selector to a bridge URL
func bridgeURL(base, target string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	q := u.Query()
	q.Set("target", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// openTarget connects to the named controller using the global flags
func openTarget(ctx context.Context, target string) (*link.FrameConn, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	port, ok := targetPorts(cfg)[target]
	if !ok {
		return nil, "", fmt.Errorf("unknown target %q (one of: %s)", target, targetNames(cfg))
	}

	t := link.Target{
		Host:          vehicleHost,
		Port:          port,
		Username:      wsUsername,
		SkipSSLVerify: wsNoSSLVerify,
		Timeout:       requestTimeout,
	}
	if wsURL != "" {
		if t.URL, err = bridgeURL(wsURL, target); err != nil {
			return nil, "", err
		}
	}

	conn, info, err := link.Open(ctx, t)
	if err != nil {
		return nil, "", err
	}
	return link.NewFrameConn(conn), info, nil
}
