// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/hydrant/pkg/board"
	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Show W5500 chip identity, PHY status and socket states",
	Long: `Read the W5500 over the board's SPI bus and print a diagnostic summary.

Nothing is written to the chip. Run it on the vehicle while the firmware is
stopped, or before first boot to check the wiring.

Exit codes:
  0 - Chip identified
  1 - Version register does not identify a W5500`,
	Args: cobra.NoArgs,
	RunE: runDiag,
}

func init() {
	rootCmd.AddCommand(diagCmd)
}

func runDiag(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := board.Open(cfg.Bus, clock.System{})
	if err != nil {
		return err
	}
	defer b.Close()

	out, err := renderDiag(w5500.New(b.Bus()))
	fmt.Println(out)
	return err
}

// renderDiag reads the chip and renders the summary. An unexpected version is
// rendered and also returned.
func renderDiag(chip *w5500.Chip) (string, error) {
	var s strings.Builder
	s.WriteString(titleStyle.Render("HYDRANT DIAG"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render("| W5500"))
	s.WriteString("\n")

	version, err := chip.Version()
	if err != nil {
		return "", fmt.Errorf("read version: %w", err)
	}
	versionLine := field("Version", fmt.Sprintf("0x%02X", version))
	versionErr := chip.CheckVersion()
	if versionErr != nil {
		versionLine = labelStyle.Render("Version") + " " + errorStyle.Render(fmt.Sprintf("0x%02X (not a W5500)", version))
	}

	phy, err := chip.PHY()
	if err != nil {
		return "", fmt.Errorf("read PHY: %w", err)
	}
	phyValue := valueStyle.Render(phy.String())
	if !phy.LinkUp {
		phyValue = warningStyle.Render(phy.String())
	}

	mac, err := chip.MAC()
	if err != nil {
		return "", fmt.Errorf("read MAC: %w", err)
	}
	ip, err := chip.SourceIP()
	if err != nil {
		return "", fmt.Errorf("read source IP: %w", err)
	}
	gw, err := chip.Gateway()
	if err != nil {
		return "", fmt.Errorf("read gateway: %w", err)
	}
	mask, err := chip.SubnetMask()
	if err != nil {
		return "", fmt.Errorf("read subnet mask: %w", err)
	}
	rtr, err := chip.RetryTime()
	if err != nil {
		return "", fmt.Errorf("read retry time: %w", err)
	}
	rcr, err := chip.RetryCount()
	if err != nil {
		return "", fmt.Errorf("read retry count: %w", err)
	}

	chipLines := []string{
		versionLine,
		labelStyle.Render("PHY") + " " + phyValue,
		field("MAC", mac.String()),
		field("IP", ip.String()),
		field("Gateway", gw.String()),
		field("Subnet", mask.String()),
		field("Retry", fmt.Sprintf("%v x%d", rtr, rcr)),
	}

	var sockLines []string
	for i := 0; i < w5500.SocketCount; i++ {
		sock, err := w5500.NewSocket(chip, w5500.SocketIndex(i))
		if err != nil {
			return "", err
		}
		st, err := sock.Status()
		if err != nil {
			return "", fmt.Errorf("socket %d status: %w", i, err)
		}
		port, err := sock.Port()
		if err != nil {
			return "", fmt.Errorf("socket %d port: %w", i, err)
		}
		line := fmt.Sprintf("%-12s port %d", st, port)
		if st.Is(w5500.StatusEstablished) {
			if peer, err := sock.Peer(); err == nil {
				line += " peer " + peer.String()
			}
		}
		sockLines = append(sockLines, field(fmt.Sprintf("Socket %d", i), line))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(strings.Join(chipLines, "\n")),
		boxStyle.Render(strings.Join(sockLines, "\n")),
	))

	return s.String(), versionErr
}
