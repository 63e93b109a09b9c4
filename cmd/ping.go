// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure round trips to the main controller",
	Long: `Send Ping messages to the main controller and wait for each echo.

Each ping carries its sequence number as the value; a reply with a different
value counts as lost.

Exit codes:
  0 - All pings answered
  1 - One or more pings failed or timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

// pingStats accumulates round trip results
type pingStats struct {
	sent     int
	received int
	min, max time.Duration
	total    time.Duration
}

func (p *pingStats) record(rtt time.Duration) {
	if p.received == 0 || rtt < p.min {
		p.min = rtt
	}
	if rtt > p.max {
		p.max = rtt
	}
	p.received++
	p.total += rtt
}

func (p *pingStats) loss() float64 {
	if p.sent == 0 {
		return 0
	}
	return float64(p.sent-p.received) / float64(p.sent) * 100
}

func (p *pingStats) String() string {
	s := fmt.Sprintf("%d pings sent, %d replies received, %.0f%% loss", p.sent, p.received, p.loss())
	if p.received > 0 {
		avg := p.total / time.Duration(p.received)
		s += fmt.Sprintf("\nrtt min/avg/max = %v/%v/%v",
			p.min.Round(time.Microsecond), avg.Round(time.Microsecond), p.max.Round(time.Microsecond))
	}
	return s
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, info, err := openTarget(context.Background(), "mainctl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Println(titleStyle.Render("HYDRANT PING"))
	fmt.Println(field("Connection", info))
	fmt.Println(field("Timeout", requestTimeout.String()))
	fmt.Println()

	var stats pingStats
	for i := 1; i <= pingCount; i++ {
		value := uint8(i)
		fmt.Printf("Ping %d/%d: ", i, pingCount)
		stats.sent++

		start := time.Now()
		reply, err := conn.Request(frame.Ping{Value: value}, requestTimeout)
		rtt := time.Since(start)
		switch {
		case err != nil:
			fmt.Println(errorStyle.Render(fmt.Sprintf("FAILED: %v", err)))
		case reply != frame.Ping{Value: value}:
			fmt.Println(warningStyle.Render("UNEXPECTED " + frame.FormatMessage(reply)))
		default:
			stats.record(rtt)
			fmt.Printf("echo value=%d rtt=%v\n", value, rtt.Round(time.Microsecond))
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n%s\n", &stats)
	if stats.received < stats.sent {
		os.Exit(1)
	}
	return nil
}
