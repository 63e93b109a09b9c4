// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/Thermoquad/hydrant/pkg/link"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <turret-a|turret-b|lidar>",
	Short: "Poll a turret or the lidar and print each reading",
	Long: `Poll a controller at a fixed interval and print each reply with a timestamp.

Turrets are polled for pan and tilt steps, the lidar for distance in cm.
Timeouts and undecodable replies are printed and polling continues.

Press Ctrl+C to exit.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"turret-a", "turret-b", "lidar"},
	RunE:      runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 500*time.Millisecond, "Time between polls")
}

// pollMessage returns the poll request for a watchable target
func pollMessage(target string) (frame.Message, error) {
	switch target {
	case "turret-a", "turret-b":
		return frame.TurretPollSteps{}, nil
	case "lidar":
		return frame.LidarPoll{}, nil
	}
	return nil, fmt.Errorf("cannot watch %q (turret-a, turret-b, lidar)", target)
}

func runWatch(cmd *cobra.Command, args []string) error {
	target := args[0]
	poll, err := pollMessage(target)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, info, err := openTarget(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Println(titleStyle.Render("HYDRANT WATCH") + " " + headerStyle.Render("| "+target))
	fmt.Println(field("Connection", info))
	fmt.Println(field("Interval", watchInterval.String()))
	fmt.Println()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		stamp := time.Now().Format("15:04:05.000")
		reply, err := conn.Request(poll, requestTimeout)
		switch {
		case errors.Is(err, link.ErrConnectionClosed):
			fmt.Println("Connection closed")
			return nil
		case err != nil:
			fmt.Printf("[%s] %s\n", stamp, errorStyle.Render(err.Error()))
		default:
			fmt.Printf("[%s] %s\n", stamp, frame.FormatMessage(reply))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
