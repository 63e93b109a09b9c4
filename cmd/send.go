// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <target> <command> [args...]",
	Short: "Send one message to a controller",
	Long: `Connect to a controller, send one frame and print the reply if one is expected.

Targets and commands:
  mainctl   ping <value>          Echo round trip (reply expected)
  mainctl   flir <dx> <dy>        Report thermal hot-spot offset
  turret-a  poll                  Read pan and tilt steps (reply expected)
  turret-a  set <pan> <tilt>      Move both axes to absolute steps
  turret-b  poll | set ...        Same as turret-a
  lidar     poll                  Read distance in cm (reply expected)
  pump      on | off              Switch the pump
  lights    on | off              Switch the light bar
  siren     on | off              Switch the siren

Examples:
  hydrant send --host 192.168.1.50 turret-a set 120 -40
  hydrant send --url wss://bridge/ws --username ops pump on`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// parseCommand builds the message for a target and its command words
func parseCommand(target string, args []string) (frame.Message, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: missing command", target)
	}
	verb, rest := args[0], args[1:]
	want := func(n int) error {
		if len(rest) != n {
			return fmt.Errorf("%s %s: expected %d argument(s), got %d", target, verb, n, len(rest))
		}
		return nil
	}

	switch target {
	case "mainctl":
		switch verb {
		case "ping":
			if err := want(1); err != nil {
				return nil, err
			}
			v, err := strconv.ParseUint(rest[0], 0, 8)
			if err != nil {
				return nil, fmt.Errorf("ping value: %w", err)
			}
			return frame.Ping{Value: uint8(v)}, nil
		case "flir":
			if err := want(2); err != nil {
				return nil, err
			}
			var off [2]uint8
			for i, s := range rest {
				v, err := strconv.ParseUint(s, 0, 8)
				if err != nil {
					return nil, fmt.Errorf("flir offset: %w", err)
				}
				off[i] = uint8(v)
			}
			return frame.FlirSignatureOffset{Offset: off}, nil
		}
	case "turret-a", "turret-b":
		switch verb {
		case "poll":
			if err := want(0); err != nil {
				return nil, err
			}
			return frame.TurretPollSteps{}, nil
		case "set":
			if err := want(2); err != nil {
				return nil, err
			}
			pan, err := strconv.ParseInt(rest[0], 0, 32)
			if err != nil {
				return nil, fmt.Errorf("pan: %w", err)
			}
			tilt, err := strconv.ParseInt(rest[1], 0, 32)
			if err != nil {
				return nil, fmt.Errorf("tilt: %w", err)
			}
			return frame.TurretSetSteps{Pan: int32(pan), Tilt: int32(tilt)}, nil
		}
	case "lidar":
		if verb == "poll" {
			if err := want(0); err != nil {
				return nil, err
			}
			return frame.LidarPoll{}, nil
		}
	case "pump", "lights", "siren":
		var sw frame.Switch
		switch verb {
		case "on":
			sw = frame.TurnOn
		case "off":
			sw = frame.TurnOff
		default:
			return nil, fmt.Errorf("%s: unknown command %q (on, off)", target, verb)
		}
		if err := want(0); err != nil {
			return nil, err
		}
		switch target {
		case "pump":
			return frame.Pump{Switch: sw}, nil
		case "lights":
			return frame.Lights{Switch: sw}, nil
		default:
			return frame.Siren{Switch: sw}, nil
		}
	default:
		return nil, fmt.Errorf("unknown target %q", target)
	}
	return nil, fmt.Errorf("%s: unknown command %q", target, verb)
}

// expectsReply reports whether the controller answers m
func expectsReply(m frame.Message) bool {
	switch m.(type) {
	case frame.Ping, frame.TurretPollSteps, frame.LidarPoll:
		return true
	}
	return false
}

func runSend(cmd *cobra.Command, args []string) error {
	target := args[0]
	msg, err := parseCommand(target, args[1:])
	if err != nil {
		return err
	}

	conn, info, err := openTarget(context.Background(), target)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("%s %s\n", labelStyle.Render("Connection"), info)
	fmt.Printf("%s %s\n", labelStyle.Render("Sent"), frame.FormatMessage(msg))

	if !expectsReply(msg) {
		return conn.Send(msg)
	}
	reply, err := conn.Request(msg, requestTimeout)
	if err != nil {
		fmt.Printf("%s %s\n", labelStyle.Render("Reply"), errorStyle.Render(err.Error()))
		return err
	}
	fmt.Printf("%s %s\n", labelStyle.Render("Reply"), valueStyle.Render(frame.FormatMessage(reply)))
	return nil
}
