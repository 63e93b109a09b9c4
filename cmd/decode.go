// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Thermoquad/hydrant/pkg/frame"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex...|->",
	Short: "Decode a captured frame or CBOR message offline",
	Long: `Decode hex bytes captured off the wire.

Exactly 256 bytes are treated as a whole frame (length byte and payload).
Anything shorter is treated as a bare CBOR message. Whitespace and colons
between bytes are ignored. Pass "-" to read the hex from stdin.

Examples:
  hydrant decode 82 01 a1 00 07
  xxd -p capture.bin | hydrant decode -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// parseHex accepts hex bytes separated by optional whitespace or colons
func parseHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// describe formats raw bytes as a frame or as a bare message
func describe(data []byte) string {
	if len(data) == frame.Size {
		fr, _ := frame.FromBytes(data)
		return frame.FormatFrame(fr)
	}
	m, err := frame.DecodeMessage(data)
	if err != nil {
		return fmt.Sprintf("INVALID len=%d: %v", len(data), err)
	}
	return fmt.Sprintf("%s (0x%02X) len=%d", frame.FormatMessage(m), m.Type(), len(data))
}

func runDecode(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")
	if input == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		input = string(b)
	}
	data, err := parseHex(input)
	if err != nil {
		return err
	}
	fmt.Println(describe(data))
	return nil
}
