// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Hydrant - fire-suppression vehicle controller
//
// Runs the actuator controllers on the vehicle board and provides the
// operator-side tools that talk to them.

package main

import (
	"os"

	"github.com/Thermoquad/hydrant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
