// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package stepper drives step/direction stepper motors with soft position
// limits and hard-stop homing.
package stepper

import "math"

// StepsToAngle converts a step count to degrees as
// step * (stepsPerRev / 360)
func StepsToAngle(step int64, stepsPerRev uint32) float64 {
	return float64(step) * (float64(stepsPerRev) / 360)
}

// AngleToSteps is the inverse of StepsToAngle, rounded to the nearest step
func AngleToSteps(deg float64, stepsPerRev uint32) int64 {
	if stepsPerRev == 0 {
		return 0
	}
	return int64(math.Round(deg / (float64(stepsPerRev) / 360)))
}
