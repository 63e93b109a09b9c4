// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import "fmt"

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgPing:
		return "PING"
	case MsgFlirSignatureOffset:
		return "FLIR_SIGNATURE_OFFSET"
	case MsgTurretPollSteps:
		return "TURRET_POLL_STEPS"
	case MsgTurretSetSteps:
		return "TURRET_SET_STEPS"
	case MsgTurretSteps:
		return "TURRET_STEPS"
	case MsgLidarPoll:
		return "LIDAR_POLL"
	case MsgLidarDistanceCm:
		return "LIDAR_DISTANCE_CM"
	case MsgLights:
		return "LIGHTS"
	case MsgPump:
		return "PUMP"
	case MsgSiren:
		return "SIREN"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", msgType)
	}
}

// FormatMessage formats a message into a human-readable string
func FormatMessage(m Message) string {
	if m == nil {
		return "<nil>"
	}
	name := FormatMessageType(m.Type())

	switch v := m.(type) {
	case Ping:
		return fmt.Sprintf("%s value=%d", name, v.Value)
	case FlirSignatureOffset:
		return fmt.Sprintf("%s x=%d y=%d", name, v.Offset[0], v.Offset[1])
	case TurretSetSteps:
		return fmt.Sprintf("%s pan=%d tilt=%d", name, v.Pan, v.Tilt)
	case TurretSteps:
		return fmt.Sprintf("%s pan=%d tilt=%d", name, v.Pan, v.Tilt)
	case LidarDistanceCm:
		return fmt.Sprintf("%s distance=%dcm", name, v.Distance)
	case Lights:
		return fmt.Sprintf("%s %s", name, v.Switch)
	case Pump:
		return fmt.Sprintf("%s %s", name, v.Switch)
	case Siren:
		return fmt.Sprintf("%s %s", name, v.Switch)
	default:
		return name
	}
}

// FormatFrame formats a raw frame, including frames that fail to decode
func FormatFrame(f *Frame) string {
	m, err := DecodeMessage(f.Payload())
	if err != nil {
		return fmt.Sprintf("INVALID len=%d: %v", f.Len(), err)
	}
	return fmt.Sprintf("%s (0x%02X) len=%d", FormatMessage(m), m.Type(), f.Len())
}
