// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package frame implements the fixed-size message envelope exchanged between
// the operator and every actuator controller.
//
// A frame is always 256 bytes. The message is CBOR encoded as
// [msg_type, payload_map] at the start of the frame and the last byte holds
// the encoded length. Anything that does not decode cleanly is dropped.
package frame

// Frame geometry
const (
	Size           = 256
	MaxEncodedSize = Size - 1
	lengthIndex    = Size - 1
)

// Message types - Controller (0x01-0x0F)
const (
	MsgPing                = 0x01
	MsgFlirSignatureOffset = 0x02
)

// Message types - Turret (0x10-0x1F)
const (
	MsgTurretPollSteps = 0x10
	MsgTurretSetSteps  = 0x11
	MsgTurretSteps     = 0x12
)

// Message types - Lidar (0x20-0x2F)
const (
	MsgLidarPoll       = 0x20
	MsgLidarDistanceCm = 0x21
)

// Message types - Switched outputs (0x30-0x3F)
const (
	MsgLights = 0x30
	MsgPump   = 0x31
	MsgSiren  = 0x32
)

// Payload map keys
const (
	keyFirst  = 0
	keySecond = 1
)
