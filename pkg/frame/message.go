// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import "fmt"

// Message is one of the closed set of messages that fit in a frame
type Message interface {
	// Type returns the message type code
	Type() uint8
	payload() map[int]interface{}
}

// Switch is the state requested for a switched output
type Switch uint8

const (
	TurnOff Switch = 0
	TurnOn  Switch = 1
)

// String returns "on" or "off"
func (s Switch) String() string {
	switch s {
	case TurnOff:
		return "off"
	case TurnOn:
		return "on"
	default:
		return fmt.Sprintf("switch(%d)", uint8(s))
	}
}

// Ping is echoed back unchanged by the main controller
type Ping struct {
	Value uint8
}

// FlirSignatureOffset is the thermal camera's hot-spot offset from center
type FlirSignatureOffset struct {
	Offset [2]uint8
}

// TurretPollSteps asks a turret for its current axis positions
type TurretPollSteps struct{}

// TurretSetSteps commands both turret axes to absolute step positions
type TurretSetSteps struct {
	Pan  int32
	Tilt int32
}

// TurretSteps reports both turret axis positions
type TurretSteps struct {
	Pan  int32
	Tilt int32
}

// LidarPoll asks the lidar relay for a distance reading
type LidarPoll struct{}

// LidarDistanceCm reports a distance reading in centimeters
type LidarDistanceCm struct {
	Distance uint32
}

// Lights switches the light bar
type Lights struct {
	Switch Switch
}

// Pump switches the water pump
type Pump struct {
	Switch Switch
}

// Siren switches the siren
type Siren struct {
	Switch Switch
}

func (Ping) Type() uint8                { return MsgPing }
func (FlirSignatureOffset) Type() uint8 { return MsgFlirSignatureOffset }
func (TurretPollSteps) Type() uint8     { return MsgTurretPollSteps }
func (TurretSetSteps) Type() uint8      { return MsgTurretSetSteps }
func (TurretSteps) Type() uint8         { return MsgTurretSteps }
func (LidarPoll) Type() uint8           { return MsgLidarPoll }
func (LidarDistanceCm) Type() uint8     { return MsgLidarDistanceCm }
func (Lights) Type() uint8              { return MsgLights }
func (Pump) Type() uint8                { return MsgPump }
func (Siren) Type() uint8               { return MsgSiren }

func (m Ping) payload() map[int]interface{} {
	return map[int]interface{}{keyFirst: uint64(m.Value)}
}

func (m FlirSignatureOffset) payload() map[int]interface{} {
	return map[int]interface{}{keyFirst: []byte{m.Offset[0], m.Offset[1]}}
}

func (TurretPollSteps) payload() map[int]interface{} { return nil }

func (m TurretSetSteps) payload() map[int]interface{} {
	return map[int]interface{}{keyFirst: int64(m.Pan), keySecond: int64(m.Tilt)}
}

func (m TurretSteps) payload() map[int]interface{} {
	return map[int]interface{}{keyFirst: int64(m.Pan), keySecond: int64(m.Tilt)}
}

func (LidarPoll) payload() map[int]interface{} { return nil }

func (m LidarDistanceCm) payload() map[int]interface{} {
	return map[int]interface{}{keyFirst: uint64(m.Distance)}
}

func (m Lights) payload() map[int]interface{} { return switchPayload(m.Switch) }
func (m Pump) payload() map[int]interface{}   { return switchPayload(m.Switch) }
func (m Siren) payload() map[int]interface{}  { return switchPayload(m.Switch) }

func switchPayload(s Switch) map[int]interface{} {
	return map[int]interface{}{keyFirst: uint64(s)}
}

// messageFromPayload builds the typed message for msgType from a decoded
// payload map. The map must carry exactly the keys the type defines.
func messageFromPayload(msgType uint8, p map[int]interface{}) (Message, error) {
	switch msgType {
	case MsgPing:
		if err := expectKeys(p, 1); err != nil {
			return nil, err
		}
		v, err := mapUint(p, keyFirst, 0xFF)
		if err != nil {
			return nil, err
		}
		return Ping{Value: uint8(v)}, nil

	case MsgFlirSignatureOffset:
		if err := expectKeys(p, 1); err != nil {
			return nil, err
		}
		b, err := mapBytes(p, keyFirst, 2)
		if err != nil {
			return nil, err
		}
		return FlirSignatureOffset{Offset: [2]uint8{b[0], b[1]}}, nil

	case MsgTurretPollSteps:
		return TurretPollSteps{}, expectKeys(p, 0)

	case MsgTurretSetSteps, MsgTurretSteps:
		if err := expectKeys(p, 2); err != nil {
			return nil, err
		}
		pan, err := mapInt32(p, keyFirst)
		if err != nil {
			return nil, err
		}
		tilt, err := mapInt32(p, keySecond)
		if err != nil {
			return nil, err
		}
		if msgType == MsgTurretSetSteps {
			return TurretSetSteps{Pan: pan, Tilt: tilt}, nil
		}
		return TurretSteps{Pan: pan, Tilt: tilt}, nil

	case MsgLidarPoll:
		return LidarPoll{}, expectKeys(p, 0)

	case MsgLidarDistanceCm:
		if err := expectKeys(p, 1); err != nil {
			return nil, err
		}
		v, err := mapUint(p, keyFirst, 0xFFFFFFFF)
		if err != nil {
			return nil, err
		}
		return LidarDistanceCm{Distance: uint32(v)}, nil

	case MsgLights, MsgPump, MsgSiren:
		if err := expectKeys(p, 1); err != nil {
			return nil, err
		}
		v, err := mapUint(p, keyFirst, uint64(TurnOn))
		if err != nil {
			return nil, err
		}
		switch msgType {
		case MsgLights:
			return Lights{Switch: Switch(v)}, nil
		case MsgPump:
			return Pump{Switch: Switch(v)}, nil
		default:
			return Siren{Switch: Switch(v)}, nil
		}
	}

	return nil, fmt.Errorf("unknown message type 0x%02X", msgType)
}
