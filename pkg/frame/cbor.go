// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

// mustEncMode returns deterministic (core) encoding so equal messages always
// produce identical frames
func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("frame: cbor encode options: %v", err))
	}
	return em
}

// mustDecMode returns decoding limits sized for a single small frame
func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		TagsMd:           cbor.TagsForbidden,
		MaxNestedLevels:  4,
		MaxArrayElements: 16,
		MaxMapPairs:      16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("frame: cbor decode options: %v", err))
	}
	return dm
}

// encodeCBOR creates the CBOR message [msgType, payloadMap]
func encodeCBOR(msgType uint8, payload map[int]interface{}) ([]byte, error) {
	var msg interface{}
	if len(payload) == 0 {
		msg = []interface{}{uint64(msgType), nil}
	} else {
		msg = []interface{}{uint64(msgType), payload}
	}
	return encMode.Marshal(msg)
}

// parseCBOR parses a CBOR message [msg_type, payload_map].
// Returns the message type and payload map (nil for empty payloads).
// Trailing bytes after the message are an error.
func parseCBOR(data []byte) (msgType uint8, payload map[int]interface{}, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty CBOR payload")
	}

	var msg []interface{}
	if err := decMode.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}

	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	switch v := msg[0].(type) {
	case uint64:
		if v > 0xFF {
			return 0, nil, fmt.Errorf("message type out of range: %d", v)
		}
		msgType = uint8(v)
	default:
		return 0, nil, fmt.Errorf("expected uint for message type, got %T", msg[0])
	}

	if msg[1] == nil {
		return msgType, nil, nil
	}

	m, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return 0, nil, fmt.Errorf("expected map or nil for payload, got %T", msg[1])
	}
	payload = make(map[int]interface{}, len(m))
	for key, val := range m {
		k, ok := key.(uint64)
		if !ok || k > 0xFF {
			return 0, nil, fmt.Errorf("expected small unsigned map key, got %v (%T)", key, key)
		}
		payload[int(k)] = val
	}

	return msgType, payload, nil
}

// Map value extraction helpers

func expectKeys(m map[int]interface{}, n int) error {
	if len(m) != n {
		return fmt.Errorf("expected %d payload fields, got %d", n, len(m))
	}
	return nil
}

// mapUint extracts an unsigned integer no larger than limit
func mapUint(m map[int]interface{}, key int, limit uint64) (uint64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing field %d", key)
	}
	u, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("field %d: expected unsigned integer, got %T", key, v)
	}
	if u > limit {
		return 0, fmt.Errorf("field %d: %d out of range (max %d)", key, u, limit)
	}
	return u, nil
}

// mapInt32 extracts a signed integer that fits in int32. CBOR carries
// non-negative integers as uint64 and negative ones as int64.
func mapInt32(m map[int]interface{}, key int) (int32, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing field %d", key)
	}
	switch val := v.(type) {
	case uint64:
		if val > 1<<31-1 {
			return 0, fmt.Errorf("field %d: %d overflows int32", key, val)
		}
		return int32(val), nil
	case int64:
		if val < -1<<31 || val > 1<<31-1 {
			return 0, fmt.Errorf("field %d: %d overflows int32", key, val)
		}
		return int32(val), nil
	}
	return 0, fmt.Errorf("field %d: expected integer, got %T", key, v)
}

// mapBytes extracts a byte string of exactly n bytes
func mapBytes(m map[int]interface{}, key int, n int) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("missing field %d", key)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("field %d: expected byte string, got %T", key, v)
	}
	if len(b) != n {
		return nil, fmt.Errorf("field %d: expected %d bytes, got %d", key, n, len(b))
	}
	return b, nil
}
