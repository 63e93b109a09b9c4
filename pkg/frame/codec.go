// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"errors"
	"fmt"
)

// ErrFrameOverflow is returned when an encoded message does not leave room
// for the length byte
var ErrFrameOverflow = errors.New("encoded message does not fit in a frame")

// Frame is the 256-byte envelope. Bytes [0, len) hold the encoded message and
// the last byte holds len.
type Frame [Size]byte

// Len returns the encoded length recorded in the last byte
func (f *Frame) Len() int {
	return int(f[lengthIndex])
}

// Payload returns the encoded message bytes the length byte points at
func (f *Frame) Payload() []byte {
	return f[:f.Len()]
}

// FromBytes copies a received 256-byte buffer into a Frame
func FromBytes(b []byte) (*Frame, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("frame must be %d bytes, got %d", Size, len(b))
	}
	var f Frame
	copy(f[:], b)
	return &f, nil
}

// EncodeMessage returns the unframed CBOR encoding of m
func EncodeMessage(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil message")
	}
	data, err := encodeCBOR(m.Type(), m.payload())
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}
	return data, nil
}

// DecodeMessage parses exactly data as one message
func DecodeMessage(data []byte) (Message, error) {
	msgType, payload, err := parseCBOR(data)
	if err != nil {
		return nil, err
	}
	m, err := messageFromPayload(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FormatMessageType(msgType), err)
	}
	return m, nil
}

// Pack places an encoded message at the start of a frame and records its
// length in the last byte
func Pack(payload []byte) (Frame, error) {
	var f Frame
	if len(payload) > MaxEncodedSize {
		return f, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameOverflow, len(payload), MaxEncodedSize)
	}
	copy(f[:], payload)
	f[lengthIndex] = uint8(len(payload))
	return f, nil
}

// Encode builds the frame for m. It returns false when m cannot be encoded
// into a frame; the caller drops the message.
func Encode(m Message) (Frame, bool) {
	data, err := EncodeMessage(m)
	if err != nil {
		return Frame{}, false
	}
	f, err := Pack(data)
	if err != nil {
		return Frame{}, false
	}
	return f, true
}

// Decode parses the message in f. Unknown or corrupt frames yield false.
func Decode(f *Frame) (Message, bool) {
	if f == nil {
		return nil, false
	}
	m, err := DecodeMessage(f.Payload())
	if err != nil {
		return nil, false
	}
	return m, true
}
