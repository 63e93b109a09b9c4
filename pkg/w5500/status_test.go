// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import "testing"

func TestStatusFromByte_Known(t *testing.T) {
	tests := []struct {
		raw  uint8
		kind StatusKind
		name string
	}{
		{0x00, StatusClosed, "CLOSED"},
		{0x13, StatusInit, "INIT"},
		{0x14, StatusListen, "LISTEN"},
		{0x15, StatusSynSent, "SYNSENT"},
		{0x16, StatusSynRecv, "SYNRECV"},
		{0x17, StatusEstablished, "ESTABLISHED"},
		{0x18, StatusFinWait, "FIN_WAIT"},
		{0x1A, StatusClosing, "CLOSING"},
		{0x1B, StatusTimeWait, "TIME_WAIT"},
		{0x1C, StatusClose, "CLOSE_WAIT"},
		{0x1D, StatusLastAck, "LAST_ACK"},
		{0x22, StatusUDP, "UDP"},
		{0x42, StatusMACRAW, "MACRAW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := StatusFromByte(tt.raw)
			if st.Kind() != tt.kind {
				t.Errorf("StatusFromByte(0x%02X) = %v, want %v", tt.raw, st.Kind(), tt.kind)
			}
			if st.Raw() != tt.raw {
				t.Errorf("Raw() = 0x%02X", st.Raw())
			}
			if st.String() != tt.name {
				t.Errorf("String() = %q, want %q", st.String(), tt.name)
			}
		})
	}
}

func TestStatusFromByte_EveryOtherByteIsUnknown(t *testing.T) {
	known := make(map[uint8]bool)
	for raw := range statusByRaw {
		known[raw] = true
	}

	for i := 0; i < 256; i++ {
		b := uint8(i)
		st := StatusFromByte(b)
		if known[b] {
			if st.Is(StatusUnknown) {
				t.Errorf("0x%02X is documented but decoded as unknown", b)
			}
			continue
		}
		if !st.Is(StatusUnknown) {
			t.Errorf("0x%02X should be unknown, got %v", b, st)
		}
		if st.Raw() != b {
			t.Errorf("unknown status should keep raw byte 0x%02X, got 0x%02X", b, st.Raw())
		}
	}
}

func TestStatusUnknown_String(t *testing.T) {
	if got := StatusFromByte(0x99).String(); got != "UNKNOWN(0x99)" {
		t.Errorf("String() = %q", got)
	}
}
