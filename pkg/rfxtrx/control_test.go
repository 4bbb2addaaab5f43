// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"bytes"
	"errors"
	"testing"
)

func TestInterfaceControlFrames(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{"reset", EncodeReset(), "0D 00 00 00 00 00 00 00 00 00 00 00 00 00"},
		{"get status", EncodeStatusRequest(), "0D 00 00 01 02 00 00 00 00 00 00 00 00 00"},
		{"start receiver", EncodeStart(), "0D 00 00 03 07 00 00 00 00 00 00 00 00 00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if want := frame(t, tt.want); !bytes.Equal(tt.got, want) {
				t.Errorf("frame = % X, want % X", tt.got, want)
			}
		})
	}
}

func TestEncodeSetModes(t *testing.T) {
	got, err := EncodeSetModes([]string{"ac", "arc", "oregon", "lacrosse", "undecoded", "keeloq"}, 0x53, 0x1c)
	if err != nil {
		t.Fatalf("EncodeSetModes() error = %v", err)
	}
	want := frame(t, "0D 00 00 00 03 53 1C 80 08 26 01 00 00 00")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeSetModes() = % X, want % X", got, want)
	}
}

func TestEncodeSetModes_NoModes(t *testing.T) {
	got, err := EncodeSetModes(nil, 0x52, 0)
	if err != nil {
		t.Fatalf("EncodeSetModes() error = %v", err)
	}
	for i := 7; i < 11; i++ {
		if got[i] != 0 {
			t.Errorf("mode byte d%d = %#x, want 0", i, got[i])
		}
	}
}

func TestEncodeSetModes_UnknownMode(t *testing.T) {
	got, err := EncodeSetModes([]string{"oregon", "smoke-signals"}, 0x53, 0)
	if !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("EncodeSetModes() error = %v, want ErrInvalidCommand", err)
	}
	if got != nil {
		t.Errorf("EncodeSetModes() = % X, want nil", got)
	}
}

// A set mode frame read back through the status decoder must list the
// modes that were requested.
func TestEncodeSetModes_StatusRoundTrip(t *testing.T) {
	modes := ReceiveModes()
	data, err := EncodeSetModes(modes, 0x53, 0)
	if err != nil {
		t.Fatalf("EncodeSetModes() error = %v", err)
	}
	// turn the request into a status response with the same mode bytes
	data[1] = uint8(TypeStatus)
	data[4] = 0x02
	p, err := ParsePacket(data)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	s, ok := p.(*Status)
	if !ok {
		t.Fatalf("ParsePacket() = %T, want *Status", p)
	}
	got := s.Devices()
	if len(got) != len(modes) {
		t.Fatalf("Devices() = %v, want %v", got, modes)
	}
	for i := range modes {
		if got[i] != modes[i] {
			t.Errorf("Devices()[%d] = %q, want %q", i, got[i], modes[i])
		}
	}
}
