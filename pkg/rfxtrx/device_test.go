// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func mustIdentity(t *testing.T, s string) DeviceIdentity {
	t.Helper()
	id, err := ParseDeviceIdentity(s)
	if err != nil {
		t.Fatalf("ParseDeviceIdentity(%q) error = %v", s, err)
	}
	return id
}

// ============================================================
// Frame Encoding
// ============================================================

func TestCommandEncoder_Encode(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		cmd    Command
		params Params
		want   string
	}{
		// Lighting1
		{"lighting1 on", "10/00/E5", CommandOn, Params{}, "07 10 00 00 45 05 01 00"},
		{"lighting1 off", "10/01/A1", CommandOff, Params{}, "07 10 01 00 41 01 00 00"},

		// Lighting2
		{"lighting2 on", "11/00/1234567:1", CommandOn, Params{}, "0B 11 00 00 01 23 45 67 01 01 00 00"},
		{"lighting2 dim 50", "11/00/1234567:1", CommandDim, Params{Level: 50}, "0B 11 00 00 01 23 45 67 01 02 07 00"},
		{"lighting2 dim 100", "11/00/1234567:1", CommandDim, Params{Level: 100}, "0B 11 00 00 01 23 45 67 01 02 0F 00"},
		{"lighting2 dim 0 is off", "11/00/1234567:1", CommandDim, Params{Level: 0}, "0B 11 00 00 01 23 45 67 01 00 00 00"},

		// Lighting3
		{"lighting3 on", "12/00/1:003", CommandOn, Params{}, "08 12 00 00 01 03 00 10 00"},
		{"lighting3 off", "12/00/1:003", CommandOff, Params{}, "08 12 00 00 01 03 00 1A 00"},
		{"lighting3 dim 50", "12/00/1:003", CommandDim, Params{Level: 50}, "08 12 00 00 01 03 00 15 00"},
		{"lighting3 dim 100 is on", "12/00/1:003", CommandDim, Params{Level: 100}, "08 12 00 00 01 03 00 10 00"},
		{"lighting3 dim 0 is off", "12/00/1:003", CommandDim, Params{Level: 0}, "08 12 00 00 01 03 00 1A 00"},

		// Lighting4
		{"lighting4 on sets low bit", "13/00/010554", CommandOn, Params{}, "09 13 00 00 01 05 55 01 5E 00"},
		{"lighting4 off clears low bit", "13/00/010555", CommandOff, Params{Pulse: 400}, "09 13 00 00 01 05 54 01 90 00"},

		// Lighting5
		{"lighting5 on", "14/00/f09ac7:2", CommandOn, Params{}, "0A 14 00 00 F0 9A C7 02 01 00 00"},
		{"lighting5 dim 50", "14/00/f09ac7:2", CommandDim, Params{Level: 50}, "0A 14 00 00 F0 9A C7 02 10 0F 00"},
		{"lighting5 dim 0 is off", "14/01/f09ac7:2", CommandDim, Params{Level: 0}, "0A 14 01 00 F0 9A C7 02 00 00 00"},
		{"lighting5 open relay", "14/00/f09ac7:2", CommandOpen, Params{}, "0A 14 00 00 F0 9A C7 02 0F 00 00"},
		{"lighting5 close relay", "14/00/f09ac7:2", CommandClose, Params{}, "0A 14 00 00 F0 9A C7 02 0D 00 00"},
		{"lighting5 stop relay", "14/00/f09ac7:2", CommandStop, Params{}, "0A 14 00 00 F0 9A C7 02 0E 00 00"},

		// Lighting6 uses inverted on/off codes
		{"lighting6 on", "15/00/f09a:B3", CommandOn, Params{}, "0B 15 00 00 F0 9A 42 03 00 00 00 00"},
		{"lighting6 off", "15/00/f09a:B3", CommandOff, Params{}, "0B 15 00 00 F0 9A 42 03 01 00 00 00"},

		// Chime
		{"chime sound", "16/00/12:34", CommandSound, Params{Sound: 5}, "07 16 00 00 12 34 05 00"},

		// Blinds
		{"rollertrol open", "19/00/010203:1", CommandOpen, Params{}, "09 19 00 00 01 02 03 01 00 00"},
		{"rollertrol close", "19/00/010203:1", CommandClose, Params{}, "09 19 00 00 01 02 03 01 01 00"},
		{"rfy open", "1a/00/010203:1", CommandOpen, Params{}, "0C 1A 00 00 01 02 03 01 01 00 00 00 00"},
		{"rfy close", "1a/00/010203:1", CommandClose, Params{}, "0C 1A 00 00 01 02 03 01 03 00 00 00 00"},
		{"rfy sun on", "1a/00/010203:1", CommandSunAutoOn, Params{}, "0C 1A 00 00 01 02 03 01 13 00 00 00 00"},
		{"rfy down 2s", "1a/00/010203:1", CommandDown2, Params{}, "0C 1A 00 00 01 02 03 01 12 00 00 00 00"},
		{"ddxxxx p2", "31/00/123456:1", CommandP2, Params{}, "0C 31 00 00 00 12 34 56 01 03 00 00 00"},
		{"ddxxxx percent angle", "31/00/123456:1", CommandPercentAngle, Params{Percent: 50, Angle: 90},
			"0C 31 00 00 00 12 34 56 01 06 32 5A 00"},
		{"ddxxxx angle only", "31/00/123456:1", CommandAngle, Params{Percent: 50, Angle: 90},
			"0C 31 00 00 00 12 34 56 01 05 00 5A 00"},

		// Funkbus
		{"funkbus on", "1e/00/1234:4102", CommandOn, Params{}, "0B 1E 00 00 12 34 41 02 01 00 00 09"},
		{"funkbus dimming", "1e/00/1234:4102", CommandDimming, Params{Duration: 4}, "0B 1E 00 00 12 34 41 02 00 05 00 09"},
		{"funkbus all off", "1e/00/1234:4102", CommandAllOff, Params{}, "0B 1E 00 00 12 34 41 00 02 03 00 09"},
		{"funkbus scene", "1e/00/1234:4102", CommandScene, Params{Scene: 3}, "0B 1E 00 00 12 34 41 03 04 01 00 09"},
		{"funkbus master bright", "1e/00/1234:4102", CommandMasterBright, Params{Duration: 0}, "0B 1E 00 00 12 34 41 00 06 01 00 09"},

		// Security1
		{"security status", "20/00/123456:32", CommandStatus, Params{Status: 4}, "08 20 00 00 12 34 56 04 00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewCommandEncoder()
			got, err := e.Encode(mustIdentity(t, tt.id), tt.cmd, tt.params)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if want := frame(t, tt.want); !bytes.Equal(got, want) {
				t.Errorf("Encode() = % X, want % X", got, want)
			}
			if _, err := ParsePacket(got); err != nil {
				t.Errorf("ParsePacket(Encode()) error = %v", err)
			}
		})
	}
}

func TestCommandEncoder_Lighting2DimLevels(t *testing.T) {
	e := NewCommandEncoder()
	id := mustIdentity(t, "11/00/1234567:1")
	for level := 1; level <= 100; level++ {
		data, err := e.Encode(id, CommandDim, Params{Level: level})
		if err != nil {
			t.Fatalf("Encode(dim %d) error = %v", level, err)
		}
		want := uint8(((level+6)*16)/100 - 1)
		if data[9] != 0x02 || data[10] != want {
			t.Errorf("dim %d: cmnd/level = %#x/%d, want 0x2/%d", level, data[9], data[10], want)
		}
	}
}

// ============================================================
// Sequence Counters
// ============================================================

func TestCommandEncoder_SequenceCycles(t *testing.T) {
	e := NewCommandEncoder()
	id := mustIdentity(t, "19/00/010203:1")

	for i, want := range []uint8{0, 1, 2, 3, 4, 0, 1} {
		data, err := e.Encode(id, CommandStop, Params{})
		if err != nil {
			t.Fatalf("Encode() #%d error = %v", i, err)
		}
		if data[3] != want {
			t.Errorf("Encode() #%d seqnbr = %d, want %d", i, data[3], want)
		}
	}
}

func TestCommandEncoder_Lighting6CommandSequence(t *testing.T) {
	e := NewCommandEncoder()
	id := mustIdentity(t, "15/00/f09a:B3")

	for i, want := range []uint8{0, 1, 2, 3, 4, 0} {
		data, err := e.Encode(id, CommandOn, Params{})
		if err != nil {
			t.Fatalf("Encode() #%d error = %v", i, err)
		}
		if data[3] != 0 {
			t.Errorf("Encode() #%d seqnbr = %d, want 0", i, data[3])
		}
		if data[9] != want {
			t.Errorf("Encode() #%d cmndseqnbr = %d, want %d", i, data[9], want)
		}
	}
}

func TestCommandEncoder_CountersPerDevice(t *testing.T) {
	e := NewCommandEncoder()
	a := mustIdentity(t, "1a/00/010203:1")
	b := mustIdentity(t, "1a/00/010203:2")

	e.Encode(a, CommandStop, Params{})
	e.Encode(a, CommandStop, Params{})
	data, err := e.Encode(b, CommandStop, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if data[3] != 0 {
		t.Errorf("second device seqnbr = %d, want 0", data[3])
	}

	e.Reset(a)
	data, _ = e.Encode(a, CommandStop, Params{})
	if data[3] != 0 {
		t.Errorf("seqnbr after Reset = %d, want 0", data[3])
	}
}

func TestCommandEncoder_ErrorDoesNotAdvance(t *testing.T) {
	e := NewCommandEncoder()
	id := mustIdentity(t, "31/00/123456:1")

	if _, err := e.Encode(id, CommandPercent, Params{Percent: 150}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("Encode(percent 150) error = %v, want ErrInvalidCommand", err)
	}
	data, err := e.Encode(id, CommandStop, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if data[3] != 0 {
		t.Errorf("seqnbr after failed encode = %d, want 0", data[3])
	}
}

func TestCommandEncoder_Concurrent(t *testing.T) {
	e := NewCommandEncoder()
	id := mustIdentity(t, "19/00/010203:1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Encode(id, CommandOpen, Params{}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	data, _ := e.Encode(id, CommandOpen, Params{})
	if data[3] != 0 {
		t.Errorf("seqnbr after 50 encodes = %d, want 0", data[3])
	}
}

// ============================================================
// Validation
// ============================================================

func TestCommandEncoder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		cmd    Command
		params Params
		want   error
	}{
		{"dim level above range", "11/00/1234567:1", CommandDim, Params{Level: 101}, ErrInvalidCommand},
		{"dim level below range", "14/00/f09ac7:2", CommandDim, Params{Level: -1}, ErrInvalidCommand},
		{"dim on lighting1", "10/00/E5", CommandDim, Params{Level: 50}, ErrInvalidCommand},
		{"dim on lighting4", "13/00/010554", CommandDim, Params{Level: 50}, ErrInvalidCommand},
		{"dim on lighting6", "15/00/f09a:B3", CommandDim, Params{Level: 50}, ErrInvalidCommand},
		{"dim on funkbus", "1e/00/1234:4102", CommandDim, Params{Level: 50}, ErrInvalidCommand},
		{"dim on subtype without levels", "14/01/f09ac7:2", CommandDim, Params{Level: 50}, ErrInvalidCommand},
		{"relay on non relay subtype", "14/01/f09ac7:2", CommandOpen, Params{}, ErrInvalidCommand},
		{"open on lighting2", "11/00/1234567:1", CommandOpen, Params{}, ErrInvalidCommand},
		{"on for rollertrol", "19/00/010203:1", CommandOn, Params{}, ErrInvalidCommand},
		{"funkbus duration", "1e/00/1234:4102", CommandMasterDim, Params{Duration: 45}, ErrInvalidCommand},
		{"ddxxxx angle", "31/00/123456:1", CommandAngle, Params{Angle: 181}, ErrInvalidCommand},
		{"chime sound range", "16/00/12:34", CommandSound, Params{Sound: 256}, ErrInvalidCommand},
		{"sensor family", "50/02/12:34", CommandOn, Params{}, ErrUnsupportedPacketType},
		{"bad identity", "11/00/xyz:1", CommandOn, Params{}, ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewCommandEncoder()
			data, err := e.Encode(mustIdentity(t, tt.id), tt.cmd, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("Encode() error = %v, want %v", err, tt.want)
			}
			if data != nil {
				t.Errorf("Encode() = % X, want nil", data)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	for _, name := range CommandNames() {
		c, err := ParseCommand(name)
		if err != nil {
			t.Errorf("ParseCommand(%q) error = %v", name, err)
			continue
		}
		if c.String() != name {
			t.Errorf("ParseCommand(%q).String() = %q", name, c.String())
		}
	}
	if _, err := ParseCommand("explode"); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("ParseCommand(unknown) error = %v, want ErrInvalidCommand", err)
	}
}
