// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

// frame parses space separated hex bytes
func frame(t *testing.T, s string) []byte {
	t.Helper()
	var out []byte
	for _, f := range strings.Fields(s) {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			t.Fatalf("bad hex byte %q: %v", f, err)
		}
		out = append(out, byte(v))
	}
	return out
}

func mustParse(t *testing.T, s string) Packet {
	t.Helper()
	p, err := ParsePacket(frame(t, s))
	if err != nil {
		t.Fatalf("ParsePacket(%s) error = %v", s, err)
	}
	return p
}

func checkValue(t *testing.T, p Packet, f Field, want interface{}) {
	t.Helper()
	got, ok := p.Value(f)
	if !ok {
		t.Errorf("Value(%v) missing, want %v", f, want)
		return
	}
	if got != want {
		t.Errorf("Value(%v) = %v (%T), want %v (%T)", f, got, got, want, want)
	}
}

func checkNoField(t *testing.T, p Packet, f Field) {
	t.Helper()
	if p.HasField(f) {
		t.Errorf("HasField(%v) = true, want false", f)
	}
	if v, ok := p.Value(f); ok {
		t.Errorf("Value(%v) = %v, want absent", f, v)
	}
}

// ============================================================
// Framing
// ============================================================

func TestParsePacket_Framing(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrFraming},
		{"single byte", []byte{0x07}, ErrFraming},
		{"zero length byte", []byte{0x00, 0x10}, ErrFraming},
		{"short frame", []byte{0x07, 0x10, 0x00, 0x2A, 0x45, 0x05, 0x01}, ErrFraming},
		{"long frame", []byte{0x07, 0x10, 0x00, 0x2A, 0x45, 0x05, 0x01, 0x70, 0x00}, ErrFraming},
		{"unknown type", []byte{0x03, 0x99, 0x00, 0x00}, ErrUnknownPacketType},
		{"truncated body", []byte{0x04, 0x10, 0x00, 0x00, 0x45}, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePacket(tt.data)
			if p != nil {
				t.Errorf("ParsePacket() packet = %v, want nil", p)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParsePacket() error = %v, want %v", err, tt.want)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("ParsePacket() error %T is not a *DecodeError", err)
			}
			if !bytes.Equal(de.Frame, tt.data) {
				t.Errorf("DecodeError.Frame = % x, want % x", de.Frame, tt.data)
			}
		})
	}
}

func TestParsePacket_ShortFrameRejected(t *testing.T) {
	_, err := ParsePacket([]byte{0x07, 0x10, 0x00})
	if !errors.Is(err, ErrFraming) {
		t.Errorf("ParsePacket() error = %v, want ErrFraming", err)
	}
}

func TestParsePacket_DoesNotRetainInput(t *testing.T) {
	data := frame(t, "07 10 00 2A 45 05 01 70")
	p, err := ParsePacket(data)
	if err != nil {
		t.Fatal(err)
	}
	data[6] = 0x00
	if got, _ := p.Value(FieldCommand); got != "On" {
		t.Errorf("Command after input mutation = %v, want On", got)
	}
}

// ============================================================
// Decoding Scenarios
// ============================================================

func TestParsePacket_Lighting1(t *testing.T) {
	p := mustParse(t, "07 10 00 2A 45 05 01 70")

	l1, ok := p.(*Lighting1)
	if !ok {
		t.Fatalf("packet type = %T, want *Lighting1", p)
	}
	if l1.Type() != TypeLighting1 {
		t.Errorf("Type() = %v, want Lighting1", l1.Type())
	}
	if l1.SeqNbr() != 0x2A {
		t.Errorf("SeqNbr() = %d, want 42", l1.SeqNbr())
	}
	if got := l1.IDString(); got != "E5" {
		t.Errorf("IDString() = %q, want E5", got)
	}
	if got := l1.TypeString(); got != "X10 lighting" {
		t.Errorf("TypeString() = %q, want X10 lighting", got)
	}
	checkValue(t, p, FieldCommand, "On")
	checkValue(t, p, FieldRSSI, 7)
	checkNoField(t, p, FieldBattery)

	ev, ok := NewEvent(p).(*ControlEvent)
	if !ok {
		t.Fatalf("NewEvent() = %T, want *ControlEvent", NewEvent(p))
	}
	want := Values{"Command": "On", "Rssi numeric": 7}
	if ev.Values.String() != want.String() {
		t.Errorf("Values = %v, want %v", ev.Values, want)
	}
	if ev.KnownDimmable || ev.KnownRollerShutter {
		t.Errorf("Known flags = %v/%v, want false/false", ev.KnownDimmable, ev.KnownRollerShutter)
	}
}

func TestParsePacket_RainPCR800(t *testing.T) {
	p := mustParse(t, "0B 55 02 03 12 34 02 50 01 23 45 57")

	if got := p.TypeString(); got != "PCR800" {
		t.Errorf("TypeString() = %q, want PCR800", got)
	}
	if got := p.IDString(); got != "12:34" {
		t.Errorf("IDString() = %q, want 12:34", got)
	}
	checkValue(t, p, FieldRainRate, 5.92)
	checkValue(t, p, FieldRainTotal, 7456.5)
	checkValue(t, p, FieldBattery, 7)
	checkValue(t, p, FieldRSSI, 5)

	if _, ok := NewEvent(p).(*SensorEvent); !ok {
		t.Errorf("NewEvent() = %T, want *SensorEvent", NewEvent(p))
	}
}

func TestParsePacket_RainSubtypeFields(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		rate     interface{}
		total    interface{}
		hasRate  bool
		hasTotal bool
	}{
		{"RGR126 raw rate", "0B 55 01 00 12 34 00 10 00 00 64 57", 16.0, 10.0, true, true},
		{"TFA no rate", "0B 55 03 00 12 34 00 10 00 00 64 57", nil, 10.0, false, true},
		{"Davis low byte", "0B 55 08 00 12 34 00 00 00 01 0A 57", nil, 2.0, false, true},
		{"unknown subtype", "0B 55 0F 00 12 34 00 10 00 00 64 57", nil, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.data)
			if tt.hasRate {
				checkValue(t, p, FieldRainRate, tt.rate)
			} else {
				checkNoField(t, p, FieldRainRate)
			}
			if tt.hasTotal {
				checkValue(t, p, FieldRainTotal, tt.total)
			} else {
				checkNoField(t, p, FieldRainTotal)
			}
		})
	}
}

func TestParsePacket_WindAlecto(t *testing.T) {
	p := mustParse(t, "10 56 07 05 2c 01 00 87 00 04 00 08 68 74 20 52 69")

	if got := p.TypeString(); got != "Alecto WS4500" {
		t.Errorf("TypeString() = %q, want Alecto WS4500", got)
	}
	if got := p.IDString(); got != "2c:01" {
		t.Errorf("IDString() = %q, want 2c:01", got)
	}
	checkValue(t, p, FieldWindDirection, 135)
	checkValue(t, p, FieldWindAverageSpeed, 0.4)
	checkValue(t, p, FieldWindGust, 0.8)
	checkNoField(t, p, FieldTemperature)
	checkNoField(t, p, FieldChill)
	checkValue(t, p, FieldBattery, 9)
	checkValue(t, p, FieldRSSI, 6)
}

func TestParsePacket_WindVariants(t *testing.T) {
	t.Run("TFA reports temperature and chill", func(t *testing.T) {
		p := mustParse(t, "10 56 04 00 12 34 00 5A 00 0A 00 14 80 32 00 64 59")
		checkValue(t, p, FieldTemperature, -5.0)
		checkValue(t, p, FieldChill, 10.0)
	})
	t.Run("UPM has no average", func(t *testing.T) {
		p := mustParse(t, "10 56 05 00 12 34 00 5A 00 0A 00 14 00 00 00 00 59")
		checkNoField(t, p, FieldWindAverageSpeed)
		checkValue(t, p, FieldWindGust, 2.0)
	})
	t.Run("STR918 raw battery", func(t *testing.T) {
		p := mustParse(t, "10 56 03 00 12 34 00 5A 00 0A 00 14 00 00 00 00 59")
		checkValue(t, p, FieldBattery, 0x59)
		checkNoField(t, p, FieldRSSI)
	})
}

func TestParsePacket_Temperature(t *testing.T) {
	tests := []struct {
		name string
		data string
		want float64
	}{
		{"positive", "08 50 02 00 12 34 00 D7 70", 21.5},
		{"negative sign magnitude", "08 50 02 00 12 34 80 19 70", -2.5},
		{"negative zero", "08 50 02 00 12 34 80 00 70", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.data)
			checkValue(t, p, FieldTemperature, tt.want)
		})
	}
}

func TestParsePacket_TempHumidBaro(t *testing.T) {
	p := mustParse(t, "0D 54 01 00 12 34 00 C8 32 01 03 F2 01 79")

	checkValue(t, p, FieldTemperature, 20.0)
	checkValue(t, p, FieldHumidity, 50)
	checkValue(t, p, FieldHumidityStatus, "comfort")
	checkValue(t, p, FieldHumidityStatusNumeric, 1)
	checkValue(t, p, FieldBarometer, 1010)
	checkValue(t, p, FieldForecast, "sunny")
	checkValue(t, p, FieldForecastNumeric, 1)
	checkValue(t, p, FieldBattery, 9)
	checkValue(t, p, FieldRSSI, 7)
}

func TestParsePacket_UnknownSubtype(t *testing.T) {
	p := mustParse(t, "07 10 7F 00 45 05 01 70")
	if got, want := p.TypeString(), "Unknown type (0x10/0x7f)"; got != want {
		t.Errorf("TypeString() = %q, want %q", got, want)
	}
	checkValue(t, p, FieldCommand, "On")
}

func TestParsePacket_UnknownCommand(t *testing.T) {
	p := mustParse(t, "07 10 00 00 45 05 42 70")
	checkValue(t, p, FieldCommand, "Unknown command (0x42)")
}

func TestParsePacket_Lighting2DimLevel(t *testing.T) {
	p := mustParse(t, "0B 11 00 00 01 23 45 67 01 02 07 60")
	checkValue(t, p, FieldCommand, "Set level")
	checkValue(t, p, FieldDimLevel, 50)

	ev := NewEvent(p).(*ControlEvent)
	if !ev.KnownDimmable {
		t.Errorf("KnownDimmable = false, want true")
	}
	if got := ev.Device.ID; got != "1234567:1" {
		t.Errorf("Device.ID = %q, want 1234567:1", got)
	}
}

func TestParsePacket_Lighting5Relay(t *testing.T) {
	p := mustParse(t, "0A 14 00 00 F0 9A C7 02 0F 00 50")
	checkValue(t, p, FieldCommand, "Open (inline relay)")

	ev := NewEvent(p).(*ControlEvent)
	if !ev.KnownRollerShutter {
		t.Errorf("KnownRollerShutter = false, want true")
	}
}

func TestParsePacket_RfyLengths(t *testing.T) {
	t.Run("short frame without command", func(t *testing.T) {
		p := mustParse(t, "07 1A 00 00 01 02 03 01")
		checkNoField(t, p, FieldCommand)
		checkNoField(t, p, FieldRSSI)
		if got := p.IDString(); got != "010203:1" {
			t.Errorf("IDString() = %q, want 010203:1", got)
		}
	})
	t.Run("full frame", func(t *testing.T) {
		p := mustParse(t, "0C 1A 00 00 01 02 03 01 03 00 00 00 60")
		checkValue(t, p, FieldCommand, "Down")
		checkValue(t, p, FieldRSSI, 6)
	})
}

func TestParsePacket_Status(t *testing.T) {
	p := mustParse(t, "0D 01 00 01 02 53 45 00 0C 2F 01 01 00 00")
	s, ok := p.(*Status)
	if !ok {
		t.Fatalf("packet type = %T, want *Status", p)
	}
	if got := s.TypeString(); got != "433.92MHz" {
		t.Errorf("TypeString() = %q, want 433.92MHz", got)
	}

	ev, ok := NewEvent(p).(*StatusEvent)
	if !ok {
		t.Fatalf("NewEvent() = %T, want *StatusEvent", NewEvent(p))
	}
	want := []string{"ac", "arc", "hideki", "homeeasy", "keeloq", "lacrosse", "oregon", "x10"}
	if strings.Join(ev.Devices, " ") != strings.Join(want, " ") {
		t.Errorf("Devices = %v, want %v", ev.Devices, want)
	}
	if ev.Firmware != 0x45 {
		t.Errorf("Firmware = %d, want 69", ev.Firmware)
	}
}

func TestParsePacket_Undecoded(t *testing.T) {
	p := mustParse(t, "06 03 09 00 DE AD BE")
	if got := p.IDString(); got != "Undecoded" {
		t.Errorf("IDString() = %q, want Undecoded", got)
	}
	if got := p.TypeString(); got != "oregon3" {
		t.Errorf("TypeString() = %q, want oregon3", got)
	}
	checkValue(t, p, FieldPayload, "deadbe")
}

// ============================================================
// Invariants
// ============================================================

// samples holds one well formed frame per registered family
var samples = map[PacketType]string{
	TypeStatus:         "0D 01 00 01 02 53 45 00 0C 2F 01 01 00 00",
	TypeUndecoded:      "06 03 09 00 DE AD BE",
	TypeLighting1:      "07 10 00 2A 45 05 01 70",
	TypeLighting2:      "0B 11 00 00 01 23 45 67 01 02 07 60",
	TypeLighting3:      "08 12 00 00 01 03 00 10 79",
	TypeLighting4:      "09 13 00 00 01 05 55 01 5E 70",
	TypeLighting5:      "0A 14 00 00 F0 9A C7 02 10 0F 50",
	TypeLighting6:      "0B 15 00 00 F0 9A 42 03 01 02 00 70",
	TypeChime:          "07 16 00 00 12 34 05 70",
	TypeRollerTrol:     "09 19 00 00 01 02 03 01 00 60",
	TypeRfy:            "0C 1A 00 00 01 02 03 01 03 00 00 00 60",
	TypeFunkbus:        "0B 1E 00 00 12 34 41 02 01 05 00 09",
	TypeSecurity1:      "08 20 00 00 12 34 56 04 59",
	TypeDDxxxx:         "0C 31 00 00 00 12 34 56 01 04 32 00 79",
	TypeBbq:            "0A 4E 01 00 12 34 00 64 00 C8 59",
	TypeTempRain:       "0A 4F 01 00 12 34 00 D7 00 64 59",
	TypeTemp:           "08 50 02 00 12 34 00 D7 70",
	TypeHumid:          "08 51 01 00 12 34 32 01 79",
	TypeTempHumid:      "0A 52 01 00 12 34 00 C8 32 01 79",
	TypeBaro:           "09 53 01 00 12 34 03 F2 01 79",
	TypeTempHumidBaro:  "0D 54 01 00 12 34 00 C8 32 01 03 F2 01 79",
	TypeRain:           "0B 55 02 03 12 34 02 50 01 23 45 57",
	TypeWind:           "10 56 07 05 2c 01 00 87 00 04 00 08 68 74 20 52 69",
	TypeUV:             "09 57 01 00 12 34 32 00 00 79",
	TypeEnergy1:        "0D 59 01 00 12 34 02 00 10 00 20 00 30 79",
	TypeEnergy:         "11 5A 01 00 12 34 02 00 00 01 F4 00 00 00 00 DA 7E 79",
	TypeEnergy4:        "13 5B 01 00 12 34 02 00 10 00 20 00 30 00 00 00 00 DA 7E 79",
	TypeEnergy5:        "0F 5C 02 00 12 34 E6 00 64 00 0A 00 05 62 32 70",
	TypeCartelectronic: "15 60 02 00 00 00 12 34 00 00 01 00 00 00 02 00 00 00 00 01 00 79",
	TypeRfxSensor:      "07 70 00 00 05 08 34 70",
	TypeRfxMeter:       "0A 71 00 00 05 00 00 01 02 03 70",
}

func TestParsePacket_AllFamiliesRegistered(t *testing.T) {
	for pt := range decoders {
		if _, ok := samples[pt]; !ok {
			t.Errorf("no sample frame for %v", pt)
		}
	}
}

func TestParsePacket_FieldPresence(t *testing.T) {
	for pt, s := range samples {
		t.Run(pt.String(), func(t *testing.T) {
			p := mustParse(t, s)
			if p.Type() != pt {
				t.Fatalf("Type() = %v, want %v", p.Type(), pt)
			}
			for f := Field(0); f < fieldCount; f++ {
				_, ok := p.Value(f)
				if ok != p.HasField(f) {
					t.Errorf("Value(%v) present = %v, HasField = %v", f, ok, p.HasField(f))
				}
			}
		})
	}
}

func TestParsePacket_BytesRoundTrip(t *testing.T) {
	for pt, s := range samples {
		t.Run(pt.String(), func(t *testing.T) {
			data := frame(t, s)
			p := mustParse(t, s)
			if got := p.Bytes(); !bytes.Equal(got, data) {
				t.Errorf("Bytes() = % x, want % x", got, data)
			}
		})
	}
}

func TestParsePacket_Category(t *testing.T) {
	for pt, s := range samples {
		p := mustParse(t, s)
		want, _ := CategoryOf(pt)
		if p.Category() != want {
			t.Errorf("%v Category() = %v, want %v", pt, p.Category(), want)
		}
		ev := NewEvent(p)
		var kind EventKind
		switch want {
		case CategoryStatus:
			kind = EventStatus
		case CategorySensor:
			kind = EventSensor
		default:
			kind = EventControl
		}
		if ev.Kind() != kind {
			t.Errorf("%v event kind = %v, want %v", pt, ev.Kind(), kind)
		}
	}
}

// ============================================================
// Device Identity
// ============================================================

func TestDeviceIdentity_Equality(t *testing.T) {
	a := IdentityOf(mustParse(t, "07 10 00 2A 45 05 01 70"))
	b := IdentityOf(mustParse(t, "07 10 00 2B 45 05 00 50"))
	c := IdentityOf(mustParse(t, "07 10 01 2B 45 05 00 50"))

	if a != b {
		t.Errorf("identities %v and %v differ, want equal", a, b)
	}
	if a == c {
		t.Errorf("identities %v and %v equal, want different subtype", a, c)
	}

	seen := map[DeviceIdentity]int{a: 1}
	if seen[b] != 1 {
		t.Errorf("identity %v not usable as map key", b)
	}
}

func TestDeviceIdentity_StringRoundTrip(t *testing.T) {
	id := DeviceIdentity{PacketType: TypeLighting2, Subtype: 0x00, ID: "1234567:1"}
	if got := id.String(); got != "11/00/1234567:1" {
		t.Errorf("String() = %q, want 11/00/1234567:1", got)
	}
	parsed, err := ParseDeviceIdentity(id.String())
	if err != nil {
		t.Fatalf("ParseDeviceIdentity() error = %v", err)
	}
	if parsed != id {
		t.Errorf("ParseDeviceIdentity() = %v, want %v", parsed, id)
	}
}

func TestParseDeviceIdentity_Invalid(t *testing.T) {
	for _, s := range []string{"", "11", "11/00", "11/00/", "zz/00/E5", "11/xx/E5"} {
		if _, err := ParseDeviceIdentity(s); !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("ParseDeviceIdentity(%q) error = %v, want ErrInvalidIdentity", s, err)
		}
	}
}

func TestPacketFromIdentity_RoundTrip(t *testing.T) {
	for pt, s := range samples {
		if _, ok := identityParsers[pt]; !ok {
			continue
		}
		t.Run(pt.String(), func(t *testing.T) {
			id := IdentityOf(mustParse(t, s))
			p, err := PacketFromIdentity(id)
			if err != nil {
				t.Fatalf("PacketFromIdentity(%v) error = %v", id, err)
			}
			if got := IdentityOf(p); got != id {
				t.Errorf("IdentityOf(PacketFromIdentity(%v)) = %v", id, got)
			}
		})
	}
}

func TestPacketFromIdentity_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   DeviceIdentity
		want error
	}{
		{"sensor family", DeviceIdentity{TypeTemp, 0x02, "12:34"}, ErrUnsupportedPacketType},
		{"bad house code", DeviceIdentity{TypeLighting1, 0x00, "Z5"}, ErrInvalidIdentity},
		{"missing separator", DeviceIdentity{TypeLighting2, 0x00, "1234567"}, ErrInvalidIdentity},
		{"non canonical id", DeviceIdentity{TypeLighting2, 0x00, "123:1"}, ErrInvalidIdentity},
		{"unit out of range", DeviceIdentity{TypeLighting5, 0x00, "f09ac7:300"}, ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PacketFromIdentity(tt.id); !errors.Is(err, tt.want) {
				t.Errorf("PacketFromIdentity() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubtypeByName(t *testing.T) {
	tests := []struct {
		pt   PacketType
		name string
		want uint8
	}{
		{TypeLighting1, "ARC", 0x01},
		{TypeLighting1, "NEXA code wheel", 0x01},
		{TypeLighting2, "HomeEasy UK", 0x00},
		{TypeLighting5, "IT", 0x0f},
		{TypeRain, "PCR800", 0x02},
	}
	for _, tt := range tests {
		got, err := SubtypeByName(tt.pt, tt.name)
		if err != nil {
			t.Errorf("SubtypeByName(%v, %q) error = %v", tt.pt, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SubtypeByName(%v, %q) = 0x%02x, want 0x%02x", tt.pt, tt.name, got, tt.want)
		}
	}

	if _, err := SubtypeByName(TypeLighting1, "nope"); !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("SubtypeByName(unknown) error = %v, want ErrInvalidIdentity", err)
	}
}
