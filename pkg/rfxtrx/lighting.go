// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"unicode/utf8"
)

//////////////////////////////////////////////////////////////
// Lighting1: house code + unit code switches (X10, ARC, ...)
//////////////////////////////////////////////////////////////

var lighting1Types = map[uint8]string{
	0x00: "X10 lighting",
	0x01: "ARC",
	0x02: "ELRO AB400D",
	0x03: "Waveman",
	0x04: "Chacon EMW200",
	0x05: "IMPULS",
	0x06: "RisingSun",
	0x07: "Philips SBC",
	0x08: "Energenie",
	0x09: "Energenie5",
	0x0A: "GDR2",
	0x0B: "HQ",
}

var lighting1Aliases = map[string]uint8{
	"KlikAanKlikUit code wheel": 0x01,
	"NEXA code wheel":           0x01,
	"CHACON code wheel":         0x01,
	"HomeEasy code wheel":       0x01,
	"Proove":                    0x01,
	"DomiaLite":                 0x01,
	"InterTechno":               0x01,
	"AB600":                     0x01,
}

var lighting1Commands = map[uint8]string{
	0x00: "Off",
	0x01: "On",
	0x02: "Dim",
	0x03: "Bright",
	0x05: "All/group Off",
	0x06: "All/group On",
	0x07: "Chime",
	0xFF: "Illegal command",
}

// Lighting1 house codes run from 'A' (0x41) to 'P' (0x50)
const (
	houseCodeFirst = 0x41
	houseCodeLast  = 0x50
)

// Lighting1 is a house code / unit code switch frame
type Lighting1 struct {
	header
	HouseCode uint8
	UnitCode  uint8
	Command   uint8
}

// NewLighting1 builds a transmit frame
func NewLighting1(subtype, seqNbr, houseCode, unitCode, command uint8) *Lighting1 {
	p := &Lighting1{header: newHeader(TypeLighting1, subtype, seqNbr, 7),
		HouseCode: houseCode, UnitCode: unitCode, Command: command}
	p.setStrings()
	return p
}

func decodeLighting1(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 8); err != nil {
		return nil, err
	}
	p := &Lighting1{header: h, HouseCode: data[4], UnitCode: data[5], Command: data[6]}
	p.signal = data[7]
	p.setStrings()
	return p, nil
}

func parseLighting1ID(subtype uint8, id string) (Packet, error) {
	if len(id) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}
	house := id[0]
	if house < houseCodeFirst || house > houseCodeLast {
		return nil, fmt.Errorf("%w: house code %q", ErrInvalidIdentity, house)
	}
	unit, err := parseDecID(id[1:])
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting1(subtype, 0, house, unit, 0), id)
}

func (p *Lighting1) setStrings() {
	p.typeString = typeString(TypeLighting1, lighting1Types, p.subtype)
}

// IDString formats the house letter followed by the unit, e.g. "E5"
func (p *Lighting1) IDString() string {
	return houseCodeString(p.HouseCode) + fmt.Sprint(p.UnitCode)
}

func houseCodeString(code uint8) string {
	if code >= houseCodeFirst && code <= houseCodeLast {
		return string(rune(code))
	}
	return fmt.Sprintf("0x%02x", code)
}

// CommandString returns the command name
func (p *Lighting1) CommandString() string {
	return commandString(lighting1Commands, p.Command)
}

// Value implements Packet
func (p *Lighting1) Value(f Field) (interface{}, bool) {
	if f == FieldCommand && p.HasField(f) {
		return p.CommandString(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting1) Bytes() []byte {
	frame := p.put(make([]byte, 8))
	frame[4] = p.HouseCode
	frame[5] = p.UnitCode
	frame[6] = p.Command
	frame[7] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Lighting2: 26/28-bit id + unit dimmers (AC, HomeEasy EU, ...)
//////////////////////////////////////////////////////////////

var lighting2Types = map[uint8]string{
	0x00: "AC",
	0x01: "HomeEasy EU",
	0x02: "ANSLUT",
	0x03: "Kambrook",
}

var lighting2Aliases = map[string]uint8{
	"KlikAanKlikUit automatic": 0x00,
	"NEXA automatic":           0x00,
	"CHACON autometic":         0x00,
	"HomeEasy UK":              0x00,
}

var lighting2Commands = map[uint8]string{
	0x00: "Off",
	0x01: "On",
	0x02: "Set level",
	0x03: "Group off",
	0x04: "Group on",
	0x05: "Set group level",
}

// Lighting2 is an id + unit dimmer frame with a 4-bit level
type Lighting2 struct {
	header
	ID       uint32
	UnitCode uint8
	Command  uint8
	Level    uint8
}

// NewLighting2 builds a transmit frame
func NewLighting2(subtype, seqNbr uint8, id uint32, unitCode, command, level uint8) *Lighting2 {
	p := &Lighting2{header: newHeader(TypeLighting2, subtype, seqNbr, 0x0b),
		ID: id, UnitCode: unitCode, Command: command, Level: level}
	p.setStrings()
	return p
}

func decodeLighting2(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 12); err != nil {
		return nil, err
	}
	p := &Lighting2{header: h, ID: uint32(beUint(data[4:8])), UnitCode: data[8],
		Command: data[9], Level: data[10]}
	p.signal = data[11]
	p.setStrings()
	return p, nil
}

func parseLighting2ID(subtype uint8, id string) (Packet, error) {
	left, right, err := splitID(id)
	if err != nil {
		return nil, err
	}
	v, err := parseHexID(left, 32)
	if err != nil {
		return nil, err
	}
	unit, err := parseDecID(right)
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting2(subtype, 0, uint32(v), unit, 0, 0), id)
}

func (p *Lighting2) setStrings() {
	p.typeString = typeString(TypeLighting2, lighting2Types, p.subtype)
	p.fields = layouts[TypeLighting2].fields
	if p.Command == 0x02 || p.Command == 0x05 {
		p.fields = p.fields.with(FieldDimLevel)
	}
}

// IDString formats "%07x:%d"
func (p *Lighting2) IDString() string {
	return fmt.Sprintf("%07x:%d", p.ID, p.UnitCode)
}

// CommandString returns the command name
func (p *Lighting2) CommandString() string {
	return commandString(lighting2Commands, p.Command)
}

// DimLevel converts the 4-bit level to a 0-100 percentage
func (p *Lighting2) DimLevel() int {
	return (int(p.Level) + 1) * 100 / 16
}

// Value implements Packet
func (p *Lighting2) Value(f Field) (interface{}, bool) {
	if !p.HasField(f) {
		return nil, false
	}
	switch f {
	case FieldCommand:
		return p.CommandString(), true
	case FieldDimLevel:
		return p.DimLevel(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting2) Bytes() []byte {
	frame := p.put(make([]byte, 12))
	putBEUint(frame[4:8], uint64(p.ID))
	frame[8] = p.UnitCode
	frame[9] = p.Command
	frame[10] = p.Level
	frame[11] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Lighting3: system + channel mask (Ikea Koppla)
//////////////////////////////////////////////////////////////

var lighting3Types = map[uint8]string{
	0x00: "Ikea Koppla",
}

var lighting3Commands = map[uint8]string{
	0x00: "Bright",
	0x08: "Dim",
	0x10: "On",
	0x11: "Level 1",
	0x12: "Level 2",
	0x13: "Level 3",
	0x14: "Level 4",
	0x15: "Level 5",
	0x16: "Level 6",
	0x17: "Level 7",
	0x18: "Level 8",
	0x19: "Level 9",
	0x1a: "Off",
	0x1c: "Program",
}

// Lighting3 is a system + channel frame
type Lighting3 struct {
	header
	System  uint8
	Channel uint16 // channel2<<8 | channel1
	Command uint8
}

// NewLighting3 builds a transmit frame
func NewLighting3(subtype, seqNbr, system uint8, channel uint16, command uint8) *Lighting3 {
	p := &Lighting3{header: newHeader(TypeLighting3, subtype, seqNbr, 0x08),
		System: system, Channel: channel, Command: command}
	p.setStrings()
	return p
}

func decodeLighting3(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 9); err != nil {
		return nil, err
	}
	p := &Lighting3{header: h, System: data[4],
		Channel: uint16(data[6])<<8 | uint16(data[5]), Command: data[7]}
	p.signal = data[8]
	p.setStrings()
	return p, nil
}

func parseLighting3ID(subtype uint8, id string) (Packet, error) {
	left, right, err := splitID(id)
	if err != nil {
		return nil, err
	}
	system, err := parseHexID(left, 8)
	if err != nil {
		return nil, err
	}
	channel, err := parseHexID(right, 16)
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting3(subtype, 0, uint8(system), uint16(channel), 0), id)
}

func (p *Lighting3) setStrings() {
	p.typeString = typeString(TypeLighting3, lighting3Types, p.subtype)
}

// IDString formats "%1x:%03x"
func (p *Lighting3) IDString() string {
	return fmt.Sprintf("%1x:%03x", p.System, p.Channel)
}

// CommandString returns the command name
func (p *Lighting3) CommandString() string {
	return commandString(lighting3Commands, p.Command)
}

// Value implements Packet
func (p *Lighting3) Value(f Field) (interface{}, bool) {
	if f == FieldCommand && p.HasField(f) {
		return p.CommandString(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting3) Bytes() []byte {
	frame := p.put(make([]byte, 9))
	frame[4] = p.System
	frame[5] = byte(p.Channel)
	frame[6] = byte(p.Channel >> 8)
	frame[7] = p.Command
	frame[8] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Lighting4: PT2262 24-bit codes
//////////////////////////////////////////////////////////////

var lighting4Types = map[uint8]string{
	0x00: "PT2262",
}

// Lighting4 command names are looked up by the middle code byte
var lighting4Commands = map[uint8]string{
	0x00: "Off",
	0x01: "On",
	0x02: "Off",
	0x03: "On",
	0x04: "Off",
	0x05: "On",
	0x07: "On",
	0x09: "On",
	0x0c: "On",
}

// Lighting4 is a PT2262 frame; the 24-bit code carries both the device
// id and the command.
type Lighting4 struct {
	header
	Code  uint32 // 24 bits
	Pulse uint16
}

// NewLighting4 builds a transmit frame
func NewLighting4(subtype, seqNbr uint8, code uint32, pulse uint16) *Lighting4 {
	p := &Lighting4{header: newHeader(TypeLighting4, subtype, seqNbr, 0x09),
		Code: code & 0xFFFFFF, Pulse: pulse}
	p.setStrings()
	return p
}

func decodeLighting4(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 10); err != nil {
		return nil, err
	}
	p := &Lighting4{header: h, Code: uint32(beUint(data[4:7])), Pulse: uint16(beUint(data[7:9]))}
	p.signal = data[9]
	p.setStrings()
	return p, nil
}

func parseLighting4ID(subtype uint8, id string) (Packet, error) {
	code, err := parseHexID(id, 24)
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting4(subtype, 0, uint32(code), 0), id)
}

func (p *Lighting4) setStrings() {
	p.typeString = typeString(TypeLighting4, lighting4Types, p.subtype)
}

// IDString formats "%06x"
func (p *Lighting4) IDString() string {
	return fmt.Sprintf("%06x", p.Code)
}

// CommandString returns the command name
func (p *Lighting4) CommandString() string {
	if s, ok := lighting4Commands[uint8(p.Code>>8)]; ok {
		return s
	}
	return fmt.Sprintf("Unknown command (0x%02x)", p.Code)
}

// Value implements Packet
func (p *Lighting4) Value(f Field) (interface{}, bool) {
	if f == FieldCommand && p.HasField(f) {
		return p.CommandString(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting4) Bytes() []byte {
	frame := p.put(make([]byte, 10))
	putBEUint(frame[4:7], uint64(p.Code))
	putBEUint(frame[7:9], uint64(p.Pulse))
	frame[9] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Lighting5: 24-bit id + unit (LightwaveRF, Conrad, Livolo, ...)
//////////////////////////////////////////////////////////////

var lighting5Types = map[uint8]string{
	0x00: "LightwaveRF, Siemens",
	0x01: "EMW100 GAO/Everflourish",
	0x02: "BBSB new types",
	0x03: "MDREMOTE LED dimmer",
	0x04: "Conrad RSL2",
	0x05: "Livolo",
	0x06: "TRC02",
	0x07: "Aoke",
	0x08: "TRC02_2",
	0x09: "Eurodomest",
	0x0A: "Livolo appliance",
	0x0B: "RGB432W",
	0x0C: "MDREMOTE 107",
	0x0D: "Legrand CAD",
	0x0E: "Avantek",
	0x0F: "ProMax/IT",
	0x10: "MDREMOTE 108",
	0x11: "Kangtai",
}

var lighting5Aliases = map[string]uint8{
	"LightwaveRF":  0x00,
	"Siemens":      0x00,
	"EMW100 GAO":   0x01,
	"Everflourish": 0x01,
	"ProMax":       0x0f,
	"IT":           0x0f,
}

// Lighting5 commands that drive inline relays
const (
	lighting5Close    = 0x0d
	lighting5Stop     = 0x0e
	lighting5Open     = 0x0f
	lighting5SetLevel = 0x10
)

var lighting5Commands00 = map[uint8]string{
	0x00:              "Off",
	0x01:              "On",
	0x02:              "Group off",
	0x03:              "Mood1",
	0x04:              "Mood2",
	0x05:              "Mood3",
	0x06:              "Mood4",
	0x07:              "Mood5",
	0x0a:              "Unlock",
	0x0b:              "Lock",
	0x0c:              "All lock",
	lighting5Close:    "Close (inline relay)",
	lighting5Stop:     "Stop (inline relay)",
	lighting5Open:     "Open (inline relay)",
	lighting5SetLevel: "Set level",
}

var lighting5Commands01 = map[uint8]string{
	0x00: "Off",
	0x01: "On",
	0x02: "Learn",
}

var lighting5Commands02040F = map[uint8]string{
	0x00: "Off",
	0x01: "On",
	0x02: "Group off",
	0x03: "Group on",
}

var lighting5Commands03 = map[uint8]string{
	0x00: "Power",
	0x01: "Light",
	0x02: "Bright",
	0x03: "Dim",
	0x04: "100%",
	0x05: "50%",
	0x06: "25%",
	0x07: "Mode+",
	0x08: "Speed-",
	0x09: "Speed+",
	0x0a: "Mode-",
}

var lighting5CommandsXX = map[uint8]string{
	0x00: "Off",
	0x01: "On",
}

// lighting5Command resolves a command through the subtype's vocabulary
func lighting5Command(subtype, cmnd uint8) (string, bool) {
	var s string
	var ok bool
	switch {
	case subtype == 0x00:
		s, ok = lighting5Commands00[cmnd]
	case subtype == 0x01:
		s, ok = lighting5Commands01[cmnd]
	case subtype == 0x02, subtype == 0x04:
		s, ok = lighting5Commands02040F[cmnd]
	case subtype == 0x03:
		s, ok = lighting5Commands03[cmnd]
	}
	if !ok && subtype >= 0x05 {
		s, ok = lighting5CommandsXX[cmnd]
	}
	if !ok && subtype >= 0x0f {
		s, ok = lighting5Commands02040F[cmnd]
	}
	return s, ok
}

// Lighting5 is an id + unit frame with a 5-bit level
type Lighting5 struct {
	header
	ID       uint32 // 24 bits
	UnitCode uint8
	Command  uint8
	Level    uint8
}

// NewLighting5 builds a transmit frame
func NewLighting5(subtype, seqNbr uint8, id uint32, unitCode, command, level uint8) *Lighting5 {
	p := &Lighting5{header: newHeader(TypeLighting5, subtype, seqNbr, 0x0a),
		ID: id & 0xFFFFFF, UnitCode: unitCode, Command: command, Level: level}
	p.setStrings()
	return p
}

func decodeLighting5(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 11); err != nil {
		return nil, err
	}
	p := &Lighting5{header: h, ID: uint32(beUint(data[4:7])), UnitCode: data[7],
		Command: data[8], Level: data[9]}
	p.signal = data[10]
	p.setStrings()
	return p, nil
}

func parseLighting5ID(subtype uint8, id string) (Packet, error) {
	left, right, err := splitID(id)
	if err != nil {
		return nil, err
	}
	v, err := parseHexID(left, 24)
	if err != nil {
		return nil, err
	}
	unit, err := parseDecID(right)
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting5(subtype, 0, uint32(v), unit, 0, 0), id)
}

func (p *Lighting5) setStrings() {
	p.typeString = typeString(TypeLighting5, lighting5Types, p.subtype)
	p.fields = layouts[TypeLighting5].fields
	if p.Command == lighting5SetLevel {
		p.fields = p.fields.with(FieldDimLevel)
	}
}

// IDString formats "%06x:%d"
func (p *Lighting5) IDString() string {
	return fmt.Sprintf("%06x:%d", p.ID, p.UnitCode)
}

// CommandString returns the command name for the frame's subtype
func (p *Lighting5) CommandString() string {
	if s, ok := lighting5Command(p.subtype, p.Command); ok {
		return s
	}
	return unknownCommand(p.Command)
}

// DimLevel converts the 5-bit level to a 0-100 percentage
func (p *Lighting5) DimLevel() int {
	return (int(p.Level) + 1) * 100 / 32
}

// IsRelayCommand reports whether the frame drives an inline relay
func (p *Lighting5) IsRelayCommand() bool {
	return p.Command >= lighting5Close && p.Command <= lighting5Open
}

// Value implements Packet
func (p *Lighting5) Value(f Field) (interface{}, bool) {
	if !p.HasField(f) {
		return nil, false
	}
	switch f {
	case FieldCommand:
		return p.CommandString(), true
	case FieldDimLevel:
		return p.DimLevel(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting5) Bytes() []byte {
	frame := p.put(make([]byte, 11))
	putBEUint(frame[4:7], uint64(p.ID))
	frame[7] = p.UnitCode
	frame[8] = p.Command
	frame[9] = p.Level
	frame[10] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Lighting6: 16-bit id + group letter + unit (Blyss)
//////////////////////////////////////////////////////////////

var lighting6Types = map[uint8]string{
	0x00: "Blyss",
}

var lighting6Commands = map[uint8]string{
	0x00: "On",
	0x01: "Off",
	0x02: "Group on",
	0x03: "Group off",
}

// Lighting6 is an id + group + unit frame with its own command sequence
type Lighting6 struct {
	header
	ID         uint16
	GroupCode  uint8 // ASCII letter
	UnitCode   uint8
	Command    uint8
	CmndSeqNbr uint8
	RFU        uint8
}

// NewLighting6 builds a transmit frame
func NewLighting6(subtype, seqNbr uint8, id uint16, groupCode, unitCode, command, cmndSeqNbr uint8) *Lighting6 {
	p := &Lighting6{header: newHeader(TypeLighting6, subtype, seqNbr, 0x0b),
		ID: id, GroupCode: groupCode, UnitCode: unitCode, Command: command, CmndSeqNbr: cmndSeqNbr}
	p.setStrings()
	return p
}

func decodeLighting6(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 12); err != nil {
		return nil, err
	}
	p := &Lighting6{header: h, ID: uint16(beUint(data[4:6])), GroupCode: data[6],
		UnitCode: data[7], Command: data[8], CmndSeqNbr: data[9], RFU: data[10]}
	p.signal = data[11]
	p.setStrings()
	return p, nil
}

func parseLighting6ID(subtype uint8, id string) (Packet, error) {
	left, right, err := splitID(id)
	if err != nil {
		return nil, err
	}
	v, err := parseHexID(left, 16)
	if err != nil {
		return nil, err
	}
	group, size := utf8.DecodeRuneInString(right)
	if group == utf8.RuneError || group > 0xFF {
		return nil, fmt.Errorf("%w: group code in %q", ErrInvalidIdentity, id)
	}
	unit, err := parseDecID(right[size:])
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewLighting6(subtype, 0, uint16(v), uint8(group), unit, 0, 0), id)
}

func (p *Lighting6) setStrings() {
	p.typeString = typeString(TypeLighting6, lighting6Types, p.subtype)
}

// IDString formats "%04x:%c%d"
func (p *Lighting6) IDString() string {
	return fmt.Sprintf("%04x:%c%d", p.ID, rune(p.GroupCode), p.UnitCode)
}

// CommandString returns the command name
func (p *Lighting6) CommandString() string {
	return commandString(lighting6Commands, p.Command)
}

// Value implements Packet
func (p *Lighting6) Value(f Field) (interface{}, bool) {
	if f == FieldCommand && p.HasField(f) {
		return p.CommandString(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Lighting6) Bytes() []byte {
	frame := p.put(make([]byte, 12))
	putBEUint(frame[4:6], uint64(p.ID))
	frame[6] = p.GroupCode
	frame[7] = p.UnitCode
	frame[8] = p.Command
	frame[9] = p.CmndSeqNbr
	frame[10] = p.RFU
	frame[11] = p.signal
	return frame
}
