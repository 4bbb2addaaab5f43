// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"strconv"
	"strings"
)

// Packet is a decoded frame. There is one implementation per packet
// family; use a type switch to reach family specific fields.
type Packet interface {
	// Length returns the length byte (frame size minus one)
	Length() uint8
	Type() PacketType
	Subtype() uint8
	SeqNbr() uint8
	// TypeString returns the subtype's model name, or an Unknown label
	TypeString() string
	// IDString returns the canonical device id within the family
	IDString() string
	Category() Category
	// HasField reports whether the packet carries f for its subtype
	HasField(f Field) bool
	Fields() FieldSet
	// Value returns the decoded value of f, if the packet carries it
	Value(f Field) (interface{}, bool)
	// Bytes encodes the packet into a frame
	Bytes() []byte
}

// header holds the fields every frame starts with. It is embedded in
// every packet family.
type header struct {
	length     uint8
	packetType PacketType
	subtype    uint8
	seqNbr     uint8
	signal     byte // trailing RSSI/battery byte, zero on transmit
	typeString string
	fields     FieldSet
}

func newHeader(pt PacketType, subtype, seqNbr, length uint8) header {
	return header{
		length:     length,
		packetType: pt,
		subtype:    subtype,
		seqNbr:     seqNbr,
		fields:     layouts[pt].fields,
	}
}

func readHeader(data []byte) (header, error) {
	if err := need(data, headerSize); err != nil {
		return header{}, err
	}
	return newHeader(PacketType(data[1]), data[2], data[3], data[0]), nil
}

// Length returns the frame's length byte
func (h *header) Length() uint8 {
	return h.length
}

// Type returns the packet type
func (h *header) Type() PacketType {
	return h.packetType
}

// Subtype returns the family specific subtype
func (h *header) Subtype() uint8 {
	return h.subtype
}

// SeqNbr returns the frame sequence number
func (h *header) SeqNbr() uint8 {
	return h.seqNbr
}

// TypeString returns the subtype name
func (h *header) TypeString() string {
	return h.typeString
}

// Category returns the static event category of the packet family
func (h *header) Category() Category {
	return layouts[h.packetType].category
}

// HasField reports whether the packet carries f
func (h *header) HasField(f Field) bool {
	return h.fields.Has(f)
}

// Fields returns the set of fields the packet carries
func (h *header) Fields() FieldSet {
	return h.fields
}

// RSSI returns the signal strength nibble
func (h *header) RSSI() int {
	rssi, _ := splitNibbles(h.signal)
	return rssi
}

// Battery returns the battery level nibble
func (h *header) Battery() int {
	_, battery := splitNibbles(h.signal)
	return battery
}

// signalValue answers Value for the fields stored in the trailing byte
func (h *header) signalValue(f Field) (interface{}, bool) {
	if !h.fields.Has(f) {
		return nil, false
	}
	switch f {
	case FieldRSSI:
		return h.RSSI(), true
	case FieldBattery:
		return h.Battery(), true
	}
	return nil, false
}

func (h *header) put(frame []byte) []byte {
	frame[0] = byte(len(frame) - 1)
	frame[1] = byte(h.packetType)
	frame[2] = h.subtype
	frame[3] = h.seqNbr
	return frame
}

// DeviceIdentity identifies a physical device across frames. Two
// identities are equal when all three fields match.
type DeviceIdentity struct {
	PacketType PacketType
	Subtype    uint8
	ID         string
}

// IdentityOf returns the identity of the device that sent p
func IdentityOf(p Packet) DeviceIdentity {
	return DeviceIdentity{PacketType: p.Type(), Subtype: p.Subtype(), ID: p.IDString()}
}

// String formats the identity as "pt/subtype/id", e.g. "11/00/1234567:1"
func (d DeviceIdentity) String() string {
	return fmt.Sprintf("%02x/%02x/%s", uint8(d.PacketType), d.Subtype, d.ID)
}

// ParseDeviceIdentity parses the String form of an identity
func ParseDeviceIdentity(s string) (DeviceIdentity, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return DeviceIdentity{}, fmt.Errorf("%w: %q is not pt/subtype/id", ErrInvalidIdentity, s)
	}
	pt, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("%w: packet type %q", ErrInvalidIdentity, parts[0])
	}
	sub, err := strconv.ParseUint(parts[1], 16, 8)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("%w: subtype %q", ErrInvalidIdentity, parts[1])
	}
	return DeviceIdentity{PacketType: PacketType(pt), Subtype: uint8(sub), ID: parts[2]}, nil
}
