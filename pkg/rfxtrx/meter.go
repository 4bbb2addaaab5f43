// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"encoding/hex"
	"fmt"
)

//////////////////////////////////////////////////////////////
// Undecoded: raw receiver dump
//////////////////////////////////////////////////////////////

var undecodedTypes = map[uint8]string{
	0x00: "ac",
	0x01: "arc",
	0x02: "ati",
	0x03: "hideki/upm",
	0x04: "lacrosse/viking",
	0x05: "ad",
	0x06: "mertik",
	0x07: "oregon1",
	0x08: "oregon2",
	0x09: "oregon3",
	0x0A: "proguard",
	0x0B: "visonic",
	0x0C: "nec",
	0x0D: "fs20",
	0x0E: "reserved",
	0x0F: "blinds",
	0x10: "rubicson",
	0x11: "ae",
	0x12: "fineoffset",
	0x13: "rgb",
	0x14: "rts",
	0x15: "selectplus",
	0x16: "homeconfort",
	0x17: "edisio",
	0x18: "honeywell",
	0x19: "funkbus",
	0x1A: "byronsx",
}

// Undecoded carries a payload the receiver could not decode itself. All
// undecoded frames share one device id.
type Undecoded struct {
	header
	Payload []byte
}

func decodeUndecoded(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	p := &Undecoded{header: h, Payload: append([]byte(nil), data[headerSize:]...)}
	p.typeString = typeString(TypeUndecoded, undecodedTypes, p.subtype)
	return p, nil
}

// IDString returns "Undecoded"
func (p *Undecoded) IDString() string {
	return "Undecoded"
}

// Value implements Packet
func (p *Undecoded) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldPayload: hex.EncodeToString(p.Payload),
	})
}

// Bytes implements Packet
func (p *Undecoded) Bytes() []byte {
	frame := p.put(make([]byte, headerSize+len(p.Payload)))
	copy(frame[headerSize:], p.Payload)
	return frame
}

//////////////////////////////////////////////////////////////
// RfxMeter: pulse counter
//////////////////////////////////////////////////////////////

var rfxMeterTypes = map[uint8]string{
	0x00: "RFXMeter Count",
	0x01: "RFXMeter Interval",
	0x02: "RFXMeter Calibration",
	0x03: "RFXMeter Address",
	0x04: "RFXMeter Counter reset",
	0x0B: "RFXMeter Counter set",
	0x0C: "RFXMeter Set interval",
	0x0D: "RFXMeter Set calibration",
	0x0E: "RFXMeter Set Address",
	0x0F: "RFXMeter Ident",
}

// RfxMeter is a pulse counter frame. d5-d6 are not part of the count.
type RfxMeter struct {
	header
	ID       uint8
	Reserved [2]uint8
	Counter  uint32 // 24 bits
}

func decodeRfxMeter(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 11); err != nil {
		return nil, err
	}
	p := &RfxMeter{header: h, ID: data[4], Reserved: [2]uint8{data[5], data[6]},
		Counter: uint32(beUint(data[7:10]))}
	p.signal = data[10]
	p.typeString = typeString(TypeRfxMeter, rfxMeterTypes, p.subtype)
	return p, nil
}

// IDString formats "%02x"
func (p *RfxMeter) IDString() string {
	return fmt.Sprintf("%02x", p.ID)
}

// Value implements Packet
func (p *RfxMeter) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldCounterValue: int(p.Counter),
	})
}

// Bytes implements Packet
func (p *RfxMeter) Bytes() []byte {
	frame := p.put(make([]byte, 11))
	frame[4] = p.ID
	frame[5], frame[6] = p.Reserved[0], p.Reserved[1]
	putBEUint(frame[7:10], uint64(p.Counter))
	frame[10] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// RfxSensor: 1-wire temperature, A/D and supply voltage
//////////////////////////////////////////////////////////////

// RfxSensor subtypes
const (
	RfxSensorTemperature uint8 = 0x00
	RfxSensorAD          uint8 = 0x01
	RfxSensorVoltage     uint8 = 0x02
)

var rfxSensorTypes = map[uint8]string{
	RfxSensorTemperature: "RfxSensor Temperature",
	RfxSensorAD:          "RfxSensor A/D",
	RfxSensorVoltage:     "RfxSensor Voltage",
}

// RfxSensor is a single reading whose meaning depends on the subtype:
// temperature in hundredths of a degree (sign-magnitude), or an A/D or
// voltage reading in units of 10 mV. Unknown subtypes carry no reading.
type RfxSensor struct {
	header
	ID  uint8
	Raw [2]uint8
}

func decodeRfxSensor(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 8); err != nil {
		return nil, err
	}
	p := &RfxSensor{header: h, ID: data[4], Raw: [2]uint8{data[5], data[6]}}
	p.signal = data[7]
	p.typeString = typeString(TypeRfxSensor, rfxSensorTypes, p.subtype)
	p.fields = fieldsOf(FieldRSSI)
	if f, ok := p.Field(); ok {
		p.fields = p.fields.with(f)
	}
	return p, nil
}

// IDString formats "%02x"
func (p *RfxSensor) IDString() string {
	return fmt.Sprintf("%02x", p.ID)
}

// Field returns the field the reading is reported under
func (p *RfxSensor) Field() (Field, bool) {
	switch p.subtype {
	case RfxSensorTemperature:
		return FieldTemperature, true
	case RfxSensorAD:
		return FieldAnalog, true
	case RfxSensorVoltage:
		return FieldVoltage, true
	}
	return 0, false
}

// Reading returns the scaled reading
func (p *RfxSensor) Reading() (interface{}, bool) {
	switch p.subtype {
	case RfxSensorTemperature:
		return decodeTemperature(p.Raw[0], p.Raw[1]) / 10, true
	case RfxSensorAD, RfxSensorVoltage:
		return int(beUint(p.Raw[:])) * 10, true
	}
	return nil, false
}

// Value implements Packet
func (p *RfxSensor) Value(f Field) (interface{}, bool) {
	if rf, ok := p.Field(); ok && rf == f {
		return p.Reading()
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *RfxSensor) Bytes() []byte {
	frame := p.put(make([]byte, 8))
	frame[4] = p.ID
	frame[5], frame[6] = p.Raw[0], p.Raw[1]
	frame[7] = p.signal
	return frame
}
