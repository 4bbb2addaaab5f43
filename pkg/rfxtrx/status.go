// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"sort"
)

// Transceiver frequency bands reported in the status response
var transceiverTypes = map[uint8]string{
	0x50: "310MHz",
	0x51: "315MHz",
	0x53: "433.92MHz",
	0x55: "868.00MHz",
	0x56: "868.00MHz FSK",
	0x57: "868.30MHz",
	0x58: "868.30MHz FSK",
	0x59: "868.35MHz",
	0x5A: "868.35MHz FSK",
	0x5B: "868.95MHz",
	0x5C: "868.30MHz FSK PKT",
	0x5D: "868.35MHz FSK PKT",
	0x5E: "868.40MHz FSK PKT",
}

// receiveModes names the receive mode bits of status bytes d7-d10. Bit i
// of byte n is receiveModes[n][i]. The order is fixed by the firmware.
var receiveModes = [4][]string{
	{"aeblyss", "rubicson", "fineoffset", "lighting4", "rsl", "byronsx", "imagintronix", "undecoded"},
	{"mertik", "adlightwave", "hideki", "lacrosse", "fs20", "proguard", "blindst0", "blindst1234"},
	{"x10", "arc", "ac", "homeeasy", "meiantech", "oregon", "ati", "visonic"},
	{"keeloq", "homeconfort"},
}

// ReceiveModes lists every receive mode name the transceiver knows
func ReceiveModes() []string {
	var names []string
	for _, group := range receiveModes {
		names = append(names, group...)
	}
	sort.Strings(names)
	return names
}

// receiveModeBit locates a mode name in the status bitsets
func receiveModeBit(name string) (index int, bit uint, ok bool) {
	for i, group := range receiveModes {
		for b, mode := range group {
			if mode == name {
				return i, uint(b), true
			}
		}
	}
	return 0, 0, false
}

// Status is the transceiver's response to a get status or set mode
// command.
type Status struct {
	header
	Command         uint8
	TransceiverType uint8
	Firmware        uint8
	Modes           [4]uint8
	OutputPower     uint8
	body            []byte
}

const statusSize = 14

func decodeStatus(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, statusSize); err != nil {
		return nil, err
	}
	p := &Status{header: h, Command: data[4], TransceiverType: data[5], Firmware: data[6],
		OutputPower: data[13], body: append([]byte(nil), data[headerSize:]...)}
	copy(p.Modes[:], data[7:11])
	p.typeString = lookup(transceiverTypes, p.TransceiverType, "Unknown")
	return p, nil
}

// IDString returns the transceiver band; status frames have no device id
func (p *Status) IDString() string {
	return fmt.Sprintf("%02x", p.TransceiverType)
}

// Devices returns the sorted names of the enabled receive modes
func (p *Status) Devices() []string {
	var names []string
	for i, group := range receiveModes {
		for b, mode := range group {
			if p.Modes[i]&(1<<uint(b)) != 0 {
				names = append(names, mode)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Value implements Packet; status frames carry no event fields
func (p *Status) Value(Field) (interface{}, bool) {
	return nil, false
}

// Bytes implements Packet
func (p *Status) Bytes() []byte {
	size := headerSize + len(p.body)
	if size < statusSize {
		size = statusSize
	}
	frame := p.put(make([]byte, size))
	copy(frame[headerSize:], p.body)
	frame[4] = p.Command
	frame[5] = p.TransceiverType
	frame[6] = p.Firmware
	copy(frame[7:11], p.Modes[:])
	frame[13] = p.OutputPower
	return frame
}
