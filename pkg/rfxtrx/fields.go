// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"strconv"
	"strings"
)

// decodeTemperature decodes a sign-magnitude temperature in tenths of a
// degree. Bit 7 of the high byte is the sign, not two's complement.
func decodeTemperature(hi, lo byte) float64 {
	t := float64(int(hi&0x7F)<<8|int(lo)) / 10
	if hi&0x80 != 0 {
		t = -t
	}
	return t
}

// beUint reads a big-endian unsigned integer of 1 to 8 bytes
func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// putBEUint writes v big-endian into all of dst
func putBEUint(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// splitNibbles splits the trailing signal byte: RSSI in the high nibble,
// battery level (or flags) in the low nibble.
func splitNibbles(b byte) (rssi, battery int) {
	return int(b >> 4), int(b & 0x0F)
}

func unknownType(pt PacketType, subtype uint8) string {
	return fmt.Sprintf("Unknown type (0x%02x/0x%02x)", uint8(pt), subtype)
}

func unknownCommand(cmnd uint8) string {
	return fmt.Sprintf("Unknown command (0x%02x)", cmnd)
}

// lookup maps code through table, or returns fallback
func lookup(table map[uint8]string, code uint8, fallback string) string {
	if s, ok := table[code]; ok {
		return s
	}
	return fallback
}

func typeString(pt PacketType, table map[uint8]string, subtype uint8) string {
	return lookup(table, subtype, unknownType(pt, subtype))
}

func commandString(table map[uint8]string, cmnd uint8) string {
	return lookup(table, cmnd, unknownCommand(cmnd))
}

var humidityStatuses = map[uint8]string{
	0x00: "dry",
	0x01: "comfort",
	0x02: "normal",
	0x03: "wet",
}

func humidityStatusString(status uint8) string {
	return lookup(humidityStatuses, status, "unknown humidity")
}

var forecasts = map[uint8]string{
	0x00: "no forecast available",
	0x01: "sunny",
	0x02: "partly cloudy",
	0x03: "cloudy",
	0x04: "rain",
}

func forecastString(forecast uint8) string {
	return lookup(forecasts, forecast, "unknown forecast")
}

// parseHexID parses a hex id component no wider than bits
func parseHexID(s string, bits int) (uint64, error) {
	if s == "" {
		return 0, ErrInvalidIdentity
	}
	v, err := strconv.ParseUint(s, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return v, nil
}

// parseDecID parses a decimal id component that must fit in a byte
func parseDecID(s string) (uint8, error) {
	if s == "" {
		return 0, ErrInvalidIdentity
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return uint8(v), nil
}

// splitID splits an id string at its first colon
func splitID(id string) (string, string, error) {
	left, right, ok := strings.Cut(id, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no ':' separator", ErrInvalidIdentity, id)
	}
	return left, right, nil
}

// checkIdentity rejects identities that do not format back to id
func checkIdentity(p Packet, id string) (Packet, error) {
	if got := p.IDString(); got != id {
		return nil, fmt.Errorf("%w: %q formats as %q", ErrInvalidIdentity, id, got)
	}
	return p, nil
}

// RawTemperature is a temperature as sent on air, high byte first
type RawTemperature [2]byte

// Celsius decodes the reading in tenths of a degree
func (t RawTemperature) Celsius() float64 {
	return decodeTemperature(t[0], t[1])
}

// pairID is the two byte sensor id at d4-d5 shared by most sensor
// families
type pairID struct {
	ID1 uint8
	ID2 uint8
}

// IDString formats "%02x:%02x"
func (id pairID) IDString() string {
	return fmt.Sprintf("%02x:%02x", id.ID1, id.ID2)
}

func readPairID(data []byte) pairID {
	return pairID{ID1: data[4], ID2: data[5]}
}

func (id pairID) write(frame []byte) {
	frame[4] = id.ID1
	frame[5] = id.ID2
}
