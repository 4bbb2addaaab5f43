// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import "fmt"

// ParsePacket decodes one complete frame. The frame must be exactly as long
// as its length byte says. Errors are *DecodeError values wrapping
// ErrFraming, ErrUnknownPacketType or ErrTruncated.
func ParsePacket(data []byte) (Packet, error) {
	if len(data) < 2 || data[0] == 0 {
		return nil, decodeError(data, fmt.Errorf("%w: %d bytes", ErrFraming, len(data)))
	}
	if int(data[0])+1 != len(data) {
		return nil, decodeError(data, fmt.Errorf("%w: length byte %d, frame %d bytes",
			ErrFraming, data[0], len(data)))
	}
	decode, ok := decoders[PacketType(data[1])]
	if !ok {
		return nil, decodeError(data, fmt.Errorf("%w: 0x%02x", ErrUnknownPacketType, data[1]))
	}
	p, err := decode(data)
	if err != nil {
		return nil, decodeError(data, fmt.Errorf("%v: %w", PacketType(data[1]), err))
	}
	return p, nil
}

// Decode parses a frame and wraps it in the event its family maps to
func Decode(data []byte) (Event, error) {
	p, err := ParsePacket(data)
	if err != nil {
		return nil, err
	}
	return NewEvent(p), nil
}
