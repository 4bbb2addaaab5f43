// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is the serializable form of an event, used for MQTT payloads and
// logs. Values keep the event value keys.
type Record struct {
	Time       int64                  `cbor:"t" json:"time"`
	Kind       string                 `cbor:"k" json:"kind"`
	PacketType uint8                  `cbor:"p" json:"packet_type"`
	Subtype    uint8                  `cbor:"s" json:"subtype"`
	ID         string                 `cbor:"i" json:"id"`
	TypeString string                 `cbor:"n" json:"type_string"`
	Values     map[string]interface{} `cbor:"v" json:"values"`
	Frame      []byte                 `cbor:"f,omitempty" json:"frame,omitempty"`
}

// NewRecord converts an event to a record. Connection events have no record.
func NewRecord(ev Event, timestamp time.Time) (*Record, bool) {
	r := &Record{Time: timestamp.UnixNano(), Kind: ev.Kind().String()}
	switch e := ev.(type) {
	case *SensorEvent:
		r.fromPacket(e.Packet, e.Values)
	case *ControlEvent:
		r.fromPacket(e.Packet, e.Values)
	case *StatusEvent:
		r.fromPacket(e.Status, nil)
		r.Values = map[string]interface{}{
			"Transceiver":  e.TransceiverType,
			"Firmware":     e.Firmware,
			"Output power": e.OutputPower,
			"Devices":      e.Devices,
		}
	default:
		return nil, false
	}
	return r, true
}

func (r *Record) fromPacket(p Packet, values Values) {
	r.PacketType = uint8(p.Type())
	r.Subtype = p.Subtype()
	r.ID = p.IDString()
	r.TypeString = p.TypeString()
	r.Values = map[string]interface{}(values)
	r.Frame = p.Bytes()
}

// Identity returns the device identity the record was produced by
func (r *Record) Identity() DeviceIdentity {
	return DeviceIdentity{PacketType: PacketType(r.PacketType), Subtype: r.Subtype, ID: r.ID}
}

// Timestamp returns the record time
func (r *Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

// MarshalRecord encodes a record as CBOR
func MarshalRecord(r *Record) ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord decodes a CBOR record
func UnmarshalRecord(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty CBOR record")
	}
	var r Record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &r, nil
}
