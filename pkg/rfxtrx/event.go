// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"sort"
	"strings"
)

// EventKind classifies events
type EventKind int

const (
	EventSensor EventKind = iota
	EventControl
	EventStatus
	EventConnection
)

func (k EventKind) String() string {
	switch k {
	case EventSensor:
		return "sensor"
	case EventControl:
		return "control"
	case EventStatus:
		return "status"
	case EventConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Event is produced once per decoded frame, or by the connection for
// link state changes. Events are not modified after construction.
type Event interface {
	Kind() EventKind
	String() string
}

// Values maps event value keys ("Temperature", "Rssi numeric", ...) to
// decoded values. A key is present only when the packet carries the field.
type Values map[string]interface{}

// Keys returns the keys in sorted order
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Values) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range v.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, v[k])
	}
	b.WriteByte('}')
	return b.String()
}

// collectValues gathers every field of p that is also in want
func collectValues(p Packet, want FieldSet) Values {
	values := make(Values)
	for _, f := range (p.Fields() & want).Fields() {
		if v, ok := p.Value(f); ok {
			values[f.String()] = v
		}
	}
	return values
}

// allFields selects every field
const allFields = ^FieldSet(0)

// NewEvent wraps a decoded packet in the event of its family's category
func NewEvent(p Packet) Event {
	switch p.Category() {
	case CategoryStatus:
		if s, ok := p.(*Status); ok {
			return NewStatusEvent(s)
		}
		return NewSensorEvent(p)
	case CategorySensor:
		return NewSensorEvent(p)
	default:
		return NewControlEvent(p)
	}
}

// SensorEvent is a measurement report
type SensorEvent struct {
	Device DeviceIdentity
	Packet Packet
	Values Values
}

// NewSensorEvent builds the event for a sensor frame
func NewSensorEvent(p Packet) *SensorEvent {
	return &SensorEvent{Device: IdentityOf(p), Packet: p, Values: collectValues(p, allFields)}
}

// Kind implements Event
func (e *SensorEvent) Kind() EventKind {
	return EventSensor
}

func (e *SensorEvent) String() string {
	return fmt.Sprintf("SensorEvent device=[%v %s] values=%v", e.Device, e.Packet.TypeString(), e.Values)
}

// controlFields are the fields a control event reports
var controlFields = fieldsOf(FieldCommand, FieldDimLevel, FieldSound, FieldKeypress, FieldRSSI)

// ControlEvent is a command seen on air from a remote, switch or blind
type ControlEvent struct {
	Device DeviceIdentity
	Packet Packet
	Values Values

	// KnownDimmable is set when the frame carried a dim level
	KnownDimmable bool
	// KnownRollerShutter is set when the frame drove a blind or relay
	KnownRollerShutter bool
}

// NewControlEvent builds the event for a control frame
func NewControlEvent(p Packet) *ControlEvent {
	e := &ControlEvent{
		Device:        IdentityOf(p),
		Packet:        p,
		Values:        collectValues(p, controlFields),
		KnownDimmable: p.HasField(FieldDimLevel),
	}
	switch pkt := p.(type) {
	case *Lighting5:
		e.KnownRollerShutter = pkt.IsRelayCommand()
	case *RollerTrol, *Rfy, *DDxxxx:
		e.KnownRollerShutter = true
	}
	return e
}

// Kind implements Event
func (e *ControlEvent) Kind() EventKind {
	return EventControl
}

func (e *ControlEvent) String() string {
	return fmt.Sprintf("ControlEvent device=[%v %s] values=%v", e.Device, e.Packet.TypeString(), e.Values)
}

// StatusEvent reports the transceiver's configuration
type StatusEvent struct {
	Status          *Status
	TransceiverType string
	Firmware        int
	OutputPower     int
	// Devices is the sorted list of enabled receive modes
	Devices []string
}

// NewStatusEvent builds the event for a status frame
func NewStatusEvent(s *Status) *StatusEvent {
	return &StatusEvent{
		Status:          s,
		TransceiverType: s.TypeString(),
		Firmware:        int(s.Firmware),
		OutputPower:     int(s.OutputPower),
		Devices:         s.Devices(),
	}
}

// Kind implements Event
func (e *StatusEvent) Kind() EventKind {
	return EventStatus
}

func (e *StatusEvent) String() string {
	return fmt.Sprintf("StatusEvent type=%s firmware=%d output_power=%d devices=[%s]",
		e.TransceiverType, e.Firmware, e.OutputPower, strings.Join(e.Devices, " "))
}

// ConnectionState is the link state reported by a ConnectionEvent
type ConnectionState int

const (
	// ConnectionDone is sent once the transceiver accepted the start command
	ConnectionDone ConnectionState = iota
	// ConnectionLost is sent when the transport fails
	ConnectionLost
)

func (s ConnectionState) String() string {
	if s == ConnectionLost {
		return "lost"
	}
	return "done"
}

// ConnectionEvent reports a change of the link to the transceiver
type ConnectionEvent struct {
	State ConnectionState
	Err   error
}

// Kind implements Event
func (e *ConnectionEvent) Kind() EventKind {
	return EventConnection
}

func (e *ConnectionEvent) String() string {
	if e.Err != nil {
		return fmt.Sprintf("ConnectionEvent %v: %v", e.State, e.Err)
	}
	return fmt.Sprintf("ConnectionEvent %v", e.State)
}
