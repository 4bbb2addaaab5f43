// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"strings"
	"time"
)

// FormatFrame renders frame bytes as space separated hex
func FormatFrame(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// FormatEvent formats an event into a human-readable string
func FormatEvent(ev Event, timestamp time.Time) string {
	ts := timestamp.Format("15:04:05.000")

	switch e := ev.(type) {
	case *SensorEvent:
		return formatPacketEvent(ts, e.Packet, e.Values)
	case *ControlEvent:
		result := formatPacketEvent(ts, e.Packet, e.Values)
		var flags []string
		if e.KnownDimmable {
			flags = append(flags, "dimmable")
		}
		if e.KnownRollerShutter {
			flags = append(flags, "roller shutter")
		}
		if len(flags) > 0 {
			result += fmt.Sprintf("  Known: %s\n", strings.Join(flags, ", "))
		}
		return result
	case *StatusEvent:
		result := fmt.Sprintf("[%s] Status (0x%02X) cmd=0x%02X\n", ts, uint8(TypeStatus), e.Status.Command)
		result += fmt.Sprintf("  Transceiver: %s, Firmware: %d, Output Power: %d\n",
			e.TransceiverType, e.Firmware, e.OutputPower)
		if len(e.Devices) == 0 {
			return result + "  Receive Modes: (none)\n"
		}
		return result + fmt.Sprintf("  Receive Modes: %s\n", strings.Join(e.Devices, ", "))
	case *ConnectionEvent:
		if e.Err != nil {
			return fmt.Sprintf("[%s] Connection %s: %v\n", ts, e.State, e.Err)
		}
		return fmt.Sprintf("[%s] Connection %s\n", ts, e.State)
	default:
		return fmt.Sprintf("[%s] %v\n", ts, ev)
	}
}

func formatPacketEvent(ts string, p Packet, values Values) string {
	result := fmt.Sprintf("[%s] %s (0x%02X) sub=0x%02X seq=%d id=%s type=%q\n",
		ts, p.Type(), uint8(p.Type()), p.Subtype(), p.SeqNbr(), p.IDString(), p.TypeString())
	for _, k := range values.Keys() {
		result += fmt.Sprintf("  %s: %s\n", k, formatValue(values[k]))
	}
	return result
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%g", x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
