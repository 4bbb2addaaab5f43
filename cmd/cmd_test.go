// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/capture"
	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
)

func frameBytes(t *testing.T, hexString string) []byte {
	t.Helper()
	data, err := hex.DecodeString(strings.ReplaceAll(hexString, " ", ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", hexString, err)
	}
	return data
}

func received(t *testing.T, hexString string, ts time.Time) transceiver.Received {
	t.Helper()
	data := frameBytes(t, hexString)
	ev, err := rfxtrx.Decode(data)
	return transceiver.Received{Time: ts, Frame: data, Event: ev, Err: err}
}

const (
	tempFrame  = "08 50 02 11 70 02 00 D7 79"
	lightFrame = "0B 11 00 05 01 23 45 67 01 02 07 60"
)

// ============================================================================
// Helpers
// ============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{59 * time.Second, "59 seconds"},
		{61 * time.Second, "1 minute and 1 second"},
		{2 * time.Hour, "2 hours"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1 day, 2 hours, 3 minutes, and 4 seconds"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReplayDelay(t *testing.T) {
	base := time.Unix(1700000000, 0)
	tests := []struct {
		name  string
		prev  time.Time
		next  time.Time
		speed float64
		want  time.Duration
	}{
		{"first record", time.Time{}, base, 1, 0},
		{"real time", base, base.Add(2 * time.Second), 1, 2 * time.Second},
		{"double speed", base, base.Add(2 * time.Second), 2, time.Second},
		{"no delay", base, base.Add(2 * time.Second), 0, 0},
		{"clock went back", base, base.Add(-time.Second), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := replayDelay(tt.prev, tt.next, tt.speed); got != tt.want {
				t.Errorf("replayDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParamsFor(t *testing.T) {
	tests := []struct {
		cmd  rfxtrx.Command
		want rfxtrx.Params
	}{
		{rfxtrx.CommandDim, rfxtrx.Params{Level: 40}},
		{rfxtrx.CommandPercent, rfxtrx.Params{Percent: 40}},
		{rfxtrx.CommandAngle, rfxtrx.Params{Angle: 40}},
		{rfxtrx.CommandSound, rfxtrx.Params{Sound: 40}},
		{rfxtrx.CommandStatus, rfxtrx.Params{Status: 40}},
		{rfxtrx.CommandScene, rfxtrx.Params{Scene: 40}},
		{rfxtrx.CommandDimming, rfxtrx.Params{Duration: 40}},
		{rfxtrx.CommandOn, rfxtrx.Params{}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.cmd, 40); got != tt.want {
			t.Errorf("paramsFor(%v, 40) = %+v, want %+v", tt.cmd, got, tt.want)
		}
	}
}

func TestParseCommandInput(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		arg     string
		wantCmd rfxtrx.Command
		wantArg int
		wantErr bool
	}{
		{"placeholder", "", "", rfxtrx.CommandOn, 0, false},
		{"dim", "Dim", "50", rfxtrx.CommandDim, 50, false},
		{"spaces", "  off ", " ", rfxtrx.CommandOff, 0, false},
		{"unknown", "explode", "", 0, 0, true},
		{"bad argument", "dim", "half", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, arg, err := parseCommandInput(tt.cmd, "on", tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommandInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cmd != tt.wantCmd || arg != tt.wantArg {
				t.Errorf("parseCommandInput() = %v, %d, want %v, %d", cmd, arg, tt.wantCmd, tt.wantArg)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	if _, err := parseTarget("11/00/1234567:1"); err != nil {
		t.Errorf("parseTarget(lighting2) error = %v", err)
	}

	_, err := parseTarget("50/02/70:02")
	if !errors.Is(err, rfxtrx.ErrUnsupportedPacketType) {
		t.Errorf("parseTarget(sensor) error = %v, want ErrUnsupportedPacketType", err)
	}

	_, err = parseTarget("not an identity")
	if !errors.Is(err, rfxtrx.ErrInvalidIdentity) {
		t.Errorf("parseTarget(garbage) error = %v, want ErrInvalidIdentity", err)
	}
}

// ============================================================================
// Replay
// ============================================================================

func TestReplay(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	base := time.Date(2025, 1, 2, 12, 34, 56, 0, time.Local)

	frames := []string{tempFrame, "05 7F 00 00 00 00", lightFrame}
	for i, f := range frames {
		if err := w.Write(base.Add(time.Duration(i)*time.Second), frameBytes(t, f)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	var out bytes.Buffer
	stats, err := replay(context.Background(), capture.NewReader(&buf), 0, &out)
	if err != nil {
		t.Fatalf("replay() error = %v", err)
	}

	if stats.TotalFrames != 3 || stats.ValidFrames != 2 || stats.UnknownTypes != 1 {
		t.Errorf("stats = total %d valid %d unknown %d, want 3/2/1",
			stats.TotalFrames, stats.ValidFrames, stats.UnknownTypes)
	}

	text := out.String()
	for _, want := range []string{"[12:34:56.000]", "Temperature: 21.5", "[12:34:57.000] [ERROR]", "[12:34:58.000]", "id=1234567:1"} {
		if !strings.Contains(text, want) {
			t.Errorf("replay output missing %q:\n%s", want, text)
		}
	}
}

func TestReplaySkipsDamagedRecords(t *testing.T) {
	var buf bytes.Buffer
	enc := capture.NewWriter(&buf)
	ts := time.Date(2025, 1, 2, 12, 0, 0, 0, time.Local)
	if err := enc.Write(ts, frameBytes(t, tempFrame)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Flip the last frame byte inside the first record
	data := buf.Bytes()
	idx := bytes.Index(data, frameBytes(t, tempFrame))
	if idx < 0 {
		t.Fatal("frame not found in capture stream")
	}
	data[idx+8] ^= 0xFF

	if err := enc.Write(ts.Add(time.Second), frameBytes(t, lightFrame)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var out bytes.Buffer
	stats, err := replay(context.Background(), capture.NewReader(&buf), 0, &out)
	if err != nil {
		t.Fatalf("replay() error = %v", err)
	}
	if stats.TotalFrames != 1 {
		t.Errorf("TotalFrames = %d, want 1", stats.TotalFrames)
	}
	if !strings.Contains(out.String(), "[DAMAGED]") {
		t.Errorf("replay output has no damaged record:\n%s", out.String())
	}
}

// ============================================================================
// Monitor model
// ============================================================================

func TestMonitorModelTracksDevices(t *testing.T) {
	m := initialModel("test", false)
	now := time.Now()

	m.handleReceived(transceiver.Received{Time: now, Event: &rfxtrx.ConnectionEvent{State: rfxtrx.ConnectionDone}})
	if !m.connected {
		t.Fatal("connected = false after ConnectionDone")
	}

	m.handleReceived(received(t, tempFrame, now))
	m.handleReceived(received(t, tempFrame, now.Add(time.Second)))
	m.handleReceived(received(t, lightFrame, now))
	m.handleReceived(received(t, "03 10 00 00", now))

	if len(m.devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(m.devices))
	}
	rows := m.sortedDevices()
	if rows[0].identity.String() != "11/00/1234567:1" || rows[1].identity.String() != "50/02/70:02" {
		t.Errorf("device order = %v, %v", rows[0].identity, rows[1].identity)
	}
	if rows[1].count != 2 {
		t.Errorf("sensor count = %d, want 2", rows[1].count)
	}
	if m.stats.TotalFrames != 4 || m.stats.Truncated != 1 {
		t.Errorf("stats = total %d truncated %d, want 4/1", m.stats.TotalFrames, m.stats.Truncated)
	}

	// Two new devices, one decode error, plus the connect entry
	if len(m.eventLog) != 4 {
		t.Errorf("event log has %d entries, want 4", len(m.eventLog))
	}
}

func TestMonitorModelLogLimit(t *testing.T) {
	m := initialModel("test", true)
	for i := 0; i < m.maxLogEntries+10; i++ {
		m.addLogEntry("entry", false)
	}
	if len(m.eventLog) != m.maxLogEntries {
		t.Errorf("event log has %d entries, want %d", len(m.eventLog), m.maxLogEntries)
	}
}

// ============================================================================
// Control model
// ============================================================================

func TestControlModelDevices(t *testing.T) {
	seed, err := parseTarget("11/00/3000000:2")
	if err != nil {
		t.Fatalf("parseTarget() error = %v", err)
	}
	m := initialControlModel(nil, "test", []rfxtrx.DeviceIdentity{seed})

	if len(m.devices) != 1 || m.devices[0].heard {
		t.Fatalf("seeded devices = %+v", m.devices)
	}

	now := time.Now()
	m.processReceived(received(t, lightFrame, now))
	m.processReceived(received(t, lightFrame, now.Add(time.Second)))
	// Sensors are not commandable
	m.processReceived(received(t, tempFrame, now))

	if len(m.devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(m.devices))
	}
	if m.devices[0].identity.String() != "11/00/1234567:1" {
		t.Errorf("first device = %v, want 11/00/1234567:1", m.devices[0].identity)
	}
	if !m.devices[0].heard || !m.devices[0].lastSeen.Equal(now.Add(time.Second)) {
		t.Errorf("heard device = %+v", m.devices[0])
	}
	if m.stats.TotalFrames != 3 {
		t.Errorf("TotalFrames = %d, want 3", m.stats.TotalFrames)
	}
}

func TestControlModelRefusesWhileDisconnected(t *testing.T) {
	seed, _ := parseTarget("11/00/1234567:1")
	m := initialControlModel(nil, "test", []rfxtrx.DeviceIdentity{seed})

	m.sendCommand()

	if len(m.eventLog) != 1 || !m.eventLog[0].isError {
		t.Errorf("event log = %+v, want one error", m.eventLog)
	}
}
