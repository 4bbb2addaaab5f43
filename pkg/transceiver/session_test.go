// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transceiver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/sirupsen/logrus"
)

var (
	statusReply = []byte{0x0D, 0x01, 0x00, 0x01, 0x02, 0x53, 0x45, 0x80, 0x0C, 0x26, 0x01, 0x00, 0x00, 0x1C}
	startReply  = []byte{0x14, 0x01, 0x07, 0x03, 0x07, 0x43, 0x6F, 0x70, 0x79, 0x72, 0x69, 0x67, 0x68,
		0x74, 0x20, 0x52, 0x46, 0x58, 0x43, 0x4F, 0x4D}
	tempFrame  = []byte{0x08, 0x50, 0x02, 0x11, 0x70, 0x02, 0x00, 0xD7, 0x79}
	lightFrame = []byte{0x07, 0x10, 0x00, 0x2A, 0x45, 0x05, 0x01, 0x70}
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeTransceiver plays the device side of a net.Pipe
type fakeTransceiver struct {
	t    *testing.T
	conn net.Conn
}

func (f *fakeTransceiver) expect(want []byte) bool {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(f.conn, got); err != nil {
		f.t.Errorf("device read error = %v", err)
		return false
	}
	if !bytes.Equal(got, want) {
		f.t.Errorf("device received % X, want % X", got, want)
		return false
	}
	return true
}

func (f *fakeTransceiver) send(data ...[]byte) {
	for _, d := range data {
		if _, err := f.conn.Write(d); err != nil {
			f.t.Errorf("device write error = %v", err)
		}
	}
}

// connect answers the default connect sequence
func (f *fakeTransceiver) connect() bool {
	if !f.expect(rfxtrx.EncodeReset()) || !f.expect(rfxtrx.EncodeStatusRequest()) {
		return false
	}
	f.send(statusReply)
	if !f.expect(rfxtrx.EncodeStart()) {
		return false
	}
	f.send(startReply)
	return true
}

type recorder struct {
	mu     sync.Mutex
	events []Received
	done   chan struct{}
	want   int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) handle(rcv Received) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, rcv)
	if len(r.events) == r.want {
		close(r.done)
	}
}

func (r *recorder) wait(t *testing.T) []Received {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Received(nil), r.events...)
}

func newTestSession(cfg Config) (*Session, *fakeTransceiver, net.Conn) {
	host, device := net.Pipe()
	cfg.SettleDelay = time.Millisecond
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = time.Second
	}
	cfg.Logger = testLogger()
	return NewSession(host, cfg), &fakeTransceiver{conn: device}, device
}

// ============================================================
// Connect Sequence
// ============================================================

func TestSession_ConnectAndReceive(t *testing.T) {
	s, dev, _ := newTestSession(Config{})
	dev.t = t

	go func() {
		if dev.connect() {
			// the second frame arrives split across writes
			dev.send(tempFrame, lightFrame[:3], lightFrame[3:])
		}
	}()

	rec := newRecorder(4)
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx, rec.handle) }()

	events := rec.wait(t)
	cancel()
	if err := <-runErr; err != nil {
		t.Errorf("Run() after cancel error = %v, want nil", err)
	}

	if _, ok := events[0].Event.(*rfxtrx.StatusEvent); !ok {
		t.Errorf("event 0 = %T, want *StatusEvent", events[0].Event)
	}
	conn, ok := events[1].Event.(*rfxtrx.ConnectionEvent)
	if !ok || conn.State != rfxtrx.ConnectionDone {
		t.Errorf("event 1 = %v, want ConnectionDone", events[1].Event)
	}
	if _, ok := events[2].Event.(*rfxtrx.SensorEvent); !ok {
		t.Errorf("event 2 = %T, want *SensorEvent", events[2].Event)
	}
	if !bytes.Equal(events[3].Frame, lightFrame) {
		t.Errorf("event 3 frame = % X, want % X", events[3].Frame, lightFrame)
	}

	if st := s.Status(); st == nil || st.Firmware != 0x45 {
		t.Errorf("Status() = %v, want firmware 69", st)
	}
	sensors := s.Sensors()
	if id, ok := sensors["70:02"]; !ok || id.PacketType != rfxtrx.TypeTemp {
		t.Errorf("Sensors() = %v, want 70:02", sensors)
	}
	if devices := s.Devices(); len(devices) != 2 {
		t.Errorf("len(Devices()) = %d, want 2", len(devices))
	}
	stats := s.Statistics()
	if stats.SensorEvents != 1 || stats.ControlEvents != 1 {
		t.Errorf("Statistics() sensor/control = %d/%d, want 1/1", stats.SensorEvents, stats.ControlEvents)
	}
}

func TestSession_SetModes(t *testing.T) {
	modes := []string{"ac", "arc", "oregon"}
	s, dev, _ := newTestSession(Config{Modes: modes})
	dev.t = t

	setModes, err := rfxtrx.EncodeSetModes(modes, 0x53, 0x1C)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		if !dev.expect(rfxtrx.EncodeReset()) || !dev.expect(rfxtrx.EncodeStatusRequest()) {
			return
		}
		dev.send(statusReply)
		// transceiver type and output power come from the first status reply
		if !dev.expect(setModes) {
			return
		}
		dev.send(statusReply)
		if !dev.expect(rfxtrx.EncodeStatusRequest()) {
			return
		}
		dev.send(statusReply)
		if dev.expect(rfxtrx.EncodeStart()) {
			dev.send(startReply)
		}
	}()

	rec := newRecorder(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, rec.handle)

	events := rec.wait(t)
	if conn, ok := events[1].Event.(*rfxtrx.ConnectionEvent); !ok || conn.State != rfxtrx.ConnectionDone {
		t.Errorf("event 1 = %v, want ConnectionDone", events[1].Event)
	}
}

func TestSession_UnknownModeFails(t *testing.T) {
	s, dev, _ := newTestSession(Config{Modes: []string{"carrier-pigeon"}})
	dev.t = t

	go func() {
		if dev.expect(rfxtrx.EncodeReset()) && dev.expect(rfxtrx.EncodeStatusRequest()) {
			dev.send(statusReply)
		}
	}()

	err := s.Run(context.Background(), func(Received) {})
	if !errors.Is(err, rfxtrx.ErrInvalidCommand) {
		t.Errorf("Run() error = %v, want ErrInvalidCommand", err)
	}
}

func TestSession_NoStatus(t *testing.T) {
	s, dev, _ := newTestSession(Config{ResponseTimeout: 50 * time.Millisecond})
	dev.t = t

	go func() {
		dev.expect(rfxtrx.EncodeReset())
		dev.expect(rfxtrx.EncodeStatusRequest())
	}()

	err := s.Run(context.Background(), func(Received) {})
	if !errors.Is(err, ErrNoStatus) {
		t.Errorf("Run() error = %v, want ErrNoStatus", err)
	}
}

func TestSession_ConnectionLost(t *testing.T) {
	s, dev, device := newTestSession(Config{})
	dev.t = t

	go func() {
		if dev.connect() {
			dev.send(tempFrame)
			device.Close()
		}
	}()

	var mu sync.Mutex
	var last Received
	err := s.Run(context.Background(), func(r Received) {
		mu.Lock()
		last = r
		mu.Unlock()
	})
	if err == nil {
		t.Fatal("Run() error = nil after the device went away")
	}

	mu.Lock()
	defer mu.Unlock()
	conn, ok := last.Event.(*rfxtrx.ConnectionEvent)
	if !ok || conn.State != rfxtrx.ConnectionLost {
		t.Errorf("last event = %v, want ConnectionLost", last.Event)
	}
}

// ============================================================
// Sending
// ============================================================

func TestSession_Send(t *testing.T) {
	host, device := net.Pipe()
	defer device.Close()
	s := NewSession(host, Config{Logger: testLogger()})
	defer s.Close()

	id, err := rfxtrx.ParseDeviceIdentity("11/00/1234567:1")
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 12)
		if _, err := io.ReadFull(device, buf); err == nil {
			got <- buf
		}
	}()

	if err := s.Send(id, rfxtrx.CommandDim, rfxtrx.Params{Level: 50}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	want := []byte{0x0B, 0x11, 0x00, 0x00, 0x01, 0x23, 0x45, 0x67, 0x01, 0x02, 0x07, 0x00}
	select {
	case frame := <-got:
		if !bytes.Equal(frame, want) {
			t.Errorf("sent % X, want % X", frame, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}

	if err := s.Send(id, rfxtrx.CommandDim, rfxtrx.Params{Level: 101}); !errors.Is(err, rfxtrx.ErrInvalidCommand) {
		t.Errorf("Send(level 101) error = %v, want ErrInvalidCommand", err)
	}
}
