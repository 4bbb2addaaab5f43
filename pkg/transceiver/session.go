// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transceiver drives an RFXtrx over a byte stream: it runs the
// connect sequence, reassembles and decodes received frames, tracks the
// devices seen on air and sends device commands.
package transceiver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/sirupsen/logrus"
)

// Connect sequence defaults
const (
	DefaultSettleDelay     = 300 * time.Millisecond
	DefaultResponseTimeout = 5 * time.Second
)

var (
	// ErrNoStatus is returned when the transceiver does not answer the get
	// status command
	ErrNoStatus = errors.New("transceiver did not report status")
	// ErrTransportClosed is returned when the stream ends during the connect
	// sequence
	ErrTransportClosed = errors.New("transport closed")
)

// Config controls the connect sequence
type Config struct {
	// Modes enables exactly these receive modes. Nil keeps the modes stored
	// in the transceiver.
	Modes []string
	// SettleDelay is the wait after the reset command before pending input
	// is discarded
	SettleDelay time.Duration
	// ResponseTimeout bounds the wait for each reply during connect
	ResponseTimeout time.Duration
	Logger          logrus.FieldLogger
}

// Received is one frame read from the transceiver, or a connection state
// change when Frame is nil
type Received struct {
	Time  time.Time
	Frame []byte
	Event rfxtrx.Event
	Err   error
}

// Handler is called for every received frame and connection event, from the
// goroutine running Run
type Handler func(Received)

// Device is the last known state of a device seen on air
type Device struct {
	Identity rfxtrx.DeviceIdentity
	Last     rfxtrx.Event
	LastSeen time.Time
	Count    uint64
}

// Session is a connection to one transceiver
type Session struct {
	transport Transport
	cfg       Config
	log       logrus.FieldLogger
	encoder   *rfxtrx.CommandEncoder

	writeMu sync.Mutex

	mu      sync.RWMutex
	status  *rfxtrx.StatusEvent
	sensors map[string]rfxtrx.DeviceIdentity
	devices map[rfxtrx.DeviceIdentity]*Device
	stats   *rfxtrx.Statistics
}

// NewSession creates a session that owns transport
func NewSession(transport Transport, cfg Config) *Session {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = DefaultResponseTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Session{
		transport: transport,
		cfg:       cfg,
		log:       cfg.Logger,
		encoder:   rfxtrx.NewCommandEncoder(),
		sensors:   make(map[string]rfxtrx.DeviceIdentity),
		devices:   make(map[rfxtrx.DeviceIdentity]*Device),
		stats:     rfxtrx.NewStatistics(),
	}
}

// Run connects to the transceiver and delivers received frames to handle
// until ctx is cancelled or the transport fails. A ConnectionDone event is
// delivered once the receiver is started, and a ConnectionLost event if the
// transport fails after that. Cancellation returns nil.
func (s *Session) Run(ctx context.Context, handle Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// closing the transport unblocks the reader
	context.AfterFunc(ctx, func() { s.transport.Close() })

	if err := s.reset(ctx); err != nil {
		return err
	}

	frames := make(chan Received, 16)
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop(ctx, frames)
		close(frames)
	}()

	if err := s.handshake(ctx, frames, handle); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	s.log.Info("Transceiver started")
	handle(Received{Time: time.Now(), Event: &rfxtrx.ConnectionEvent{State: rfxtrx.ConnectionDone}})

	for r := range frames {
		s.dispatch(r, handle)
	}

	err := <-readErr
	if ctx.Err() != nil {
		return nil
	}
	s.log.WithError(err).Warn("Connection lost")
	handle(Received{Time: time.Now(), Event: &rfxtrx.ConnectionEvent{State: rfxtrx.ConnectionLost, Err: err}})
	return fmt.Errorf("connection lost: %w", err)
}

// reset sends the reset command, waits for the transceiver to settle and
// drops whatever it sent meanwhile
func (s *Session) reset(ctx context.Context) error {
	if err := s.write(rfxtrx.EncodeReset()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if f, ok := s.transport.(inputFlusher); ok {
		if err := f.ResetInputBuffer(); err != nil {
			return fmt.Errorf("failed to flush input: %w", err)
		}
	}
	return nil
}

func (s *Session) handshake(ctx context.Context, frames <-chan Received, handle Handler) error {
	status, err := s.requestStatus(ctx, frames)
	if err != nil {
		return err
	}

	if s.cfg.Modes != nil {
		data, err := rfxtrx.EncodeSetModes(s.cfg.Modes, status.Status.TransceiverType, status.Status.OutputPower)
		if err != nil {
			return err
		}
		if err := s.write(data); err != nil {
			return fmt.Errorf("set mode failed: %w", err)
		}
		if _, err := s.await(ctx, frames, isStatus); err != nil {
			return fmt.Errorf("set mode failed: %w", err)
		}
		if status, err = s.requestStatus(ctx, frames); err != nil {
			return err
		}
	}

	s.setStatus(status)
	s.log.WithFields(logrus.Fields{
		"transceiver": status.TransceiverType,
		"firmware":    status.Firmware,
		"modes":       status.Devices,
	}).Info("Transceiver status")
	handle(Received{Time: time.Now(), Frame: status.Status.Bytes(), Event: status})

	if err := s.write(rfxtrx.EncodeStart()); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	// older firmware does not answer the start command
	if _, err := s.await(ctx, frames, func(Received) bool { return true }); err != nil {
		if !errors.Is(err, errResponseTimeout) {
			return fmt.Errorf("start failed: %w", err)
		}
		s.log.Debug("No answer to start command")
	}
	return nil
}

func (s *Session) requestStatus(ctx context.Context, frames <-chan Received) (*rfxtrx.StatusEvent, error) {
	if err := s.write(rfxtrx.EncodeStatusRequest()); err != nil {
		return nil, fmt.Errorf("get status failed: %w", err)
	}
	r, err := s.await(ctx, frames, isStatus)
	if err != nil {
		if errors.Is(err, errResponseTimeout) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("get status failed: %w", err)
	}
	return r.Event.(*rfxtrx.StatusEvent), nil
}

func isStatus(r Received) bool {
	_, ok := r.Event.(*rfxtrx.StatusEvent)
	return ok
}

var errResponseTimeout = errors.New("no response")

// await returns the first frame accepted by match. Frames read before it
// are dropped.
func (s *Session) await(ctx context.Context, frames <-chan Received, match func(Received) bool) (Received, error) {
	timer := time.NewTimer(s.cfg.ResponseTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return Received{}, ctx.Err()
		case <-timer.C:
			return Received{}, errResponseTimeout
		case r, ok := <-frames:
			if !ok {
				return Received{}, ErrTransportClosed
			}
			if match(r) {
				return r, nil
			}
			s.log.WithField("frame", rfxtrx.FormatFrame(r.Frame)).Debug("Dropped frame during connect")
		}
	}
}

func (s *Session) readLoop(ctx context.Context, out chan<- Received) error {
	framer := rfxtrx.NewFramer()
	buf := make([]byte, rfxtrx.MaxFrameSize)
	for {
		n, err := s.transport.Read(buf)
		for _, frame := range framer.Feed(buf[:n]) {
			s.log.WithField("frame", rfxtrx.FormatFrame(frame)).Debug("Recv")
			r := Received{Time: time.Now(), Frame: frame}
			if p, perr := rfxtrx.ParsePacket(frame); perr != nil {
				r.Err = perr
			} else {
				r.Event = rfxtrx.NewEvent(p)
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
	}
}

// dispatch records a frame in the device tables and passes it on
func (s *Session) dispatch(r Received, handle Handler) {
	s.mu.Lock()
	s.stats.Update(r.Event, r.Err)
	switch ev := r.Event.(type) {
	case *rfxtrx.SensorEvent:
		s.sensors[ev.Device.ID] = ev.Device
		s.touch(ev.Device, ev, r.Time)
	case *rfxtrx.ControlEvent:
		s.touch(ev.Device, ev, r.Time)
	case *rfxtrx.StatusEvent:
		s.status = ev
	}
	s.mu.Unlock()

	if r.Err != nil {
		s.log.WithError(r.Err).Debug("Undecodable frame")
	}
	handle(r)
}

func (s *Session) touch(id rfxtrx.DeviceIdentity, ev rfxtrx.Event, ts time.Time) {
	d, ok := s.devices[id]
	if !ok {
		d = &Device{Identity: id}
		s.devices[id] = d
	}
	d.Last = ev
	d.LastSeen = ts
	d.Count++
}

func (s *Session) setStatus(status *rfxtrx.StatusEvent) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.log.WithField("frame", rfxtrx.FormatFrame(data)).Debug("Send")
	_, err := s.transport.Write(data)
	return err
}

// Send encodes and transmits a command for a device
func (s *Session) Send(id rfxtrx.DeviceIdentity, cmd rfxtrx.Command, params rfxtrx.Params) error {
	data, err := s.encoder.Encode(id, cmd, params)
	if err != nil {
		return err
	}
	if err := s.write(data); err != nil {
		return fmt.Errorf("send %v to %v failed: %w", cmd, id, err)
	}
	return nil
}

// SendFrame transmits a prepared frame
func (s *Session) SendFrame(data []byte) error {
	return s.write(data)
}

// Status returns the last status report, or nil before connect
func (s *Session) Status() *rfxtrx.StatusEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Sensors returns the sensors seen so far keyed by device id string
func (s *Session) Sensors() map[string]rfxtrx.DeviceIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]rfxtrx.DeviceIdentity, len(s.sensors))
	for k, v := range s.sensors {
		out[k] = v
	}
	return out
}

// Devices returns every device seen so far, ordered by identity
func (s *Session) Devices() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity.String() < out[j].Identity.String()
	})
	return out
}

// Statistics returns a snapshot of the frame counters
func (s *Session) Statistics() rfxtrx.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.stats
}

// Close closes the transport
func (s *Session) Close() error {
	return s.transport.Close()
}
