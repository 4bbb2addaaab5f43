// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports frame counters and the latest numeric sensor values
type Metrics struct {
	frames    *prometheus.CounterVec
	events    *prometheus.CounterVec
	commands  *prometheus.CounterVec
	values    *prometheus.GaugeVec
	lastSeen  *prometheus.GaugeVec
	connected prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfxtrx_frames_total",
			Help: "Frames received, by decode result",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfxtrx_events_total",
			Help: "Decoded events, by kind",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfxtrx_commands_total",
			Help: "Commands received over MQTT, by result",
		}, []string{"result"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rfxtrx_sensor_value",
			Help: "Latest numeric value reported by a device",
		}, []string{"device", "type", "field"}),
		lastSeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rfxtrx_device_last_seen_timestamp_seconds",
			Help: "Time a device was last heard",
		}, []string{"device", "type"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rfxtrx_connected",
			Help: "1 while the transceiver connection is up",
		}),
	}

	reg.MustRegister(m.frames, m.events, m.commands, m.values, m.lastSeen, m.connected)
	return m
}

// frameResult names the decode outcome of a frame
func frameResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, rfxtrx.ErrUnknownPacketType):
		return "unknown_type"
	case errors.Is(err, rfxtrx.ErrTruncated):
		return "truncated"
	default:
		return "framing"
	}
}

// Observe updates the collectors for one received frame or connection event
func (m *Metrics) Observe(r transceiver.Received) {
	if c, ok := r.Event.(*rfxtrx.ConnectionEvent); ok {
		if c.State == rfxtrx.ConnectionDone {
			m.connected.Set(1)
		} else {
			m.connected.Set(0)
		}
		return
	}

	m.frames.WithLabelValues(frameResult(r.Err)).Inc()
	if r.Err != nil {
		return
	}
	m.events.WithLabelValues(r.Event.Kind().String()).Inc()

	var (
		device     rfxtrx.DeviceIdentity
		typeString string
		values     rfxtrx.Values
	)
	switch e := r.Event.(type) {
	case *rfxtrx.SensorEvent:
		device, typeString, values = e.Device, e.Packet.TypeString(), e.Values
	case *rfxtrx.ControlEvent:
		device, typeString, values = e.Device, e.Packet.TypeString(), e.Values
	default:
		return
	}

	id := device.String()
	m.lastSeen.WithLabelValues(id, typeString).Set(float64(r.Time.UnixNano()) / 1e9)
	for key, v := range values {
		if f, ok := numeric(v); ok {
			m.values.WithLabelValues(id, typeString, key).Set(f)
		}
	}
}

// ObserveCommand counts an MQTT command and its outcome
func (m *Metrics) ObserveCommand(err error) {
	result := "sent"
	switch {
	case err == nil:
	case errors.Is(err, rfxtrx.ErrInvalidCommand), errors.Is(err, rfxtrx.ErrInvalidIdentity),
		errors.Is(err, rfxtrx.ErrUnsupportedPacketType), errors.Is(err, ErrBadTopic):
		result = "rejected"
	default:
		result = "failed"
	}
	m.commands.WithLabelValues(result).Inc()
}

// numeric converts decoded values that have a numeric reading
func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
