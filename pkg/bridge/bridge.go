// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge publishes decoded RFXtrx events to MQTT and turns MQTT
// command messages into transmitted frames.
//
// Topics, below a configurable prefix:
//
//	<prefix>/status                          online/offline (retained, LWT)
//	<prefix>/transceiver                     last status report (retained)
//	<prefix>/<kind>/<pt>/<subtype>/<id>      sensor and control events
//	<prefix>/command/<pt>/<subtype>/<id>/set commands (subscribed)
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Payload encodings
const (
	PayloadJSON = "json"
	PayloadCBOR = "cbor"
)

// DefaultPrefix is the topic prefix used when none is configured
const DefaultPrefix = "rfxtrx"

// Availability payloads
const (
	Online  = "online"
	Offline = "offline"
)

// ErrBadTopic is returned for command topics that do not name a device
var ErrBadTopic = errors.New("malformed command topic")

// Publisher is the part of an MQTT client the bridge publishes through
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Sender transmits device commands
type Sender interface {
	Send(id rfxtrx.DeviceIdentity, cmd rfxtrx.Command, params rfxtrx.Params) error
}

// Config configures a Bridge
type Config struct {
	Prefix  string
	Payload string
	// Retain marks event messages as retained
	Retain  bool
	Logger  logrus.FieldLogger
	Metrics *Metrics
}

// Bridge connects a transceiver session to an MQTT broker
type Bridge struct {
	pub     Publisher
	sender  Sender
	prefix  string
	payload string
	retain  bool
	log     logrus.FieldLogger
	metrics *Metrics
}

// New creates a bridge. Sender may be nil for a publish-only bridge.
func New(pub Publisher, sender Sender, cfg Config) (*Bridge, error) {
	switch cfg.Payload {
	case "":
		cfg.Payload = PayloadJSON
	case PayloadJSON, PayloadCBOR:
	default:
		return nil, fmt.Errorf("unknown payload format %q (json or cbor)", cfg.Payload)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Bridge{
		pub:     pub,
		sender:  sender,
		prefix:  strings.TrimSuffix(cfg.Prefix, "/"),
		payload: cfg.Payload,
		retain:  cfg.Retain,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// StatusTopic is the availability topic
func (b *Bridge) StatusTopic() string {
	return StatusTopicFor(b.prefix)
}

// StatusTopicFor returns the availability topic below prefix, for the last
// will set before a Bridge exists
func StatusTopicFor(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/status"
}

// TransceiverTopic carries the last status report
func (b *Bridge) TransceiverTopic() string {
	return b.prefix + "/transceiver"
}

// CommandFilter is the subscription filter for command topics
func (b *Bridge) CommandFilter() string {
	return b.prefix + "/command/+/+/+/set"
}

// EventTopic returns the topic a record is published on
func (b *Bridge) EventTopic(r *rfxtrx.Record) string {
	return fmt.Sprintf("%s/%s/%02x/%02x/%s", b.prefix, r.Kind, r.PacketType, r.Subtype, r.ID)
}

// CommandTopic returns the topic that commands a device
func (b *Bridge) CommandTopic(id rfxtrx.DeviceIdentity) string {
	return fmt.Sprintf("%s/command/%s/set", b.prefix, id)
}

// Encode serializes a record in the configured payload format
func (b *Bridge) Encode(r *rfxtrx.Record) ([]byte, error) {
	if b.payload == PayloadCBOR {
		return rfxtrx.MarshalRecord(r)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// Handle publishes one received frame. It is a transceiver.Handler.
func (b *Bridge) Handle(r transceiver.Received) {
	if b.metrics != nil {
		b.metrics.Observe(r)
	}
	if r.Err != nil || r.Event == nil {
		return
	}

	if c, ok := r.Event.(*rfxtrx.ConnectionEvent); ok {
		switch c.State {
		case rfxtrx.ConnectionDone:
			b.publish(b.StatusTopic(), true, Online)
		case rfxtrx.ConnectionLost:
			b.publish(b.StatusTopic(), true, Offline)
		}
		return
	}

	rec, ok := rfxtrx.NewRecord(r.Event, r.Time)
	if !ok {
		return
	}
	payload, err := b.Encode(rec)
	if err != nil {
		b.log.WithError(err).Warn("Dropping event")
		return
	}

	if r.Event.Kind() == rfxtrx.EventStatus {
		b.publish(b.TransceiverTopic(), true, payload)
		return
	}
	b.publish(b.EventTopic(rec), b.retain, payload)
}

func (b *Bridge) publish(topic string, retained bool, payload interface{}) {
	token := b.pub.Publish(topic, 0, retained, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			b.log.WithError(token.Error()).WithField("topic", topic).Warn("Publish failed")
		}
	}()
	b.log.WithField("topic", topic).Debug("Published")
}

// CommandMessage is the JSON body of a command. A bare command name such as
// "on" is also accepted.
type CommandMessage struct {
	Command  string `json:"command"`
	Level    int    `json:"level,omitempty"`
	Percent  int    `json:"percent,omitempty"`
	Angle    int    `json:"angle,omitempty"`
	Sound    int    `json:"sound,omitempty"`
	Status   int    `json:"status,omitempty"`
	Scene    int    `json:"scene,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Pulse    int    `json:"pulse,omitempty"`
}

// Params returns the command arguments
func (c CommandMessage) Params() rfxtrx.Params {
	return rfxtrx.Params{
		Level:    c.Level,
		Percent:  c.Percent,
		Angle:    c.Angle,
		Sound:    c.Sound,
		Status:   c.Status,
		Scene:    c.Scene,
		Duration: c.Duration,
		Pulse:    c.Pulse,
	}
}

// ParseCommand decodes a command topic and payload
func (b *Bridge) ParseCommand(topic string, payload []byte) (rfxtrx.DeviceIdentity, rfxtrx.Command, rfxtrx.Params, error) {
	var none rfxtrx.Params

	rest, ok := strings.CutPrefix(topic, b.prefix+"/command/")
	if !ok {
		return rfxtrx.DeviceIdentity{}, 0, none, fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	rest, ok = strings.CutSuffix(rest, "/set")
	if !ok {
		return rfxtrx.DeviceIdentity{}, 0, none, fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	id, err := rfxtrx.ParseDeviceIdentity(rest)
	if err != nil {
		return rfxtrx.DeviceIdentity{}, 0, none, err
	}

	var msg CommandMessage
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
			return rfxtrx.DeviceIdentity{}, 0, none, fmt.Errorf("%w: %v", rfxtrx.ErrInvalidCommand, err)
		}
	} else {
		msg.Command = trimmed
	}

	cmd, err := rfxtrx.ParseCommand(strings.ToLower(msg.Command))
	if err != nil {
		return rfxtrx.DeviceIdentity{}, 0, none, err
	}
	return id, cmd, msg.Params(), nil
}

// HandleCommand parses and sends one command message
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	if b.sender == nil {
		return fmt.Errorf("bridge is publish-only")
	}
	id, cmd, params, err := b.ParseCommand(topic, payload)
	if err == nil {
		err = b.sender.Send(id, cmd, params)
	}
	if b.metrics != nil {
		b.metrics.ObserveCommand(err)
	}
	if err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{"device": id.String(), "command": cmd.String()}).Info("Command sent")
	return nil
}

// MessageHandler adapts HandleCommand to a paho subscription callback
func (b *Bridge) MessageHandler() mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.HandleCommand(msg.Topic(), msg.Payload()); err != nil {
			b.log.WithError(err).WithField("topic", msg.Topic()).Warn("Command rejected")
		}
	}
}
