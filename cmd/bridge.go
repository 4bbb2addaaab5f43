// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/bridge"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const mqttPasswordEnv = "RFXSCOPE_MQTT_PASSWORD"

var (
	mqttBroker     string
	mqttUsername   string
	mqttClientID   string
	topicPrefix    string
	payloadFormat  string
	retainEvents   bool
	metricsAddr    string
	bridgeReadOnly bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge transceiver events and commands to MQTT",
	Long: `Publish every decoded frame to an MQTT broker and send commands received
over MQTT.

Topics (below --topic-prefix):
  status                          online/offline, retained, set as last will
  transceiver                     last status report, retained
  <kind>/<pt>/<subtype>/<id>      sensor and control events
  command/<pt>/<subtype>/<id>/set commands, e.g. "on" or
                                  {"command":"dim","level":40}

Events are encoded as JSON or CBOR records (--payload). With --metrics-addr a
Prometheus endpoint exports frame counters and the latest sensor values.

The MQTT password is read from ` + mqttPasswordEnv + `.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&mqttBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	bridgeCmd.Flags().StringVar(&mqttUsername, "mqtt-user", "", "MQTT username")
	bridgeCmd.Flags().StringVar(&mqttClientID, "client-id", "rfxscope_bridge", "MQTT client ID")
	bridgeCmd.Flags().StringVar(&topicPrefix, "topic-prefix", bridge.DefaultPrefix, "MQTT topic prefix")
	bridgeCmd.Flags().StringVar(&payloadFormat, "payload", bridge.PayloadJSON, "Event payload format (json, cbor)")
	bridgeCmd.Flags().BoolVar(&retainEvents, "retain", false, "Publish events as retained messages")
	bridgeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9110)")
	bridgeCmd.Flags().BoolVar(&bridgeReadOnly, "read-only", false, "Do not subscribe to command topics")
}

func runBridge(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	log := logrus.WithField("conn", connInfo)

	var metrics *bridge.Metrics
	if metricsAddr != "" {
		metrics = bridge.NewMetrics(prometheus.DefaultRegisterer)
	}

	// The bridge is created after the client; the connect handler only runs
	// once Connect is called below.
	var b *bridge.Bridge

	opts := mqtt.NewClientOptions()
	opts.AddBroker(mqttBroker)
	if mqttUsername != "" {
		opts.SetUsername(mqttUsername)
		opts.SetPassword(os.Getenv(mqttPasswordEnv))
	}
	opts.SetClientID(mqttClientID)
	opts.SetAutoReconnect(true)
	opts.SetWill(bridge.StatusTopicFor(topicPrefix), bridge.Offline, 0, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.WithField("broker", mqttBroker).Info("Connected to MQTT broker")
		if bridgeReadOnly {
			return
		}
		if token := c.Subscribe(b.CommandFilter(), 0, b.MessageHandler()); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Error("Subscribe failed")
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)

	var sender bridge.Sender = session
	if bridgeReadOnly {
		sender = nil
	}
	b, err = bridge.New(client, sender, bridge.Config{
		Prefix:  topicPrefix,
		Payload: payloadFormat,
		Retain:  retainEvents,
		Logger:  log,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Warn("Could not connect to MQTT initially, will retry in background")
	}
	defer func() {
		client.Publish(b.StatusTopic(), 0, true, bridge.Offline).WaitTimeout(time.Second)
		client.Disconnect(250)
	}()

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return session.Run(ctx, b.Handle)
	})

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.WithField("addr", metricsAddr).Info("Serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
