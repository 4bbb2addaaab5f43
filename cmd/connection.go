// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const (
	passwordEnv = "RFXSCOPE_PASSWORD"
	dialTimeout = 10 * time.Second
)

// GetPassword retrieves a password from the environment or prompts the user
func GetPassword(envVar string) (string, error) {
	if pw := os.Getenv(envVar); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a serial, TCP or WebSocket transport based on flags
func OpenConnection(ctx context.Context) (transceiver.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword(passwordEnv)
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := transceiver.OpenWebSocket(ctx, wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if tcpHost != "" {
		conn, err := transceiver.OpenTCP(ctx, tcpHost, dialTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("TCP: %s", tcpHost), nil
	}

	if portName != "" {
		name := portName
		if name == "auto" {
			var err error
			name, err = transceiver.DetectSerialPort()
			if err != nil {
				return nil, "", err
			}
			logrus.WithField("port", name).Info("Detected RFXCOM transceiver")
		}

		conn, err := transceiver.OpenSerial(name, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", name, baudRate), nil
	}

	return nil, "", fmt.Errorf("one of --port, --host or --url must be specified")
}

// OpenSession opens the configured transport and wraps it in a session
func OpenSession(ctx context.Context) (*transceiver.Session, string, error) {
	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return nil, "", err
	}
	session := transceiver.NewSession(conn, transceiver.Config{
		Modes:  receiveModes,
		Logger: logrus.WithField("conn", connInfo),
	})
	return session, connInfo, nil
}
