// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var controlDevices []string

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling switches, dimmers and blinds",
	Long: `Control RF devices via an interactive terminal UI.

This command provides a TUI for listening to and commanding the devices in
range of the transceiver.

Features:
  - Device list filled from remotes and switches heard on air
  - Devices given with --device can be commanded before they are heard
  - Command entry by name with an optional numeric argument
  - Statistics tracking
  - Event logging
  - Automatic reconnection on connection loss

Tab switches between the device list, command and argument fields and the
send button. Arrow keys navigate the device list.

Supports serial, TCP and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().StringSliceVar(&controlDevices, "device", nil, "Device to list before it is heard (pt/subtype/id, repeatable)")
}

// connectionManager handles session lifecycle and reconnection
type connectionManager struct {
	session  *transceiver.Session
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	ctx      context.Context
}

func (cm *connectionManager) getSession() *transceiver.Session {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.session
}

func (cm *connectionManager) setSession(session *transceiver.Session, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.session = session
	cm.connInfo = connInfo
}

// send transmits a command on the current session
func (cm *connectionManager) send(id rfxtrx.DeviceIdentity, cmd rfxtrx.Command, params rfxtrx.Params) error {
	session := cm.getSession()
	if session == nil {
		return fmt.Errorf("connection lost")
	}
	return session.Send(id, cmd, params)
}

func runControl(cmd *cobra.Command, args []string) error {
	seeds := make([]rfxtrx.DeviceIdentity, 0, len(controlDevices))
	for _, s := range controlDevices {
		id, err := parseTarget(s)
		if err != nil {
			return fmt.Errorf("--device %s: %w", s, err)
		}
		seeds = append(seeds, id)
	}

	// Open initial session (serial, TCP or WebSocket)
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cm := &connectionManager{
		session:  session,
		connInfo: connInfo,
		ctx:      ctx,
	}

	m := initialControlModel(cm, connInfo, seeds)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.p = p

	go cm.readerLoop()

	_, err = p.Run()
	cancel()
	if s := cm.getSession(); s != nil {
		s.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// readerLoop runs the session with automatic reconnection
func (cm *connectionManager) readerLoop() {
	for {
		connLost := cm.runSession()
		if !connLost {
			return
		}

		cm.p.Send(connectionLostMsg{})

		if !cm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// runSession runs the current session until it fails, batching received
// frames to the TUI. Returns true if the connection was lost, false if
// shutdown was requested.
func (cm *connectionManager) runSession() bool {
	session := cm.getSession()
	batchChan := make(chan transceiver.Received, 100)
	runDone := make(chan error, 1)

	go func() {
		runDone <- session.Run(cm.ctx, func(r transceiver.Received) {
			select {
			case batchChan <- r:
			default:
			}
		})
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-runDone:
			cm.flush(batchChan)
			if cm.ctx.Err() != nil {
				return false
			}
			if err != nil {
				cm.p.Send(controlErrorMsg{err: err})
			}
			return true

		case <-ticker.C:
			cm.flush(batchChan)
		}
	}
}

// flush sends everything queued as one batch
func (cm *connectionManager) flush(batchChan <-chan transceiver.Received) {
	var batch controlBatchMsg
	for {
		select {
		case r := <-batchChan:
			batch.received = append(batch.received, r)
		default:
			if len(batch.received) > 0 {
				cm.p.Send(batch)
			}
			return
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	if session := cm.getSession(); session != nil {
		session.Close()
	}
	cm.setSession(nil, cm.connInfo)

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.ctx.Done():
			return false
		case <-time.After(backoff):
		}

		session, connInfo, err := OpenSession(cm.ctx)
		if err == nil {
			cm.setSession(session, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
