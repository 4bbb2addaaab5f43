// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor devices, decode errors and frame statistics",
	Long: `Track every device heard by the transceiver together with frame statistics.

This command decodes each frame and reports:
  - New devices as they are first heard
  - Frames that fail to decode (framing errors, unknown packet types,
    truncated frames)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors and new devices are logged. Use --show-all to log every
frame.

The terminal UI shows a device table with the latest values of each device.
With --tui=false statistics are printed at a configurable interval instead.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Log all frames (not just errors and new devices)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics print interval in text mode (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	if useTUI {
		return runTUIMode(cmd.Context(), session, connInfo)
	}
	return runTextMode(cmd.Context(), session, connInfo)
}

// runTUIMode runs the monitor in TUI mode
func runTUIMode(ctx context.Context, session *transceiver.Session, connInfo string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(connInfo, showAll)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		err := session.Run(ctx, func(r transceiver.Received) {
			p.Send(receivedMsg(r))
		})
		p.Send(sessionEndedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runTextMode prints errors, new devices and periodic statistics
func runTextMode(ctx context.Context, session *transceiver.Session, connInfo string) error {
	fmt.Printf("rfxscope - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors and new devices\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := rfxtrx.NewStatistics()
	seen := make(map[rfxtrx.DeviceIdentity]bool)
	received := make(chan transceiver.Received, 16)
	runErr := make(chan error, 1)

	go func() {
		runErr <- session.Run(ctx, func(r transceiver.Received) {
			received <- r
		})
	}()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case r := <-received:
			if r.Frame == nil {
				// connection state change
				fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
				continue
			}
			stats.Update(r.Event, r.Err)
			if r.Err != nil {
				printDecodeError(r)
				continue
			}
			id, ok := deviceOf(r.Event)
			if ok && !seen[id] {
				seen[id] = true
				fmt.Printf("[NEW DEVICE] %v\n", id)
				fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
				continue
			}
			if showAll {
				fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case err := <-runErr:
			fmt.Println()
			fmt.Print(stats.String())
			return err
		}
	}
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(r transceiver.Received) {
	timestamp := r.Time.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, r.Err)
	fmt.Printf("  Bytes: %s\n", rfxtrx.FormatFrame(r.Frame))
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// deviceOf returns the device a sensor or control event came from
func deviceOf(ev rfxtrx.Event) (rfxtrx.DeviceIdentity, bool) {
	switch e := ev.(type) {
	case *rfxtrx.SensorEvent:
		return e.Device, true
	case *rfxtrx.ControlEvent:
		return e.Device, true
	}
	return rfxtrx.DeviceIdentity{}, false
}
