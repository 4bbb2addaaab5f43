// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/spf13/cobra"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid frame from a device",
	Long: `Connect to the transceiver and wait for a frame from any device until timeout.

This command runs the connect sequence (reset, status, start) and then waits
for a sensor or control frame that decodes cleanly. Frames that fail to decode
are counted and ignored.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for testing that the transceiver is listening on the expected receive
modes.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 30, "Timeout in seconds to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer session.Close()

	fmt.Printf("rfxscope - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for a device frame...\n\n")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	received := make(chan transceiver.Received, 1)
	errChan := make(chan error, 1)
	invalid := 0

	go func() {
		errChan <- session.Run(ctx, func(r transceiver.Received) {
			if r.Err != nil {
				invalid++
				return
			}
			switch r.Event.Kind() {
			case rfxtrx.EventSensor, rfxtrx.EventControl:
				select {
				case received <- r:
				default:
				}
			}
		})
	}()

	select {
	case r := <-received:
		if invalid > 0 {
			fmt.Printf("(skipped %d undecodable frames)\n", invalid)
		}
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
		fmt.Printf("  Bytes: %s\n", rfxtrx.FormatFrame(r.Frame))
		os.Exit(0)

	case err := <-errChan:
		if err == nil {
			fmt.Fprintf(os.Stderr, "Interrupted before a frame arrived\n")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(packetTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", packetTestTimeout)
		os.Exit(1)
	}

	return nil
}
