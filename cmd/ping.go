// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by sending get status commands",
	Long: `Send get status commands to the transceiver and wait for each status report.

Unlike the other commands this does not reset or start the transceiver; it
only measures whether the transceiver answers and how long it takes. Frames
received from devices while waiting are ignored.

This is useful for verifying:
  - The serial port, TCP or WebSocket link is up
  - HTTP Basic authentication works (WebSocket)
  - The transceiver firmware is answering commands

Exit codes:
  0 - All pings answered
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("rfxscope - Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	// One reader for the whole run; status reports are handed over as they
	// are decoded
	statusChan := make(chan *rfxtrx.StatusEvent, 1)
	errChan := make(chan error, 1)

	go func() {
		framer := rfxtrx.NewFramer()
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			for _, frame := range framer.Feed(buf[:n]) {
				ev, decodeErr := rfxtrx.Decode(frame)
				if decodeErr != nil {
					continue
				}
				if status, ok := ev.(*rfxtrx.StatusEvent); ok {
					select {
					case statusChan <- status:
					default:
					}
				}
			}
		}
	}()

	successCount := 0
	failCount := 0
	request := rfxtrx.EncodeStatusRequest()

pings:
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		// Drop a late answer to the previous ping
		select {
		case <-statusChan:
		default:
		}

		startTime := time.Now()
		if _, err := conn.Write(request); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case status := <-statusChan:
			rtt := time.Since(startTime)
			fmt.Printf("status from %s, firmware=%d, rtt=%v\n",
				status.TransceiverType, status.Firmware, rtt.Round(time.Millisecond))
			successCount++

		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount += pingCount - i + 1
			break pings

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++

		case <-cmd.Context().Done():
			failCount += pingCount - i + 1
			break pings
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
