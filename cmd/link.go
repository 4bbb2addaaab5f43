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
	linkTestDuration int
	linkTestPoll     bool
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test raw connection stability",
	Long: `Open the connection without running the connect sequence and log every
chunk of bytes received, or any error encountered.

Useful for debugging serial adapters, ser2net setups and WebSocket proxies:
the bytes are shown exactly as the transport delivered them, before frames
are reassembled. With --poll a get status command is sent every second so an
idle transceiver still produces traffic.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
	linkTestCmd.Flags().BoolVar(&linkTestPoll, "poll", false, "Send a get status command every second")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkTestDuration)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	startTime := time.Now()
	endTime := startTime.Add(time.Duration(linkTestDuration) * time.Second)
	bytesReceived := 0
	chunksReceived := 0
	framer := rfxtrx.NewFramer()
	framesReceived := 0

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			chunksReceived++
			fmt.Printf("[%s] Received %d bytes: %s\n",
				time.Now().Format("15:04:05.000"), len(data), rfxtrx.FormatFrame(data))
			framesReceived += len(framer.Feed(data))

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Duration: %v\n", time.Since(startTime).Round(time.Millisecond))
			fmt.Printf("Chunks received: %d\n", chunksReceived)
			fmt.Printf("Bytes received: %d\n", bytesReceived)
			fmt.Printf("Frames reassembled: %d\n", framesReceived)
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-cmd.Context().Done():
			endTime = time.Now()

		case <-time.After(1 * time.Second):
			if linkTestPoll {
				if _, err := conn.Write(rfxtrx.EncodeStatusRequest()); err != nil {
					fmt.Printf("[%s] Write error: %v\n", time.Now().Format("15:04:05.000"), err)
				}
			}
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", time.Since(startTime).Round(time.Second))
	fmt.Printf("Chunks received: %d\n", chunksReceived)
	fmt.Printf("Bytes received: %d\n", bytesReceived)
	fmt.Printf("Frames reassembled: %d\n", framesReceived)
	if framer.Skipped() > 0 {
		fmt.Printf("Zero bytes skipped: %d\n", framer.Skipped())
	}
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
