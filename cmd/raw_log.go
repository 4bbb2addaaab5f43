// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/spf13/cobra"
)

var rawLogShowBytes bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display received frames in human-readable format",
	Long: `Connect to the transceiver and continuously decode and display every frame
as it arrives, showing each frame with timestamp, packet type, device id and
decoded values.

Frames that fail to decode are printed as errors together with their bytes.

Supports serial, TCP and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogShowBytes, "bytes", false, "Print the raw frame bytes under each event")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("rfxscope - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	return session.Run(cmd.Context(), printReceived)
}

func printReceived(r transceiver.Received) {
	if r.Err != nil {
		fmt.Printf("[%s] [ERROR] %v\n", r.Time.Format("15:04:05.000"), r.Err)
		return
	}
	fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
	if rawLogShowBytes && r.Frame != nil {
		fmt.Printf("  Bytes: %s\n", rfxtrx.FormatFrame(r.Frame))
	}
}
