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
	discoveryTimeout  int
	discoveryControls bool
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "List the devices heard within a time window",
	Long: `Listen for a while and list every device the transceiver hears.

RF devices do not answer requests; they transmit on their own schedule.
Temperature sensors typically report every 30 to 60 seconds, remotes and
switches only when operated. Choose --timeout accordingly.

Examples:
  # Listen for two minutes on an auto-detected transceiver
  rfxscope discovery --port auto --timeout 120

  # Only list remotes, switches and blinds, enabling AC and ARC reception
  rfxscope discovery --port /dev/ttyUSB0 --modes ac,arc --controls

Exit codes:
  0 - Discovery successful (at least one device heard)
  1 - No devices heard before timeout
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 60, "Listening time in seconds")
	discoveryCmd.Flags().BoolVar(&discoveryControls, "controls", false, "Only list remotes, switches and blinds")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer session.Close()

	fmt.Printf("rfxscope - Device Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", discoveryTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(discoveryTimeout)*time.Second)
	defer cancel()

	seen := make(map[rfxtrx.DeviceIdentity]bool)
	err = session.Run(ctx, func(r transceiver.Received) {
		if r.Err != nil {
			return
		}
		if discoveryControls && r.Event.Kind() != rfxtrx.EventControl {
			return
		}
		id, ok := deviceOf(r.Event)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		fmt.Printf("Device found: %v\n", id)
		fmt.Print(rfxtrx.FormatEvent(r.Event, r.Time))
	})
	if err != nil {
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
	}

	devices := session.Devices()

	// Summary
	fmt.Printf("\n--- Discovery summary ---\n")
	count := 0
	for _, d := range devices {
		if !seen[d.Identity] {
			continue
		}
		count++
		commandable := ""
		if _, err := rfxtrx.PacketFromIdentity(d.Identity); err == nil {
			commandable = " (commandable)"
		}
		fmt.Printf("  %-24s %4d frames, last %s%s\n",
			d.Identity, d.Count, d.LastSeen.Format("15:04:05"), commandable)
	}
	fmt.Printf("Devices found: %d\n", count)

	if count == 0 {
		fmt.Printf("No devices heard. Check the enabled receive modes (rfxscope status).\n")
		os.Exit(1)
	}

	return nil
}
