// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/spf13/cobra"
)

var statusListModes bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the transceiver status report",
	Long: `Run the connect sequence and print the transceiver's status report: its
frequency band, firmware version, output power and enabled receive modes.

With --modes the receive modes are changed first and the report shows the
result. Use --list-modes to print every mode name the transceiver knows.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusListModes, "list-modes", false, "List receive mode names and exit")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusListModes {
		fmt.Println(strings.Join(rfxtrx.ReceiveModes(), "\n"))
		return nil
	}

	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	err = session.Run(ctx, func(r transceiver.Received) {
		if c, ok := r.Event.(*rfxtrx.ConnectionEvent); ok && c.State == rfxtrx.ConnectionDone {
			cancel()
		}
	})
	if err != nil {
		return err
	}

	status := session.Status()
	if status == nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for the transceiver")
		}
		return transceiver.ErrNoStatus
	}

	fmt.Printf("Connection:    %s\n", connInfo)
	fmt.Printf("Transceiver:   %s (0x%02X)\n", status.TransceiverType, status.Status.TransceiverType)
	fmt.Printf("Firmware:      %d\n", status.Firmware)
	fmt.Printf("Output Power:  %d\n", status.OutputPower)
	if len(status.Devices) == 0 {
		fmt.Printf("Receive Modes: (none)\n")
	} else {
		fmt.Printf("Receive Modes: %s\n", strings.Join(status.Devices, ", "))
	}
	return nil
}
