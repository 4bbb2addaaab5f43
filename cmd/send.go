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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	sendParams   rfxtrx.Params
	sendRepeat   int
	sendInterval time.Duration
	sendTimeout  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <device> <command>",
	Short: "Send a command to a device",
	Long: `Run the connect sequence and transmit one command to a device.

The device is given as "pt/subtype/id" in hex, the way raw_log and monitor
print it, e.g. "11/00/1234567:1" for an AC switch or "1a/00/010203:1" for an
RFY blind. The device does not need to have been heard first.

Commands: ` + strings.Join(rfxtrx.CommandNames(), ", ") + `

Command arguments are taken from flags: --level for dim, --percent and
--angle for blinds, --sound for chimes, --status for security devices,
--scene and --duration for Funkbus, --pulse for PT2262 codes.`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendParams.Level, "level", 0, "Dim level in percent (0-100)")
	sendCmd.Flags().IntVar(&sendParams.Percent, "percent", 0, "Blind position in percent (0-100)")
	sendCmd.Flags().IntVar(&sendParams.Angle, "angle", 0, "Blind slat angle (0-180)")
	sendCmd.Flags().IntVar(&sendParams.Sound, "sound", 0, "Chime sound")
	sendCmd.Flags().IntVar(&sendParams.Status, "status", 0, "Security status code")
	sendCmd.Flags().IntVar(&sendParams.Scene, "scene", 0, "Funkbus scene number")
	sendCmd.Flags().IntVar(&sendParams.Duration, "duration", 0, "Funkbus dim duration code (0-44)")
	sendCmd.Flags().IntVar(&sendParams.Pulse, "pulse", 0, "PT2262 pulse width in microseconds (0 for default)")
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of times to send the command")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 500*time.Millisecond, "Delay between repeated sends")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "Time allowed for connect and send")
}

// parseTarget parses a device identity and checks that commands can be
// built for it
func parseTarget(s string) (rfxtrx.DeviceIdentity, error) {
	id, err := rfxtrx.ParseDeviceIdentity(s)
	if err != nil {
		return rfxtrx.DeviceIdentity{}, err
	}
	if _, err := rfxtrx.PacketFromIdentity(id); err != nil {
		return rfxtrx.DeviceIdentity{}, err
	}
	return id, nil
}

// paramsFor maps the single numeric argument of interactive and MQTT
// commands to the parameter the command reads
func paramsFor(cmd rfxtrx.Command, arg int) rfxtrx.Params {
	var p rfxtrx.Params
	switch cmd {
	case rfxtrx.CommandDim:
		p.Level = arg
	case rfxtrx.CommandPercent, rfxtrx.CommandPercentAngle:
		p.Percent = arg
	case rfxtrx.CommandAngle:
		p.Angle = arg
	case rfxtrx.CommandSound:
		p.Sound = arg
	case rfxtrx.CommandStatus:
		p.Status = arg
	case rfxtrx.CommandScene:
		p.Scene = arg
	case rfxtrx.CommandDimming, rfxtrx.CommandBrightening:
		p.Duration = arg
	}
	return p
}

func runSend(cmd *cobra.Command, args []string) error {
	id, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	command, err := rfxtrx.ParseCommand(args[1])
	if err != nil {
		return err
	}
	if sendRepeat < 1 {
		return fmt.Errorf("--repeat must be at least 1")
	}

	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	sent := make(chan error, 1)
	runErr := session.Run(ctx, func(r transceiver.Received) {
		c, ok := r.Event.(*rfxtrx.ConnectionEvent)
		if !ok || c.State != rfxtrx.ConnectionDone {
			return
		}
		go func() {
			sent <- sendRepeated(ctx, session, id, command)
			cancel()
		}()
	})
	if runErr != nil {
		return runErr
	}

	select {
	case err := <-sent:
		if err != nil {
			return err
		}
		fmt.Printf("Sent %v to %v via %s\n", command, id, connInfo)
		return nil
	default:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out before the command was sent")
		}
		return fmt.Errorf("interrupted before the command was sent")
	}
}

func sendRepeated(ctx context.Context, session *transceiver.Session, id rfxtrx.DeviceIdentity, command rfxtrx.Command) error {
	for i := 0; i < sendRepeat; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sendInterval):
			}
		}
		if err := session.Send(id, command, sendParams); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"device":  id.String(),
			"command": command.String(),
			"n":       i + 1,
		}).Debug("Command sent")
	}
	return nil
}
