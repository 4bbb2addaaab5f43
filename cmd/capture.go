// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/capture"
	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	recordAppend bool
	recordQuiet  bool
	replaySpeed  float64
	replayStats  bool
)

var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Record received frames to a capture file",
	Long: `Connect to the transceiver and append every received frame, including
frames that fail to decode, to a capture file with its receive time.

Capture files are a stream of CBOR records, each carrying a CRC-16 of the
frame. Use replay to decode them later.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Decode and display a capture file",
	Long: `Decode every frame in a capture file and display it the way raw_log does.

With --speed the original timing is reproduced: 1 replays in real time, 2 at
double speed. The default of 0 replays as fast as possible. Damaged records
are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	recordCmd.Flags().BoolVar(&recordAppend, "append", false, "Append to an existing capture file")
	recordCmd.Flags().BoolVarP(&recordQuiet, "quiet", "q", false, "Do not print frames while recording")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 0, "Playback speed factor (0 for no delay)")
	replayCmd.Flags().BoolVar(&replayStats, "stats", false, "Print statistics after replay")
}

func runRecord(cmd *cobra.Command, args []string) error {
	flags := os.O_CREATE | os.O_WRONLY
	if recordAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(args[0], flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	session, connInfo, err := OpenSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("rfxscope - Record\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Capture file: %s\n", args[0])
	fmt.Printf("Press Ctrl+C to stop\n\n")

	w := capture.NewWriter(f)
	var writeErr error
	err = session.Run(cmd.Context(), func(r transceiver.Received) {
		if r.Frame == nil || writeErr != nil {
			return
		}
		if writeErr = w.Write(r.Time, r.Frame); writeErr != nil {
			logrus.WithError(writeErr).Error("Capture write failed")
			return
		}
		if !recordQuiet {
			printReceived(r)
		}
	})

	fmt.Printf("\nRecorded %d frames\n", w.Count())
	if writeErr != nil {
		return writeErr
	}
	return err
}

// replayDelay returns how long to wait before replaying a record received at
// next when the previous one was received at prev
func replayDelay(prev, next time.Time, speed float64) time.Duration {
	if speed <= 0 || prev.IsZero() || !next.After(prev) {
		return 0
	}
	return time.Duration(float64(next.Sub(prev)) / speed)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	stats, err := replay(cmd.Context(), capture.NewReader(f), replaySpeed, os.Stdout)
	if replayStats {
		fmt.Println()
		fmt.Print(stats.String())
	}
	return err
}

// replay decodes each record of r and writes the formatted events to out
func replay(ctx context.Context, r *capture.Reader, speed float64, out io.Writer) (*rfxtrx.Statistics, error) {
	stats := rfxtrx.NewStatistics()
	var prev time.Time

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if errors.Is(err, capture.ErrChecksum) {
			fmt.Fprintf(out, "[%s] [DAMAGED] %v\n", rec.Timestamp().Format("15:04:05.000"), err)
			continue
		}
		if err != nil {
			return stats, err
		}

		ts := rec.Timestamp()
		if d := replayDelay(prev, ts, speed); d > 0 {
			select {
			case <-ctx.Done():
				return stats, nil
			case <-time.After(d):
			}
		}
		prev = ts

		ev, decodeErr := rfxtrx.Decode(rec.Frame)
		stats.Update(ev, decodeErr)
		if decodeErr != nil {
			fmt.Fprintf(out, "[%s] [ERROR] %v\n", ts.Format("15:04:05.000"), decodeErr)
			continue
		}
		fmt.Fprint(out, rfxtrx.FormatEvent(ev, ts))
	}
}
