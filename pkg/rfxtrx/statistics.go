// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame counts and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames   uint64
	ValidFrames   uint64
	FramingErrors uint64
	UnknownTypes  uint64
	Truncated     uint64
	SensorEvents  uint64
	ControlEvents uint64
	StatusEvents  uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one decode attempt and its outcome
func (s *Statistics) Update(event Event, decodeErr error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		switch {
		case errors.Is(decodeErr, ErrUnknownPacketType):
			s.UnknownTypes++
		case errors.Is(decodeErr, ErrTruncated):
			s.Truncated++
		default:
			s.FramingErrors++
		}
		return
	}

	s.ValidFrames++
	switch event.Kind() {
	case EventSensor:
		s.SensorEvents++
	case EventControl:
		s.ControlEvents++
	case EventStatus:
		s.StatusEvents++
	}
}

// Errors returns the number of frames that failed to decode
func (s *Statistics) Errors() uint64 {
	return s.FramingErrors + s.UnknownTypes + s.Truncated
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalFrames == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, percent(s.ValidFrames))
	result += fmt.Sprintf("  Sensor:           %5d\n", s.SensorEvents)
	result += fmt.Sprintf("  Control:          %5d\n", s.ControlEvents)
	if s.StatusEvents > 0 {
		result += fmt.Sprintf("  Status:           %5d\n", s.StatusEvents)
	}

	if s.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, percent(s.FramingErrors))
	}
	if s.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d (%.1f%%)\n", s.UnknownTypes, percent(s.UnknownTypes))
	}
	if s.Truncated > 0 {
		result += fmt.Sprintf("Truncated:       %8d (%.1f%%)\n", s.Truncated, percent(s.Truncated))
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
