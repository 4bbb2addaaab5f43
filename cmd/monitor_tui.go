// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for notices
}

// Latest state of one device
type deviceRow struct {
	identity   rfxtrx.DeviceIdentity
	typeString string
	values     rfxtrx.Values
	lastSeen   time.Time
	count      uint64
}

// TUI model
type model struct {
	connInfo      string
	showAll       bool
	stats         *rfxtrx.Statistics
	devices       map[rfxtrx.DeviceIdentity]*deviceRow
	eventLog      []eventLogEntry
	maxLogEntries int
	connected     bool
	connectedAt   time.Time
	status        *rfxtrx.StatusEvent
	sessionErr    error
	ended         bool
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type receivedMsg transceiver.Received
type sessionEndedMsg struct {
	err error
}

// formatDuration formats a duration as a human-friendly string
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}

	seconds := uint64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, showAll bool) model {
	return model{
		connInfo:      connInfo,
		showAll:       showAll,
		stats:         rfxtrx.NewStatistics(),
		devices:       make(map[rfxtrx.DeviceIdentity]*deviceRow),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.stats.Reset()
			m.addLogEntry("Statistics cleared", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case sessionEndedMsg:
		m.ended = true
		m.connected = false
		m.sessionErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Session ended: %v", msg.err), true)
		}

	case receivedMsg:
		m.handleReceived(transceiver.Received(msg))
	}

	return m, nil
}

func (m *model) handleReceived(r transceiver.Received) {
	if r.Frame == nil {
		if c, ok := r.Event.(*rfxtrx.ConnectionEvent); ok {
			switch c.State {
			case rfxtrx.ConnectionDone:
				m.connected = true
				m.connectedAt = r.Time
				m.addLogEntry("Connected", false)
			case rfxtrx.ConnectionLost:
				m.connected = false
				m.addLogEntry(c.String(), true)
			}
		}
		return
	}

	m.stats.Update(r.Event, r.Err)
	if r.Err != nil {
		var decodeErr *rfxtrx.DecodeError
		if errors.As(r.Err, &decodeErr) {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v [%s]", decodeErr.Err, rfxtrx.FormatFrame(decodeErr.Frame)), true)
		} else {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", r.Err), true)
		}
		return
	}

	switch e := r.Event.(type) {
	case *rfxtrx.StatusEvent:
		m.status = e
		m.addLogEntry(fmt.Sprintf("Status: %s firmware %d", e.TransceiverType, e.Firmware), false)
	case *rfxtrx.SensorEvent:
		m.touch(e.Device, e.Packet.TypeString(), e.Values, r.Time)
	case *rfxtrx.ControlEvent:
		m.touch(e.Device, e.Packet.TypeString(), e.Values, r.Time)
	}
}

func (m *model) touch(id rfxtrx.DeviceIdentity, typeString string, values rfxtrx.Values, ts time.Time) {
	row, ok := m.devices[id]
	if !ok {
		row = &deviceRow{identity: id, typeString: typeString}
		m.devices[id] = row
		m.addLogEntry(fmt.Sprintf("New device %v (%s)", id, typeString), false)
	} else if m.showAll {
		m.addLogEntry(fmt.Sprintf("%v %v", id, values), false)
	}
	row.values = values
	row.lastSeen = ts
	row.count++
}

// sortedDevices returns the device rows ordered by identity
func (m *model) sortedDevices() []*deviceRow {
	rows := make([]*deviceRow, 0, len(m.devices))
	for _, row := range m.devices {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].identity.String() < rows[j].identity.String()
	})
	return rows
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("RFXSCOPE - MONITOR"))
	s.WriteString("\n")
	mode := "Errors and new devices"
	if m.showAll {
		mode = "All frames"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'c' clear stats | 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	// Connection status
	switch {
	case m.connected:
		s.WriteString(statsValueStyle.Render("✓ Connected"))
		s.WriteString(headerStyle.Render(fmt.Sprintf(" for %s", formatDuration(time.Since(m.connectedAt)))))
		if m.status != nil {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" | %s, firmware %d, modes: %s",
				m.status.TransceiverType, m.status.Firmware, strings.Join(m.status.Devices, ", "))))
		}
	case m.ended && m.sessionErr != nil:
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	case m.ended:
		s.WriteString(warningStyle.Render("Session closed"))
	default:
		s.WriteString(warningStyle.Render("⏳ Connecting..."))
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.Errors(), errorPercent)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Sensor:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.SensorEvents)),
		statsLabelStyle.Render("Control:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.ControlEvents)),
		statsLabelStyle.Render("Devices:"), statsValueStyle.Render(fmt.Sprintf("%d", len(m.devices))),
	))

	if m.stats.Errors() > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Framing:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.FramingErrors)),
			statsLabelStyle.Render("Unknown Type:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.UnknownTypes)),
			statsLabelStyle.Render("Truncated:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.Truncated)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Device table
	rows := m.sortedDevices()
	if len(rows) > 0 {
		s.WriteString(statsLabelStyle.Render("Devices:"))
		s.WriteString("\n")

		deviceContent := strings.Builder{}
		for i, row := range rows {
			if i > 0 {
				deviceContent.WriteString("\n")
			}
			deviceContent.WriteString(fmt.Sprintf("%s %s %s %s",
				statsValueStyle.Render(fmt.Sprintf("%-22s", row.identity.String())),
				headerStyle.Render(fmt.Sprintf("%-16s x%-5d %s", row.typeString, row.count, row.lastSeen.Format("15:04:05"))),
				statsLabelStyle.Render("|"),
				row.values.String(),
			))
		}

		s.WriteString(boxStyle.Width(m.width - 4).Render(deviceContent.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 - len(rows)
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
