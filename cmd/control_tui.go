// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/rfxscope/pkg/rfxtrx"
	"github.com/Thermoquad/rfxscope/pkg/transceiver"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusDeviceList = iota
	focusCommandInput
	focusArgInput
	focusButton
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// device is a commandable device in the list
type device struct {
	identity   rfxtrx.DeviceIdentity
	typeString string
	lastValues rfxtrx.Values
	lastSeen   time.Time
	heard      bool
}

// Implement list.Item interface
func (d device) Title() string { return d.identity.String() }
func (d device) Description() string {
	if !d.heard {
		return d.typeString + " (not heard yet)"
	}
	return fmt.Sprintf("%s %s", d.typeString, d.lastSeen.Format("15:04:05"))
}
func (d device) FilterValue() string { return d.identity.String() }

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Connection manager (for sending commands and reconnection)
	connMgr  *connectionManager
	connInfo string

	// Device tracking
	devices    []device
	deviceList list.Model
	status     *rfxtrx.StatusEvent

	// Monitoring (shared with the monitor dashboard)
	stats         *rfxtrx.Statistics
	eventLog      []eventLogEntry
	maxLogEntries int

	// Control
	commandInput textinput.Model
	argInput     textinput.Model
	focusedField int

	// UI state
	width          int
	height         int
	connected      bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type controlBatchMsg struct {
	received []transceiver.Received
}

type controlErrorMsg struct {
	err error
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(connMgr *connectionManager, connInfo string, seeds []rfxtrx.DeviceIdentity) controlModel {
	ci := textinput.New()
	ci.Placeholder = "on"
	ci.CharLimit = 16
	ci.Width = 16

	ai := textinput.New()
	ai.Placeholder = "0"
	ai.CharLimit = 5
	ai.Width = 10

	// Initialize device list with empty items
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	deviceList := list.New([]list.Item{}, delegate, 30, 10)
	deviceList.Title = "Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)

	m := controlModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		devices:       make([]device, 0, len(seeds)),
		deviceList:    deviceList,
		stats:         rfxtrx.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		commandInput:  ci,
		argInput:      ai,
		focusedField:  focusDeviceList,
		width:         80,
		height:        24,
	}

	for _, id := range seeds {
		typeString := id.PacketType.String()
		if pkt, err := rfxtrx.PacketFromIdentity(id); err == nil {
			typeString = pkt.TypeString()
		}
		m.devices = append(m.devices, device{identity: id, typeString: typeString})
	}
	m.sortDevices()
	m.updateDeviceList()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case controlTickMsg:
		m.stats.CalculateRates()
		return m, controlTickCmd()

	case controlBatchMsg:
		for _, r := range msg.received {
			m.processReceived(r)
		}

	case controlErrorMsg:
		m.addLogEntry(fmt.Sprintf("Session error: %v", msg.err), true)

	case connectionLostMsg:
		m.connectionLost = true
		m.connected = false
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected - running connect sequence", false)
	}

	// Update child components
	var cmd tea.Cmd
	switch m.focusedField {
	case focusCommandInput:
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	case focusArgInput:
		m.argInput, cmd = m.argInput.Update(msg)
		cmds = append(cmds, cmd)
	case focusDeviceList:
		m.deviceList, cmd = m.deviceList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// q is a valid character in the text fields
		if m.focusedField == focusDeviceList || m.focusedField == focusButton {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "enter":
		if m.focusedField != focusDeviceList {
			return m.sendCommand()
		}
		return m.cycleFocus(1), nil

	case "up", "k", "down", "j":
		if m.focusedField == focusDeviceList {
			m.deviceList, _ = m.deviceList.Update(msg)
			return m, nil
		}
	}

	// Pass through to focused component
	var cmd tea.Cmd
	switch m.focusedField {
	case focusCommandInput:
		m.commandInput, cmd = m.commandInput.Update(msg)
	case focusArgInput:
		m.argInput, cmd = m.argInput.Update(msg)
	}
	return m, cmd
}

func (m *controlModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Mouse events only drive the list
	m.deviceList, _ = m.deviceList.Update(msg)

	return m, nil
}

func (m *controlModel) cycleFocus(delta int) *controlModel {
	if m.getSelectedDevice() == nil {
		m.focusedField = focusDeviceList
		return m
	}

	maxFocus := focusButton
	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	m.commandInput.Blur()
	m.argInput.Blur()
	switch m.focusedField {
	case focusCommandInput:
		m.commandInput.Focus()
	case focusArgInput:
		m.argInput.Focus()
	}

	return m
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 2)

	focusedButtonStyle := buttonStyle.
		Background(lipgloss.Color("10"))

	// Header
	s.WriteString(titleStyle.Render("RFXSCOPE CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	switch {
	case m.connectionLost:
		connStatus = warningStyle.Render("RECONNECTING...")
	case !m.connected:
		connStatus = warningStyle.Render("CONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Tab=switch Enter=send ctrl+c=quit", connStatus)))
	s.WriteString("\n")

	if m.status != nil {
		s.WriteString(fmt.Sprintf(" %s %s",
			statsLabelStyle.Render("Transceiver:"),
			statsValueStyle.Render(fmt.Sprintf("%s, firmware %d", m.status.TransceiverType, m.status.Firmware))))
	}
	s.WriteString("\n\n")

	// Layout: left panel (devices) | right panel (control)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusDeviceList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	devicePanel := listStyle.Render(m.deviceList.View())

	controlContent := m.renderControlPanel(statsLabelStyle, statsValueStyle, headerStyle, buttonStyle, focusedButtonStyle)
	controlPanel := boxStyle.Width(rightWidth).Render(controlContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, devicePanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderControlPanel(statsLabelStyle, statsValueStyle, headerStyle, buttonStyle, focusedButtonStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.getSelectedDevice()
	if selected == nil {
		s.WriteString(headerStyle.Render("No device selected\n\nOperate a remote or switch in range, or pass --device"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Selected:"), selected.identity))
	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Type:"), statsValueStyle.Render(selected.typeString)))
	if selected.heard {
		s.WriteString(fmt.Sprintf("%s %v\n", statsLabelStyle.Render("Last:"), selected.lastValues))
	}
	s.WriteString("\n")

	s.WriteString(statsLabelStyle.Render("Command:  "))
	s.WriteString(m.renderInput(m.commandInput, focusCommandInput))
	s.WriteString("\n")
	s.WriteString(statsLabelStyle.Render("Argument: "))
	s.WriteString(m.renderInput(m.argInput, focusArgInput))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("dim: level, percent/angle: position, sound, status, scene, dimming: duration"))
	s.WriteString("\n\n")

	btnText := "[ Send ]"
	if m.focusedField == focusButton {
		s.WriteString(focusedButtonStyle.Render(btnText))
	} else {
		s.WriteString(buttonStyle.Render(btnText))
	}

	return s.String()
}

// renderInput shows a text field, as plain text when not focused
func (m controlModel) renderInput(input textinput.Model, field int) string {
	if m.focusedField == field {
		return input.View()
	}
	val := input.Value()
	if val == "" {
		val = input.Placeholder
	}
	return fmt.Sprintf("[%s]", val)
}

func (m controlModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(m.stats.Errors()) * 100.0 / float64(m.stats.TotalFrames)
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		statsLabelStyle.Render("Errors:"), func() string {
			if errorPercent > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
			}
			return statsValueStyle.Render("0.0%")
		}(),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *controlModel) processReceived(r transceiver.Received) {
	if r.Frame == nil {
		if c, ok := r.Event.(*rfxtrx.ConnectionEvent); ok && c.State == rfxtrx.ConnectionDone {
			m.connected = true
			m.addLogEntry("Connected - listening", false)
		}
		return
	}

	m.stats.Update(r.Event, r.Err)
	if r.Err != nil {
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", r.Err), true)
		return
	}

	switch e := r.Event.(type) {
	case *rfxtrx.StatusEvent:
		m.status = e
	case *rfxtrx.ControlEvent:
		m.handleControlEvent(e, r.Time)
	}
}

// handleControlEvent adds or refreshes the device a control frame came from
func (m *controlModel) handleControlEvent(e *rfxtrx.ControlEvent, ts time.Time) {
	if _, err := rfxtrx.PacketFromIdentity(e.Device); err != nil {
		// heard but cannot be commanded
		return
	}

	for i := range m.devices {
		if m.devices[i].identity == e.Device {
			m.devices[i].lastValues = e.Values
			m.devices[i].lastSeen = ts
			m.devices[i].heard = true
			m.updateDeviceList()
			return
		}
	}

	m.devices = append(m.devices, device{
		identity:   e.Device,
		typeString: e.Packet.TypeString(),
		lastValues: e.Values,
		lastSeen:   ts,
		heard:      true,
	})
	m.sortDevices()
	m.updateDeviceList()
	m.addLogEntry(fmt.Sprintf("Device heard: %v (%s)", e.Device, e.Packet.TypeString()), false)
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *controlModel) sendCommand() (tea.Model, tea.Cmd) {
	if m.connectionLost || !m.connected {
		m.addLogEntry("Cannot send command: not connected", true)
		return m, nil
	}

	selected := m.getSelectedDevice()
	if selected == nil {
		return m, nil
	}

	command, arg, err := parseCommandInput(m.commandInput.Value(), m.commandInput.Placeholder, m.argInput.Value())
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}

	if err := m.connMgr.send(selected.identity, command, paramsFor(command, arg)); err != nil {
		if errors.Is(err, rfxtrx.ErrInvalidCommand) {
			m.addLogEntry(fmt.Sprintf("Rejected: %v", err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Failed to send command: %v", err), true)
		}
		return m, nil
	}

	m.addLogEntry(fmt.Sprintf("Sent %v (%d) to %v", command, arg, selected.identity), false)
	return m, nil
}

// parseCommandInput reads the command and argument fields. An empty command
// field uses the placeholder and an empty argument is zero.
func parseCommandInput(name, placeholder, argStr string) (rfxtrx.Command, int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = placeholder
	}
	command, err := rfxtrx.ParseCommand(strings.ToLower(name))
	if err != nil {
		return 0, 0, err
	}

	argStr = strings.TrimSpace(argStr)
	if argStr == "" {
		return command, 0, nil
	}
	arg, err := strconv.Atoi(argStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid argument: %s", argStr)
	}
	return command, arg, nil
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *controlModel) getSelectedDevice() *device {
	if len(m.devices) == 0 {
		return nil
	}

	idx := m.deviceList.Index()
	if idx < 0 || idx >= len(m.devices) {
		return nil
	}

	return &m.devices[idx]
}

func (m *controlModel) sortDevices() {
	sort.Slice(m.devices, func(i, j int) bool {
		return m.devices[i].identity.String() < m.devices[j].identity.String()
	})
}

func (m *controlModel) updateDeviceList() {
	items := make([]list.Item, len(m.devices))
	for i, d := range m.devices {
		items[i] = d
	}
	m.deviceList.SetItems(items)
}

func (m *controlModel) updateListSize() {
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.deviceList.SetSize(28, listHeight)
}
