// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"fmt"
	"sort"
	"sync"
)

// Command is a high level device command
type Command int

const (
	CommandOn Command = iota
	CommandOff
	CommandDim
	CommandOpen
	CommandClose
	CommandStop
	CommandSunAutoOn
	CommandSunAutoOff
	CommandUp05
	CommandDown05
	CommandUp2
	CommandDown2
	CommandP2
	CommandPercent
	CommandAngle
	CommandPercentAngle
	CommandSound
	CommandStatus
	CommandScene
	CommandAllOn
	CommandAllOff
	CommandDimming
	CommandBrightening
	CommandMasterDim
	CommandMasterBright
)

var commandNames = map[Command]string{
	CommandOn:           "on",
	CommandOff:          "off",
	CommandDim:          "dim",
	CommandOpen:         "open",
	CommandClose:        "close",
	CommandStop:         "stop",
	CommandSunAutoOn:    "sun_on",
	CommandSunAutoOff:   "sun_off",
	CommandUp05:         "up05",
	CommandDown05:       "down05",
	CommandUp2:          "up2",
	CommandDown2:        "down2",
	CommandP2:           "p2",
	CommandPercent:      "percent",
	CommandAngle:        "angle",
	CommandPercentAngle: "percent_angle",
	CommandSound:        "sound",
	CommandStatus:       "status",
	CommandScene:        "scene",
	CommandAllOn:        "all_on",
	CommandAllOff:       "all_off",
	CommandDimming:      "dimming",
	CommandBrightening:  "brightening",
	CommandMasterDim:    "master_dim",
	CommandMasterBright: "master_bright",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// ParseCommand looks up a command by name
func ParseCommand(name string) (Command, error) {
	for c, s := range commandNames {
		if s == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, name)
}

// CommandNames returns every command name in sorted order
func CommandNames() []string {
	names := make([]string, 0, len(commandNames))
	for _, s := range commandNames {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Params carries the arguments of commands that take one. Fields that a
// command does not use are ignored.
type Params struct {
	// Level is the dim level in percent (0-100)
	Level int
	// Duration is a Funkbus dim/bright duration code (0-44)
	Duration int
	// Percent and Angle position a DDxxxx blind
	Percent int
	Angle   int
	// Sound selects the Chime melody
	Sound int
	// Status is the Security1 status code to send
	Status int
	// Scene is the Funkbus scene number
	Scene int
	// Pulse is the Lighting4 pulse width in microseconds. Zero selects
	// DefaultLighting4Pulse.
	Pulse int
}

// DefaultLighting4Pulse is the PT2262 pulse width used when none is given
const DefaultLighting4Pulse = 350

// Limits of command arguments
const (
	maxDimLevel        = 100
	maxFunkbusDuration = 0x2C
	maxAngle           = 180
	cmndSeqModulus     = 5
)

// CommandEncoder turns device commands into transmit frames. Families that
// carry a command sequence number (RollerTrol, Rfy, DDxxxx, Security1 and
// Lighting6) get a counter per device that cycles 0..4. The encoder is safe
// for concurrent use.
type CommandEncoder struct {
	mu  sync.Mutex
	seq map[DeviceIdentity]uint8
}

// NewCommandEncoder creates an encoder with every counter at zero
func NewCommandEncoder() *CommandEncoder {
	return &CommandEncoder{seq: make(map[DeviceIdentity]uint8)}
}

// Encode builds the frame that sends cmd to the device. The device does not
// need to have been seen on air. Errors wrap ErrInvalidIdentity,
// ErrUnsupportedPacketType or ErrInvalidCommand; no counter advances on
// error.
func (e *CommandEncoder) Encode(id DeviceIdentity, cmd Command, p Params) ([]byte, error) {
	pkt, err := PacketFromIdentity(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.seq[id]
	var frame Packet
	counted := false
	switch pkt := pkt.(type) {
	case *Lighting1:
		frame, err = encodeLighting1(pkt, cmd)
	case *Lighting2:
		frame, err = encodeLighting2(pkt, cmd, p)
	case *Lighting3:
		frame, err = encodeLighting3(pkt, cmd, p)
	case *Lighting4:
		frame, err = encodeLighting4(pkt, cmd, p)
	case *Lighting5:
		frame, err = encodeLighting5(pkt, cmd, p)
	case *Lighting6:
		frame, err = encodeLighting6(pkt, cmd, seq)
		counted = true
	case *Chime:
		frame, err = encodeChime(pkt, cmd, p)
	case *RollerTrol:
		frame, err = encodeRollerTrol(pkt, cmd, seq)
		counted = true
	case *Rfy:
		frame, err = encodeRfy(pkt, cmd, seq)
		counted = true
	case *DDxxxx:
		frame, err = encodeDDxxxx(pkt, cmd, p, seq)
		counted = true
	case *Funkbus:
		frame, err = encodeFunkbus(pkt, cmd, p)
	case *Security1:
		frame, err = encodeSecurity1(pkt, cmd, p, seq)
		counted = true
	default:
		err = fmt.Errorf("%w: %v", ErrUnsupportedPacketType, id.PacketType)
	}
	if err != nil {
		return nil, err
	}
	if counted {
		e.seq[id] = (seq + 1) % cmndSeqModulus
	}
	return frame.Bytes(), nil
}

// Reset sets the sequence counter of a device back to zero
func (e *CommandEncoder) Reset(id DeviceIdentity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.seq, id)
}

func unsupported(pt PacketType, cmd Command) error {
	return fmt.Errorf("%w: %v does not support %v", ErrInvalidCommand, pt, cmd)
}

func checkRange(name string, v, max int) error {
	if v < 0 || v > max {
		return fmt.Errorf("%w: %s %d out of range 0-%d", ErrInvalidCommand, name, v, max)
	}
	return nil
}

// onOff maps on/off to the family's codes
func onOff(pt PacketType, cmd Command, on, off uint8) (uint8, error) {
	switch cmd {
	case CommandOn:
		return on, nil
	case CommandOff:
		return off, nil
	}
	return 0, unsupported(pt, cmd)
}

// checkDim validates the level of a dim command before the family is
// considered, so an out of range level is reported the same way everywhere
func checkDim(cmd Command, p Params) error {
	if cmd != CommandDim {
		return nil
	}
	return checkRange("dim level", p.Level, maxDimLevel)
}

func encodeLighting1(pkt *Lighting1, cmd Command) (Packet, error) {
	code, err := onOff(TypeLighting1, cmd, 0x01, 0x00)
	if err != nil {
		return nil, err
	}
	return NewLighting1(pkt.subtype, 0, pkt.HouseCode, pkt.UnitCode, code), nil
}

func encodeLighting2(pkt *Lighting2, cmd Command, p Params) (Packet, error) {
	if err := checkDim(cmd, p); err != nil {
		return nil, err
	}
	if cmd == CommandDim {
		if p.Level == 0 {
			cmd = CommandOff
		} else {
			level := uint8(((p.Level+6)*16)/100 - 1)
			return NewLighting2(pkt.subtype, 0, pkt.ID, pkt.UnitCode, 0x02, level), nil
		}
	}
	code, err := onOff(TypeLighting2, cmd, 0x01, 0x00)
	if err != nil {
		return nil, err
	}
	return NewLighting2(pkt.subtype, 0, pkt.ID, pkt.UnitCode, code, 0), nil
}

func encodeLighting3(pkt *Lighting3, cmd Command, p Params) (Packet, error) {
	if err := checkDim(cmd, p); err != nil {
		return nil, err
	}
	if cmd == CommandDim {
		switch p.Level {
		case 0:
			cmd = CommandOff
		case maxDimLevel:
			cmd = CommandOn
		default:
			code := uint8(p.Level*9/100 + 17)
			return NewLighting3(pkt.subtype, 0, pkt.System, pkt.Channel, code), nil
		}
	}
	code, err := onOff(TypeLighting3, cmd, 0x10, 0x1a)
	if err != nil {
		return nil, err
	}
	return NewLighting3(pkt.subtype, 0, pkt.System, pkt.Channel, code), nil
}

// encodeLighting4 sets the low bit of the code for on and clears it for off
func encodeLighting4(pkt *Lighting4, cmd Command, p Params) (Packet, error) {
	bit, err := onOff(TypeLighting4, cmd, 1, 0)
	if err != nil {
		return nil, err
	}
	pulse := p.Pulse
	if pulse == 0 {
		pulse = DefaultLighting4Pulse
	}
	if err := checkRange("pulse", pulse, 0xFFFF); err != nil {
		return nil, err
	}
	code := pkt.Code&^1 | uint32(bit)
	return NewLighting4(pkt.subtype, 0, code, uint16(pulse)), nil
}

func encodeLighting5(pkt *Lighting5, cmd Command, p Params) (Packet, error) {
	if err := checkDim(cmd, p); err != nil {
		return nil, err
	}
	var code uint8
	switch cmd {
	case CommandDim:
		if p.Level == 0 {
			return NewLighting5(pkt.subtype, 0, pkt.ID, pkt.UnitCode, 0x00, 0), nil
		}
		if _, ok := lighting5Command(pkt.subtype, lighting5SetLevel); !ok {
			return nil, unsupported(TypeLighting5, cmd)
		}
		level := uint8(((p.Level+3)*32)/100 - 1)
		return NewLighting5(pkt.subtype, 0, pkt.ID, pkt.UnitCode, lighting5SetLevel, level), nil
	case CommandOpen:
		code = lighting5Open
	case CommandClose:
		code = lighting5Close
	case CommandStop:
		code = lighting5Stop
	default:
		c, err := onOff(TypeLighting5, cmd, 0x01, 0x00)
		if err != nil {
			return nil, err
		}
		return NewLighting5(pkt.subtype, 0, pkt.ID, pkt.UnitCode, c, 0), nil
	}
	// relay commands exist only in vocabularies that name them
	if _, ok := lighting5Command(pkt.subtype, code); !ok {
		return nil, unsupported(TypeLighting5, cmd)
	}
	return NewLighting5(pkt.subtype, 0, pkt.ID, pkt.UnitCode, code, 0), nil
}

// encodeLighting6 uses inverted codes: 0 is on, 1 is off
func encodeLighting6(pkt *Lighting6, cmd Command, seq uint8) (Packet, error) {
	code, err := onOff(TypeLighting6, cmd, 0x00, 0x01)
	if err != nil {
		return nil, err
	}
	return NewLighting6(pkt.subtype, 0, pkt.ID, pkt.GroupCode, pkt.UnitCode, code, seq), nil
}

func encodeChime(pkt *Chime, cmd Command, p Params) (Packet, error) {
	if cmd != CommandSound {
		return nil, unsupported(TypeChime, cmd)
	}
	if err := checkRange("sound", p.Sound, 0xFF); err != nil {
		return nil, err
	}
	return NewChime(pkt.subtype, 0, pkt.ID1, pkt.ID2, uint8(p.Sound)), nil
}

func encodeRollerTrol(pkt *RollerTrol, cmd Command, seq uint8) (Packet, error) {
	var code uint8
	switch cmd {
	case CommandOpen:
		code = RollerTrolUp
	case CommandClose:
		code = RollerTrolDown
	case CommandStop:
		code = RollerTrolStop
	default:
		return nil, unsupported(TypeRollerTrol, cmd)
	}
	return NewRollerTrol(pkt.subtype, seq, pkt.ID, pkt.UnitCode, code), nil
}

var rfyCommandCodes = map[Command]uint8{
	CommandOpen:       RfyUp,
	CommandClose:      RfyDown,
	CommandStop:       RfyStop,
	CommandSunAutoOn:  RfySunAutoOn,
	CommandSunAutoOff: RfySunAutoOff,
	CommandUp05:       RfyUp05,
	CommandDown05:     RfyDown05,
	CommandUp2:        RfyUp2,
	CommandDown2:      RfyDown2,
}

func encodeRfy(pkt *Rfy, cmd Command, seq uint8) (Packet, error) {
	code, ok := rfyCommandCodes[cmd]
	if !ok {
		return nil, unsupported(TypeRfy, cmd)
	}
	return NewRfy(pkt.subtype, seq, pkt.ID, pkt.UnitCode, code), nil
}

func encodeDDxxxx(pkt *DDxxxx, cmd Command, p Params, seq uint8) (Packet, error) {
	var code, percent, angle uint8
	switch cmd {
	case CommandOpen:
		code = DDxxxxUp
	case CommandClose:
		code = DDxxxxDown
	case CommandStop:
		code = DDxxxxStop
	case CommandP2:
		code = DDxxxxP2
	case CommandPercent, CommandAngle, CommandPercentAngle:
		if cmd != CommandAngle {
			if err := checkRange("percent", p.Percent, 100); err != nil {
				return nil, err
			}
			percent = uint8(p.Percent)
		}
		if cmd != CommandPercent {
			if err := checkRange("angle", p.Angle, maxAngle); err != nil {
				return nil, err
			}
			angle = uint8(p.Angle)
		}
		code = map[Command]uint8{
			CommandPercent:      DDxxxxPercent,
			CommandAngle:        DDxxxxAngle,
			CommandPercentAngle: DDxxxxPercentAngle,
		}[cmd]
	default:
		return nil, unsupported(TypeDDxxxx, cmd)
	}
	return NewDDxxxx(pkt.subtype, seq, pkt.ID, pkt.UnitCode, code, percent, angle), nil
}

func encodeFunkbus(pkt *Funkbus, cmd Command, p Params) (Packet, error) {
	var code, target, time uint8
	switch cmd {
	case CommandOn, CommandOff:
		code, _ = onOff(TypeFunkbus, cmd, FunkbusUp, FunkbusDown)
		target = pkt.Target
	case CommandDimming, CommandBrightening, CommandMasterDim, CommandMasterBright:
		if err := checkRange("duration", p.Duration, maxFunkbusDuration); err != nil {
			return nil, err
		}
		time = uint8(p.Duration + 1)
		switch cmd {
		case CommandDimming:
			code, target = FunkbusDown, pkt.Target
		case CommandBrightening:
			code, target = FunkbusUp, pkt.Target
		case CommandMasterDim:
			code = FunkbusMasterDim
		default:
			code = FunkbusMasterUp
		}
	case CommandAllOn:
		code, time = FunkbusAllOn, 3
	case CommandAllOff:
		code, time = FunkbusAllOff, 3
	case CommandScene:
		if err := checkRange("scene", p.Scene, 0xFF); err != nil {
			return nil, err
		}
		code, target, time = FunkbusScene, uint8(p.Scene), 1
	default:
		return nil, unsupported(TypeFunkbus, cmd)
	}
	return NewFunkbus(pkt.subtype, 0, pkt.ID, pkt.GroupCode, target, code, time), nil
}

func encodeSecurity1(pkt *Security1, cmd Command, p Params, seq uint8) (Packet, error) {
	if cmd != CommandStatus {
		return nil, unsupported(TypeSecurity1, cmd)
	}
	if err := checkRange("status", p.Status, 0xFF); err != nil {
		return nil, err
	}
	return NewSecurity1(pkt.subtype, seq, pkt.ID, uint8(p.Status)), nil
}
