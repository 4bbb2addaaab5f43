// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import "fmt"

var security1Types = map[uint8]string{
	0x00: "X10 Security",
	0x01: "X10 Security Motion Detector",
	0x02: "X10 Security Remote",
	0x03: "KD101 Smoke Detector",
	0x04: "Visonic Powercode Door/Window Sensor Primary Contact",
	0x05: "Visonic Powercode Motion Detector",
	0x06: "Visonic Codesecure",
	0x07: "Visonic Powercode Door/Window Sensor Auxilary Contact",
	0x08: "Meiantech",
	0x09: "Alecto SA30 Smoke Detector",
	0x0A: "RM174RF Smoke Detector",
}

// Security1 status codes. Bit 7 marks a tampered sensor.
const (
	SecurityNormal         uint8 = 0x00
	SecurityNormalDelayed  uint8 = 0x01
	SecurityAlarm          uint8 = 0x02
	SecurityAlarmDelayed   uint8 = 0x03
	SecurityMotion         uint8 = 0x04
	SecurityNoMotion       uint8 = 0x05
	SecurityPanic          uint8 = 0x06
	SecurityEndPanic       uint8 = 0x07
	SecurityIR             uint8 = 0x08
	SecurityArmAway        uint8 = 0x09
	SecurityArmAwayDelayed uint8 = 0x0A
	SecurityArmHome        uint8 = 0x0B
	SecurityArmHomeDelayed uint8 = 0x0C
	SecurityDisarm         uint8 = 0x0D
	SecurityLight1Off      uint8 = 0x10
	SecurityLight1On       uint8 = 0x11
	SecurityLight2Off      uint8 = 0x12
	SecurityLight2On       uint8 = 0x13
	SecurityDarkDetected   uint8 = 0x14
	SecurityLightDetected  uint8 = 0x15
	SecurityBatteryLow     uint8 = 0x16
	SecurityPairKD101      uint8 = 0x17
	SecurityTamper         uint8 = 0x80
)

var security1Statuses = map[uint8]string{
	SecurityNormal:                         "Normal",
	SecurityNormalDelayed:                  "Normal Delayed",
	SecurityAlarm:                          "Alarm",
	SecurityAlarmDelayed:                   "Alarm Delayed",
	SecurityMotion:                         "Motion",
	SecurityNoMotion:                       "No Motion",
	SecurityPanic:                          "Panic",
	SecurityEndPanic:                       "End Panic",
	SecurityIR:                             "IR",
	SecurityArmAway:                        "Arm Away",
	SecurityArmAwayDelayed:                 "Arm Away Delayed",
	SecurityArmHome:                        "Arm Home",
	SecurityArmHomeDelayed:                 "Arm Home Delayed",
	SecurityDisarm:                         "Disarm",
	SecurityLight1Off:                      "Light 1 Off",
	SecurityLight1On:                       "Light 1 On",
	SecurityLight2Off:                      "Light 2 Off",
	SecurityLight2On:                       "Light 2 On",
	SecurityDarkDetected:                   "Dark Detected",
	SecurityLightDetected:                  "Light Detected",
	SecurityBatteryLow:                     "Battery low",
	SecurityPairKD101:                      "Pairing KD101",
	SecurityTamper | SecurityNormal:        "Normal Tamper",
	SecurityTamper | SecurityNormalDelayed: "Normal Delayed Tamper",
	SecurityTamper | SecurityAlarm:         "Alarm Tamper",
	SecurityTamper | SecurityAlarmDelayed:  "Alarm Delayed Tamper",
	SecurityTamper | SecurityMotion:        "Motion Tamper",
	SecurityTamper | SecurityNoMotion:      "No Motion Tamper",
}

// security1NoBattery lists the smoke detectors that report no battery level
var security1NoBattery = map[uint8]bool{
	0x03: true,
	0x09: true,
	0x0A: true,
}

// Security1 is an alarm sensor or remote frame. The id string carries
// the decimal packet type as a suffix.
type Security1 struct {
	header
	ID     uint32 // 24 bits
	Status uint8
}

// NewSecurity1 builds a transmit frame
func NewSecurity1(subtype, seqNbr uint8, id uint32, status uint8) *Security1 {
	p := &Security1{header: newHeader(TypeSecurity1, subtype, seqNbr, 0x08),
		ID: id & 0xFFFFFF, Status: status}
	p.setStrings()
	return p
}

func decodeSecurity1(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 9); err != nil {
		return nil, err
	}
	p := &Security1{header: h, ID: uint32(beUint(data[4:7])), Status: data[7]}
	p.signal = data[8]
	p.setStrings()
	return p, nil
}

func parseSecurity1ID(subtype uint8, id string) (Packet, error) {
	left, _, err := splitID(id)
	if err != nil {
		return nil, err
	}
	v, err := parseHexID(left, 24)
	if err != nil {
		return nil, err
	}
	return checkIdentity(NewSecurity1(subtype, 0, uint32(v), 0), id)
}

func (p *Security1) setStrings() {
	p.typeString = typeString(TypeSecurity1, security1Types, p.subtype)
	p.fields = layouts[TypeSecurity1].fields
	if security1NoBattery[p.subtype] {
		p.fields = p.fields.without(FieldBattery)
	}
}

// IDString formats "%06x:32"
func (p *Security1) IDString() string {
	return fmt.Sprintf("%06x:%d", p.ID, uint8(TypeSecurity1))
}

// StatusString names the sensor status
func (p *Security1) StatusString() string {
	return lookup(security1Statuses, p.Status, "unknown")
}

// Tampered reports whether the sensor flagged a tamper condition
func (p *Security1) Tampered() bool {
	return p.Status&SecurityTamper != 0
}

// Value implements Packet
func (p *Security1) Value(f Field) (interface{}, bool) {
	if f == FieldSensorStatus && p.HasField(f) {
		return p.StatusString(), true
	}
	return p.signalValue(f)
}

// Bytes implements Packet
func (p *Security1) Bytes() []byte {
	frame := p.put(make([]byte, 9))
	putBEUint(frame[4:7], uint64(p.ID))
	frame[7] = p.Status
	frame[8] = p.signal
	return frame
}
