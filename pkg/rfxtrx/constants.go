// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rfxtrx implements the binary frame codec of the RFXtrx family of
// RF home-automation transceivers.
//
// Every frame is length prefixed: byte 0 holds the number of bytes that
// follow, byte 1 the packet type, byte 2 the subtype and byte 3 a sequence
// number. The remaining bytes are laid out per packet family. This package
// decodes frames into typed packets and events, and builds transmit frames
// for devices that were previously seen on air.
package rfxtrx

// PacketType identifies the frame family carried in byte 1 of every frame
type PacketType uint8

// Interface frames
const (
	TypeInterfaceControl PacketType = 0x00
	TypeStatus           PacketType = 0x01
	TypeUndecoded        PacketType = 0x03
)

// Lighting and remote control frames
const (
	TypeLighting1  PacketType = 0x10
	TypeLighting2  PacketType = 0x11
	TypeLighting3  PacketType = 0x12
	TypeLighting4  PacketType = 0x13
	TypeLighting5  PacketType = 0x14
	TypeLighting6  PacketType = 0x15
	TypeChime      PacketType = 0x16
	TypeRollerTrol PacketType = 0x19
	TypeRfy        PacketType = 0x1A
	TypeFunkbus    PacketType = 0x1E
	TypeSecurity1  PacketType = 0x20
	TypeDDxxxx     PacketType = 0x31
)

// Sensor frames
const (
	TypeBbq            PacketType = 0x4E
	TypeTempRain       PacketType = 0x4F
	TypeTemp           PacketType = 0x50
	TypeHumid          PacketType = 0x51
	TypeTempHumid      PacketType = 0x52
	TypeBaro           PacketType = 0x53
	TypeTempHumidBaro  PacketType = 0x54
	TypeRain           PacketType = 0x55
	TypeWind           PacketType = 0x56
	TypeUV             PacketType = 0x57
	TypeEnergy1        PacketType = 0x59
	TypeEnergy         PacketType = 0x5A
	TypeEnergy4        PacketType = 0x5B
	TypeEnergy5        PacketType = 0x5C
	TypeCartelectronic PacketType = 0x60
	TypeRfxSensor      PacketType = 0x70
	TypeRfxMeter       PacketType = 0x71
)

// Frame geometry
const (
	headerSize = 4 // length, packet type, subtype, sequence number

	// MaxFrameSize is the largest frame the length byte can describe
	MaxFrameSize = 256
)

// energyDivisor converts the 48-bit energy counters to watt hours.
// The value is a calibration constant of the meters and must stay exact.
const energyDivisor = 223.666

// Category is the static event classification of a packet family
type Category int

const (
	CategoryControl Category = iota
	CategorySensor
	CategoryStatus
)

func (c Category) String() string {
	switch c {
	case CategorySensor:
		return "sensor"
	case CategoryStatus:
		return "status"
	default:
		return "control"
	}
}

// Field names a measurement or attribute a packet may carry.
// Field values double as the keys of event value maps.
type Field int

const (
	FieldRSSI Field = iota
	FieldBattery
	FieldCommand
	FieldDimLevel
	FieldSound
	FieldKeypress
	FieldTemperature
	FieldTemperature2
	FieldHumidity
	FieldHumidityStatus
	FieldHumidityStatusNumeric
	FieldBarometer
	FieldForecast
	FieldForecastNumeric
	FieldRainRate
	FieldRainTotal
	FieldWindDirection
	FieldWindAverageSpeed
	FieldWindGust
	FieldChill
	FieldUV
	FieldEnergyUsage
	FieldTotalUsage
	FieldCount
	FieldCurrent1
	FieldCurrent2
	FieldCurrent3
	FieldVoltage
	FieldCurrent
	FieldCounterValue
	FieldSensorStatus
	FieldContractType
	FieldPayload
	FieldAnalog

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldRSSI:                  "Rssi numeric",
	FieldBattery:               "Battery numeric",
	FieldCommand:               "Command",
	FieldDimLevel:              "Dim level",
	FieldSound:                 "Sound",
	FieldKeypress:              "Keypress",
	FieldTemperature:           "Temperature",
	FieldTemperature2:          "Temperature2",
	FieldHumidity:              "Humidity",
	FieldHumidityStatus:        "Humidity status",
	FieldHumidityStatusNumeric: "Humidity status numeric",
	FieldBarometer:             "Barometer",
	FieldForecast:              "Forecast",
	FieldForecastNumeric:       "Forecast numeric",
	FieldRainRate:              "Rain rate",
	FieldRainTotal:             "Rain total",
	FieldWindDirection:         "Wind direction",
	FieldWindAverageSpeed:      "Wind average speed",
	FieldWindGust:              "Wind gust",
	FieldChill:                 "Chill",
	FieldUV:                    "UV",
	FieldEnergyUsage:           "Energy usage",
	FieldTotalUsage:            "Total usage",
	FieldCount:                 "Count",
	FieldCurrent1:              "Current Ch. 1",
	FieldCurrent2:              "Current Ch. 2",
	FieldCurrent3:              "Current Ch. 3",
	FieldVoltage:               "Voltage",
	FieldCurrent:               "Current",
	FieldCounterValue:          "Counter value",
	FieldSensorStatus:          "Sensor Status",
	FieldContractType:          "Contract type",
	FieldPayload:               "Payload",
	FieldAnalog:                "Analog",
}

// String returns the event value key of the field
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "Unknown field"
	}
	return fieldNames[f]
}

// FieldSet is a bit set of fields
type FieldSet uint64

func fieldsOf(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= 1 << uint(f)
	}
	return s
}

// Has reports whether f is in the set
func (s FieldSet) Has(f Field) bool {
	if f < 0 || f >= fieldCount {
		return false
	}
	return s&(1<<uint(f)) != 0
}

func (s FieldSet) with(fields ...Field) FieldSet {
	return s | fieldsOf(fields...)
}

func (s FieldSet) without(fields ...Field) FieldSet {
	return s &^ fieldsOf(fields...)
}

// Fields lists the members of the set in declaration order
func (s FieldSet) Fields() []Field {
	var out []Field
	for f := Field(0); f < fieldCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
