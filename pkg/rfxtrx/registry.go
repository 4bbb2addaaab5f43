// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import "fmt"

// layout is the static description of a packet family
type layout struct {
	name     string
	category Category
	fields   FieldSet
}

var (
	signalFields  = fieldsOf(FieldRSSI, FieldBattery)
	commandFields = fieldsOf(FieldCommand, FieldRSSI)
)

// layouts describes every registered packet family. Per subtype field
// adjustments are applied by the family decoders.
var layouts = map[PacketType]layout{
	TypeStatus:    {"Status", CategoryStatus, 0},
	TypeUndecoded: {"Undecoded", CategorySensor, fieldsOf(FieldPayload)},

	TypeLighting1:  {"Lighting1", CategoryControl, commandFields},
	TypeLighting2:  {"Lighting2", CategoryControl, commandFields},
	TypeLighting3:  {"Lighting3", CategoryControl, commandFields.with(FieldBattery)},
	TypeLighting4:  {"Lighting4", CategoryControl, commandFields},
	TypeLighting5:  {"Lighting5", CategoryControl, commandFields},
	TypeLighting6:  {"Lighting6", CategoryControl, commandFields},
	TypeChime:      {"Chime", CategoryControl, commandFields.with(FieldSound)},
	TypeRollerTrol: {"RollerTrol", CategoryControl, commandFields},
	TypeRfy:        {"Rfy", CategoryControl, commandFields},
	TypeFunkbus:    {"Funkbus", CategoryControl, fieldsOf(FieldCommand, FieldKeypress)},
	TypeSecurity1:  {"Security1", CategorySensor, signalFields.with(FieldSensorStatus)},
	TypeDDxxxx:     {"DDxxxx", CategoryControl, commandFields.with(FieldBattery)},

	TypeBbq:           {"Bbq", CategorySensor, signalFields.with(FieldTemperature, FieldTemperature2)},
	TypeTempRain:      {"TempRain", CategorySensor, signalFields.with(FieldTemperature, FieldRainTotal)},
	TypeTemp:          {"Temp", CategorySensor, signalFields.with(FieldTemperature)},
	TypeHumid:         {"Humid", CategorySensor, signalFields.with(humidityFields...)},
	TypeTempHumid:     {"TempHumid", CategorySensor, signalFields.with(FieldTemperature).with(humidityFields...)},
	TypeBaro:          {"Baro", CategorySensor, signalFields.with(forecastFields...)},
	TypeTempHumidBaro: {"TempHumidBaro", CategorySensor, signalFields.with(FieldTemperature).with(humidityFields...).with(forecastFields...)},
	TypeRain:          {"Rain", CategorySensor, signalFields.with(FieldRainRate, FieldRainTotal)},
	TypeWind: {"Wind", CategorySensor, signalFields.with(FieldWindDirection, FieldWindAverageSpeed,
		FieldWindGust, FieldTemperature, FieldChill)},
	TypeUV:      {"UV", CategorySensor, signalFields.with(FieldUV)},
	TypeEnergy1: {"Energy1", CategorySensor, signalFields.with(currentFields...).with(FieldTotalUsage, FieldCount)},
	TypeEnergy:  {"Energy", CategorySensor, signalFields.with(FieldEnergyUsage, FieldTotalUsage, FieldCount)},
	TypeEnergy4: {"Energy4", CategorySensor, signalFields.with(currentFields...).with(FieldTotalUsage, FieldCount)},
	TypeEnergy5: {"Energy5", CategorySensor, fieldsOf(FieldRSSI, FieldVoltage, FieldCurrent,
		FieldEnergyUsage, FieldTotalUsage)},
	TypeCartelectronic: {"Cartelectronic", CategorySensor, 0},
	TypeRfxSensor:      {"RfxSensor", CategorySensor, fieldsOf(FieldRSSI)},
	TypeRfxMeter:       {"RfxMeter", CategorySensor, fieldsOf(FieldRSSI, FieldCounterValue)},
}

var (
	humidityFields = []Field{FieldHumidity, FieldHumidityStatus, FieldHumidityStatusNumeric}
	forecastFields = []Field{FieldBarometer, FieldForecast, FieldForecastNumeric}
	currentFields  = []Field{FieldCurrent1, FieldCurrent2, FieldCurrent3}
)

type decodeFunc func(data []byte) (Packet, error)

// decoders maps each registered packet type to its decoder
var decoders = map[PacketType]decodeFunc{
	TypeStatus:         decodeStatus,
	TypeUndecoded:      decodeUndecoded,
	TypeLighting1:      decodeLighting1,
	TypeLighting2:      decodeLighting2,
	TypeLighting3:      decodeLighting3,
	TypeLighting4:      decodeLighting4,
	TypeLighting5:      decodeLighting5,
	TypeLighting6:      decodeLighting6,
	TypeChime:          decodeChime,
	TypeRollerTrol:     decodeRollerTrol,
	TypeRfy:            decodeRfy,
	TypeFunkbus:        decodeFunkbus,
	TypeSecurity1:      decodeSecurity1,
	TypeDDxxxx:         decodeDDxxxx,
	TypeBbq:            decodeBbq,
	TypeTempRain:       decodeTempRain,
	TypeTemp:           decodeTemp,
	TypeHumid:          decodeHumid,
	TypeTempHumid:      decodeTempHumid,
	TypeBaro:           decodeBaro,
	TypeTempHumidBaro:  decodeTempHumidBaro,
	TypeRain:           decodeRain,
	TypeWind:           decodeWind,
	TypeUV:             decodeUV,
	TypeEnergy1:        decodeEnergy1,
	TypeEnergy:         decodeEnergy,
	TypeEnergy4:        decodeEnergy4,
	TypeEnergy5:        decodeEnergy5,
	TypeCartelectronic: decodeCartelectronic,
	TypeRfxSensor:      decodeRfxSensor,
	TypeRfxMeter:       decodeRfxMeter,
}

type identityFunc func(subtype uint8, id string) (Packet, error)

// identityParsers maps the transmit capable packet types to their id
// parsers
var identityParsers = map[PacketType]identityFunc{
	TypeLighting1:  parseLighting1ID,
	TypeLighting2:  parseLighting2ID,
	TypeLighting3:  parseLighting3ID,
	TypeLighting4:  parseLighting4ID,
	TypeLighting5:  parseLighting5ID,
	TypeLighting6:  parseLighting6ID,
	TypeChime:      parseChimeID,
	TypeRollerTrol: parseRollerTrolID,
	TypeRfy:        parseRfyID,
	TypeFunkbus:    parseFunkbusID,
	TypeSecurity1:  parseSecurity1ID,
	TypeDDxxxx:     parseDDxxxxID,
}

// subtypeAliases holds the marketing names that map onto a subtype
var subtypeAliases = map[PacketType]map[string]uint8{
	TypeLighting1: lighting1Aliases,
	TypeLighting2: lighting2Aliases,
	TypeLighting5: lighting5Aliases,
}

// subtypeNames holds the subtype tables of every family with named
// subtypes
var subtypeNames = map[PacketType]map[uint8]string{
	TypeUndecoded:      undecodedTypes,
	TypeLighting1:      lighting1Types,
	TypeLighting2:      lighting2Types,
	TypeLighting3:      lighting3Types,
	TypeLighting4:      lighting4Types,
	TypeLighting5:      lighting5Types,
	TypeLighting6:      lighting6Types,
	TypeChime:          chimeTypes,
	TypeRollerTrol:     rollerTrolTypes,
	TypeRfy:            rfyTypes,
	TypeFunkbus:        funkbusTypes,
	TypeSecurity1:      security1Types,
	TypeDDxxxx:         ddxxxxTypes,
	TypeBbq:            bbqTypes,
	TypeTempRain:       tempRainTypes,
	TypeTemp:           tempTypes,
	TypeHumid:          humidTypes,
	TypeTempHumid:      tempHumidTypes,
	TypeBaro:           baroTypes,
	TypeTempHumidBaro:  tempHumidBaroTypes,
	TypeRain:           rainTypes,
	TypeWind:           windTypes,
	TypeUV:             uvTypes,
	TypeEnergy1:        energy1Types,
	TypeEnergy:         energyTypes,
	TypeEnergy4:        energy4Types,
	TypeEnergy5:        energy5Types,
	TypeCartelectronic: cartelectronicTypes,
	TypeRfxSensor:      rfxSensorTypes,
	TypeRfxMeter:       rfxMeterTypes,
}

// String returns the family name, or the hex code for unregistered types
func (pt PacketType) String() string {
	if l, ok := layouts[pt]; ok {
		return l.name
	}
	return fmt.Sprintf("0x%02x", uint8(pt))
}

// Registered reports whether pt has a decoder
func (pt PacketType) Registered() bool {
	_, ok := decoders[pt]
	return ok
}

// CategoryOf returns the static event category of a packet type
func CategoryOf(pt PacketType) (Category, bool) {
	l, ok := layouts[pt]
	return l.category, ok
}

// SubtypeByName resolves a subtype from its model name or a known alias
func SubtypeByName(pt PacketType, name string) (uint8, error) {
	if sub, ok := subtypeAliases[pt][name]; ok {
		return sub, nil
	}
	for sub, s := range subtypeNames[pt] {
		if s == name {
			return sub, nil
		}
	}
	return 0, fmt.Errorf("%w: no %v subtype named %q", ErrInvalidIdentity, pt, name)
}

// PacketFromIdentity builds a transmit ready packet for a device that was
// not necessarily seen on air. The id string must format back to itself.
func PacketFromIdentity(id DeviceIdentity) (Packet, error) {
	parse, ok := identityParsers[id.PacketType]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPacketType, id.PacketType)
	}
	return parse(id.Subtype, id.ID)
}
