// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import "fmt"

// sensorValue answers Value for the fields every sensor family shares
func (h *header) sensorValue(f Field, values map[Field]interface{}) (interface{}, bool) {
	if !h.HasField(f) {
		return nil, false
	}
	if v, ok := values[f]; ok {
		return v, true
	}
	return h.signalValue(f)
}

//////////////////////////////////////////////////////////////
// Temp
//////////////////////////////////////////////////////////////

var tempTypes = map[uint8]string{
	0x01: "THR128/138, THC138",
	0x02: "THC238/268,THN132,THWR288,THRN122,THN122,AW129/131",
	0x03: "THWR800",
	0x04: "RTHN318",
	0x05: "La Crosse TX2, TX3, TX4, TX17",
	0x06: "TS15C",
	0x07: "Viking 02811",
	0x08: "La Crosse WS2300",
	0x09: "RUBiCSON",
	0x0A: "TFA 30.3133",
	0x0B: "WT0122",
}

// Temp is a temperature sensor frame
type Temp struct {
	header
	pairID
	Temp RawTemperature
}

func decodeTemp(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 9); err != nil {
		return nil, err
	}
	p := &Temp{header: h, pairID: readPairID(data), Temp: RawTemperature{data[6], data[7]}}
	p.signal = data[8]
	p.typeString = typeString(TypeTemp, tempTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *Temp) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldTemperature: p.Temp.Celsius(),
	})
}

// Bytes implements Packet
func (p *Temp) Bytes() []byte {
	frame := p.put(make([]byte, 9))
	p.pairID.write(frame)
	frame[6], frame[7] = p.Temp[0], p.Temp[1]
	frame[8] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Bbq
//////////////////////////////////////////////////////////////

var bbqTypes = map[uint8]string{
	0x01: "BBQ1 - Maverick ET-732",
}

// Bbq is a barbecue probe frame. The two probe readings are taken from
// d7 and d9 as whole degrees; d8 is carried through untouched.
type Bbq struct {
	header
	ID       uint32 // 24 bits
	Temp1    uint8
	Reserved uint8
	Temp2    uint8
}

func decodeBbq(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 11); err != nil {
		return nil, err
	}
	p := &Bbq{header: h, ID: uint32(beUint(data[4:7])), Temp1: data[7], Reserved: data[8], Temp2: data[9]}
	p.signal = data[10]
	p.typeString = typeString(TypeBbq, bbqTypes, p.subtype)
	return p, nil
}

// IDString formats "%06x:78"
func (p *Bbq) IDString() string {
	return fmt.Sprintf("%06x:%d", p.ID, uint8(TypeBbq))
}

// Value implements Packet
func (p *Bbq) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldTemperature:  int(p.Temp1),
		FieldTemperature2: int(p.Temp2),
	})
}

// Bytes implements Packet
func (p *Bbq) Bytes() []byte {
	frame := p.put(make([]byte, 11))
	putBEUint(frame[4:7], uint64(p.ID))
	frame[7] = p.Temp1
	frame[8] = p.Reserved
	frame[9] = p.Temp2
	frame[10] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Humid
//////////////////////////////////////////////////////////////

var humidTypes = map[uint8]string{
	0x01: "LaCrosse TX3",
	0x02: "LaCrosse WS2300",
	0x03: "Inovalley S80",
}

// Humid is a hygrometer frame
type Humid struct {
	header
	pairID
	Humidity       uint8
	HumidityStatus uint8
}

func decodeHumid(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 9); err != nil {
		return nil, err
	}
	p := &Humid{header: h, pairID: readPairID(data), Humidity: data[6], HumidityStatus: data[7]}
	p.signal = data[8]
	p.typeString = typeString(TypeHumid, humidTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *Humid) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, humidityValues(p.Humidity, p.HumidityStatus, nil))
}

func humidityValues(humidity, status uint8, values map[Field]interface{}) map[Field]interface{} {
	if values == nil {
		values = make(map[Field]interface{}, 3)
	}
	values[FieldHumidity] = int(humidity)
	values[FieldHumidityStatus] = humidityStatusString(status)
	values[FieldHumidityStatusNumeric] = int(status)
	return values
}

func forecastValues(baro uint16, forecast uint8, values map[Field]interface{}) map[Field]interface{} {
	if values == nil {
		values = make(map[Field]interface{}, 3)
	}
	values[FieldBarometer] = int(baro)
	values[FieldForecast] = forecastString(forecast)
	values[FieldForecastNumeric] = int(forecast)
	return values
}

// Bytes implements Packet
func (p *Humid) Bytes() []byte {
	frame := p.put(make([]byte, 9))
	p.pairID.write(frame)
	frame[6] = p.Humidity
	frame[7] = p.HumidityStatus
	frame[8] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// TempHumid
//////////////////////////////////////////////////////////////

var tempHumidTypes = map[uint8]string{
	0x01: "THGN122/123, THGN132, THGR122/228/238/268",
	0x02: "THGR810, THGN800",
	0x03: "RTGR328",
	0x04: "THGR328",
	0x05: "WTGR800",
	0x06: "THGR918/928, THGRN228, THGN500",
	0x07: "TFA TS34C, Cresta",
	0x08: "WT260,WT260H,WT440H,WT450,WT450H",
	0x09: "Viking 02035,02038",
	0x0A: "Rubicson",
	0x0B: "EW109",
	0x0C: "Imagintronix",
	0x0D: "Alecto WS1700",
	0x0E: "Alecto",
}

// TempHumid is a thermo-hygrometer frame
type TempHumid struct {
	header
	pairID
	Temp           RawTemperature
	Humidity       uint8
	HumidityStatus uint8
}

func decodeTempHumid(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 11); err != nil {
		return nil, err
	}
	p := &TempHumid{header: h, pairID: readPairID(data), Temp: RawTemperature{data[6], data[7]},
		Humidity: data[8], HumidityStatus: data[9]}
	p.signal = data[10]
	p.typeString = typeString(TypeTempHumid, tempHumidTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *TempHumid) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, humidityValues(p.Humidity, p.HumidityStatus, map[Field]interface{}{
		FieldTemperature: p.Temp.Celsius(),
	}))
}

// Bytes implements Packet
func (p *TempHumid) Bytes() []byte {
	frame := p.put(make([]byte, 11))
	p.pairID.write(frame)
	frame[6], frame[7] = p.Temp[0], p.Temp[1]
	frame[8] = p.Humidity
	frame[9] = p.HumidityStatus
	frame[10] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Baro
//////////////////////////////////////////////////////////////

// No barometer-only subtypes are named
var baroTypes = map[uint8]string{}

// Baro is a barometer frame
type Baro struct {
	header
	pairID
	Baro     uint16
	Forecast uint8
}

func decodeBaro(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 10); err != nil {
		return nil, err
	}
	p := &Baro{header: h, pairID: readPairID(data), Baro: uint16(beUint(data[6:8])), Forecast: data[8]}
	p.signal = data[9]
	p.typeString = typeString(TypeBaro, baroTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *Baro) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, forecastValues(p.Baro, p.Forecast, nil))
}

// Bytes implements Packet
func (p *Baro) Bytes() []byte {
	frame := p.put(make([]byte, 10))
	p.pairID.write(frame)
	putBEUint(frame[6:8], uint64(p.Baro))
	frame[8] = p.Forecast
	frame[9] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// TempHumidBaro
//////////////////////////////////////////////////////////////

var tempHumidBaroTypes = map[uint8]string{
	0x01: "BTHR918",
	0x02: "BTHR918N, BTHR968",
}

// TempHumidBaro is a combined weather station frame
type TempHumidBaro struct {
	header
	pairID
	Temp           RawTemperature
	Humidity       uint8
	HumidityStatus uint8
	Baro           uint16
	Forecast       uint8
}

func decodeTempHumidBaro(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 14); err != nil {
		return nil, err
	}
	p := &TempHumidBaro{header: h, pairID: readPairID(data), Temp: RawTemperature{data[6], data[7]},
		Humidity: data[8], HumidityStatus: data[9], Baro: uint16(beUint(data[10:12])), Forecast: data[12]}
	p.signal = data[13]
	p.typeString = typeString(TypeTempHumidBaro, tempHumidBaroTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *TempHumidBaro) Value(f Field) (interface{}, bool) {
	values := humidityValues(p.Humidity, p.HumidityStatus, map[Field]interface{}{
		FieldTemperature: p.Temp.Celsius(),
	})
	return p.sensorValue(f, forecastValues(p.Baro, p.Forecast, values))
}

// Bytes implements Packet
func (p *TempHumidBaro) Bytes() []byte {
	frame := p.put(make([]byte, 14))
	p.pairID.write(frame)
	frame[6], frame[7] = p.Temp[0], p.Temp[1]
	frame[8] = p.Humidity
	frame[9] = p.HumidityStatus
	putBEUint(frame[10:12], uint64(p.Baro))
	frame[12] = p.Forecast
	frame[13] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Rain
//////////////////////////////////////////////////////////////

var rainTypes = map[uint8]string{
	0x01: "RGR126/682/918",
	0x02: "PCR800",
	0x03: "TFA",
	0x04: "UPM RG700",
	0x05: "WS2300",
	0x06: "La Crosse TX5",
	0x07: "Alecto",
	0x08: "Davis",
	0x09: "TFA 30.3233.01",
}

// Rain is a rain gauge frame. Rate and total encodings depend on the
// subtype; subtypes without a known encoding omit the field.
type Rain struct {
	header
	pairID
	RainRate  uint16
	RainTotal uint32 // 24 bits
}

func decodeRain(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 12); err != nil {
		return nil, err
	}
	p := &Rain{header: h, pairID: readPairID(data), RainRate: uint16(beUint(data[6:8])),
		RainTotal: uint32(beUint(data[8:11]))}
	p.signal = data[11]
	p.typeString = typeString(TypeRain, rainTypes, p.subtype)
	if _, ok := p.Rate(); !ok {
		p.fields = p.fields.without(FieldRainRate)
	}
	if _, ok := p.Total(); !ok {
		p.fields = p.fields.without(FieldRainTotal)
	}
	return p, nil
}

// Rate returns the rain rate in mm/h for the subtypes that report one
func (p *Rain) Rate() (float64, bool) {
	switch p.subtype {
	case 0x01:
		return float64(p.RainRate), true
	case 0x02:
		return float64(p.RainRate) / 100, true
	}
	return 0, false
}

// Total returns the accumulated rain in mm
func (p *Rain) Total() (float64, bool) {
	low := p.RainTotal & 0xFF
	switch p.subtype {
	case 0x01, 0x02, 0x03, 0x04, 0x05, 0x07:
		return float64(p.RainTotal) / 10, true
	case 0x06:
		return 0.266 * float64(low), true
	case 0x08:
		return 0.2 * float64(low), true
	case 0x09:
		return 0.254 * float64(p.RainTotal&0xFFFF), true
	}
	return 0, false
}

// Value implements Packet
func (p *Rain) Value(f Field) (interface{}, bool) {
	values := make(map[Field]interface{}, 2)
	if v, ok := p.Rate(); ok {
		values[FieldRainRate] = v
	}
	if v, ok := p.Total(); ok {
		values[FieldRainTotal] = v
	}
	return p.sensorValue(f, values)
}

// Bytes implements Packet
func (p *Rain) Bytes() []byte {
	frame := p.put(make([]byte, 12))
	p.pairID.write(frame)
	putBEUint(frame[6:8], uint64(p.RainRate))
	putBEUint(frame[8:11], uint64(p.RainTotal))
	frame[11] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// TempRain
//////////////////////////////////////////////////////////////

var tempRainTypes = map[uint8]string{
	0x01: "TR1 - WS1200",
}

// TempRain is a combined thermometer and rain gauge frame
type TempRain struct {
	header
	pairID
	Temp      RawTemperature
	RainTotal uint16
}

func decodeTempRain(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 11); err != nil {
		return nil, err
	}
	p := &TempRain{header: h, pairID: readPairID(data), Temp: RawTemperature{data[6], data[7]},
		RainTotal: uint16(beUint(data[8:10]))}
	p.signal = data[10]
	p.typeString = typeString(TypeTempRain, tempRainTypes, p.subtype)
	return p, nil
}

// Total returns the accumulated rain in mm; bit 15 is not part of the count
func (p *TempRain) Total() float64 {
	return float64(p.RainTotal&0x7FFF) / 10
}

// Value implements Packet
func (p *TempRain) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldTemperature: p.Temp.Celsius(),
		FieldRainTotal:   p.Total(),
	})
}

// Bytes implements Packet
func (p *TempRain) Bytes() []byte {
	frame := p.put(make([]byte, 11))
	p.pairID.write(frame)
	frame[6], frame[7] = p.Temp[0], p.Temp[1]
	putBEUint(frame[8:10], uint64(p.RainTotal))
	frame[10] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// Wind
//////////////////////////////////////////////////////////////

var windTypes = map[uint8]string{
	0x01: "WTGR800",
	0x02: "WGR800",
	0x03: "STR918, WGR918, WGR928",
	0x04: "TFA",
	0x05: "UPM WDS500",
	0x06: "WS2300",
	0x07: "Alecto WS4500",
}

const (
	windNoAverage  = 0x05 // subtype without an average speed
	windRawBattery = 0x03 // subtype whose last byte is a plain battery level
)

// windHasTemperature lists the subtypes that report temperature and chill
var windHasTemperature = map[uint8]bool{
	0x04: true,
	0x08: true,
	0x09: true,
}

// Wind is an anemometer frame
type Wind struct {
	header
	pairID
	Direction    uint16
	AverageSpeed uint16 // tenths of m/s
	Gust         uint16 // tenths of m/s
	Temp         RawTemperature
	Chill        RawTemperature
}

func decodeWind(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 17); err != nil {
		return nil, err
	}
	p := &Wind{header: h, pairID: readPairID(data),
		Direction:    uint16(beUint(data[6:8])),
		AverageSpeed: uint16(beUint(data[8:10])),
		Gust:         uint16(beUint(data[10:12])),
		Temp:         RawTemperature{data[12], data[13]},
		Chill:        RawTemperature{data[14], data[15]},
	}
	p.signal = data[16]
	p.typeString = typeString(TypeWind, windTypes, p.subtype)
	if p.subtype == windNoAverage {
		p.fields = p.fields.without(FieldWindAverageSpeed)
	}
	if !windHasTemperature[p.subtype] {
		p.fields = p.fields.without(FieldTemperature, FieldChill)
	}
	if p.subtype == windRawBattery {
		p.fields = p.fields.without(FieldRSSI)
	}
	return p, nil
}

// Battery returns the battery level. One subtype reports it as the whole
// trailing byte instead of a nibble.
func (p *Wind) Battery() int {
	if p.subtype == windRawBattery {
		return int(p.signal)
	}
	return p.header.Battery()
}

// Value implements Packet
func (p *Wind) Value(f Field) (interface{}, bool) {
	if f == FieldBattery && p.HasField(f) {
		return p.Battery(), true
	}
	return p.sensorValue(f, map[Field]interface{}{
		FieldWindDirection:    int(p.Direction),
		FieldWindAverageSpeed: float64(p.AverageSpeed) / 10,
		FieldWindGust:         float64(p.Gust) / 10,
		FieldTemperature:      p.Temp.Celsius(),
		FieldChill:            p.Chill.Celsius(),
	})
}

// Bytes implements Packet
func (p *Wind) Bytes() []byte {
	frame := p.put(make([]byte, 17))
	p.pairID.write(frame)
	putBEUint(frame[6:8], uint64(p.Direction))
	putBEUint(frame[8:10], uint64(p.AverageSpeed))
	putBEUint(frame[10:12], uint64(p.Gust))
	frame[12], frame[13] = p.Temp[0], p.Temp[1]
	frame[14], frame[15] = p.Chill[0], p.Chill[1]
	frame[16] = p.signal
	return frame
}

//////////////////////////////////////////////////////////////
// UV
//////////////////////////////////////////////////////////////

var uvTypes = map[uint8]string{
	0x01: "UVN128, UV138",
	0x02: "UVN800",
	0x03: "TFA",
}

// UV is an ultraviolet sensor frame
type UV struct {
	header
	pairID
	UV       uint8 // tenths of the UV index
	Reserved [2]uint8
}

func decodeUV(data []byte) (Packet, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if err := need(data, 10); err != nil {
		return nil, err
	}
	p := &UV{header: h, pairID: readPairID(data), UV: data[6], Reserved: [2]uint8{data[7], data[8]}}
	p.signal = data[9]
	p.typeString = typeString(TypeUV, uvTypes, p.subtype)
	return p, nil
}

// Value implements Packet
func (p *UV) Value(f Field) (interface{}, bool) {
	return p.sensorValue(f, map[Field]interface{}{
		FieldUV: float64(p.UV) / 10,
	})
}

// Bytes implements Packet
func (p *UV) Bytes() []byte {
	frame := p.put(make([]byte, 10))
	p.pairID.write(frame)
	frame[6] = p.UV
	frame[7], frame[8] = p.Reserved[0], p.Reserved[1]
	frame[9] = p.signal
	return frame
}
