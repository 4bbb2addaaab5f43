// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture reads and writes RFXtrx capture files. A capture file is a
// plain sequence of CBOR records, one per received frame, each carrying the
// receive time and a CRC-16-CCITT of the frame so a damaged file is detected
// record by record.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/sigurn/crc16"
)

// ErrChecksum is returned for a record whose frame does not match its CRC
var ErrChecksum = errors.New("capture record checksum mismatch")

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum computes the CRC-16-CCITT of a frame
func Checksum(frame []byte) uint16 {
	return crc16.Checksum(frame, crcTable)
}

// Record is one captured frame
type Record struct {
	Time  int64  `cbor:"t"` // unix nanoseconds
	Frame []byte `cbor:"f"`
	CRC   uint16 `cbor:"c"`
}

// NewRecord stamps a frame with its receive time and checksum
func NewRecord(ts time.Time, frame []byte) Record {
	return Record{
		Time:  ts.UnixNano(),
		Frame: append([]byte(nil), frame...),
		CRC:   Checksum(frame),
	}
}

// Timestamp returns the receive time
func (r Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

// Valid reports whether the frame matches its checksum
func (r Record) Valid() bool {
	return Checksum(r.Frame) == r.CRC
}

// Writer appends records to a capture stream
type Writer struct {
	enc   *cbor.Encoder
	count uint64
}

// NewWriter creates a writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write records one frame
func (w *Writer) Write(ts time.Time, frame []byte) error {
	if len(frame) == 0 {
		return fmt.Errorf("empty frame")
	}
	if err := w.enc.Encode(NewRecord(ts, frame)); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() uint64 {
	return w.count
}

// Reader iterates over the records of a capture stream
type Reader struct {
	dec   *cbor.Decoder
	index uint64
}

// NewReader creates a reader on r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record. It returns io.EOF at the end of the stream.
// A record failing its checksum is returned together with an error wrapping
// ErrChecksum so callers can skip it and keep reading.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read capture record %d: %w", r.index, err)
	}
	r.index++
	if !rec.Valid() {
		return rec, fmt.Errorf("record %d: %w (crc %04x, frame % X)", r.index-1, ErrChecksum, rec.CRC, rec.Frame)
	}
	return rec, nil
}

// ReadAll reads every record, stopping at the first damaged one
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
