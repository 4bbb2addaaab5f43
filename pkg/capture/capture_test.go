// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var (
	frameTemp  = []byte{0x08, 0x50, 0x02, 0x11, 0x70, 0x02, 0x00, 0xD7, 0x79}
	frameLight = []byte{0x07, 0x10, 0x00, 0x2A, 0x45, 0x05, 0x01, 0x70}
)

func TestChecksum(t *testing.T) {
	// CRC-16/CCITT-FALSE check value
	if got := Checksum([]byte("123456789")); got != 0x29B1 {
		t.Errorf("Checksum() = %#04x, want 0x29b1", got)
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	frames := [][]byte{frameTemp, frameLight, frameTemp}
	for i, f := range frames {
		if err := w.Write(start.Add(time.Duration(i)*time.Second), f); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if w.Count() != 3 {
		t.Errorf("Count() = %d, want 3", w.Count())
	}

	records, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != len(frames) {
		t.Fatalf("ReadAll() returned %d records, want %d", len(records), len(frames))
	}
	for i, rec := range records {
		if !bytes.Equal(rec.Frame, frames[i]) {
			t.Errorf("record %d frame = % X, want % X", i, rec.Frame, frames[i])
		}
		want := start.Add(time.Duration(i) * time.Second)
		if !rec.Timestamp().Equal(want) {
			t.Errorf("record %d time = %v, want %v", i, rec.Timestamp(), want)
		}
	}
}

func TestWriter_CopiesFrame(t *testing.T) {
	frame := append([]byte(nil), frameLight...)
	rec := NewRecord(time.Now(), frame)
	frame[4] = 0xFF
	if !rec.Valid() || rec.Frame[4] != 0x45 {
		t.Errorf("record changed with caller's buffer: % X", rec.Frame)
	}
}

func TestWriter_EmptyFrame(t *testing.T) {
	w := NewWriter(io.Discard)
	if err := w.Write(time.Now(), nil); err == nil {
		t.Error("Write(nil) error = nil")
	}
	if w.Count() != 0 {
		t.Errorf("Count() = %d, want 0", w.Count())
	}
}

func TestReader_CorruptedRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write(time.Now(), frameTemp)

	bad := NewRecord(time.Now(), frameLight)
	bad.Frame[5] ^= 0x01
	data, err := cbor.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}
	buf.Write(data)
	w.Write(time.Now(), frameLight)

	r := NewReader(&buf)
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next() #0 error = %v", err)
	}
	rec, err := r.Next()
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("Next() #1 error = %v, want ErrChecksum", err)
	}
	if rec.Valid() {
		t.Error("damaged record reports Valid()")
	}
	// the stream stays readable after a damaged record
	rec, err = r.Next()
	if err != nil {
		t.Fatalf("Next() #2 error = %v", err)
	}
	if !bytes.Equal(rec.Frame, frameLight) {
		t.Errorf("Next() #2 frame = % X, want % X", rec.Frame, frameLight)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestReadAll_StopsAtDamage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write(time.Now(), frameTemp)
	bad := NewRecord(time.Now(), frameTemp)
	bad.CRC++
	data, _ := cbor.Marshal(bad)
	buf.Write(data)

	records, err := ReadAll(&buf)
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("ReadAll() error = %v, want ErrChecksum", err)
	}
	if len(records) != 1 {
		t.Errorf("ReadAll() returned %d records, want 1", len(records))
	}
}

func TestReader_TruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).Write(time.Now(), frameTemp)
	data := buf.Bytes()[:buf.Len()-3]

	_, err := NewReader(bytes.NewReader(data)).Next()
	if err == nil || err == io.EOF {
		t.Errorf("Next() on truncated record error = %v, want a read error", err)
	}
}

func TestReader_Empty(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil)).Next(); err != io.EOF {
		t.Errorf("Next() on empty stream error = %v, want io.EOF", err)
	}
}
