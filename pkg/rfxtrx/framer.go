// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

// Framer reassembles frames from a byte stream. Transports deliver frames
// split across reads or several frames in one read; the length byte at the
// start of every frame is the only delimiter.
type Framer struct {
	buffer  []byte
	want    int // total frame size once the length byte is known
	skipped uint64
}

// NewFramer creates a framer waiting for a length byte
func NewFramer() *Framer {
	return &Framer{buffer: make([]byte, 0, MaxFrameSize)}
}

// Reset drops any partial frame
func (f *Framer) Reset() {
	f.buffer = f.buffer[:0]
	f.want = 0
}

// Pending reports whether a partial frame is buffered
func (f *Framer) Pending() bool {
	return len(f.buffer) > 0
}

// Skipped returns the number of zero length bytes dropped between frames
func (f *Framer) Skipped() uint64 {
	return f.skipped
}

// FeedByte processes one byte. It returns the completed frame, or nil while
// the frame is incomplete. The returned slice is owned by the caller.
func (f *Framer) FeedByte(b byte) []byte {
	if len(f.buffer) == 0 {
		// a zero length byte is idle fill from the transceiver
		if b == 0 {
			f.skipped++
			return nil
		}
		f.want = int(b) + 1
	}
	f.buffer = append(f.buffer, b)
	if len(f.buffer) < f.want {
		return nil
	}
	frame := append([]byte(nil), f.buffer...)
	f.Reset()
	return frame
}

// Feed processes a chunk of bytes and returns every frame it completed
func (f *Framer) Feed(data []byte) [][]byte {
	var frames [][]byte
	for _, b := range data {
		if frame := f.FeedByte(b); frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames
}
