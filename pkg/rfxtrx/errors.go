// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import (
	"errors"
	"fmt"
)

var (
	ErrFraming               = errors.New("frame length does not match length byte")
	ErrUnknownPacketType     = errors.New("unknown packet type")
	ErrTruncated             = errors.New("frame shorter than packet layout")
	ErrInvalidIdentity       = errors.New("invalid id string")
	ErrInvalidCommand        = errors.New("invalid command")
	ErrUnsupportedPacketType = errors.New("unsupported packet type")
)

// DecodeError is returned by ParsePacket and Decode. It keeps the rejected
// frame so callers can log it.
type DecodeError struct {
	Frame []byte
	Err   error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("no packet for data % x: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(data []byte, err error) error {
	frame := make([]byte, len(data))
	copy(frame, data)
	return &DecodeError{Frame: frame, Err: err}
}

// need reports ErrTruncated when data does not reach index n-1
func need(data []byte, n int) error {
	if len(data) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, len(data))
	}
	return nil
}
