// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rfxtrx

import "fmt"

// Interface control builders create the 14-byte frames the host sends to the
// transceiver itself. All of them use packet type 0x00 with subtype 0x00.

// Interface control commands (byte d4)
const (
	controlReset     uint8 = 0x00
	controlGetStatus uint8 = 0x02
	controlSetMode   uint8 = 0x03
	controlStart     uint8 = 0x07
)

func interfaceControl(seqNbr, command uint8) []byte {
	frame := make([]byte, statusSize)
	frame[0] = statusSize - 1
	frame[3] = seqNbr
	frame[4] = command
	return frame
}

// EncodeReset creates the reset frame. The transceiver does not answer it;
// callers wait for it to settle and flush any pending input.
func EncodeReset() []byte {
	return interfaceControl(0x00, controlReset)
}

// EncodeStatusRequest creates the get status frame (0D 00 00 01 02 00...).
// The transceiver answers with a Status frame.
func EncodeStatusRequest() []byte {
	return interfaceControl(0x01, controlGetStatus)
}

// EncodeStart creates the start receiver frame (0D 00 00 03 07 00...).
func EncodeStart() []byte {
	return interfaceControl(0x03, controlStart)
}

// EncodeSetModes creates a set mode frame enabling exactly the named receive
// modes. transceiverType and outputPower should be the values reported by the
// last status response so the transceiver keeps its band and power.
// An unknown mode name fails with ErrInvalidCommand.
func EncodeSetModes(modes []string, transceiverType, outputPower uint8) ([]byte, error) {
	frame := interfaceControl(0x00, controlSetMode)
	frame[5] = transceiverType
	frame[6] = outputPower
	for _, mode := range modes {
		index, bit, ok := receiveModeBit(mode)
		if !ok {
			return nil, fmt.Errorf("%w: unknown mode name %q", ErrInvalidCommand, mode)
		}
		frame[7+index] |= 1 << bit
	}
	return frame, nil
}
