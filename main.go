// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// rfxscope - RFXtrx Transceiver Analyzer
//
// A CLI tool for decoding, monitoring and controlling the 433MHz devices
// heard by an RFXCOM RFXtrx transceiver.

package main

import (
	"os"

	"github.com/Thermoquad/rfxscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
