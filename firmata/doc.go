// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package firmata reads the analog inputs of a microcontroller board running
// StandardFirmata, usually over a USB serial port.
//
// Each analog channel the host asks for is reported by the board every
// sampling interval. AnalogPin keeps the last report and exposes it as an
// analog.PinADC, so drivers written against periph analog pins work
// unchanged on an Arduino.
//
// https://github.com/firmata/protocol/blob/master/protocol.md
package firmata
