// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"errors"
)

var (
	ErrDeviceDisconnected      = errors.New("firmata: device disconnected")
	ErrInvalidMessageTypeStart = errors.New("firmata: invalid message type start")
	ErrNoDataRead              = errors.New("firmata: no data read")
	ErrAlreadyStarted          = errors.New("firmata: client already started")
	ErrNotStarted              = errors.New("firmata: client not started")
	ErrNoFirmwareReport        = errors.New("firmata: no firmware report received")
	ErrValueOutOfRange         = errors.New("firmata: value is out of range")
	ErrInvalidAnalogPin        = errors.New("firmata: analog pin is outside of range")
	ErrPinListenerNotReleased  = errors.New("firmata: pin listener is already set for pin")
	ErrNoSample                = errors.New("firmata: no sample reported yet")
)
