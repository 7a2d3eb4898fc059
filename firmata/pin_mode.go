// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"periph.io/x/conn/v3/pin"
)

const (
	PinFuncDigitalInput  pin.Func = "Digital Input"
	PinFuncDigitalOutput pin.Func = "Digital Output"
	PinFuncAnalogInput   pin.Func = "Analog Input"
	PinFuncPWM           pin.Func = "PWM"
	PinFuncServo         pin.Func = "Servo"
	PinFuncShift         pin.Func = "Shift"
	PinFuncI2C           pin.Func = "I2C"
	PinFuncOneWire       pin.Func = "OneWire"
	PinFuncStepper       pin.Func = "Stepper"
	PinFuncEncoder       pin.Func = "Encoder"
	PinFuncSerial        pin.Func = "Serial"
	PinFuncInputPullUp   pin.Func = "Input Pull-Up"
	PinFuncSPI           pin.Func = "SPI"
	PinFuncSonar         pin.Func = "Sonar"
	PinFuncTone          pin.Func = "Tone"
	PinFuncDHT           pin.Func = "DHT"
)

// pinModes is indexed by the Firmata pin mode code.
var pinModes = []pin.Func{
	PinFuncDigitalInput,
	PinFuncDigitalOutput,
	PinFuncAnalogInput,
	PinFuncPWM,
	PinFuncServo,
	PinFuncShift,
	PinFuncI2C,
	PinFuncOneWire,
	PinFuncStepper,
	PinFuncEncoder,
	PinFuncSerial,
	PinFuncInputPullUp,
	PinFuncSPI,
	PinFuncSonar,
	PinFuncTone,
	PinFuncDHT,
}

// pinModeCode returns the Firmata code of f.
func pinModeCode(f pin.Func) (uint8, bool) {
	for i, m := range pinModes {
		if m == f {
			return uint8(i), true
		}
	}
	return 0, false
}

// pinModeFunc returns the pin.Func for a Firmata mode code.
func pinModeFunc(code uint8) pin.Func {
	if int(code) < len(pinModes) {
		return pinModes[code]
	}
	return pin.FuncNone
}
