// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

// SysExCmd is the command byte following StartSysEx.
type SysExCmd uint8

const (
	SysExAnalogMappingQuery    SysExCmd = 0x69 // ask for mapping of analog pin names to pin numbers
	SysExAnalogMappingResponse SysExCmd = 0x6A // reply with mapping info
	SysExCapabilityQuery       SysExCmd = 0x6B // ask for supported modes and resolution of all pins
	SysExCapabilityResponse    SysExCmd = 0x6C // reply with supported modes and resolution
	SysExPinStateQuery         SysExCmd = 0x6D // ask for a pin's current mode and state
	SysExPinStateResponse      SysExCmd = 0x6E // reply with a pin's current mode and state
	SysExExtendedAnalog        SysExCmd = 0x6F // analog write (PWM, Servo, etc.) to any pin
	SysExStringData            SysExCmd = 0x71 // a string message with 14-bits per char
	SysExI2CReply              SysExCmd = 0x77 // https://github.com/firmata/protocol/blob/master/i2c.md
	SysExReportFirmware        SysExCmd = 0x79 // report name and version of the firmware
	SysExSamplingInterval      SysExCmd = 0x7A // the interval at which analog input is sampled (default = 19ms)
)

// commandResponseMap lists the queries answered by the board, in order.
var commandResponseMap = map[SysExCmd]SysExCmd{
	SysExAnalogMappingQuery: SysExAnalogMappingResponse,
	SysExCapabilityQuery:    SysExCapabilityResponse,
	SysExReportFirmware:     SysExReportFirmware,
}

var sysExCmdToStringMap = map[SysExCmd]string{
	SysExAnalogMappingQuery:    "AnalogMappingQuery",
	SysExAnalogMappingResponse: "AnalogMappingResponse",
	SysExCapabilityQuery:       "CapabilityQuery",
	SysExCapabilityResponse:    "CapabilityResponse",
	SysExPinStateQuery:         "PinStateQuery",
	SysExPinStateResponse:      "PinStateResponse",
	SysExExtendedAnalog:        "ExtendedAnalog",
	SysExStringData:            "StringData",
	SysExI2CReply:              "I2CReply",
	SysExReportFirmware:        "ReportFirmware",
	SysExSamplingInterval:      "SamplingInterval",
}

func (s SysExCmd) String() string {
	if v, ok := sysExCmdToStringMap[s]; ok {
		return v
	}
	return "Unknown"
}
