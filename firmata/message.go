// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

// MessageType is the first byte of a Firmata message. Channel messages carry
// the pin or port number in the low nibble.
type MessageType uint8

const (
	AnalogIOMessage    MessageType = 0xE0 // pin #	LSB(bits 0-6)	MSB(bits 7-13)
	DigitalIOMessage   MessageType = 0x90 // port	LSB(bits 0-6)	MSB(bits 7-13)
	ReportAnalogPin    MessageType = 0xC0 // pin #	disable/enable(0/1)
	ReportDigitalPort  MessageType = 0xD0 // port	disable/enable(0/1)
	StartSysEx         MessageType = 0xF0
	SetPinMode         MessageType = 0xF4 // pin # (0-127)	pin mode
	SetDigitalPinValue MessageType = 0xF5 // pin # (0-127)	pin value(0/1)
	EndSysEx           MessageType = 0xF7
	ProtocolVersion    MessageType = 0xF9 // major version	minor version
	SystemReset        MessageType = 0xFF
)

var messageTypeToStringMap = map[MessageType]string{
	AnalogIOMessage:    "AnalogIOMessage",
	DigitalIOMessage:   "DigitalIOMessage",
	ReportAnalogPin:    "ReportAnalogPin",
	ReportDigitalPort:  "ReportDigitalPort",
	StartSysEx:         "StartSysEx",
	SetPinMode:         "SetPinMode",
	SetDigitalPinValue: "SetDigitalPinValue",
	EndSysEx:           "EndSysEx",
	ProtocolVersion:    "ProtocolVersion",
	SystemReset:        "SystemReset",
}

// channel returns the channel message type m belongs to, or m itself.
func (m MessageType) channel() MessageType {
	for _, base := range []MessageType{AnalogIOMessage, DigitalIOMessage, ReportAnalogPin, ReportDigitalPort} {
		if base <= m && m <= base+0xF {
			return base
		}
	}
	return m
}

func (m MessageType) String() string {
	if v, ok := messageTypeToStringMap[m.channel()]; ok {
		return v
	}
	return "Unknown"
}
