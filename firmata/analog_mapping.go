// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"bytes"
	"fmt"
)

// AnalogMappingResponse maps analog channel numbers (A0, A1, ...) to the
// digital pin numbers used by pin mode commands.
type AnalogMappingResponse struct {
	AnalogPinToDigital map[uint8]uint8
	DigitalPinToAnalog map[uint8]uint8
}

func (a AnalogMappingResponse) String() string {
	str := bytes.Buffer{}
	for analogPin := 0; analogPin < 16; analogPin++ {
		if digitalPin, ok := a.AnalogPinToDigital[uint8(analogPin)]; ok {
			_, _ = fmt.Fprintf(&str, "A%d: %d\n", analogPin, digitalPin)
		}
	}
	return str.String()
}

// parseAnalogMappingResponse decodes one byte per digital pin holding its
// analog channel, or 0x7F when the pin has none.
func parseAnalogMappingResponse(data []byte) AnalogMappingResponse {
	response := AnalogMappingResponse{
		AnalogPinToDigital: map[uint8]uint8{},
		DigitalPinToAnalog: map[uint8]uint8{},
	}
	for digitalPin, analogPin := range data {
		if analogPin == CapabilityResponsePinDelimiter {
			continue
		}
		response.AnalogPinToDigital[analogPin] = uint8(digitalPin)
		response.DigitalPinToAnalog[uint8(digitalPin)] = analogPin
	}
	return response
}
