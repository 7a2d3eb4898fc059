// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"bytes"
	"fmt"

	"periph.io/x/conn/v3/pin"
)

// CapabilityResponsePinDelimiter terminates the list of modes of a pin.
const CapabilityResponsePinDelimiter = 0x7F

// CapabilityResponse lists the modes each pin supports with the resolution
// in bits of each mode.
type CapabilityResponse struct {
	PinToModeToResolution []map[pin.Func]uint8
}

// AnalogResolution returns the converter resolution in bits of pin p, or 0
// if p doesn't support analog input.
func (c CapabilityResponse) AnalogResolution(p uint8) uint8 {
	if int(p) >= len(c.PinToModeToResolution) {
		return 0
	}
	return c.PinToModeToResolution[p][PinFuncAnalogInput]
}

func (c CapabilityResponse) String() string {
	str := bytes.Buffer{}
	for p, modeMap := range c.PinToModeToResolution {
		_, _ = fmt.Fprintf(&str, "pin %2v: [", p)
		if len(modeMap) > 0 {
			for _, mode := range pinModes {
				if resolution, ok := modeMap[mode]; ok {
					_, _ = fmt.Fprintf(&str, "%s: %d, ", mode, resolution)
				}
			}
			str.Truncate(str.Len() - 2)
		}
		_, _ = fmt.Fprintf(&str, "]\n")
	}
	return str.String()
}

// parseCapabilityResponse decodes (mode, resolution) pairs, one list per
// pin, each list closed by CapabilityResponsePinDelimiter.
func parseCapabilityResponse(data []byte) CapabilityResponse {
	response := CapabilityResponse{}
	modes := map[pin.Func]uint8{}
	for i := 0; i < len(data); {
		if data[i] == CapabilityResponsePinDelimiter {
			response.PinToModeToResolution = append(response.PinToModeToResolution, modes)
			modes = map[pin.Func]uint8{}
			i++
			continue
		}
		if i+1 >= len(data) {
			break
		}
		modes[pinModeFunc(data[i])] = data[i+1]
		i += 2
	}
	return response
}
