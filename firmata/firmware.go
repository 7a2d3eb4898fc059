// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"fmt"
)

// FirmwareReport is the name and version of the sketch running on the board.
type FirmwareReport struct {
	Major byte
	Minor byte
	Name  []byte
}

func (r FirmwareReport) String() string {
	return fmt.Sprintf("%s [%d.%d]", TwoByteString(r.Name), r.Major, r.Minor)
}

func parseFirmwareReport(data []byte) FirmwareReport {
	var r FirmwareReport
	if len(data) > 0 {
		r.Major = data[0]
	}
	if len(data) > 1 {
		r.Minor = data[1]
	}
	if len(data) > 2 {
		r.Name = data[2:]
	}
	return r
}
