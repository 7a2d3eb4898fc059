// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mq135 converts readings of an MQ135 resistive gas sensor into a CO2
// concentration.
//
// The sensor forms a voltage divider with a load resistor. The divider output
// is sampled by an analog to digital converter exposed as an analog.PinADC.
// The raw count is turned into the sensor resistance, optionally corrected for
// temperature and humidity, and mapped to parts per million through the power
// law fitted to the datasheet sensitivity curve. The fit assumes CO2 is the
// only gas changing the sensor resistance.
//
// # Calibration
//
// The reference resistance RZero is the sensor resistance at the atmospheric
// CO2 level. Leave the sensor in fresh air after burn-in, call MeasureRZero
// and store the result. On the next start, apply it with SetRZero. The driver
// does not persist anything.
//
// Calibration parameters set to zero fall back to their defaults.
//
// # Datasheet
//
// https://www.olimex.com/Products/Components/Sensors/Gas/SNS-MQ135/resources/SNS-MQ135.pdf
package mq135
