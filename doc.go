// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airsense is a container for the MQ135 air quality sensor driver
// and the tools around it.
//
// mq135 converts analog readings into a CO2 concentration. firmata reads the
// analog inputs of a board running StandardFirmata over a serial link.
// co2bar draws a concentration on a terminal. cmd/mq135 ties them together.
package airsense
