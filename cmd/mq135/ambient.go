// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/bmxx80"
)

// Ambient sources.
const (
	ambientFixed  = "fixed"
	ambientBME280 = "bme280"
)

// openAmbient returns the source of the correction conditions and the
// function releasing it. The source is nil when the correction is disabled.
func openAmbient(cfg *Config) (envSensor, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Ambient.Enabled {
		return nil, noop, nil
	}
	switch cfg.Ambient.Source {
	case ambientFixed:
		return (*fixedEnv)(cfg.ambientEnv()), noop, nil
	case ambientBME280:
		bus, err := i2creg.Open(cfg.Ambient.I2CBus)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open I²C bus")
		}
		dev, err := bmxx80.NewI2C(bus, cfg.Ambient.I2CAddress, &bmxx80.DefaultOpts)
		if err != nil {
			_ = bus.Close()
			return nil, nil, errors.Wrapf(err, "failed to open bme280 at 0x%02x", cfg.Ambient.I2CAddress)
		}
		return dev, func() error {
			err := dev.Halt()
			if cerr := bus.Close(); err == nil {
				err = cerr
			}
			return err
		}, nil
	default:
		return nil, nil, errors.Errorf("unknown ambient source %q", cfg.Ambient.Source)
	}
}
