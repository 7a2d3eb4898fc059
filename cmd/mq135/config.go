// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/airsense/firmata"
	"github.com/GermanBionicSystems/airsense/mq135"
)

// Config represents the monitor configuration. It also stores the sensor
// calibration between runs.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Ambient     AmbientConfig     `yaml:"ambient"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// SerialConfig is the link to the Firmata board.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// SensorConfig holds the wiring and calibration of the sensor. Zero values
// select the driver defaults.
type SensorConfig struct {
	Pin            uint8   `yaml:"pin"`             // Analog channel, 0 for A0
	LoadResistance float64 `yaml:"load_resistance"` // kOhm
	RZero          float64 `yaml:"rzero"`           // kOhm, written by -calibrate
	AtmosphericCO2 float64 `yaml:"atmospheric_co2"` // ppm
	FullScale      int32   `yaml:"full_scale"`      // 0 asks the board
}

// AmbientConfig enables the temperature and humidity correction. The
// conditions are either fixed or read from a BME280 on an I²C bus.
type AmbientConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Source      string  `yaml:"source"`      // "fixed" or "bme280"
	Temperature float64 `yaml:"temperature"` // °C, fixed source
	Humidity    float64 `yaml:"humidity"`    // %RH, fixed source
	I2CBus      string  `yaml:"i2c_bus"`     // Empty for the first bus
	I2CAddress  uint16  `yaml:"i2c_address"`
}

// SamplingConfig contains the monitor loop timing.
type SamplingConfig struct {
	Interval       time.Duration `yaml:"interval"`        // Between logged readings
	ReportInterval time.Duration `yaml:"report_interval"` // Board analog report period
}

// CalibrationConfig contains the RZero measurement parameters.
type CalibrationConfig struct {
	Samples  int           `yaml:"samples"`
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig contains the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: firmata.DefaultBaudRate,
		},
		Sensor: SensorConfig{
			Pin:            0,
			LoadResistance: mq135.DefaultLoadResistance,
			RZero:          mq135.DefaultRZero,
			AtmosphericCO2: mq135.DefaultAtmosphericCO2,
			FullScale:      0,
		},
		Ambient: AmbientConfig{
			Enabled:     false,
			Source:      ambientFixed,
			Temperature: 20,
			Humidity:    33,
			I2CAddress:  0x76,
		},
		Sampling: SamplingConfig{
			Interval:       2 * time.Second,
			ReportInterval: 100 * time.Millisecond,
		},
		Calibration: CalibrationConfig{
			Samples:  10,
			Interval: time.Second,
		},
		Metrics: MetricsConfig{
			Listen: ":9135",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// ensureDefaults fills the fields without a usable zero value. Sensor
// calibration values are left alone: the driver treats zero as its default.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}
	if c.Sampling.ReportInterval == 0 {
		c.Sampling.ReportInterval = def.Sampling.ReportInterval
	}
	if c.Calibration.Samples <= 0 {
		c.Calibration.Samples = def.Calibration.Samples
	}
	if c.Calibration.Interval == 0 {
		c.Calibration.Interval = def.Calibration.Interval
	}
	if c.Ambient.Source == "" {
		c.Ambient.Source = def.Ambient.Source
	}
	if c.Ambient.I2CAddress == 0 {
		c.Ambient.I2CAddress = def.Ambient.I2CAddress
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = def.Metrics.Listen
	}
}

// sensorOpts returns the driver options. A zero full scale is taken from the
// range of p.
func (c *Config) sensorOpts(p analog.PinADC) *mq135.Opts {
	o := &mq135.Opts{
		LoadResistance: c.Sensor.LoadResistance,
		AtmosphericCO2: c.Sensor.AtmosphericCO2,
		FullScale:      c.Sensor.FullScale,
	}
	if o.FullScale == 0 {
		_, hi := p.Range()
		o.FullScale = hi.Raw
	}
	return o
}

// ambientEnv returns the fixed ambient conditions.
func (c *Config) ambientEnv() *physic.Env {
	return &physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(c.Ambient.Temperature*float64(physic.Kelvin)),
		Humidity:    physic.RelativeHumidity(c.Ambient.Humidity * float64(physic.PercentRH)),
	}
}
