// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/airsense/mq135"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, mq135.DefaultLoadResistance, cfg.Sensor.LoadResistance)
	assert.Equal(t, mq135.DefaultRZero, cfg.Sensor.RZero)
	assert.Equal(t, mq135.DefaultAtmosphericCO2, cfg.Sensor.AtmosphericCO2)
	assert.Equal(t, int32(0), cfg.Sensor.FullScale)
	assert.False(t, cfg.Ambient.Enabled)
	assert.Equal(t, ambientFixed, cfg.Ambient.Source)
	assert.Equal(t, uint16(0x76), cfg.Ambient.I2CAddress)
	assert.Equal(t, 2*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 10, cfg.Calibration.Samples)
	assert.Equal(t, ":9135", cfg.Metrics.Listen)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mq135.yaml")
	yamlContent := `
serial:
  port: "/dev/ttyUSB1"

sensor:
  pin: 2
  load_resistance: 22
  rzero: 41.7

ambient:
  enabled: true
  source: bme280
  temperature: 0
  humidity: 55
  i2c_address: 0x77

sampling:
  interval: 5s

calibration:
  samples: 30
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, uint8(2), cfg.Sensor.Pin)
	assert.Equal(t, 22.0, cfg.Sensor.LoadResistance)
	assert.Equal(t, 41.7, cfg.Sensor.RZero)
	// Unset keys keep the defaults.
	assert.Equal(t, mq135.DefaultAtmosphericCO2, cfg.Sensor.AtmosphericCO2)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.True(t, cfg.Ambient.Enabled)
	assert.Equal(t, 0.0, cfg.Ambient.Temperature)
	assert.Equal(t, 55.0, cfg.Ambient.Humidity)
	assert.Equal(t, ambientBME280, cfg.Ambient.Source)
	assert.Equal(t, uint16(0x77), cfg.Ambient.I2CAddress)
	assert.Equal(t, 5*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Sampling.ReportInterval)
	assert.Equal(t, 30, cfg.Calibration.Samples)
}

func TestLoad_ZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mq135.yaml")
	yamlContent := `
serial:
  port: ""
  baud_rate: 0
sensor:
  rzero: 0
sampling:
  interval: 0s
calibration:
  samples: -3
metrics:
  listen: ""
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Serial, cfg.Serial)
	assert.Equal(t, def.Sampling.Interval, cfg.Sampling.Interval)
	assert.Equal(t, def.Calibration.Samples, cfg.Calibration.Samples)
	assert.Equal(t, def.Metrics.Listen, cfg.Metrics.Listen)
	// The driver substitutes its own default for a zero RZero.
	assert.Equal(t, 0.0, cfg.Sensor.RZero)
	p := &fakePin{}
	dev := mq135.New(p, cfg.sensorOpts(p))
	dev.SetRZero(cfg.Sensor.RZero)
	assert.Equal(t, mq135.DefaultRZero, dev.RZero())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mq135.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mq135.yaml")
	cfg := Default()
	cfg.Sensor.RZero = 38.254
	cfg.Ambient.Enabled = true
	cfg.Calibration.Interval = 3 * time.Second

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAmbientEnv(t *testing.T) {
	cfg := Default()
	cfg.Ambient = AmbientConfig{Enabled: true, Temperature: 25, Humidity: 40}
	env := cfg.ambientEnv()
	require.NotNil(t, env)
	assert.Equal(t, physic.ZeroCelsius+25*physic.Kelvin, env.Temperature)
	assert.Equal(t, 40*physic.PercentRH, env.Humidity)
	assert.InDelta(t, 25.0, env.Temperature.Celsius(), 1e-9)
}

func TestOpenAmbient(t *testing.T) {
	cfg := Default()
	s, closeFn, err := openAmbient(cfg)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, closeFn())

	cfg.Ambient.Enabled = true
	cfg.Ambient.Temperature = 18
	s, closeFn, err = openAmbient(cfg)
	require.NoError(t, err)
	require.NotNil(t, s)
	e := physic.Env{}
	require.NoError(t, s.Sense(&e))
	assert.InDelta(t, 18.0, e.Temperature.Celsius(), 1e-9)
	assert.Equal(t, 33*physic.PercentRH, e.Humidity)
	assert.NoError(t, closeFn())

	cfg.Ambient.Source = "dht22"
	_, _, err = openAmbient(cfg)
	assert.Error(t, err)
}

func TestSensorOptsFullScale(t *testing.T) {
	cfg := Default()
	// A 12 bit board reported through the pin range.
	p := &fakePin{full: 4095}
	assert.Equal(t, int32(4095), cfg.sensorOpts(p).FullScale)

	cfg.Sensor.FullScale = 1023
	assert.Equal(t, int32(1023), cfg.sensorOpts(p).FullScale)
}
