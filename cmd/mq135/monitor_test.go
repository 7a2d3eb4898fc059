// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"

	"github.com/GermanBionicSystems/airsense/co2bar"
	"github.com/GermanBionicSystems/airsense/firmata"
	"github.com/GermanBionicSystems/airsense/mq135"
)

// fakePin returns the counts in raws, repeating the last one.
type fakePin struct {
	pin.BasicPin
	raws []int32
	err  error
	full int32
}

func (f *fakePin) Range() (analog.Sample, analog.Sample) {
	if f.full != 0 {
		return analog.Sample{}, analog.Sample{Raw: f.full}
	}
	return analog.Sample{}, analog.Sample{Raw: 1023}
}

func (f *fakePin) Read() (analog.Sample, error) {
	if f.err != nil {
		return analog.Sample{}, f.err
	}
	raw := f.raws[0]
	if len(f.raws) > 1 {
		f.raws = f.raws[1:]
	}
	return analog.Sample{Raw: raw}, nil
}

var _ analog.PinADC = &fakePin{}

func newTestMonitor(p *fakePin) *monitor {
	logger, _ := test.NewNullLogger()
	return &monitor{
		dev:     mq135.New(p, nil),
		pin:     "A0",
		metrics: newMetrics(prometheus.NewRegistry()),
		log:     logger,
	}
}

func TestMonitorSample(t *testing.T) {
	m := newTestMonitor(&fakePin{raws: []int32{200}})
	env, err := m.sample()
	require.NoError(t, err)
	assert.Equal(t, int32(200), env.Raw)
	assert.InDelta(t, 41.15, env.Resistance, 1e-9)

	assert.Equal(t, 200.0, testutil.ToFloat64(m.metrics.raw.WithLabelValues("A0")))
	assert.InDelta(t, 41.15, testutil.ToFloat64(m.metrics.resistance.WithLabelValues("A0")), 1e-9)
	assert.Equal(t, float64(env.CO2), testutil.ToFloat64(m.metrics.co2.WithLabelValues("A0")))
}

func TestMonitorSampleCorrected(t *testing.T) {
	m := newTestMonitor(&fakePin{raws: []int32{200}})
	m.ambient = &fixedEnv{Temperature: physic.ZeroCelsius + 10*physic.Kelvin, Humidity: 33 * physic.PercentRH}
	env, err := m.sample()
	require.NoError(t, err)
	assert.InDelta(t, 41.15/1.15858, env.Resistance, 1e-9)
	assert.InDelta(t, 10.0, testutil.ToFloat64(m.metrics.temperature.WithLabelValues("A0")), 1e-9)
	assert.InDelta(t, 33.0, testutil.ToFloat64(m.metrics.humidity.WithLabelValues("A0")), 1e-9)
}

// failingEnv is an ambient sensor that can't be read.
type failingEnv struct{ err error }

func (f *failingEnv) Sense(*physic.Env) error { return f.err }

func TestMonitorSampleAmbientError(t *testing.T) {
	p := &fakePin{raws: []int32{200}}
	m := newTestMonitor(p)
	errI2C := errors.New("i2c nack")
	m.ambient = &failingEnv{err: errI2C}
	_, err := m.sample()
	assert.ErrorIs(t, err, errI2C)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.errors.WithLabelValues("A0")))
}

func TestMonitorSampleError(t *testing.T) {
	m := newTestMonitor(&fakePin{err: firmata.ErrDeviceDisconnected})
	_, err := m.sample()
	assert.ErrorIs(t, err, firmata.ErrDeviceDisconnected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.errors.WithLabelValues("A0")))
}

func TestMonitorRun(t *testing.T) {
	m := newTestMonitor(&fakePin{raws: []int32{200}})
	out := &bytes.Buffer{}
	m.bar = co2bar.New(&co2bar.Opts{W: out, Width: 8})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A canceled context still takes one reading.
	m.run(ctx, time.Hour)
	assert.Contains(t, out.String(), "ppm")
}

func TestCalibrate(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := &fakePin{raws: []int32{200, 0, 210, 1023, 190}}
	dev := mq135.New(p, nil)

	rz, err := calibrate(context.Background(), dev, nil, 5, 0, logger)
	require.NoError(t, err)

	// The zero and full scale counts are skipped.
	var expected float64
	for _, raw := range []int32{200, 210, 190} {
		r := mq135.ResistanceFromRaw(raw, 1023, mq135.DefaultLoadResistance)
		expected += mq135.RZeroFromResistance(r, mq135.DefaultAtmosphericCO2)
	}
	expected /= 3
	assert.InDelta(t, expected, rz, 1e-9)
	// Calibration doesn't commit.
	assert.Equal(t, mq135.DefaultRZero, dev.RZero())

	dev.SetRZero(rz)
	ppm, err := dev.PPM()
	require.NoError(t, err)
	assert.False(t, math.IsNaN(float64(ppm)))
}

func TestCalibrateCorrectedRoundTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dev := mq135.New(&fakePin{raws: []int32{333}}, nil)
	ambient := &fixedEnv{Temperature: physic.ZeroCelsius + 27*physic.Kelvin, Humidity: 48 * physic.PercentRH}

	rz, err := calibrate(context.Background(), dev, ambient, 3, 0, logger)
	require.NoError(t, err)
	dev.SetRZero(rz)
	ppm, err := dev.CorrectedPPM(27, 48)
	require.NoError(t, err)
	assert.InDelta(t, mq135.DefaultAtmosphericCO2, float64(ppm), 1e-6)
}

func TestCalibrateErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dev := mq135.New(&fakePin{raws: []int32{0}}, nil)
	_, err := calibrate(context.Background(), dev, nil, 3, 0, logger)
	assert.Error(t, err)

	errADC := errors.New("adc gone")
	dev = mq135.New(&fakePin{err: errADC}, nil)
	_, err = calibrate(context.Background(), dev, nil, 3, 0, logger)
	assert.ErrorIs(t, err, errADC)

	_, err = calibrate(context.Background(), dev, &failingEnv{err: errADC}, 3, 0, logger)
	assert.ErrorIs(t, err, errADC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dev = mq135.New(&fakePin{raws: []int32{200}}, nil)
	_, err = calibrate(ctx, dev, nil, 3, time.Hour, logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitFirstSample(t *testing.T) {
	dev := mq135.New(&fakePin{raws: []int32{200}}, nil)
	assert.NoError(t, waitFirstSample(context.Background(), dev, time.Second))

	dev = mq135.New(&fakePin{err: firmata.ErrNoSample}, nil)
	err := waitFirstSample(context.Background(), dev, 30*time.Millisecond)
	assert.ErrorIs(t, err, firmata.ErrNoSample)
}
