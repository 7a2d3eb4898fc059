// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mq135

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM float64

func (ppm PPM) String() string {
	return fmt.Sprintf("%.2f PPM", float64(ppm))
}

const (
	// DefaultLoadResistance is the load resistor fitted on most breakout
	// boards, in kOhm.
	DefaultLoadResistance = 10.0
	// DefaultRZero is the sensor resistance in fresh air used until the
	// sensor is calibrated, in kOhm.
	DefaultRZero = 76.63
	// DefaultAtmosphericCO2 is the atmospheric CO2 level assumed during
	// calibration. To obtain the current value, visit:
	//
	// https://www.co2.earth/daily-co2
	DefaultAtmosphericCO2 = 397.13
	// DefaultFullScale is the largest count of a 10 bit converter.
	DefaultFullScale = 1023

	// Power law fitted to the CO2 sensitivity curve:
	//  ppm = paraA * (Rs/R0) ^ -paraB
	paraA = 116.6020682
	paraB = 2.769034857

	// Temperature and humidity dependency. Below 20°C:
	//  f = corA*t*t - corB*t + corC - (h-33)*corD
	// 20°C and above:
	//  f = corE*t + corF*h + corG
	// Both fits assume a linear dependency on humidity. They don't meet at
	// 20°C.
	corA = 0.00035
	corB = 0.02718
	corC = 1.39538
	corD = 0.0018
	corE = -0.003333333
	corF = -0.001923077
	corG = 1.130128205

	// correctionBoundary is the temperature in °C selecting the fit.
	correctionBoundary = 20.0
	// humidityReference is the relative humidity in % the low fit is
	// linearized around.
	humidityReference = 33.0
)

// Opts holds the optional calibration values. Zero fields use the defaults.
type Opts struct {
	// Load resistance of the divider in kOhm.
	LoadResistance float64
	// Atmospheric CO2 concentration in ppm used by MeasureRZero.
	AtmosphericCO2 float64
	// Largest count returned by the converter.
	FullScale int32
}

// Env is a sensor reading.
type Env struct {
	// Raw converter count.
	Raw int32
	// Sensor resistance in kOhm, corrected when read with SenseCorrected.
	Resistance float64
	// Estimated CO2 concentration.
	CO2 PPM
}

// String returns the reading in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Raw: %d Resistance: %.3fkΩ CO2: %s", e.Raw, e.Resistance, e.CO2)
}

// Dev is an MQ135 sensor connected to an analog input.
//
// Dev holds no lock. Callers sharing a Dev between goroutines must serialize
// access.
type Dev struct {
	p analog.PinADC

	rLoad     float64
	rZero     float64
	atmoCO2   float64
	fullScale int32
}

// New returns a Dev reading the sensor through p. opts may be nil.
//
// RZero starts at DefaultRZero. Apply a stored calibration with SetRZero.
func New(p analog.PinADC, opts *Opts) *Dev {
	d := &Dev{p: p, rZero: DefaultRZero}
	if opts == nil {
		opts = &Opts{}
	}
	d.SetLoadResistance(opts.LoadResistance)
	d.SetAtmosphericCO2(opts.AtmosphericCO2)
	d.SetFullScale(opts.FullScale)
	return d
}

// LoadResistance returns the load resistance in kOhm.
func (d *Dev) LoadResistance() float64 {
	if d.rLoad == 0 {
		return DefaultLoadResistance
	}
	return d.rLoad
}

// SetLoadResistance sets the load resistance in kOhm. Zero restores
// DefaultLoadResistance.
func (d *Dev) SetLoadResistance(r float64) {
	if r == 0 {
		r = DefaultLoadResistance
	}
	d.rLoad = r
}

// RZero returns the reference resistance in kOhm.
func (d *Dev) RZero() float64 {
	if d.rZero == 0 {
		return DefaultRZero
	}
	return d.rZero
}

// SetRZero sets the reference resistance, usually a value previously returned
// by MeasureRZero. Zero restores DefaultRZero.
func (d *Dev) SetRZero(r float64) {
	if r == 0 {
		r = DefaultRZero
	}
	d.rZero = r
}

// AtmosphericCO2 returns the atmospheric CO2 concentration in ppm used for
// calibration.
func (d *Dev) AtmosphericCO2() float64 {
	if d.atmoCO2 == 0 {
		return DefaultAtmosphericCO2
	}
	return d.atmoCO2
}

// SetAtmosphericCO2 sets the atmospheric CO2 concentration in ppm. Zero
// restores DefaultAtmosphericCO2.
func (d *Dev) SetAtmosphericCO2(ppm float64) {
	if ppm == 0 {
		ppm = DefaultAtmosphericCO2
	}
	d.atmoCO2 = ppm
}

// FullScale returns the largest converter count.
func (d *Dev) FullScale() int32 {
	if d.fullScale == 0 {
		return DefaultFullScale
	}
	return d.fullScale
}

// SetFullScale sets the largest converter count. Zero restores
// DefaultFullScale.
func (d *Dev) SetFullScale(counts int32) {
	if counts == 0 {
		counts = DefaultFullScale
	}
	d.fullScale = counts
}

// CorrectionFactor returns the factor the sensor resistance is divided by to
// compensate for temperature t in °C and relative humidity h in %.
func CorrectionFactor(t, h float64) float64 {
	if t < correctionBoundary {
		return corA*t*t - corB*t + corC - (h-humidityReference)*corD
	}
	return corE*t + corF*h + corG
}

// ResistanceFromRaw converts a converter count into the sensor resistance.
// The unit is the one of rLoad. A zero count yields +Inf.
func ResistanceFromRaw(raw, fullScale int32, rLoad float64) float64 {
	return (float64(fullScale)/float64(raw) - 1) * rLoad
}

// PPMFromResistance applies the CO2 sensitivity curve to the sensor
// resistance r relative to rZero.
func PPMFromResistance(r, rZero float64) PPM {
	return PPM(paraA * math.Pow(r/rZero, -paraB))
}

// RZeroFromResistance returns the reference resistance at which r reads as
// atmoCO2 ppm.
func RZeroFromResistance(r, atmoCO2 float64) float64 {
	return r * math.Pow(atmoCO2/paraA, 1/paraB)
}

// CorrectionFactor returns the temperature and humidity correction factor.
// See the package level CorrectionFactor.
func (d *Dev) CorrectionFactor(t, h float64) float64 {
	return CorrectionFactor(t, h)
}

// Resistance reads the converter and returns the sensor resistance in kOhm.
func (d *Dev) Resistance() (float64, error) {
	raw, err := d.readRaw()
	if err != nil {
		return 0, err
	}
	return ResistanceFromRaw(raw, d.FullScale(), d.LoadResistance()), nil
}

// CorrectedResistance returns the sensor resistance in kOhm compensated for
// temperature t in °C and relative humidity h in %.
//
// Extreme conditions can bring the factor to zero or below. The result is
// then infinite or negative and isn't clamped.
func (d *Dev) CorrectedResistance(t, h float64) (float64, error) {
	r, err := d.Resistance()
	if err != nil {
		return 0, err
	}
	return r / CorrectionFactor(t, h), nil
}

// PPM returns the CO2 concentration.
func (d *Dev) PPM() (PPM, error) {
	r, err := d.Resistance()
	if err != nil {
		return 0, err
	}
	return PPMFromResistance(r, d.RZero()), nil
}

// CorrectedPPM returns the CO2 concentration compensated for temperature t in
// °C and relative humidity h in %.
func (d *Dev) CorrectedPPM(t, h float64) (PPM, error) {
	r, err := d.CorrectedResistance(t, h)
	if err != nil {
		return 0, err
	}
	return PPMFromResistance(r, d.RZero()), nil
}

// MeasureRZero returns the reference resistance that makes the current
// reading equal to AtmosphericCO2. It does not change RZero.
func (d *Dev) MeasureRZero() (float64, error) {
	r, err := d.Resistance()
	if err != nil {
		return 0, err
	}
	return RZeroFromResistance(r, d.AtmosphericCO2()), nil
}

// MeasureCorrectedRZero is MeasureRZero starting from the resistance
// compensated for temperature t in °C and relative humidity h in %.
func (d *Dev) MeasureCorrectedRZero(t, h float64) (float64, error) {
	r, err := d.CorrectedResistance(t, h)
	if err != nil {
		return 0, err
	}
	return RZeroFromResistance(r, d.AtmosphericCO2()), nil
}

// Sense reads the sensor once and fills env with the uncorrected values.
func (d *Dev) Sense(env *Env) error {
	raw, err := d.readRaw()
	if err != nil {
		return err
	}
	r := ResistanceFromRaw(raw, d.FullScale(), d.LoadResistance())
	env.Raw = raw
	env.Resistance = r
	env.CO2 = PPMFromResistance(r, d.RZero())
	return nil
}

// SenseCorrected reads the sensor once and fills env with values compensated
// for the temperature and humidity of ambient, as returned by any
// physic.SenseEnv.
func (d *Dev) SenseCorrected(ambient *physic.Env, env *Env) error {
	raw, err := d.readRaw()
	if err != nil {
		return err
	}
	t, h := ambientConditions(ambient)
	r := ResistanceFromRaw(raw, d.FullScale(), d.LoadResistance()) / CorrectionFactor(t, h)
	env.Raw = raw
	env.Resistance = r
	env.CO2 = PPMFromResistance(r, d.RZero())
	return nil
}

// Halt implements conn.Resource. It halts the analog pin.
func (d *Dev) Halt() error {
	return d.p.Halt()
}

func (d *Dev) String() string {
	return fmt.Sprintf("mq135{%s}", d.p)
}

func (d *Dev) readRaw() (int32, error) {
	s, err := d.p.Read()
	if err != nil {
		return 0, fmt.Errorf("mq135: %w", err)
	}
	return s.Raw, nil
}

// ambientConditions returns the temperature in °C and relative humidity in %.
func ambientConditions(e *physic.Env) (float64, float64) {
	return e.Temperature.Celsius(), float64(e.Humidity) / float64(physic.PercentRH)
}

var _ conn.Resource = &Dev{}
