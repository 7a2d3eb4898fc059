// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/airsense/co2bar"
	"github.com/GermanBionicSystems/airsense/firmata"
	"github.com/GermanBionicSystems/airsense/mq135"
)

// metrics exposed to Prometheus
type metrics struct {
	raw        *prometheus.GaugeVec
	resistance *prometheus.GaugeVec
	co2        *prometheus.GaugeVec

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec

	errors *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"pin"},
	)
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		raw:        newGauge("mq135_raw", "Raw converter count"),
		resistance: newGauge("mq135_resistance_kohm", "Sensor resistance (units: kOhm)"),
		co2:        newGauge("mq135_co2_ppm", "Estimated CO2 concentration (units: ppm)"),

		temperature: newGauge("mq135_ambient_temperature_celsius", "Temperature used for the correction (units: °C)"),
		humidity:    newGauge("mq135_ambient_humidity_percent", "Relative humidity used for the correction (units: %)"),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq135_read_errors_total",
				Help: "Failed sensor reads",
			},
			[]string{"pin"},
		),
	}
	reg.MustRegister(m.raw, m.resistance, m.co2, m.temperature, m.humidity, m.errors)
	return m
}

// envSensor provides the ambient conditions used for the correction. It is
// satisfied by physic.SenseEnv devices and by fixedEnv.
type envSensor interface {
	Sense(e *physic.Env) error
}

// fixedEnv reports constant conditions.
type fixedEnv physic.Env

func (f *fixedEnv) Sense(e *physic.Env) error {
	*e = physic.Env(*f)
	return nil
}

// monitor periodically reads the sensor, logs the reading and exports it.
type monitor struct {
	dev     *mq135.Dev
	pin     string
	ambient envSensor
	bar     *co2bar.Bar
	metrics *metrics
	log     logrus.FieldLogger
}

// sample takes one reading, corrected when ambient conditions are known.
func (m *monitor) sample() (mq135.Env, error) {
	env := mq135.Env{}
	var err error
	if m.ambient != nil {
		a := physic.Env{}
		if err = m.ambient.Sense(&a); err == nil {
			m.metrics.temperature.WithLabelValues(m.pin).Set(a.Temperature.Celsius())
			m.metrics.humidity.WithLabelValues(m.pin).Set(float64(a.Humidity) / float64(physic.PercentRH))
			err = m.dev.SenseCorrected(&a, &env)
		} else {
			err = errors.Wrap(err, "failed to read ambient conditions")
		}
	} else {
		err = m.dev.Sense(&env)
	}
	if err != nil {
		m.metrics.errors.WithLabelValues(m.pin).Inc()
		return env, err
	}
	m.metrics.raw.WithLabelValues(m.pin).Set(float64(env.Raw))
	m.metrics.resistance.WithLabelValues(m.pin).Set(env.Resistance)
	m.metrics.co2.WithLabelValues(m.pin).Set(float64(env.CO2))
	return env, nil
}

func (m *monitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		env, err := m.sample()
		if err != nil {
			m.log.WithError(err).Warn("failed to read sensor")
		} else {
			m.log.WithFields(logrus.Fields{
				"raw":        env.Raw,
				"resistance": env.Resistance,
				"co2":        float64(env.CO2),
			}).Debug("reading")
			if m.bar != nil {
				if err := m.bar.Render(float64(env.CO2)); err != nil {
					m.log.WithError(err).Warn("failed to render bar")
				}
			} else {
				m.log.Info(env.String())
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// calibrate averages samples RZero measurements taken interval apart. Non
// finite measurements, from a zero or full scale count, are skipped.
func calibrate(ctx context.Context, dev *mq135.Dev, ambient envSensor, samples int, interval time.Duration, log logrus.FieldLogger) (float64, error) {
	var sum float64
	var n int
	for i := 0; i < samples; i++ {
		if i != 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(interval):
			}
		}
		var rz float64
		var err error
		if ambient != nil {
			a := physic.Env{}
			if err = ambient.Sense(&a); err != nil {
				return 0, errors.Wrap(err, "failed to read ambient conditions")
			}
			rz, err = dev.MeasureCorrectedRZero(a.Temperature.Celsius(), float64(a.Humidity)/float64(physic.PercentRH))
		} else {
			rz, err = dev.MeasureRZero()
		}
		if err != nil {
			return 0, errors.Wrap(err, "failed to measure rzero")
		}
		if math.IsNaN(rz) || math.IsInf(rz, 0) || rz <= 0 {
			log.WithField("rzero", rz).Warn("discarding rzero measurement")
			continue
		}
		log.WithFields(logrus.Fields{"sample": i + 1, "rzero": rz}).Info("measured rzero")
		sum += rz
		n++
	}
	if n == 0 {
		return 0, errors.New("no usable rzero measurement")
	}
	return sum / float64(n), nil
}

// waitFirstSample waits until the board reported the pin once.
func waitFirstSample(ctx context.Context, dev *mq135.Dev, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		_, err := dev.Resistance()
		if !errors.Is(err, firmata.ErrNoSample) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(err, "waiting for the first analog report")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
