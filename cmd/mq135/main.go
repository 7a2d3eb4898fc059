// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mq135 reads an MQ135 gas sensor wired to an analog input of a board
// running StandardFirmata, and exports the CO2 estimate to Prometheus.
//
// Calibrate once in fresh air with -calibrate. The measured RZero is written
// back to the configuration file and used on the next runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/airsense/co2bar"
	"github.com/GermanBionicSystems/airsense/firmata"
	"github.com/GermanBionicSystems/airsense/mq135"
)

// CLI args
var (
	configPath = flag.String("config", "mq135.yaml", "configuration file")
	port       = flag.String("port", "", "serial port of the Firmata board, overrides the configuration")
	listenAddr = flag.String("listen-address", "", "address serving /metrics, overrides the configuration")
	doCalib    = flag.Bool("calibrate", false, "measure RZero in fresh air and save it to the configuration")
	showBar    = flag.Bool("bar", false, "draw the concentration as a bar on the terminal")
	verbose    = flag.Bool("v", false, "log every reading")
	listPorts  = flag.Bool("list-ports", false, "print the serial ports and exit")
)

func init() {
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *listPorts {
		ports, err := serial.GetPortsList()
		if err != nil {
			log.Fatal(errors.Wrap(err, "failed to list serial ports"))
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := Load(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *listenAddr != "" {
		cfg.Metrics.Listen = *listenAddr
	}

	// The host drivers are only needed by the bme280 ambient source.
	if _, err := host.Init(); err != nil {
		log.WithError(err).Warn("host init failed")
	}
	ambient, closeAmbient, err := openAmbient(cfg)
	if err != nil {
		return err
	}
	defer closeAmbient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, client, err := openSensor(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	defer dev.Halt()

	if err := waitFirstSample(ctx, dev, 5*time.Second); err != nil {
		return err
	}

	if *doCalib {
		return runCalibration(ctx, cfg, dev, ambient)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewBuildInfoCollector())
	m := &monitor{
		dev:     dev,
		pin:     dev.String(),
		ambient: ambient,
		metrics: newMetrics(reg),
		log:     log.StandardLogger(),
	}
	if *showBar {
		m.bar = co2bar.New(nil)
		defer m.bar.Halt()
	}

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.WithField("address", cfg.Metrics.Listen).Info("serving metrics")
		log.Panic(http.ListenAndServe(cfg.Metrics.Listen, nil))
	}()

	go func() {
		// Stop when the board goes away.
		select {
		case <-client.Done():
			log.WithError(client.Err()).Error("board disconnected")
			stop()
		case <-ctx.Done():
		}
	}()

	log.WithFields(log.Fields{
		"sensor":     dev.String(),
		"rzero":      dev.RZero(),
		"rload":      dev.LoadResistance(),
		"ambient":    ambientName(cfg),
		"interval":   cfg.Sampling.Interval,
		"atmosphere": dev.AtmosphericCO2(),
	}).Info("monitoring")
	m.run(ctx, cfg.Sampling.Interval)
	return boardErr(client)
}

// board is the part of firmata.Client telling whether the link is alive.
type board interface {
	Done() <-chan struct{}
	Err() error
}

var _ board = &firmata.Client{}

// boardErr returns why the board stopped being read, or nil while it still
// is.
func boardErr(b board) error {
	select {
	case <-b.Done():
		if err := b.Err(); err != nil {
			return errors.Wrap(err, "board disconnected")
		}
		return errors.Wrap(firmata.ErrDeviceDisconnected, "board disconnected")
	default:
		return nil
	}
}

// openSensor connects to the board and returns the sensor on the configured
// analog channel.
func openSensor(cfg *Config) (*mq135.Dev, *firmata.Client, error) {
	p, err := serial.Open(cfg.Serial.Port, &serial.Mode{BaudRate: cfg.Serial.BaudRate})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Serial.Port)
	}
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return nil, nil, errors.Wrap(err, "failed to reset serial input")
	}

	client := firmata.NewClient(p, &firmata.Opts{
		AnalogMax: cfg.Sensor.FullScale,
		Logger:    log.StandardLogger(),
	})
	if _, err := client.Start(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "failed to start firmata")
	}
	if err := client.SetSamplingInterval(cfg.Sampling.ReportInterval); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "failed to set sampling interval")
	}

	// The mapping lets the pin be switched to analog mode. Older sketches
	// don't answer; reporting alone works on them.
	if resp, err := client.SendAnalogMappingQuery(); err == nil {
		select {
		case amr := <-resp:
			log.Debugf("analog mapping:\n%s", amr)
		case <-time.After(time.Second):
			log.Warn("no analog mapping received")
		}
	}
	if cfg.Sensor.FullScale == 0 {
		// The pin range follows the resolution the board reports.
		if resp, err := client.CapabilityQuery(); err == nil {
			select {
			case cr := <-resp:
				log.Debugf("capabilities:\n%s", cr)
			case <-time.After(time.Second):
				log.Warn("no capability response received")
			}
		}
	}

	pin, err := client.AnalogPin(cfg.Sensor.Pin)
	if err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrapf(err, "failed to open analog pin A%d", cfg.Sensor.Pin)
	}

	dev := mq135.New(pin, cfg.sensorOpts(pin))
	dev.SetRZero(cfg.Sensor.RZero)
	return dev, client, nil
}

// runCalibration measures RZero, applies it and saves it to the
// configuration file.
func runCalibration(ctx context.Context, cfg *Config, dev *mq135.Dev, ambient envSensor) error {
	log.WithFields(log.Fields{
		"samples":    cfg.Calibration.Samples,
		"atmosphere": dev.AtmosphericCO2(),
	}).Info("calibrating, keep the sensor in fresh air")
	rz, err := calibrate(ctx, dev, ambient, cfg.Calibration.Samples, cfg.Calibration.Interval, log.StandardLogger())
	if err != nil {
		return err
	}
	dev.SetRZero(rz)
	cfg.Sensor.RZero = rz
	if err := cfg.Save(*configPath); err != nil {
		return err
	}
	ppm, err := dev.PPM()
	if err != nil {
		return errors.Wrap(err, "failed to verify calibration")
	}
	log.WithFields(log.Fields{"rzero": rz, "co2": ppm.String(), "config": *configPath}).Info("calibration saved")
	return nil
}

func ambientName(cfg *Config) string {
	if !cfg.Ambient.Enabled {
		return "none"
	}
	return cfg.Ambient.Source
}
