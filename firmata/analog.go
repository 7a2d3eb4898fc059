// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// AnalogPin is an analog input of the board. Read returns the last value the
// board reported; the board reports every sampling interval.
type AnalogPin struct {
	c       ClientI
	pin     uint8
	vRef    physic.ElectricPotential
	full    int32
	ch      chan uint16
	release func()
	done    chan struct{}

	mu     sync.Mutex
	last   int32
	seen   bool
	halted bool
}

func newAnalogPin(c ClientI, num uint8, vRef physic.ElectricPotential, full int32) (*AnalogPin, error) {
	if num > 0xF {
		return nil, fmt.Errorf("%w: A%d", ErrInvalidAnalogPin, num)
	}
	p := &AnalogPin{
		c:    c,
		pin:  num,
		vRef: vRef,
		full: full,
		ch:   make(chan uint16, 1),
		done: make(chan struct{}),
	}

	if d, err := c.AnalogPinToDigitalPin(num); err == nil {
		if err := c.SetPinMode(d, PinFuncAnalogInput); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, ErrInvalidAnalogPin) {
		return nil, err
	}

	var err error
	if p.release, err = c.SetAnalogIOMessageListener(num, p.ch); err != nil {
		return nil, err
	}
	go p.run()

	if err = c.SetAnalogPinReporting(num, true); err != nil {
		_ = p.Halt()
		return nil, err
	}
	return p, nil
}

func (p *AnalogPin) run() {
	for {
		select {
		case <-p.done:
			return
		case v := <-p.ch:
			p.mu.Lock()
			p.last = int32(v)
			p.seen = true
			p.mu.Unlock()
		}
	}
}

// Range implements analog.PinADC.
func (p *AnalogPin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: p.vRef, Raw: p.full}
}

// Read implements analog.PinADC. It returns ErrNoSample until the board
// reported the pin once.
func (p *AnalogPin) Read() (analog.Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return analog.Sample{}, ErrDeviceDisconnected
	}
	if !p.seen {
		return analog.Sample{}, ErrNoSample
	}
	return analog.Sample{V: p.toVoltage(p.last), Raw: p.last}, nil
}

func (p *AnalogPin) toVoltage(raw int32) physic.ElectricPotential {
	return physic.ElectricPotential(int64(raw) * int64(p.vRef) / int64(p.full))
}

// Halt implements conn.Resource. It stops the reports of the pin.
func (p *AnalogPin) Halt() error {
	p.mu.Lock()
	if p.halted {
		p.mu.Unlock()
		return nil
	}
	p.halted = true
	p.mu.Unlock()

	close(p.done)
	p.release()
	return p.c.SetAnalogPinReporting(p.pin, false)
}

// Name implements pin.Pin.
func (p *AnalogPin) Name() string {
	return fmt.Sprintf("A%d", p.pin)
}

func (p *AnalogPin) String() string {
	return p.Name()
}

// Number implements pin.Pin. It is the analog channel number.
func (p *AnalogPin) Number() int {
	return int(p.pin)
}

// Function implements pin.Pin.
func (p *AnalogPin) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *AnalogPin) Func() pin.Func {
	return PinFuncAnalogInput
}

var _ analog.PinADC = &AnalogPin{}
