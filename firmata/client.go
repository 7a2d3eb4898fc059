// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

const (
	// DefaultBaudRate is the serial speed of StandardFirmata.
	DefaultBaudRate = 57600
	// DefaultVRef is the analog reference of 5V boards.
	DefaultVRef = 5 * physic.Volt
	// DefaultAnalogMax is the largest count of a 10 bit converter.
	DefaultAnalogMax = 1023

	defaultFirmwareTimeout = 5 * time.Second
)

// ClientI is the part of Client used by AnalogPin.
type ClientI interface {
	SetPinMode(uint8, pin.Func) error
	SetAnalogPinReporting(uint8, bool) error
	AnalogPinToDigitalPin(p uint8) (uint8, error)
	SetAnalogIOMessageListener(p uint8, ch chan uint16) (release func(), err error)
	Close() error
}

// Opts holds the Client options. The zero value is valid.
type Opts struct {
	// Analog reference voltage of the board. Defaults to DefaultVRef.
	VRef physic.ElectricPotential
	// Largest analog count. Zero derives it from the resolution the board
	// reports in a CapabilityQuery, or DefaultAnalogMax without one.
	AnalogMax int32
	// Time Start waits for the firmware report.
	FirmwareTimeout time.Duration
	// Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// Client talks to a board running StandardFirmata over board, usually a
// serial port.
type Client struct {
	board  io.ReadWriteCloser
	opts   Opts
	logger logrus.FieldLogger

	responseChannels map[SysExCmd][]chan []byte

	analogIOMessageChannels map[uint8]chan uint16
	analogPinMU             sync.Mutex

	mu      sync.Mutex
	started bool
	// done is closed when the response watcher exits. err holds the reason.
	done chan struct{}
	err  error

	// Saved for internal use when the board answers the queries.
	cr  CapabilityResponse
	amr AnalogMappingResponse
}

// NewClient returns a Client for board. Call Start before use.
func NewClient(board io.ReadWriteCloser, opts *Opts) *Client {
	c := &Client{
		board:                   board,
		responseChannels:        map[SysExCmd][]chan []byte{},
		analogIOMessageChannels: map[uint8]chan uint16{},
		done:                    make(chan struct{}),
	}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.VRef == 0 {
		c.opts.VRef = DefaultVRef
	}
	if c.opts.FirmwareTimeout == 0 {
		c.opts.FirmwareTimeout = defaultFirmwareTimeout
	}
	c.logger = c.opts.Logger
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

func (c *Client) String() string {
	return "firmata"
}

// Close closes the board connection, which stops the response watcher.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.started = false
	return c.board.Close()
}

type flusher interface {
	Flush()
}

type flusherErr interface {
	Flush() error
}

// Start starts decoding the board messages and waits for the firmware report
// the board sends when it boots.
func (c *Client) Start() (FirmwareReport, error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return FirmwareReport{}, ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if b, ok := c.board.(flusher); ok {
		b.Flush()
	} else if b, ok := c.board.(flusherErr); ok {
		if err := b.Flush(); err != nil {
			return FirmwareReport{}, err
		}
	}

	// The report is sent unprompted, only register a listener for it.
	firmChannel := make(chan []byte, 1)
	c.mu.Lock()
	c.responseChannels[SysExReportFirmware] = append(c.responseChannels[SysExReportFirmware], firmChannel)
	c.mu.Unlock()

	go func() {
		err := c.responseWatcher()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		if err != nil {
			c.logger.WithError(err).Error("firmata: response watcher stopped")
		}
		close(c.done)
	}()

	select {
	case data := <-firmChannel:
		report := parseFirmwareReport(data)
		c.logger.WithField("firmware", report.String()).Info("firmata: board ready")
		return report, nil
	case <-c.done:
		return FirmwareReport{}, c.Err()
	case <-time.After(c.opts.FirmwareTimeout):
		return FirmwareReport{}, ErrNoFirmwareReport
	}
}

// Err returns the reason the response watcher stopped, or nil while it runs.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the board stops being read.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) write(payload []byte, withinMutex func()) error {
	// Cannot allow multiple writes at the same time.
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debugf("firmata: write % X", payload)
	if _, err := c.board.Write(payload); err != nil {
		return err
	}

	if withinMutex != nil {
		withinMutex()
	}
	return nil
}

func (c *Client) responseWatcher() (err error) {
	defer func() {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			err = ErrDeviceDisconnected
		}
	}()

	reader := bufio.NewReader(c.board)
	for {
		b0, err := reader.ReadByte()
		if err != nil {
			return err
		}

		mt := MessageType(b0)
		switch mt.channel() {
		case ProtocolVersion:
			var version [2]byte
			if _, err := io.ReadFull(reader, version[:]); err != nil {
				return err
			}
			c.logger.Debugf("firmata: protocol version %d.%d", version[0], version[1])
		case AnalogIOMessage:
			var v [2]byte
			if _, err := io.ReadFull(reader, v[:]); err != nil {
				return err
			}
			c.dispatchAnalog(b0&0xF, TwoByteToWord(v[0], v[1]))
		case DigitalIOMessage:
			// Digital ports are never enabled for reporting; skip stray ones.
			var v [2]byte
			if _, err := io.ReadFull(reader, v[:]); err != nil {
				return err
			}
		case StartSysEx:
			data, err := reader.ReadBytes(byte(EndSysEx))
			if err != nil {
				return err
			}
			if len(data) < 2 {
				return ErrNoDataRead
			}
			c.dispatchSysEx(SysExCmd(data[0]), data[1:len(data)-1])
		default:
			return fmt.Errorf("%w: 0x%0.2X", ErrInvalidMessageTypeStart, b0)
		}
	}
}

func (c *Client) dispatchAnalog(p uint8, value uint16) {
	c.analogPinMU.Lock()
	ch := c.analogIOMessageChannels[p]
	c.analogPinMU.Unlock()
	if ch == nil {
		return
	}
	// Only the latest value matters, drop it if the listener lags behind.
	select {
	case ch <- value:
	default:
	}
}

func (c *Client) dispatchSysEx(cmd SysExCmd, data []byte) {
	if cmd == SysExStringData {
		c.logger.WithField("board", TwoByteString(data)).Info("firmata: string data")
		return
	}

	c.mu.Lock()
	var resp chan []byte
	if pending := c.responseChannels[cmd]; len(pending) != 0 {
		// Queries of the same type are answered in order.
		resp = pending[0]
		c.responseChannels[cmd] = pending[1:]
	}
	c.mu.Unlock()

	if resp == nil {
		if cmd == SysExReportFirmware {
			// Sent again after a board reset.
			c.logger.WithField("firmware", parseFirmwareReport(data).String()).Info("firmata: board reset")
			return
		}
		c.logger.WithFields(logrus.Fields{"cmd": cmd.String(), "len": len(data)}).Warnf("firmata: ignoring unexpected sysex 0x%0.2X", byte(cmd))
		return
	}
	resp <- data
	close(resp)
}

// SendSysEx sends a SysEx command. For queries, the returned channel receives
// the payload of the answer.
func (c *Client) SendSysEx(cmd SysExCmd, payload ...byte) (chan []byte, error) {
	var data chan []byte

	msg := append([]byte{byte(StartSysEx), byte(cmd)}, payload...)
	msg = append(msg, byte(EndSysEx))
	err := c.write(msg, func() {
		if resp, ok := commandResponseMap[cmd]; ok {
			data = make(chan []byte, 1)
			c.responseChannels[resp] = append(c.responseChannels[resp], data)
		}
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetPinMode sets the mode of digital pin p.
func (c *Client) SetPinMode(p uint8, mode pin.Func) error {
	code, ok := pinModeCode(mode)
	if !ok {
		return fmt.Errorf("%w: pin mode %q", ErrValueOutOfRange, mode)
	}
	return c.write([]byte{byte(SetPinMode), p & SevenBitMask, code}, nil)
}

// SetAnalogPinReporting enables or disables the periodic report of analog
// channel analogPin.
func (c *Client) SetAnalogPinReporting(analogPin uint8, report bool) error {
	if analogPin > 0xF {
		return fmt.Errorf("%w: A%d", ErrInvalidAnalogPin, analogPin)
	}
	v := byte(0)
	if report {
		v = 1
	}
	return c.write([]byte{byte(ReportAnalogPin) | analogPin, v}, nil)
}

// SetSamplingInterval sets how often the board reports analog values.
func (c *Client) SetSamplingInterval(interval time.Duration) error {
	if err := c.checkStarted(); err != nil {
		return err
	}
	ms := interval.Milliseconds()
	if ms < 1 || ms > int64(MaxUInt14) {
		return fmt.Errorf("%w: 1ms - %dms", ErrValueOutOfRange, MaxUInt14)
	}
	lsb, msb := WordToTwoByte(uint16(ms))
	_, err := c.SendSysEx(SysExSamplingInterval, lsb, msb)
	return err
}

// ReportFirmware asks the board for its firmware name and version.
func (c *Client) ReportFirmware() (chan FirmwareReport, error) {
	future, err := c.SendSysEx(SysExReportFirmware)
	if err != nil {
		return nil, err
	}
	resp := make(chan FirmwareReport, 1)
	go func() {
		defer close(resp)
		if data, ok := <-future; ok {
			resp <- parseFirmwareReport(data)
		}
	}()
	return resp, nil
}

// CapabilityQuery asks the board for the modes supported by each pin.
func (c *Client) CapabilityQuery() (chan CapabilityResponse, error) {
	future, err := c.SendSysEx(SysExCapabilityQuery)
	if err != nil {
		return nil, err
	}
	resp := make(chan CapabilityResponse, 1)
	go func() {
		defer close(resp)
		if data, ok := <-future; ok {
			response := parseCapabilityResponse(data)
			c.mu.Lock()
			c.cr = response
			c.mu.Unlock()
			resp <- response
		}
	}()
	return resp, nil
}

// SendAnalogMappingQuery asks the board which digital pins the analog
// channels are on. The answer is kept for AnalogPinToDigitalPin.
func (c *Client) SendAnalogMappingQuery() (chan AnalogMappingResponse, error) {
	future, err := c.SendSysEx(SysExAnalogMappingQuery)
	if err != nil {
		return nil, err
	}
	resp := make(chan AnalogMappingResponse, 1)
	go func() {
		defer close(resp)
		if data, ok := <-future; ok {
			response := parseAnalogMappingResponse(data)
			c.mu.Lock()
			c.amr = response
			c.mu.Unlock()
			resp <- response
		}
	}()
	return resp, nil
}

// AnalogPinToDigitalPin returns the digital pin of analog channel p. It needs
// a prior SendAnalogMappingQuery.
func (c *Client) AnalogPinToDigitalPin(p uint8) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.amr.AnalogPinToDigital[p]
	if !ok {
		return 0, fmt.Errorf("%w: A%d", ErrInvalidAnalogPin, p)
	}
	return d, nil
}

func (c *Client) releaseAnalogIOMessageListener(p uint8) {
	c.analogPinMU.Lock()
	defer c.analogPinMU.Unlock()

	delete(c.analogIOMessageChannels, p)
}

// SetAnalogIOMessageListener sends the values reported for analog channel p
// to ch. Values are dropped while ch is full.
func (c *Client) SetAnalogIOMessageListener(p uint8, ch chan uint16) (release func(), err error) {
	c.analogPinMU.Lock()
	defer c.analogPinMU.Unlock()

	if c.analogIOMessageChannels[p] != nil {
		return nil, ErrPinListenerNotReleased
	}
	c.analogIOMessageChannels[p] = ch

	return func() { c.releaseAnalogIOMessageListener(p) }, nil
}

// AnalogPin enables reporting of analog channel p and returns it as an
// analog.PinADC. The pin mode is set when the analog mapping is known.
func (c *Client) AnalogPin(p uint8) (*AnalogPin, error) {
	if err := c.checkStarted(); err != nil {
		return nil, err
	}
	return newAnalogPin(c, p, c.opts.VRef, c.analogMax(p))
}

// AnalogResolution returns the converter resolution in bits of analog
// channel p, or 0 until both SendAnalogMappingQuery and CapabilityQuery were
// answered.
func (c *Client) AnalogResolution(p uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.amr.AnalogPinToDigital[p]
	if !ok {
		return 0
	}
	return c.cr.AnalogResolution(d)
}

func (c *Client) analogMax(p uint8) int32 {
	if c.opts.AnalogMax != 0 {
		return c.opts.AnalogMax
	}
	if bits := c.AnalogResolution(p); bits > 0 && bits < 31 {
		return 1<<bits - 1
	}
	return DefaultAnalogMax
}

func (c *Client) checkStarted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	return nil
}
