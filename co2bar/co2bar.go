// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package co2bar draws a CO2 concentration as a colored bar on a terminal
// using ANSI color codes.
package co2bar

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Air quality bands, in ppm.
const (
	Moderate = 1000
	Poor     = 1500
)

var (
	green  = color.NRGBA{0x00, 0xc0, 0x00, 0xff}
	yellow = color.NRGBA{0xe0, 0xc0, 0x00, 0xff}
	red    = color.NRGBA{0xe0, 0x00, 0x00, 0xff}
	off    = color.NRGBA{0x30, 0x30, 0x30, 0xff}
)

// Opts represents the options available for the bar.
type Opts struct {
	// Number of cells. Defaults to 40.
	Width int
	// Concentration of the first and past the last cell. Default to 400 and
	// 2000 ppm.
	Min, Max float64
	// Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// Defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Bar renders concentrations on one terminal line, rewritten on each call.
type Bar struct {
	w        io.Writer
	width    int
	min, max float64
	palette  ansi256.Palette

	buf bytes.Buffer
}

// New returns a Bar. opts may be nil.
func New(opts *Opts) *Bar {
	if opts == nil {
		opts = &Opts{}
	}
	b := &Bar{
		w:       opts.W,
		width:   opts.Width,
		min:     opts.Min,
		max:     opts.Max,
		palette: *ansi256.Default,
	}
	if opts.Palette != nil {
		b.palette = *opts.Palette
	}
	if b.w == nil {
		b.w = colorable.NewColorableStdout()
	}
	if b.width <= 0 {
		b.width = 40
	}
	if b.min == 0 {
		b.min = 400
	}
	if b.max <= b.min {
		b.max = 2000
	}
	return b
}

func (b *Bar) String() string {
	return "co2bar"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes and ends the line.
func (b *Bar) Halt() error {
	_, err := b.w.Write([]byte("\n\033[0m"))
	return err
}

// Lit returns the number of cells lit for ppm. NaN and infinities light none.
func (b *Bar) Lit(ppm float64) int {
	if math.IsNaN(ppm) || math.IsInf(ppm, 0) || ppm <= b.min {
		return 0
	}
	if ppm >= b.max {
		return b.width
	}
	return int(math.Ceil((ppm - b.min) / (b.max - b.min) * float64(b.width)))
}

// Band returns the color of ppm.
func Band(ppm float64) color.NRGBA {
	switch {
	case ppm < Moderate:
		return green
	case ppm < Poor:
		return yellow
	default:
		return red
	}
}

// Render rewrites the current line with the bar and value of ppm.
func (b *Bar) Render(ppm float64) error {
	// This code is designed to minimize the amount of memory allocated per call.
	b.buf.Reset()
	_, _ = b.buf.WriteString("\r\033[0m")
	lit := b.Lit(ppm)
	c := Band(ppm)
	for i := 0; i < b.width; i++ {
		if i < lit {
			_, _ = io.WriteString(&b.buf, b.palette.Block(c))
		} else {
			_, _ = io.WriteString(&b.buf, b.palette.Block(off))
		}
	}
	_, _ = fmt.Fprintf(&b.buf, "\033[0m %8.1f ppm", ppm)
	_, err := b.buf.WriteTo(b.w)
	return err
}
