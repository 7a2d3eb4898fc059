// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package co2bar

import (
	"bytes"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
)

func TestLit(t *testing.T) {
	b := New(&Opts{W: &bytes.Buffer{}, Width: 10})
	tests := []struct {
		ppm float64
		lit int
	}{
		{ppm: 0, lit: 0},
		{ppm: 400, lit: 0},
		{ppm: 401, lit: 1},
		{ppm: 1200, lit: 5},
		{ppm: 2000, lit: 10},
		{ppm: 5000, lit: 10},
		{ppm: math.Inf(1), lit: 0},
		{ppm: math.Inf(-1), lit: 0},
		{ppm: math.NaN(), lit: 0},
	}
	for _, test := range tests {
		if got := b.Lit(test.ppm); got != test.lit {
			t.Errorf("Lit(%g)=%d expected %d", test.ppm, got, test.lit)
		}
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		ppm  float64
		want color.NRGBA
	}{
		{ppm: 420, want: green},
		{ppm: 999.9, want: green},
		{ppm: 1000, want: yellow},
		{ppm: 1500, want: red},
	}
	for _, test := range tests {
		if got := Band(test.ppm); got != test.want {
			t.Errorf("Band(%g)=%v expected %v", test.ppm, got, test.want)
		}
	}
}

func TestRender(t *testing.T) {
	out := &bytes.Buffer{}
	b := New(&Opts{W: out, Width: 4, Min: 400, Max: 800})
	if err := b.Render(600); err != nil {
		t.Fatal(err)
	}
	p := ansi256.Default
	expected := "\r\033[0m" + strings.Repeat(p.Block(green), 2) + strings.Repeat(p.Block(off), 2) + "\033[0m    600.0 ppm"
	if got := out.String(); got != expected {
		t.Errorf("Render(600)=%q expected %q", got, expected)
	}

	out.Reset()
	if err := b.Render(math.NaN()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "NaN ppm") || strings.Contains(out.String(), p.Block(green)) {
		t.Errorf("Render(NaN)=%q", out.String())
	}

	// A full scale count converts to +Inf.
	out.Reset()
	if err := b.Render(math.Inf(1)); err != nil {
		t.Fatal(err)
	}
	expected = "\r\033[0m" + strings.Repeat(p.Block(off), 4) + "\033[0m     +Inf ppm"
	if got := out.String(); got != expected {
		t.Errorf("Render(+Inf)=%q expected %q", got, expected)
	}

	out.Reset()
	if err := b.Halt(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", out.String())
	}
}

func TestDefaults(t *testing.T) {
	b := New(nil)
	if b.width != 40 || b.min != 400 || b.max != 2000 || b.w == nil {
		t.Errorf("unexpected defaults %#v", b)
	}
	if b.String() != "co2bar" {
		t.Errorf("String()=%q", b.String())
	}
}
