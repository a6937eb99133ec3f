// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

// Opts represents the options available for the terminal output.
type Opts struct {
	// X is the number of clock units per row of output. 0 means 100.
	X int
	// Palette used to draw blocks. nil means ansi256.Default.
	Palette *ansi256.Palette
	// W is where the diagram is written. nil means stdout.
	W io.Writer

	_ struct{}
}

var (
	colorHigh = color.NRGBA{0x00, 0xd0, 0x00, 0xff}
	colorLow  = color.NRGBA{0x10, 0x30, 0x10, 0xff}
)

// Terminal prints timing diagrams on a console using ANSI color codes, one
// block per clock unit.
type Terminal struct {
	w       io.Writer
	x       int
	palette ansi256.Palette

	buf bytes.Buffer
}

// NewTerminal returns a Terminal that writes to opts.W, or to the console.
func NewTerminal(opts *Opts) *Terminal {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	x := opts.X
	if x <= 0 {
		x = 100
	}
	return &Terminal{w: w, x: x, palette: *p}
}

func (t *Terminal) String() string {
	return "Terminal"
}

// Halt implements conn.Resource.
//
// It resets the colors so the console is not left corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m\n"))
	return err
}

// Draw writes the diagram of samples, wrapping every X clock units.
func (t *Terminal) Draw(samples []Sample) error {
	total := Duration(samples)
	for from := 0; from < total; from += t.x {
		to := min(from+t.x, total)
		t.buf.Reset()
		_, _ = fmt.Fprintf(&t.buf, "\033[0m%d\n", from)
		for _, l := range Lines {
			_, _ = fmt.Fprintf(&t.buf, "\033[0m%-4s", l)
			t.row(samples, l, from, to)
			_, _ = t.buf.WriteString("\033[0m\n")
		}
		if _, err := t.buf.WriteTo(t.w); err != nil {
			return err
		}
	}
	return nil
}

// row draws the blocks of line l for clock units [from, to).
func (t *Terminal) row(samples []Sample, l bitbang.Line, from, to int) {
	for i := range samples {
		s := &samples[i]
		start := max(s.Start, from)
		end := min(s.Start+s.Clocks, to)
		if start >= end {
			continue
		}
		c := colorLow
		if s.Level(l) == gpio.High {
			c = colorHigh
		}
		block := t.palette.Block(c)
		for j := start; j < end; j++ {
			_, _ = io.WriteString(&t.buf, block)
		}
	}
}
