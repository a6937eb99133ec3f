// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pins implements Lines on top of periph GPIO pins.
//
// SCL and SDA are emulated as open-drain: a high level is produced by
// switching the pin to input with pull-up, a low level by driving it low.
// RST is a plain push-pull output.
//
// A failure to change a pin is sticky: the first error is kept and returned
// by Err, and subsequent Set calls are ignored, so a broken pin does not
// produce a half-driven bus.
type Pins struct {
	scl gpio.PinIO
	sda gpio.PinIO
	rst gpio.PinOut

	delay Delayer

	mu   sync.Mutex // guards unit and err
	unit time.Duration
	err  error
}

// NewPins configures scl, sda and rst and returns them as Lines.
//
// All three lines are left high: the bus idles and the slave is out of
// reset. rst may be nil when the reset line is not wired, in which case
// Set(RST, ...) is a no-op. d may be nil to use Nanospin.
func NewPins(scl, sda gpio.PinIO, rst gpio.PinOut, f physic.Frequency, d Delayer) (*Pins, error) {
	if scl == nil || sda == nil {
		return nil, errors.New("bitbang: SCL and SDA pins are required")
	}
	if d == nil {
		d = Nanospin
	}
	p := &Pins{scl: scl, sda: sda, rst: rst, delay: d, unit: ClockUnit(f)}
	if rst != nil {
		if err := rst.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("bitbang: failed to configure %s: %w", rst, err)
		}
	}
	for _, l := range []gpio.PinIO{scl, sda} {
		if err := l.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("bitbang: failed to configure %s: %w", l, err)
		}
	}
	return p, nil
}

func (p *Pins) String() string {
	if p.rst == nil {
		return fmt.Sprintf("bitbang(%s, %s)", p.scl, p.sda)
	}
	return fmt.Sprintf("bitbang(%s, %s, %s)", p.scl, p.sda, p.rst)
}

// Set implements Lines.
func (p *Pins) Set(l Line, level gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	var err error
	switch l {
	case SCL:
		err = openDrain(p.scl, level)
	case SDA:
		err = openDrain(p.sda, level)
	case RST:
		if p.rst != nil {
			err = p.rst.Out(level)
		}
	}
	if err != nil {
		p.err = fmt.Errorf("bitbang: failed to set %s %s: %w", l, level, err)
	}
}

// Read implements Lines.
func (p *Pins) Read(l Line) gpio.Level {
	switch l {
	case SCL:
		return p.scl.Read()
	case SDA:
		return p.sda.Read()
	}
	return gpio.Low
}

// Delay implements Lines.
func (p *Pins) Delay(clocks int) {
	p.mu.Lock()
	u := p.unit
	p.mu.Unlock()
	p.delay.Delay(time.Duration(clocks) * u)
}

// SetSpeed changes the bit rate the delay unit is calibrated for.
func (p *Pins) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("bitbang: invalid speed %s", f)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unit = ClockUnit(f)
	return nil
}

// Err returns the first error encountered while driving a pin.
func (p *Pins) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// ClearErr forgets a previously recorded pin error.
func (p *Pins) ClearErr() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = nil
}

// Halt implements conn.Resource. It halts all the pins.
func (p *Pins) Halt() error {
	err := multierr.Combine(p.scl.Halt(), p.sda.Halt())
	if p.rst != nil {
		err = multierr.Append(err, p.rst.Halt())
	}
	return err
}

func openDrain(pin gpio.PinIO, level gpio.Level) error {
	if level == gpio.High {
		return pin.In(gpio.PullUp, gpio.NoEdge)
	}
	return pin.Out(gpio.Low)
}

var _ Lines = &Pins{}
