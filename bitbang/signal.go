// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
)

// StretchRetries is the number of times SCL is polled, one clock unit
// apart, before a slave holding the clock low is considered stuck.
const StretchRetries = 5000

var (
	// ErrClockStretch is returned when the slave never released SCL.
	ErrClockStretch = errors.New("bitbang: clock stretch timeout")
	// ErrBusBusy is returned when SCL or SDA is low while the bus should be
	// idle at the start condition.
	ErrBusBusy = errors.New("bitbang: bus not idle")
	// ErrNoAck is returned when the slave did not acknowledge a byte.
	ErrNoAck = errors.New("bitbang: no acknowledge")
)

// waitClockHigh releases SCL and waits for it to actually read high.
//
// This is the only place where clock stretching by the slave is honored and
// every step that raises the clock goes through it.
func waitClockHigh(l Lines) error {
	l.Set(SCL, gpio.High)
	for i := 0; i < StretchRetries; i++ {
		if l.Read(SCL) == gpio.High {
			return nil
		}
		l.Delay(1)
	}
	return ErrClockStretch
}

// start issues a start condition, or a repeated start when the clock is
// low.
//
// Ends with SCL high and SDA low.
func start(l Lines) error {
	l.Delay(4)
	l.Set(SDA, gpio.High)
	l.Delay(1)
	if err := waitClockHigh(l); err != nil {
		return err
	}
	l.Delay(2)
	if l.Read(SCL) == gpio.Low || l.Read(SDA) == gpio.Low {
		return ErrBusBusy
	}
	l.Set(SDA, gpio.Low)
	l.Delay(2)
	return nil
}

// stop issues a stop condition. It has no precondition and always ends with
// both lines released.
func stop(l Lines) {
	l.Set(SCL, gpio.Low)
	l.Delay(2)
	l.Set(SDA, gpio.Low)
	l.Delay(2)
	l.Set(SCL, gpio.High)
	l.Delay(2)
	l.Set(SDA, gpio.High)
	// Bus free time before the next start.
	l.Delay(8)
}

// ack acknowledges a byte received from the slave.
func ack(l Lines) {
	pulse(l, gpio.Low)
}

// noAck tells the slave that no more bytes are wanted.
func noAck(l Lines) {
	pulse(l, gpio.High)
}

func pulse(l Lines, sda gpio.Level) {
	l.Set(SCL, gpio.Low)
	l.Delay(2)
	l.Set(SDA, sda)
	l.Delay(2)
	l.Set(SCL, gpio.High)
	l.Delay(2)
	l.Set(SCL, gpio.Low)
	l.Delay(2)
}

// waitAck clocks the ninth bit of a byte sent to the slave and reports
// whether the slave pulled SDA low.
//
// Ends with SCL low.
func waitAck(l Lines) error {
	l.Set(SCL, gpio.Low)
	l.Delay(1)
	l.Set(SDA, gpio.High)
	l.Delay(1)
	if err := waitClockHigh(l); err != nil {
		l.Set(SCL, gpio.Low)
		return err
	}
	l.Delay(2)
	acked := l.Read(SDA) == gpio.Low
	l.Set(SCL, gpio.Low)
	if !acked {
		return ErrNoAck
	}
	return nil
}
