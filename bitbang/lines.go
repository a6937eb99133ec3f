// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/cpu"
)

// Line identifies one of the three wires driven by the master.
type Line uint8

const (
	// SCL is the open-drain clock line.
	SCL Line = iota
	// SDA is the open-drain data line.
	SDA
	// RST is the push-pull reset line of the slave.
	RST
)

func (l Line) String() string {
	switch l {
	case SCL:
		return "SCL"
	case SDA:
		return "SDA"
	case RST:
		return "RST"
	default:
		return "Line(?)"
	}
}

// Lines is the line and timing abstraction every protocol layer is built on.
//
// Set with gpio.High releases an open-drain line so the pull-up (or the
// slave) decides its level; gpio.Low actively drives it. Read returns the
// actual level on the wire and is only meaningful for SCL and SDA. Delay
// busy-waits for the given number of clock units; the length of a unit is
// calibrated so a bit takes ClocksPerBit units.
type Lines interface {
	Set(l Line, level gpio.Level)
	Read(l Line) gpio.Level
	Delay(clocks int)
}

// ClocksPerBit is the number of Delay units a data bit lasts on the wire.
const ClocksPerBit = 4

// DefaultSpeed is the target bit rate of the software clock.
const DefaultSpeed = 200 * physic.KiloHertz

// ClockUnit returns the duration of one Delay unit for bit rate f.
func ClockUnit(f physic.Frequency) time.Duration {
	if f <= 0 {
		f = DefaultSpeed
	}
	return f.Period() / ClocksPerBit
}

// Delayer blocks the calling goroutine for approximately d.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to a Delayer.
type DelayFunc func(d time.Duration)

// Delay implements Delayer.
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// Nanospin busy-loops instead of yielding to the scheduler. Sub-microsecond
// sleeps are not achievable with time.Sleep.
var Nanospin Delayer = DelayFunc(cpu.Nanospin)
