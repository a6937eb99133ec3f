// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ResetHold is how long the reset line, and then the released reset, is
// held before the next step.
const ResetHold = 100 * time.Millisecond

// The slave samples SCL and SDA while it is held in reset to decide what to
// run: both low selects the main program, both high the bootloader.

// EnterMainProgram resets the slave into its main program. The slave does
// not start on its own after power up, so this has to be called once before
// any transaction.
//
// hold is called between steps with ResetHold; nil means time.Sleep.
func EnterMainProgram(l Lines, hold func(time.Duration)) {
	if hold == nil {
		hold = time.Sleep
	}
	setReset(l, gpio.Low, gpio.Low)
	hold(ResetHold)
	setReset(l, gpio.High, gpio.Low)
	hold(ResetHold)
	setReset(l, gpio.High, gpio.High)
}

// EnterBootloader resets the slave into its bootloader, used for firmware
// updates.
func EnterBootloader(l Lines, hold func(time.Duration)) {
	if hold == nil {
		hold = time.Sleep
	}
	setReset(l, gpio.Low, gpio.High)
	hold(ResetHold)
	setReset(l, gpio.High, gpio.High)
}

func setReset(l Lines, rst, bus gpio.Level) {
	l.Set(RST, rst)
	l.Set(SCL, bus)
	l.Set(SDA, bus)
}
