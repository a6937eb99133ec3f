// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import "periph.io/x/conn/v3/gpio"

// sendByte shifts b out MSB first. The acknowledge bit is not clocked, see
// waitAck.
//
// Ends with SCL low. On a clock stretch timeout the remaining bits are not
// sent.
func sendByte(l Lines, b byte) error {
	for i := 0; i < 8; i++ {
		l.Set(SCL, gpio.Low)
		l.Delay(1)
		l.Set(SDA, b&0x80 != 0)
		b <<= 1
		l.Delay(1)
		if err := waitClockHigh(l); err != nil {
			return err
		}
		l.Delay(2)
	}
	l.Set(SCL, gpio.Low)
	return nil
}

// readByte shifts a byte in MSB first. The acknowledge bit is not clocked,
// see ack and noAck.
//
// Ends with SCL low. A clock stretch timeout is returned as an error rather
// than as a zero byte.
func readByte(l Lines) (byte, error) {
	var b byte
	l.Set(SDA, gpio.High)
	for i := 0; i < 8; i++ {
		b <<= 1
		l.Set(SCL, gpio.Low)
		l.Delay(2)
		if err := waitClockHigh(l); err != nil {
			return 0, err
		}
		l.Delay(2)
		if l.Read(SDA) == gpio.High {
			b |= 0x01
		}
	}
	l.Set(SCL, gpio.Low)
	return b, nil
}
