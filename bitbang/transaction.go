// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"fmt"
)

// The transaction functions below take the slave address in its 8-bit
// form: the 7-bit address shifted left by one. The low bit is overwritten to
// select the direction, so callers should pass it clear.
//
// Each one is self-contained: it issues its own start condition and always
// returns with the bus in the stop condition, including when the start
// condition itself failed.

// WriteByte writes data to the slave following the command byte cmd.
//
// It succeeds only if the slave acknowledged the address, the command and
// the data byte.
func WriteByte(l Lines, data, cmd, addr byte) error {
	if err := start(l); err != nil {
		stop(l)
		return err
	}
	err := command(l, addr, cmd)
	if err == nil {
		err = sendAcked(l, data, "data")
	}
	stop(l)
	return err
}

// WriteBuffer writes data to the slave following the command byte cmd,
// requiring an acknowledge after every byte.
//
// It returns the number of bytes of data the slave acknowledged. The
// transfer stops at the first byte that is not acknowledged.
func WriteBuffer(l Lines, data []byte, cmd, addr byte) (int, error) {
	if err := start(l); err != nil {
		stop(l)
		return 0, err
	}
	if err := command(l, addr, cmd); err != nil {
		stop(l)
		return 0, err
	}
	for i, b := range data {
		if err := sendAcked(l, b, fmt.Sprintf("data[%d]", i)); err != nil {
			stop(l)
			return i, err
		}
	}
	stop(l)
	return len(data), nil
}

// ReadBuffer sends the command byte cmd then reads the slave's response
// into data after a repeated start.
//
// The response is length-prefixed: the first byte received is the length
// of the whole frame, itself included. It can only shorten the transfer;
// at most len(data) bytes are read. The first byte is always kept, even if
// it declares a frame shorter than one byte: a declared length of 0 still
// returns 1.
//
// It returns the number of bytes stored in data. When data is empty, it
// returns 0 without touching the bus.
func ReadBuffer(l Lines, data []byte, cmd, addr byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if err := start(l); err != nil {
		stop(l)
		return 0, err
	}
	if err := command(l, addr, cmd); err != nil {
		stop(l)
		return 0, err
	}
	if err := start(l); err != nil {
		stop(l)
		return 0, fmt.Errorf("bitbang: repeated start: %w", err)
	}
	if err := sendAcked(l, addr|1, "read address"); err != nil {
		stop(l)
		return 0, err
	}
	n := 0
	for left := len(data); left > 0; {
		b, err := readByte(l)
		if err != nil {
			stop(l)
			return n, fmt.Errorf("bitbang: data[%d]: %w", n, err)
		}
		data[n] = b
		n++
		left--
		if n == 1 && int(b) < len(data) {
			left = max(int(b)-1, 0)
		}
		if left == 0 {
			noAck(l)
		} else {
			ack(l)
		}
	}
	stop(l)
	return n, nil
}

// Tx is a plain I²C write then read with a repeated start in between, as
// defined by i2c.Bus. addr is the 7-bit address. No length prefix is
// interpreted: exactly len(r) bytes are read.
func Tx(l Lines, addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("bitbang: invalid address %#x; only 7 bit addresses are supported", addr)
	}
	a := byte(addr << 1)
	if err := start(l); err != nil {
		stop(l)
		return err
	}
	if len(w) != 0 || len(r) == 0 {
		if err := sendAcked(l, a, "address"); err != nil {
			stop(l)
			return err
		}
		for i, b := range w {
			if err := sendAcked(l, b, fmt.Sprintf("w[%d]", i)); err != nil {
				stop(l)
				return err
			}
		}
		if len(r) != 0 {
			if err := start(l); err != nil {
				stop(l)
				return fmt.Errorf("bitbang: repeated start: %w", err)
			}
		}
	}
	if len(r) != 0 {
		if err := sendAcked(l, a|1, "read address"); err != nil {
			stop(l)
			return err
		}
		for i := range r {
			b, err := readByte(l)
			if err != nil {
				stop(l)
				return fmt.Errorf("bitbang: r[%d]: %w", i, err)
			}
			r[i] = b
			if i == len(r)-1 {
				noAck(l)
			} else {
				ack(l)
			}
		}
	}
	stop(l)
	return nil
}

// command addresses the slave for writing and sends cmd.
func command(l Lines, addr, cmd byte) error {
	if err := sendAcked(l, addr&^1, "address"); err != nil {
		return err
	}
	return sendAcked(l, cmd, "command")
}

func sendAcked(l Lines, b byte, what string) error {
	err := sendByte(l, b)
	if err == nil {
		err = waitAck(l)
	}
	if err != nil {
		return &TxError{Op: what, Byte: b, Err: err}
	}
	return nil
}

// TxError records which byte of a transaction failed.
type TxError struct {
	Op   string
	Byte byte
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("bitbang: %s %#02x: %s", e.Op, e.Byte, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// IsNoAck reports whether err, or an error it wraps, is a missing
// acknowledge.
func IsNoAck(err error) bool {
	return errors.Is(err, ErrNoAck)
}
