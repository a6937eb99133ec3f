// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Opts contains options to pass to the constructor.
type Opts struct {
	// Speed is the bit rate the clock unit of Lines is calibrated for. It is
	// only applied when the Lines supports SetSpeed, like Pins.
	Speed physic.Frequency
	// Logger receives a warning each time the slave does not acknowledge a
	// byte. nil disables it.
	Logger *zap.Logger
	// Hold waits between the steps of the reset sequences. nil means
	// time.Sleep.
	Hold func(time.Duration)
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Speed: DefaultSpeed,
}

// ErrClosed is returned by a Master after Close.
var ErrClosed = errors.New("bitbang: bus closed")

// Master is a software I²C master. It owns its Lines: all operations are
// serialized, each one holding the bus from its start condition to its stop
// condition.
//
// Master implements i2c.BusCloser so periph device drivers can use it
// through i2c.Dev.
type Master struct {
	mu     sync.Mutex
	l      Lines
	log    *zap.Logger
	hold   func(time.Duration)
	closed bool
}

type speeder interface {
	SetSpeed(f physic.Frequency) error
}

type errorer interface {
	Err() error
	ClearErr()
}

// New returns a Master driving l.
func New(l Lines, opts *Opts) (*Master, error) {
	if l == nil {
		return nil, errors.New("bitbang: Lines is required")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	m := &Master{l: l, log: opts.Logger, hold: opts.Hold}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if opts.Speed != 0 {
		if s, ok := l.(speeder); ok {
			if err := s.SetSpeed(opts.Speed); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Master) String() string {
	if s, ok := m.l.(fmt.Stringer); ok {
		return s.String()
	}
	return "bitbang"
}

// WriteByte writes a single data byte following the command byte cmd to the
// slave at addr. See the package level WriteByte.
func (m *Master) WriteByte(data, cmd, addr byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	err := WriteByte(m.l, data, cmd, addr)
	return m.done(err, "WriteByte", addr, cmd)
}

// WriteBuffer writes data following the command byte cmd to the slave at
// addr and returns how many bytes of data were acknowledged. See the package
// level WriteBuffer.
func (m *Master) WriteBuffer(data []byte, cmd, addr byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n, err := WriteBuffer(m.l, data, cmd, addr)
	return n, m.done(err, "WriteBuffer", addr, cmd)
}

// ReadBuffer reads a length-prefixed response to the command byte cmd from
// the slave at addr. See the package level ReadBuffer.
func (m *Master) ReadBuffer(data []byte, cmd, addr byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n, err := ReadBuffer(m.l, data, cmd, addr)
	return n, m.done(err, "ReadBuffer", addr, cmd)
}

// Tx implements i2c.Bus.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	err := Tx(m.l, addr, w, r)
	var cmd byte
	if len(w) != 0 {
		cmd = w[0]
	}
	return m.done(err, "Tx", byte(addr<<1), cmd)
}

// SetSpeed implements i2c.Bus.
func (m *Master) SetSpeed(f physic.Frequency) error {
	if f > 1*physic.MegaHertz {
		return fmt.Errorf("bitbang: invalid speed %s; maximum supported clock is 1MHz", f)
	}
	if f < 100*physic.Hertz {
		return fmt.Errorf("bitbang: invalid speed %s; minimum supported clock is 100Hz; did you forget to multiply by physic.KiloHertz?", f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if s, ok := m.l.(speeder); ok {
		return s.SetSpeed(f)
	}
	return errors.New("bitbang: lines do not support changing speed")
}

// EnterMainProgram resets the slave into its main program. It must be called
// once before the first transaction.
func (m *Master) EnterMainProgram() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	EnterMainProgram(m.l, m.hold)
	return m.lineErr()
}

// EnterBootloader resets the slave into its bootloader.
func (m *Master) EnterBootloader() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	EnterBootloader(m.l, m.hold)
	return m.lineErr()
}

// Close implements i2c.BusCloser. It does not halt the pins, see Halt.
func (m *Master) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Halt implements conn.Resource. It halts the underlying lines when they
// support it.
func (m *Master) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.l.(conn.Resource); ok {
		return h.Halt()
	}
	return nil
}

// done reports a driver error first, since it explains any protocol error
// that followed, and logs missing acknowledges.
func (m *Master) done(err error, op string, addr, cmd byte) error {
	if lerr := m.lineErr(); lerr != nil {
		return lerr
	}
	if IsNoAck(err) {
		m.log.Warn("i2c acknowledge error",
			zap.String("op", op),
			zap.Uint8("addr", addr),
			zap.Uint8("cmd", cmd),
			zap.Error(err))
	}
	return err
}

func (m *Master) lineErr() error {
	e, ok := m.l.(errorer)
	if !ok {
		return nil
	}
	err := e.Err()
	e.ClearErr()
	return err
}

var _ i2c.BusCloser = &Master{}
var _ conn.Resource = &Master{}
