// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package simmodule

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/simbus/bitbang"
)

// Addresses are in their 8-bit form, low (direction) bit clear.
const (
	// AddrMain is the address of the module running its main program.
	AddrMain byte = 0xA0
	// AddrBoot is the address of the module running its bootloader.
	AddrBoot byte = 0xB0
)

// Command is the first byte of every transaction.
type Command byte

// CmdGetVersion requests the firmware version frame.
const CmdGetVersion Command = 0x01

// MaxFrame is the largest payload a single transaction can carry; lengths
// are a single byte on the wire.
const MaxFrame = 255

// ErrFrameTooLarge is returned when a payload does not fit in a frame.
var ErrFrameTooLarge = errors.New("simmodule: frame too large")

// Opts contains options to pass to the constructor.
type Opts struct {
	// Addr overrides the address of the module. 0 means AddrMain.
	Addr byte
}

// Dev is a handle to the module on a bit-banged bus.
type Dev struct {
	m    *bitbang.Master
	main byte
	addr byte
}

// New returns a handle to the module on m. It does not reset the module,
// call Reset before the first command.
func New(m *bitbang.Master, opts *Opts) (*Dev, error) {
	if m == nil {
		return nil, errors.New("simmodule: bus is required")
	}
	d := &Dev{m: m, main: AddrMain, addr: AddrMain}
	if opts != nil && opts.Addr != 0 {
		if opts.Addr&1 != 0 {
			return nil, fmt.Errorf("simmodule: address %#02x must have its low bit clear", opts.Addr)
		}
		d.main = opts.Addr
		d.addr = opts.Addr
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("simmodule{%s, %#02x}", d.m, d.addr)
}

// Reset restarts the module into its main program. Later commands go to the
// address set in Opts.
func (d *Dev) Reset() error {
	if err := d.m.EnterMainProgram(); err != nil {
		return err
	}
	d.addr = d.main
	return nil
}

// ResetBootloader restarts the module into its bootloader, for firmware
// updates. Later commands go to AddrBoot until the next Reset.
func (d *Dev) ResetBootloader() error {
	if err := d.m.EnterBootloader(); err != nil {
		return err
	}
	d.addr = AddrBoot
	return nil
}

// SendByte sends cmd followed by a single byte.
func (d *Dev) SendByte(cmd Command, b byte) error {
	if err := d.m.WriteByte(b, byte(cmd), d.addr); err != nil {
		return fmt.Errorf("simmodule: command %#02x: %w", byte(cmd), err)
	}
	return nil
}

// Send sends cmd followed by data. All of data must be acknowledged.
func (d *Dev) Send(cmd Command, data []byte) error {
	if len(data) > MaxFrame {
		return ErrFrameTooLarge
	}
	n, err := d.m.WriteBuffer(data, byte(cmd), d.addr)
	if err != nil {
		return fmt.Errorf("simmodule: command %#02x: %d of %d bytes sent: %w", byte(cmd), n, len(data), err)
	}
	return nil
}

// Receive sends cmd then reads the module's response frame into buf. The
// first byte of the frame is its length. It returns the number of bytes
// stored in buf.
func (d *Dev) Receive(cmd Command, buf []byte) (int, error) {
	if len(buf) > MaxFrame {
		buf = buf[:MaxFrame]
	}
	n, err := d.m.ReadBuffer(buf, byte(cmd), d.addr)
	if err != nil {
		return n, fmt.Errorf("simmodule: command %#02x: %w", byte(cmd), err)
	}
	return n, nil
}

// Halt implements conn.Resource. It halts the underlying bus pins.
func (d *Dev) Halt() error {
	return d.m.Halt()
}
