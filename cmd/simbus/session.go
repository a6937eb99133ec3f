// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"github.com/GermanBionicSystems/simbus/bitbang/bitbangtest"
	"github.com/GermanBionicSystems/simbus/simmodule"
	"github.com/GermanBionicSystems/simbus/waveform"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// opener returns the lines of the bus, calibrated for speed.
type opener func(c *cli.Context, speed physic.Frequency) (bitbang.Lines, error)

// openHost opens the bus on the host's GPIO pins.
func openHost(c *cli.Context, speed physic.Frequency) (bitbang.Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	scl := gpioreg.ByName(c.String(flagSCL))
	if scl == nil {
		return nil, fmt.Errorf("failed to find pin %q", c.String(flagSCL))
	}
	sda := gpioreg.ByName(c.String(flagSDA))
	if sda == nil {
		return nil, fmt.Errorf("failed to find pin %q", c.String(flagSDA))
	}
	var rst gpio.PinOut
	if name := c.String(flagRST); name != "" {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("failed to find pin %q", name)
		}
		rst = p
	}
	p, err := bitbang.NewPins(scl, sda, rst, speed, bitbang.Nanospin)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// session holds what every command needs to open the module.
type session struct {
	open opener
	hold func(time.Duration)
}

func (s *session) reset(c *cli.Context) error {
	return s.run(c, func(d *simmodule.Dev) error {
		if c.Bool(flagBoot) {
			if err := d.ResetBootloader(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(c.App.Writer, "bootloader")
			return err
		}
		if err := d.Reset(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(c.App.Writer, "main program")
		return err
	})
}

func (s *session) write(c *cli.Context) error {
	cmd, err := parseByte(c.String(flagCmd))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagCmd, err)
	}
	data, err := parseHex(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("nothing to write")
	}
	return s.run(c, func(d *simmodule.Dev) error {
		if len(data) == 1 {
			return d.SendByte(simmodule.Command(cmd), data[0])
		}
		return d.Send(simmodule.Command(cmd), data)
	})
}

func (s *session) read(c *cli.Context) error {
	cmd, err := parseByte(c.String(flagCmd))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagCmd, err)
	}
	l := c.Int(flagLen)
	if l < 1 || l > simmodule.MaxFrame {
		return fmt.Errorf("invalid --%s %d; must be between 1 and %d", flagLen, l, simmodule.MaxFrame)
	}
	return s.run(c, func(d *simmodule.Dev) error {
		buf := make([]byte, l)
		n, err := d.Receive(simmodule.Command(cmd), buf)
		if n != 0 {
			if _, werr := fmt.Fprintf(c.App.Writer, "% x\n", buf[:n]); werr != nil {
				return werr
			}
		}
		return err
	})
}

// run opens the module, calls f and renders the recorded trace if requested.
func (s *session) run(c *cli.Context, f func(d *simmodule.Dev) error) (err error) {
	log, err := newLogger(c.Bool(flagVerbose))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	addr, err := parseByte(c.String(flagAddr))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagAddr, err)
	}
	var speed physic.Frequency
	if err := speed.Set(c.String(flagSpeed)); err != nil {
		return fmt.Errorf("invalid --%s: %w", flagSpeed, err)
	}
	l, err := s.open(c, speed)
	if err != nil {
		return err
	}
	if r, ok := l.(conn.Resource); ok {
		defer multierr.AppendInvoke(&err, multierr.Invoke(r.Halt))
	}

	var rec *bitbangtest.Record
	if c.String(flagTrace) != "" || c.Bool(flagANSI) {
		rec = &bitbangtest.Record{Lines: l}
		l = rec
	}
	m, err := bitbang.New(l, &bitbang.Opts{Speed: speed, Logger: log, Hold: s.hold})
	if err != nil {
		return err
	}
	d, err := simmodule.New(m, &simmodule.Opts{Addr: addr})
	if err != nil {
		return err
	}
	log.Debug("opened", zap.Stringer("dev", d), zap.Stringer("speed", speed))

	err = f(d)
	if rec != nil {
		err = multierr.Append(err, render(c, log, rec))
	}
	return err
}

// render draws the operations recorded by rec.
func render(c *cli.Context, log *zap.Logger, rec *bitbangtest.Record) error {
	rec.Lock()
	ops := len(rec.Ops)
	samples := waveform.Trace(rec.Ops, 64)
	rec.Unlock()
	log.Debug("trace", zap.Int("ops", ops), zap.Int("clocks", waveform.Duration(samples)))
	if len(samples) == 0 {
		return nil
	}
	if path := c.String(flagTrace); path != "" {
		if err := waveform.SavePNG(path, samples, nil); err != nil {
			return err
		}
	}
	if !c.Bool(flagANSI) {
		return nil
	}
	w := c.App.Writer
	if w == os.Stdout {
		fd := os.Stdout.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			log.Warn("stdout is not a terminal, not printing the timing diagram")
			return nil
		}
		// Let the terminal translate the ANSI codes where needed.
		w = nil
	}
	t := waveform.NewTerminal(&waveform.Opts{W: w})
	return multierr.Append(t.Draw(samples), t.Halt())
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

// parseByte parses a decimal, 0x prefixed hexadecimal or 0 prefixed octal
// byte.
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// parseHex decodes args as a single hexadecimal string. Spaces and an
// optional 0x prefix on each argument are ignored.
func parseHex(args []string) ([]byte, error) {
	var b strings.Builder
	for _, a := range args {
		a = strings.TrimPrefix(strings.TrimPrefix(a, "0x"), "0X")
		b.WriteString(strings.ReplaceAll(a, " ", ""))
	}
	return hex.DecodeString(b.String())
}
