// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"github.com/GermanBionicSystems/simbus/bitbang/bitbangtest"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"
)

func run(t *testing.T, s *bitbangtest.Slave, args ...string) (string, error) {
	var speed physic.Frequency
	open := func(c *cli.Context, f physic.Frequency) (bitbang.Lines, error) {
		speed = f
		return s, nil
	}
	app := newApp(open, func(time.Duration) {})
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"simbus"}, args...))
	if err == nil && speed != 200*physic.KiloHertz && !strings.Contains(strings.Join(args, " "), "--speed") {
		t.Errorf("unexpected default speed %s", speed)
	}
	return out.String(), err
}

func TestReset(t *testing.T) {
	s := bitbangtest.NewSlave(0xA0)
	out, err := run(t, s, "reset")
	if err != nil {
		t.Fatal(err)
	}
	if out != "main program\n" || s.Mode() != bitbangtest.MainProgram {
		t.Fatalf("unexpected output %q, mode %s", out, s.Mode())
	}
	out, err = run(t, s, "reset", "--boot")
	if err != nil {
		t.Fatal(err)
	}
	if out != "bootloader\n" || s.Mode() != bitbangtest.Bootloader {
		t.Fatalf("unexpected output %q, mode %s", out, s.Mode())
	}
}

func TestWrite(t *testing.T) {
	s := bitbangtest.NewSlave(0xA0)
	s.IgnoreMode = true
	if _, err := run(t, s, "write", "--cmd", "0x02", "0a0b", "0x0c"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, s, "--speed", "100kHz", "write", "--cmd", "2", "07"); err != nil {
		t.Fatal(err)
	}
	msgs := s.Msgs()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(msgs))
	}
	if !bytes.Equal(msgs[0].W, []byte{0x02, 0x0a, 0x0b, 0x0c}) || !bytes.Equal(msgs[1].W, []byte{0x02, 0x07}) {
		t.Fatalf("unexpected transactions %#v", msgs)
	}
	if _, err := run(t, s, "write", "--cmd", "2"); err == nil {
		t.Fatal("expected an error without data")
	}
	if _, err := run(t, s, "write", "--cmd", "2", "0g"); err == nil {
		t.Fatal("expected an error for invalid hex")
	}
}

func TestRead(t *testing.T) {
	s := bitbangtest.NewSlave(0xA0)
	s.IgnoreMode = true
	s.Responses[0x01] = []byte{3, 0x10, 0x20}
	out, err := run(t, s, "read", "--cmd", "0x01", "--len", "8")
	if err != nil {
		t.Fatal(err)
	}
	if out != "03 10 20\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := run(t, s, "read", "--cmd", "1", "--len", "0"); err == nil {
		t.Fatal("expected an error for an empty read")
	}
	if _, err := run(t, s, "--addr", "0xA1", "read", "--cmd", "1"); err == nil {
		t.Fatal("expected an error for a read address")
	}
}

func TestRead_noAck(t *testing.T) {
	s := bitbangtest.NewSlave(0xA0)
	out, err := run(t, s, "read", "--cmd", "0x01")
	if !bitbang.IsNoAck(err) {
		t.Fatalf("expected no acknowledge, got %v", err)
	}
	if out != "" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTrace(t *testing.T) {
	s := bitbangtest.NewSlave(0xA0)
	s.IgnoreMode = true
	s.Responses[0x01] = []byte{2, 0x42}
	path := filepath.Join(t.TempDir(), "trace.png")
	out, err := run(t, s, "--trace", path, "--ansi", "read", "--cmd", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "02 42\n") {
		t.Fatalf("expected the frame first, got %q", out)
	}
	for _, l := range []string{"SCL", "SDA", "RST"} {
		if !strings.Contains(out, l) {
			t.Errorf("missing %s in the diagram", l)
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Fatal("empty PNG")
	}
}

func TestParseByte(t *testing.T) {
	data := []struct {
		in   string
		want byte
		err  bool
	}{
		{"0xA0", 0xA0, false},
		{"160", 160, false},
		{"0x100", 0, true},
		{"", 0, true},
		{"x", 0, true},
	}
	for _, line := range data {
		got, err := parseByte(line.in)
		if (err != nil) != line.err || got != line.want {
			t.Errorf("parseByte(%q) = %#02x, %v", line.in, got, err)
		}
	}
}

func TestParseHex(t *testing.T) {
	got, err := parseHex([]string{"0x01 02", "0Xff"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 0xff}) {
		t.Fatalf("unexpected % x", got)
	}
	if _, err := parseHex([]string{"123"}); err == nil {
		t.Fatal("expected an error for an odd length")
	}
}
