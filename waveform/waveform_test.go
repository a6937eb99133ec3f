// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"github.com/GermanBionicSystems/simbus/bitbang/bitbangtest"
	"periph.io/x/conn/v3/gpio"
)

func TestTrace(t *testing.T) {
	ops := []bitbangtest.IO{
		{Op: bitbangtest.OpDelay, Clocks: 2},
		{Op: bitbangtest.OpSet, Line: bitbang.SDA, Level: gpio.Low},
		{Op: bitbangtest.OpDelay, Clocks: 1},
		{Op: bitbangtest.OpDelay, Clocks: 1},
		{Op: bitbangtest.OpSet, Line: bitbang.SCL, Level: gpio.Low},
		{Op: bitbangtest.OpSet, Line: bitbang.SDA, Level: gpio.High},
		// Another device holds SDA low.
		{Op: bitbangtest.OpRead, Line: bitbang.SDA, Level: gpio.Low},
		{Op: bitbangtest.OpDelay, Clocks: 3},
		{Op: bitbangtest.OpDelay, Clocks: 0},
	}
	got := Trace(ops, 0)
	want := []Sample{
		{Start: 0, Clocks: 2, Levels: [3]gpio.Level{gpio.High, gpio.High, gpio.High}},
		{Start: 2, Clocks: 2, Levels: [3]gpio.Level{gpio.High, gpio.Low, gpio.High}},
		{Start: 4, Clocks: 3, Levels: [3]gpio.Level{gpio.Low, gpio.Low, gpio.High}},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if d := Duration(got); d != 7 {
		t.Fatalf("expected 7 clocks, got %d", d)
	}
}

func TestTrace_maxRun(t *testing.T) {
	ops := []bitbangtest.IO{
		{Op: bitbangtest.OpDelay, Clocks: 5000},
		{Op: bitbangtest.OpSet, Line: bitbang.SCL, Level: gpio.Low},
		{Op: bitbangtest.OpDelay, Clocks: 2},
	}
	got := Trace(ops, 16)
	if len(got) != 2 || got[0].Clocks != 16 || got[1].Start != 16 {
		t.Fatalf("unexpected samples %v", got)
	}
	if Duration(nil) != 0 {
		t.Fatal("Duration(nil)")
	}
}

func record(t *testing.T) []Sample {
	s := bitbangtest.NewSlave(0xA0)
	bitbang.EnterMainProgram(s, func(time.Duration) {})
	rec := &bitbangtest.Record{Lines: s}
	if err := bitbang.WriteByte(rec, 0x07, 0x01, 0xA0); err != nil {
		t.Fatal(err)
	}
	return Trace(rec.Ops, 0)
}

func TestTerminal(t *testing.T) {
	samples := record(t)
	var buf bytes.Buffer
	term := NewTerminal(&Opts{X: 64, W: &buf})
	if err := term.Draw(samples); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	rows := (Duration(samples) + 63) / 64
	for _, l := range Lines {
		if n := strings.Count(out, l.String()); n != rows {
			t.Errorf("expected %d rows for %s, got %d", rows, l, n)
		}
	}
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\033[0m\n") {
		t.Error("Halt should reset the colors")
	}
	if term.String() != "Terminal" {
		t.Error("String()")
	}
}

func TestImage(t *testing.T) {
	samples := record(t)
	img, err := Image(samples, &ImageOpts{Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if want := int(margin + float64(Duration(samples))*2 + margin/2); b.Dx() != want {
		t.Fatalf("expected width %d, got %d", want, b.Dx())
	}
	if b.Dy() != int(40*3+margin/2) {
		t.Fatalf("unexpected height %d", b.Dy())
	}
	if _, err := Image(nil, nil); err == nil {
		t.Fatal("expected an error for an empty trace")
	}
}
