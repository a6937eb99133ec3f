// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"errors"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

type brokenPin struct {
	*gpiotest.Pin
}

var errBroken = errors.New("broken")

func (b *brokenPin) Out(l gpio.Level) error {
	return errBroken
}

func newTestPins(t *testing.T, d Delayer) (*Pins, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	scl := &gpiotest.Pin{N: "SCL", Num: 5}
	sda := &gpiotest.Pin{N: "SDA", Num: 7}
	rst := &gpiotest.Pin{N: "RST", Num: 1}
	p, err := NewPins(scl, sda, rst, DefaultSpeed, d)
	if err != nil {
		t.Fatal(err)
	}
	return p, scl, sda, rst
}

func TestNewPins(t *testing.T) {
	_, scl, sda, rst := newTestPins(t, nil)
	for _, p := range []*gpiotest.Pin{scl, sda} {
		if p.P != gpio.PullUp {
			t.Errorf("%s: expected released line, got pull %s", p.N, p.P)
		}
	}
	if rst.L != gpio.High {
		t.Error("RST should be released")
	}
	if _, err := NewPins(nil, sda, rst, DefaultSpeed, nil); err == nil {
		t.Error("expected an error without SCL")
	}
}

func TestPins_openDrain(t *testing.T) {
	p, scl, sda, rst := newTestPins(t, nil)
	p.Set(SDA, gpio.Low)
	if sda.L != gpio.Low {
		t.Error("SDA should be driven low")
	}
	p.Set(SDA, gpio.High)
	if sda.P != gpio.PullUp {
		t.Error("SDA should be released")
	}
	p.Set(RST, gpio.Low)
	if rst.L != gpio.Low {
		t.Error("RST should be low")
	}
	scl.L = gpio.Low
	if p.Read(SCL) != gpio.Low {
		t.Error("expected SCL to read low")
	}
	if p.Read(RST) != gpio.Low {
		t.Error("RST cannot be read back")
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
	if s := p.String(); s == "" {
		t.Error("String()")
	}
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestPins_noReset(t *testing.T) {
	p, err := NewPins(&gpiotest.Pin{N: "SCL"}, &gpiotest.Pin{N: "SDA"}, nil, DefaultSpeed, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.Set(RST, gpio.Low)
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestPins_stickyError(t *testing.T) {
	sda := &brokenPin{&gpiotest.Pin{N: "SDA"}}
	p, err := NewPins(&gpiotest.Pin{N: "SCL"}, sda, nil, DefaultSpeed, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.Set(SDA, gpio.Low)
	sda.P = gpio.Float
	p.Set(SDA, gpio.High)
	if !errors.Is(p.Err(), errBroken) {
		t.Fatalf("expected the pin error, got %v", p.Err())
	}
	if sda.P != gpio.Float {
		t.Fatal("Set should be ignored after an error")
	}
	p.ClearErr()
	if p.Err() != nil {
		t.Fatal("ClearErr")
	}
}

func TestPins_concurrentErr(t *testing.T) {
	sda := &brokenPin{&gpiotest.Pin{N: "SDA"}}
	p, err := NewPins(&gpiotest.Pin{N: "SCL"}, sda, nil, DefaultSpeed, DelayFunc(func(time.Duration) {}))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Set(SDA, gpio.Low)
				p.Delay(1)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = p.Err()
				p.ClearErr()
			}
		}()
	}
	wg.Wait()
	p.ClearErr()
	p.Set(SDA, gpio.Low)
	if !errors.Is(p.Err(), errBroken) {
		t.Fatalf("expected the pin error, got %v", p.Err())
	}
}

func TestPins_delay(t *testing.T) {
	var got []time.Duration
	p, _, _, _ := newTestPins(t, DelayFunc(func(d time.Duration) { got = append(got, d) }))
	p.Delay(2)
	if err := p.SetSpeed(100 * physic.KiloHertz); err != nil {
		t.Fatal(err)
	}
	p.Delay(1)
	want := []time.Duration{2500 * time.Nanosecond, 2500 * time.Nanosecond}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if err := p.SetSpeed(0); err == nil {
		t.Fatal("expected an error for a null speed")
	}
}

func TestClockUnit(t *testing.T) {
	if u := ClockUnit(DefaultSpeed); u != 1250*time.Nanosecond {
		t.Fatalf("expected 1.25µs, got %s", u)
	}
	if ClockUnit(0) != ClockUnit(DefaultSpeed) {
		t.Fatal("expected the default speed")
	}
}
