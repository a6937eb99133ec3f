// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbangtest

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Op is the kind of call made on bitbang.Lines.
type Op uint8

const (
	// OpSet is a call to Set.
	OpSet Op = iota
	// OpRead is a call to Read; Level is the value returned.
	OpRead
	// OpDelay is a call to Delay.
	OpDelay
)

// IO registers one call made on bitbang.Lines.
type IO struct {
	Op     Op
	Line   bitbang.Line
	Level  gpio.Level
	Clocks int
}

func (i IO) String() string {
	switch i.Op {
	case OpSet:
		return fmt.Sprintf("set %s %s", i.Line, i.Level)
	case OpRead:
		return fmt.Sprintf("read %s %s", i.Line, i.Level)
	default:
		return fmt.Sprintf("delay %d", i.Clocks)
	}
}

// Record implements bitbang.Lines and records everything written to it.
//
// This can then be used to feed to waveform or to inspect a transaction.
//
// Lines may be nil, in which case the lines behave as if nothing else was on
// the bus: Read returns the last level set.
type Record struct {
	sync.Mutex
	Lines bitbang.Lines // Lines can be nil if only writes are being recorded.
	Ops   []IO

	set [3]bool
	lvl [3]gpio.Level
}

// Set implements bitbang.Lines.
func (r *Record) Set(l bitbang.Line, level gpio.Level) {
	r.Lock()
	defer r.Unlock()
	if int(l) < len(r.lvl) {
		r.set[l] = true
		r.lvl[l] = level
	}
	r.Ops = append(r.Ops, IO{Op: OpSet, Line: l, Level: level})
	if r.Lines != nil {
		r.Lines.Set(l, level)
	}
}

// Read implements bitbang.Lines.
func (r *Record) Read(l bitbang.Line) gpio.Level {
	r.Lock()
	defer r.Unlock()
	level := gpio.High
	if r.Lines != nil {
		level = r.Lines.Read(l)
	} else if int(l) < len(r.lvl) && r.set[l] {
		level = r.lvl[l]
	}
	r.Ops = append(r.Ops, IO{Op: OpRead, Line: l, Level: level})
	return level
}

// Delay implements bitbang.Lines.
func (r *Record) Delay(clocks int) {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, IO{Op: OpDelay, Clocks: clocks})
	if r.Lines != nil {
		r.Lines.Delay(clocks)
	}
}

// Reset clears the recorded operations.
func (r *Record) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Ops = nil
}

// Err forwards to Lines when it reports driver errors, like bitbang.Pins.
func (r *Record) Err() error {
	if e, ok := r.Lines.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// ClearErr forwards to Lines when it reports driver errors.
func (r *Record) ClearErr() {
	if e, ok := r.Lines.(interface{ ClearErr() }); ok {
		e.ClearErr()
	}
}

// Halt forwards to Lines when it is a conn.Resource.
func (r *Record) Halt() error {
	if h, ok := r.Lines.(conn.Resource); ok {
		return h.Halt()
	}
	return nil
}

func (r *Record) String() string {
	if s, ok := r.Lines.(fmt.Stringer); ok {
		return "record(" + s.String() + ")"
	}
	return "record"
}

var _ bitbang.Lines = &Record{}
var _ conn.Resource = &Record{}
var _ bitbang.Lines = &Slave{}
