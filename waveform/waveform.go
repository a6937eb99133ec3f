// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"github.com/GermanBionicSystems/simbus/bitbang"
	"github.com/GermanBionicSystems/simbus/bitbang/bitbangtest"
	"periph.io/x/conn/v3/gpio"
)

// Lines lists the lines in the order they are drawn.
var Lines = []bitbang.Line{bitbang.SCL, bitbang.SDA, bitbang.RST}

// Sample is the state of the lines while the master waited.
type Sample struct {
	// Start is the time since the beginning of the trace, in clock units.
	Start int
	// Clocks is how long the lines stayed in this state.
	Clocks int
	// Levels is indexed by bitbang.Line.
	Levels [3]gpio.Level
}

// Level returns the level of l during the sample.
func (s *Sample) Level(l bitbang.Line) gpio.Level {
	if int(l) >= len(s.Levels) {
		return gpio.Low
	}
	return s.Levels[l]
}

// Trace converts recorded operations into samples.
//
// All lines start high. A Set changes the level of a line; a Read that
// returns a different level than the one set means another device drives
// the line, and the level read is shown until the next Set.
//
// maxRun, when positive, caps the length of a single sample so that a long
// clock stretch timeout does not hide the rest of the trace.
func Trace(ops []bitbangtest.IO, maxRun int) []Sample {
	var out []Sample
	levels := [3]gpio.Level{gpio.High, gpio.High, gpio.High}
	t := 0
	for _, op := range ops {
		if int(op.Line) >= len(levels) && op.Op != bitbangtest.OpDelay {
			continue
		}
		switch op.Op {
		case bitbangtest.OpSet, bitbangtest.OpRead:
			levels[op.Line] = op.Level
		case bitbangtest.OpDelay:
			if op.Clocks <= 0 {
				continue
			}
			// Merge with the previous sample when nothing changed.
			if n := len(out); n != 0 && out[n-1].Levels == levels {
				out[n-1].Clocks += op.Clocks
			} else {
				out = append(out, Sample{Start: t, Clocks: op.Clocks, Levels: levels})
			}
			t += op.Clocks
		}
	}
	if maxRun > 0 {
		t = 0
		for i := range out {
			out[i].Clocks = min(out[i].Clocks, maxRun)
			out[i].Start = t
			t += out[i].Clocks
		}
	}
	return out
}

// Duration returns the total length of samples in clock units.
func Duration(samples []Sample) int {
	if len(samples) == 0 {
		return 0
	}
	last := samples[len(samples)-1]
	return last.Start + last.Clocks
}
