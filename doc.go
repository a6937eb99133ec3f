// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package simbus is a container for the packages driving a smart-card
// interface module over a bit-banged two-wire bus.
//
// See bitbang for the bus master, simmodule for the module's commands and
// waveform to visualize recorded traffic. cmd/simbus is a command line tool
// built on them.
package simbus
