// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveform draws the timing diagram of a recorded software I²C bus.
//
// The operations captured by bitbangtest.Record are turned into a sequence
// of Samples, one per delay, which can be printed on a terminal using ANSI
// color codes or drawn into an image.
//
// Useful while you are waiting for your logic analyzer to come by mail.
package waveform
