// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package simmodule talks to a smart card (ISO 7816) interface module over a
// software I²C bus.
//
// The module is a slave on a bit-banged bus driven by package bitbang. It
// has to be reset into its main program before it answers; its responses
// are length-prefixed frames.
//
// Only the link is implemented here; the meaning of the commands sent to the
// module is left to the caller.
package simmodule
