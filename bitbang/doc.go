// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbang implements a software I²C master over two open-drain GPIO
// lines plus a reset line, as used to talk to a smart card interface module.
//
// The protocol is layered bottom-up. Lines is the only thing that touches
// the hardware; the bit-signal layer (start, stop, ack, noAck, waitAck)
// builds on it; the byte layer serializes 8 bits MSB first; the transaction
// layer (WriteByte, WriteBuffer, ReadBuffer) frames an addressed exchange.
// Every layer is a plain function over Lines with no state kept between
// calls, so it can be exercised against a simulated slave. See package
// bitbangtest.
//
// Master wraps a Lines with a mutex so that a transaction, from start
// condition to stop condition, is never interleaved with another one.
//
// Every failure after a start condition leaves the bus in the stop
// condition (both lines released high).
//
// # Reference
//
// http://www.nxp.com/documents/user_manual/UM10204.pdf
package bitbang
