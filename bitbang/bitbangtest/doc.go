// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbangtest is meant to be used to test drivers built on package
// bitbang.
//
// Slave simulates a device on the wire, Record logs every line operation so
// it can be inspected or rendered with package waveform.
package bitbangtest
