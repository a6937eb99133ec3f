// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbangtest

import (
	"sync"

	"github.com/GermanBionicSystems/simbus/bitbang"
	"periph.io/x/conn/v3/gpio"
)

// Mode is what the slave runs after it was released from reset.
type Mode int

const (
	// PowerOn is the state before the first reset. A slave in this mode does
	// not answer.
	PowerOn Mode = iota
	// MainProgram is selected by holding SCL and SDA low during reset.
	MainProgram
	// Bootloader is selected by holding SCL and SDA high during reset.
	Bootloader
)

func (m Mode) String() string {
	switch m {
	case PowerOn:
		return "PowerOn"
	case MainProgram:
		return "MainProgram"
	case Bootloader:
		return "Bootloader"
	default:
		return "Mode(?)"
	}
}

type state int

const (
	stIdle     state = iota // ignoring the bus until the next start
	stRecv                  // shifting in a byte from the master
	stAckOut                // slave drives the ninth bit
	stSend                  // shifting out a byte to the master
	stAckIn                 // master drives the ninth bit
	stWaitStop              // master NACKed, waiting for stop
)

// Msg is one transaction seen by the slave, from a start condition to the
// matching stop condition.
type Msg struct {
	// Addr is the write address the transaction started with.
	Addr byte
	// W holds the bytes written by the master after the address, the
	// command byte first.
	W []byte
	// R holds the bytes sent to the master.
	R []byte
	// Acks is the number of bytes, address included, the slave acknowledged.
	Acks int
}

// Slave simulates a slave device at the line level. It implements
// bitbang.Lines: the master's Set calls are decoded into start and stop
// conditions, bits and acknowledges, and Read returns the wired-AND of the
// master's and the slave's drive.
//
// It assumes the master only changes SDA while SCL is low, except for start
// and stop conditions.
type Slave struct {
	// Addr is the 8-bit write address the slave answers to.
	Addr byte
	// Responses maps a command byte to the frame sent back when the master
	// reads after writing that command.
	Responses map[byte][]byte
	// AckLimit, when non zero, is the number of bytes, address included,
	// acknowledged per transaction. Later bytes are not acknowledged.
	AckLimit int
	// Stretch is the number of SCL reads that return low each time the
	// master releases the clock.
	Stretch int
	// HoldSCL and HoldSDA keep the line low forever.
	HoldSCL bool
	HoldSDA bool
	// StretchForeverAfter, when non zero, is the number of times the master
	// can raise SCL. Past that, the slave holds SCL low until Reset.
	StretchForeverAfter int
	// IgnoreMode makes the slave answer even if it was never reset into its
	// main program.
	IgnoreMode bool

	mu sync.Mutex
	// Master drive.
	mSCL, mSDA, mRST gpio.Level
	// Slave drive of SDA.
	sSDA gpio.Level

	state     state
	addrPhase bool
	shift     byte
	bits      int
	read      bool
	acked     bool
	cmd       byte
	resp      []byte
	stretch   int
	cur       *Msg
	rises     int
	stuck     bool

	mode     Mode
	msgs     []Msg
	starts   int
	stops    int
	clocks   int
	sclReads int
}

// NewSlave returns a Slave answering at addr with the bus idle.
func NewSlave(addr byte) *Slave {
	return &Slave{
		Addr:      addr,
		Responses: map[byte][]byte{},
		mSCL:      gpio.High,
		mSDA:      gpio.High,
		mRST:      gpio.High,
		sSDA:      gpio.High,
	}
}

// Set implements bitbang.Lines.
func (s *Slave) Set(l bitbang.Line, level gpio.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch l {
	case bitbang.RST:
		if s.mRST == gpio.Low && level == gpio.High {
			s.release()
		}
		if level == gpio.Low {
			s.abort()
		}
		s.mRST = level
	case bitbang.SCL:
		prev := s.mSCL
		s.mSCL = level
		if s.mRST == gpio.Low || prev == level || s.stuck {
			return
		}
		if level == gpio.High {
			s.rises++
			if s.StretchForeverAfter != 0 && s.rises > s.StretchForeverAfter {
				s.stuck = true
				return
			}
			s.stretch = s.Stretch
			s.rise()
		} else {
			s.fall()
		}
	case bitbang.SDA:
		prev := s.sda()
		s.mSDA = level
		if s.mRST == gpio.Low || s.scl() == gpio.Low || prev == s.sda() {
			return
		}
		if level == gpio.Low {
			s.startCond()
		} else {
			s.stopCond()
		}
	}
}

// Read implements bitbang.Lines.
func (s *Slave) Read(l bitbang.Line) gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch l {
	case bitbang.SCL:
		s.sclReads++
		if s.mSCL == gpio.High && s.stretch > 0 {
			s.stretch--
			return gpio.Low
		}
		return s.scl()
	case bitbang.SDA:
		return s.sda()
	}
	return gpio.Low
}

// Delay implements bitbang.Lines. It only counts the clock units.
func (s *Slave) Delay(clocks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clocks += clocks
}

// Level returns the level on the wire of SCL or SDA, or the level the
// master drives RST to.
func (s *Slave) Level(l bitbang.Line) gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch l {
	case bitbang.SCL:
		return s.scl()
	case bitbang.SDA:
		return s.sda()
	default:
		return s.mRST
	}
}

// Idle reports whether both bus lines are high and no transaction is in
// progress.
func (s *Slave) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scl() == gpio.High && s.sda() == gpio.High && s.cur == nil
}

// Mode returns what the slave was last reset into.
func (s *Slave) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Msgs returns the completed transactions, oldest first.
func (s *Slave) Msgs() []Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Msg(nil), s.msgs...)
}

// Starts returns the number of start conditions seen, repeated starts
// included.
func (s *Slave) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Stops returns the number of stop conditions seen.
func (s *Slave) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// Clocks returns the total clock units the master waited for.
func (s *Slave) Clocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clocks
}

// SCLReads returns how many times the master sampled SCL.
func (s *Slave) SCLReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sclReads
}

// Reset forgets the recorded transactions and counters, and releases SCL if
// it was held because of StretchForeverAfter.
func (s *Slave) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	s.starts, s.stops, s.clocks, s.sclReads = 0, 0, 0, 0
	s.rises = 0
	s.stuck = false
}

//

func (s *Slave) scl() gpio.Level {
	return gpio.Level(s.mSCL == gpio.High && !s.HoldSCL && !s.stuck)
}

func (s *Slave) sda() gpio.Level {
	return gpio.Level(s.mSDA == gpio.High && s.sSDA == gpio.High && !s.HoldSDA)
}

// release samples the bus lines as the slave leaves reset.
func (s *Slave) release() {
	if s.mSCL == gpio.Low && s.mSDA == gpio.Low {
		s.mode = MainProgram
	} else if s.mSCL == gpio.High && s.mSDA == gpio.High {
		s.mode = Bootloader
	} else {
		s.mode = PowerOn
	}
}

func (s *Slave) abort() {
	s.state = stIdle
	s.sSDA = gpio.High
	s.cur = nil
}

func (s *Slave) answering() bool {
	return s.IgnoreMode || s.mode == MainProgram
}

func (s *Slave) startCond() {
	s.starts++
	s.sSDA = gpio.High
	s.state = stRecv
	s.bits = 0
	s.shift = 0
	s.read = false
	s.addrPhase = true
	// A repeated start continues the current message.
	if s.cur == nil {
		s.cur = &Msg{}
		s.cmd = 0
	}
}

func (s *Slave) stopCond() {
	s.stops++
	s.sSDA = gpio.High
	s.state = stIdle
	if s.cur != nil {
		s.msgs = append(s.msgs, *s.cur)
		s.cur = nil
	}
}

// rise handles SCL going high: data is sampled.
func (s *Slave) rise() {
	switch s.state {
	case stRecv:
		s.shift <<= 1
		if s.sda() == gpio.High {
			s.shift |= 1
		}
		s.bits++
	case stSend:
		s.bits++
	case stAckIn:
		s.acked = s.sda() == gpio.Low
	}
}

// fall handles SCL going low: the slave changes its drive of SDA.
func (s *Slave) fall() {
	switch s.state {
	case stRecv:
		if s.bits == 8 {
			s.received(s.shift)
		}
	case stAckOut:
		s.sSDA = gpio.High
		if !s.acked {
			s.state = stWaitStop
			return
		}
		if s.read {
			s.state = stSend
			s.bits = 0
			s.next()
			return
		}
		s.state = stRecv
		s.bits = 0
		s.shift = 0
	case stSend:
		if s.bits == 8 {
			s.sSDA = gpio.High
			s.state = stAckIn
			return
		}
		s.out()
	case stAckIn:
		if !s.acked {
			s.state = stWaitStop
			return
		}
		s.state = stSend
		s.bits = 0
		s.next()
	}
}

// received processes a byte once its eighth bit was clocked.
func (s *Slave) received(b byte) {
	s.state = stAckOut
	m := s.cur
	addr := s.addrPhase
	s.addrPhase = false
	switch {
	case !s.answering():
		s.acked = false
	case addr:
		if b&^1 != s.Addr {
			// Not for us.
			s.acked = false
			break
		}
		if b&1 == 1 {
			s.read = true
			s.resp = append([]byte(nil), s.Responses[s.cmd]...)
		} else if m.Addr == 0 {
			m.Addr = b
		}
		s.acked = s.ackBudget(m)
	default:
		if len(m.W) == 0 {
			s.cmd = b
		}
		m.W = append(m.W, b)
		s.acked = s.ackBudget(m)
	}
	if s.acked {
		m.Acks++
		s.sSDA = gpio.Low
	}
}

func (s *Slave) ackBudget(m *Msg) bool {
	return s.AckLimit == 0 || m.Acks < s.AckLimit
}

// next loads the next response byte and drives its first bit.
func (s *Slave) next() {
	var b byte = 0xff
	if len(s.resp) != 0 {
		b = s.resp[0]
		s.resp = s.resp[1:]
	}
	s.shift = b
	s.cur.R = append(s.cur.R, b)
	s.out()
}

func (s *Slave) out() {
	s.sSDA = s.shift&0x80 != 0
	s.shift <<= 1
}
