// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "strings"

// Status holds the processor status bits.
type Status byte

// Bits assigned to the processor status byte. Bits 2 through 5 are not
// recognized by the processor and are never modified by an instruction.
const (
	CarryBit    Status = 1 << 0 // C
	ZeroBit     Status = 1 << 1 // Z
	OverflowBit Status = 1 << 6 // V
	SignBit     Status = 1 << 7 // N
)

// Registers contains the state of all processor registers.
type Registers struct {
	A  byte   // accumulator
	X  byte   // X indexing register
	Y  byte   // Y indexing register (reserved)
	SP byte   // stack pointer (reserved)
	PC uint16 // program counter (offset into the program)
	PS Status // processor status bits
}

// Init initializes all registers to zero.
func (r *Registers) Init() {
	*r = Registers{}
}

// IsSet returns true if the status bit 's' is set.
func (r *Registers) IsSet(s Status) bool {
	return (r.PS & s) != 0
}

// SetStatus sets status bit 's' to 1 if 'on' is true. Otherwise it sets
// the bit to 0. No other bits are modified.
func (r *Registers) SetStatus(s Status, on bool) {
	if on {
		r.PS |= s
	} else {
		r.PS &^= s
	}
}

// Carry returns the state of the carry flag.
func (r *Registers) Carry() bool { return r.IsSet(CarryBit) }

// Zero returns the state of the zero flag.
func (r *Registers) Zero() bool { return r.IsSet(ZeroBit) }

// Overflow returns the state of the overflow flag.
func (r *Registers) Overflow() bool { return r.IsSet(OverflowBit) }

// Sign returns the state of the negative (sign) flag.
func (r *Registers) Sign() bool { return r.IsSet(SignBit) }

// String returns the recognized status flags, upper case when set and lower
// case when clear, e.g. "Nv--zC".
func (s Status) String() string {
	var b strings.Builder
	flag := func(bit Status, on, off byte) {
		if s&bit != 0 {
			b.WriteByte(on)
		} else {
			b.WriteByte(off)
		}
	}
	flag(SignBit, 'N', 'n')
	flag(OverflowBit, 'V', 'v')
	b.WriteString("--")
	flag(ZeroBit, 'Z', 'z')
	flag(CarryBit, 'C', 'c')
	return b.String()
}
