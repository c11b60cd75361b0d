// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionSetTables(t *testing.T) {
	assert := assert.New(t)

	core := GetInstructionSet(Core)
	ext := GetInstructionSet(Extended)
	assert.Same(core, GetInstructionSet(Core))

	implemented := func(set *InstructionSet) int {
		n := 0
		for i := 0; i < 256; i++ {
			if set.Lookup(byte(i)).Implemented() {
				n++
			}
		}
		return n
	}
	assert.Equal(12, implemented(core))
	assert.Equal(14, implemented(ext))

	for i := 0; i < 256; i++ {
		inst := core.Lookup(byte(i))
		assert.Equal(byte(i), inst.Opcode)
		switch inst.Mode {
		case IMM, REL:
			assert.Equal(byte(2), inst.Length, inst.Name)
		default:
			assert.Equal(byte(1), inst.Length, inst.Name)
		}
	}

	assert.False(core.Lookup(0x10).Implemented())
	assert.False(core.Lookup(0x89).Implemented())
	assert.Equal("BPL", ext.Lookup(0x10).Name)
	assert.Equal("BIT", ext.Lookup(0x89).Name)

	lda := core.GetInstructions("lda")
	if assert.Len(lda, 1) {
		assert.Equal(byte(0xa9), lda[0].Opcode)
	}
	assert.Empty(core.GetInstructions("BIT"))
}

func TestHandlers(t *testing.T) {
	assert := assert.New(t)

	c := NewCPU(Extended)
	c.Reg.PS = CarryBit | 0x3c

	c.lda(0x00)
	assert.Equal(ZeroBit|CarryBit|0x3c, c.Reg.PS)

	c.bit(0x40)
	assert.True(c.Reg.Zero())
	assert.True(c.Reg.Overflow())
	assert.False(c.Reg.Sign())

	c.lda(0x81)
	c.asl(0)
	assert.Equal(byte(0x02), c.Reg.A)
	assert.False(c.Reg.Carry())

	c.Reg.PC = 10
	c.bpl(5)
	assert.Equal(uint16(15), c.Reg.PC)

	c.lda(0x80)
	c.bpl(5)
	assert.Equal(uint16(15), c.Reg.PC)

	c.branch(0xff)
	assert.Equal(uint16(15+0xff), c.Reg.PC)

	c.clc(0)
	assert.False(c.Reg.Carry())
	assert.Equal(Status(0x3c), c.Reg.PS&0x3c)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "nv--zc", Status(0).String())
	assert.Equal(t, "NV--ZC", Status(0xff).String())
	assert.Equal(t, "Nv--zC", (SignBit | CarryBit).String())
}
