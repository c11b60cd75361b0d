// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beevik/tiny6502/cpu"
)

func FuzzInterpret(f *testing.F) {
	f.Add([]byte{0x90, 0x02, 0xa9, 0x05, 0x00}, false)
	f.Add([]byte{0xff}, false)
	f.Add([]byte{0xa9}, true)
	f.Add([]byte{0x89, 0xc0, 0x10, 0x01, 0x00}, true)

	f.Fuzz(func(t *testing.T, program []byte, extended bool) {
		if len(program) > 0xf000 {
			t.Skip("program counter would wrap")
		}
		assert := assert.New(t)

		arch := cpu.Core
		if extended {
			arch = cpu.Extended
		}

		c := cpu.NewCPU(arch)
		c.Reg.PS = 0x3c
		err := c.Interpret(program)

		// Branches never move backward, so every program terminates.
		assert.LessOrEqual(c.Steps, uint64(len(program)))
		assert.Equal(cpu.Status(0x3c), c.Reg.PS&0x3c)

		var uerr *cpu.UnknownOpcodeError
		var oerr *cpu.OutOfBoundsError
		switch {
		case err == nil:
			assert.True(c.Halted)
			assert.Equal(byte(0x00), program[c.LastPC])
		case errors.As(err, &uerr):
			assert.Less(int(uerr.Offset), len(program))
			assert.Equal(program[uerr.Offset], uerr.Opcode)
			assert.False(c.InstSet.Lookup(uerr.Opcode).Implemented())
		case errors.As(err, &oerr):
			assert.GreaterOrEqual(int(oerr.Offset), len(program))
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
