// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a disassembler for the tiny6502 instruction
// set.
package disasm

import (
	"fmt"

	"github.com/beevik/tiny6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"%s",   // IMP
	"A",    // ACC
	"#$%s", // IMM
	"$%s",  // REL
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice, most
// significant byte last in the slice.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in 'program' at offset 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// offset that starts the following instruction. Relative branch operands
// are shown as the absolute offset of the branch target. A missing operand
// byte at the end of the program is shown as "??".
func Disassemble(program []byte, addr uint16, set *cpu.InstructionSet) (line string, next uint16) {
	if int(addr) >= len(program) {
		return "", addr
	}

	inst := set.Lookup(program[addr])
	next = addr + uint16(inst.Length)

	if inst.Length == 1 {
		if inst.Mode == cpu.ACC {
			return inst.Name + " A", next
		}
		return inst.Name, next
	}

	operandAddr := int(addr) + 1
	if operandAddr >= len(program) {
		return fmt.Sprintf("%s "+modeFormat[inst.Mode], inst.Name, "??"), next
	}

	operand := []byte{program[operandAddr]}
	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := next + uint16(operand[0])
		operand = []byte{byte(braddr & 0xff), byte(braddr >> 8)}
	}

	format := "%s " + modeFormat[inst.Mode]
	line = fmt.Sprintf(format, inst.Name, hexString(operand))
	return line, next
}

// GetRegisterString returns a string describing the contents of the CPU
// registers.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X PS=[%s] SP=%02X PC=%04X",
		r.A, r.X, r.Y, r.PS.String(), r.SP, r.PC)
}
