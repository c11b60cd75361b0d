// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a small 8-bit accumulator processor modeled on
// a subset of the 6502 instruction set.
//
// The processor executes a flat, immutable program buffer. The program
// counter is an offset into that buffer. Only implied, accumulator,
// immediate and (forward-only) relative operands exist.
package cpu

import (
	"errors"
	"strings"
)

// Architecture selects the instruction set wired into the CPU.
type Architecture byte

const (
	// Core wires the base instruction set only.
	Core Architecture = iota

	// Extended adds the BIT and BPL instructions to the Core set.
	Extended
)

func (a Architecture) String() string {
	switch a {
	case Core:
		return "core"
	case Extended:
		return "extended"
	default:
		return "unknown"
	}
}

// Unrecognized architecture values are treated as Core.
func (a Architecture) normalize() Architecture {
	if a > Extended {
		return Core
	}
	return a
}

// ParseArchitecture converts an architecture name to an Architecture.
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(s) {
	case "core", "":
		return Core, nil
	case "extended", "ext":
		return Extended, nil
	default:
		return Core, errors.New(f("unknown architecture '%s'", s))
	}
}

// CPU represents a single emulated processor. It is not safe for
// concurrent use.
type CPU struct {
	Arch     Architecture    // CPU architecture
	Reg      Registers       // CPU registers
	InstSet  *InstructionSet // Instruction set used by the CPU
	Steps    uint64          // total executed instructions
	LastPC   uint16          // offset of the most recently executed instruction
	Halted   bool            // a BRK instruction has been executed
	program  []byte
	debugger *Debugger
}

// NewCPU creates an emulated CPU with all registers zeroed. An unknown
// architecture falls back to Core.
func NewCPU(arch Architecture) *CPU {
	arch = arch.normalize()
	cpu := &CPU{
		Arch:    arch,
		InstSet: GetInstructionSet(arch),
	}

	cpu.Reg.Init()
	return cpu
}

// Program returns the program currently bound to the CPU.
func (cpu *CPU) Program() []byte {
	return cpu.program
}

// Load binds a program to the CPU and resets the program counter to
// zero. Registers and flags keep their current values.
func (cpu *CPU) Load(program []byte) {
	cpu.program = program
	cpu.Reg.PC = 0
	cpu.Halted = false
}

// SetPC updates the CPU program counter to 'offset'.
func (cpu *CPU) SetPC(offset uint16) {
	cpu.Reg.PC = offset
}

// Interpret runs the program from offset zero until a BRK instruction
// halts the CPU or an error occurs. Effects of instructions executed before
// an error remain visible in the registers.
func (cpu *CPU) Interpret(program []byte) error {
	cpu.Load(program)
	for !cpu.Halted {
		if err := cpu.Step(); err != nil {
			return err
		}
	}
	return nil
}

// GetInstruction returns the instruction at the requested program offset,
// or nil if the offset lies outside the program.
func (cpu *CPU) GetInstruction(offset uint16) *Instruction {
	if int(offset) >= len(cpu.program) {
		return nil
	}
	return cpu.InstSet.Lookup(cpu.program[offset])
}

// Step the cpu by one instruction. Stepping a halted CPU does nothing.
func (cpu *CPU) Step() error {
	if cpu.Halted {
		return nil
	}

	// Grab the next opcode at the current PC
	pc := cpu.Reg.PC
	opcode, err := cpu.fetch()
	if err != nil {
		return err
	}

	// Look up the instruction data for the opcode
	inst := cpu.InstSet.Lookup(opcode)
	if !inst.Implemented() {
		return &UnknownOpcodeError{Opcode: opcode, Offset: pc}
	}

	// Fetch the operand (if any)
	var operand byte
	if inst.Length > 1 {
		operand, err = cpu.fetch()
		if err != nil {
			return err
		}
	}

	// Execute the instruction
	cpu.LastPC = pc
	inst.fn(cpu, operand)
	cpu.Steps++

	// Update the debugger so it can handle breakpoints.
	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
	return nil
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
}

// DetachDebugger detaches the current debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
}

// Read the byte at the program counter and advance it.
func (cpu *CPU) fetch() (byte, error) {
	if int(cpu.Reg.PC) >= len(cpu.program) {
		return 0, &OutOfBoundsError{Offset: cpu.Reg.PC}
	}
	v := cpu.program[cpu.Reg.PC]
	cpu.Reg.PC++
	return v, nil
}

// Execute a branch using the instruction operand. The offset is not sign
// extended, so branches only move forward.
func (cpu *CPU) branch(operand byte) {
	cpu.Reg.PC += uint16(operand)
}

// Update the Zero and Negative flags based on the value of 'v'.
func (cpu *CPU) updateNZ(v byte) {
	cpu.Reg.SetStatus(ZeroBit, v == 0)
	cpu.Reg.SetStatus(SignBit, (v&0x80) != 0)
}

// Boolean AND
func (cpu *CPU) and(operand byte) {
	cpu.Reg.A &= operand
	cpu.updateNZ(cpu.Reg.A)
}

// Arithmetic Shift Left (accumulator). Carry is taken from bit 0 of the
// shifted result.
func (cpu *CPU) asl(operand byte) {
	v := cpu.Reg.A << 1
	cpu.Reg.SetStatus(CarryBit, (v&0x01) != 0)
	cpu.updateNZ(v)
	cpu.Reg.A = v
}

// Branch if Carry Clear
func (cpu *CPU) bcc(operand byte) {
	if !cpu.Reg.Carry() {
		cpu.branch(operand)
	}
}

// Branch if Carry Set
func (cpu *CPU) bcs(operand byte) {
	if cpu.Reg.Carry() {
		cpu.branch(operand)
	}
}

// Branch if EQual (to zero)
func (cpu *CPU) beq(operand byte) {
	if cpu.Reg.Zero() {
		cpu.branch(operand)
	}
}

// Bit Test
func (cpu *CPU) bit(operand byte) {
	cpu.Reg.SetStatus(ZeroBit, (operand&cpu.Reg.A) == 0)
	cpu.Reg.SetStatus(OverflowBit, (operand&0x40) != 0)
	cpu.Reg.SetStatus(SignBit, (operand&0x80) != 0)
}

// Branch if MInus (negative)
func (cpu *CPU) bmi(operand byte) {
	if cpu.Reg.Sign() {
		cpu.branch(operand)
	}
}

// Branch if Not Equal (not zero)
func (cpu *CPU) bne(operand byte) {
	if !cpu.Reg.Zero() {
		cpu.branch(operand)
	}
}

// Branch if PLus (positive)
func (cpu *CPU) bpl(operand byte) {
	if !cpu.Reg.Sign() {
		cpu.branch(operand)
	}
}

// Break (halt)
func (cpu *CPU) brk(operand byte) {
	cpu.Halted = true
}

// Branch if oVerflow Clear
func (cpu *CPU) bvc(operand byte) {
	if !cpu.Reg.Overflow() {
		cpu.branch(operand)
	}
}

// Clear Carry flag
func (cpu *CPU) clc(operand byte) {
	cpu.Reg.SetStatus(CarryBit, false)
}

// load Accumulator
func (cpu *CPU) lda(operand byte) {
	cpu.Reg.A = operand
	cpu.updateNZ(cpu.Reg.A)
}

// Transfer Accumulator to X register
func (cpu *CPU) tax(operand byte) {
	cpu.Reg.X = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.X)
}
