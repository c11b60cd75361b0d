// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"strings"
	"sync"
)

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symAND opsym = iota
	symASL
	symBCC
	symBCS
	symBEQ
	symBIT
	symBMI
	symBNE
	symBPL
	symBRK
	symBVC
	symCLC
	symLDA
	symTAX
)

type instfunc func(c *CPU, operand byte)

// Emulator implementation for each opcode
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symAND, "AND", (*CPU).and},
	{symASL, "ASL", (*CPU).asl},
	{symBCC, "BCC", (*CPU).bcc},
	{symBCS, "BCS", (*CPU).bcs},
	{symBEQ, "BEQ", (*CPU).beq},
	{symBIT, "BIT", (*CPU).bit},
	{symBMI, "BMI", (*CPU).bmi},
	{symBNE, "BNE", (*CPU).bne},
	{symBPL, "BPL", (*CPU).bpl},
	{symBRK, "BRK", (*CPU).brk},
	{symBVC, "BVC", (*CPU).bvc},
	{symCLC, "CLC", (*CPU).clc},
	{symLDA, "LDA", (*CPU).lda},
	{symTAX, "TAX", (*CPU).tax},
}

// Mode describes an operand addressing mode.
type Mode byte

// All supported addressing modes
const (
	IMP Mode = iota // Implied (no operand)
	ACC             // Accumulator (no operand)
	IMM             // Immediate
	REL             // Relative (unsigned forward offset)
)

var modeName = [...]string{"IMP", "ACC", "IMM", "REL"}

func (m Mode) String() string {
	if int(m) < len(modeName) {
		return modeName[m]
	}
	return "???"
}

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym    opsym // internal opcode symbol
	mode   Mode  // addressing mode
	opcode byte  // opcode hex value
	length byte  // length of opcode + operand in bytes
	ext    bool  // whether the opcode is wired only in the Extended set
}

// All valid (opcode, mode) pairs
var data = []opcodeData{
	{symBRK, IMP, 0x00, 1, false},
	{symASL, ACC, 0x0a, 1, false},
	{symCLC, IMP, 0x18, 1, false},
	{symAND, IMM, 0x29, 2, false},
	{symLDA, IMM, 0xa9, 2, false},
	{symTAX, IMP, 0xaa, 1, false},

	{symBMI, REL, 0x30, 2, false},
	{symBVC, REL, 0x50, 2, false},
	{symBCC, REL, 0x90, 2, false},
	{symBCS, REL, 0xb0, 2, false},
	{symBNE, REL, 0xd0, 2, false},
	{symBEQ, REL, 0xf0, 2, false},

	{symBPL, REL, 0x10, 2, true},
	{symBIT, IMM, 0x89, 2, true},
}

// UnusedName is the name given to opcodes with no implementation.
const UnusedName = "???"

// An Instruction describes a CPU instruction, including its name,
// its addressing mode, its opcode value and its length.
type Instruction struct {
	Name   string   // all-caps name of the instruction
	Mode   Mode     // addressing mode
	Opcode byte     // hexadecimal opcode value
	Length byte     // combined size of opcode and operand, in bytes
	fn     instfunc // emulator implementation of the function
}

// Implemented returns true if the instruction can be executed.
func (i *Instruction) Implemented() bool {
	return i.fn != nil
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	Arch         Architecture
	instructions [256]Instruction          // all instructions by opcode
	variants     map[string][]*Instruction // variants of each instruction
}

// Lookup retrieves a CPU instruction corresponding to the requested opcode.
// Opcodes without an implementation return an instruction whose
// Implemented method reports false.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return &s.instructions[opcode]
}

// GetInstructions returns all CPU instructions whose name matches the
// provided string.
func (s *InstructionSet) GetInstructions(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

// Create an instruction set for a CPU architecture.
func newInstructionSet(arch Architecture) *InstructionSet {
	set := &InstructionSet{
		Arch:     arch,
		variants: make(map[string][]*Instruction),
	}

	// Start with every opcode unimplemented.
	for i := range set.instructions {
		set.instructions[i] = Instruction{
			Name:   UnusedName,
			Mode:   IMP,
			Opcode: byte(i),
			Length: 1,
		}
	}

	// Create a map from symbol to implementation for fast lookups.
	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	for _, d := range data {
		if d.ext && arch != Extended {
			continue
		}

		impl := symToImpl[d.sym]
		inst := &set.instructions[d.opcode]
		inst.Name = impl.name
		inst.Mode = d.mode
		inst.Length = d.length
		inst.fn = impl.fn

		set.variants[inst.Name] = append(set.variants[inst.Name], inst)
	}

	return set
}

var (
	instructionSets    [2]*InstructionSet
	instructionSetOnce [2]sync.Once
)

// GetInstructionSet returns an instruction set for the requested CPU
// architecture. An unknown architecture returns the Core set.
func GetInstructionSet(arch Architecture) *InstructionSet {
	arch = arch.normalize()
	instructionSetOnce[arch].Do(func() {
		instructionSets[arch] = newInstructionSet(arch)
	})
	return instructionSets[arch]
}
