// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beevik/tiny6502/cpu"
)

func assemble(code string, arch cpu.Architecture) (*Assembly, error) {
	r := bytes.NewReader([]byte(code))
	return Assemble(r, "test", arch, io.Discard, 0)
}

func checkASM(t *testing.T, asm string, expected string) {
	checkASMArch(t, asm, cpu.Core, expected)
}

func checkASMArch(t *testing.T, asm string, arch cpu.Architecture, expected string) {
	t.Helper()
	assembly, err := assemble(asm, arch)
	if err != nil {
		t.Error(err)
		return
	}

	b := make([]byte, len(assembly.Code)*2)
	for i, j := 0, 0; i < len(assembly.Code); i, j = i+1, j+2 {
		v := assembly.Code[i]
		b[j+0] = hex[v>>4]
		b[j+1] = hex[v&0x0f]
	}
	s := string(b)

	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
}

func checkASMError(t *testing.T, asm string, target error) {
	t.Helper()
	_, err := assemble(asm, cpu.Core)
	if err == nil {
		t.Errorf("Expected error on %s, didn't get one\n", asm)
		return
	}
	if !errors.Is(err, target) {
		t.Errorf("Expected '%v', got '%v'\n", target, err)
	}
}

func TestAddressingIMM(t *testing.T) {
	asm := `
	LDA #$20
	AND #$0F
	LDA #%1010
	LDA #'x'
	LDA #-1
	BRK`

	checkASM(t, asm, "A920290FA90AA978A9FF00")
}

func TestAddressingIMPACC(t *testing.T) {
	asm := `
	ASL A
	ASL
	CLC
	TAX
	BRK`

	checkASM(t, asm, "0A0A18AA00")
}

func TestAddressingREL(t *testing.T) {
	asm := `
	LDA #$05
	BCC skip
	LDA #$07
skip:
	BRK`

	checkASM(t, asm, "A9059002A90700")
}

func TestBranchToNumericTarget(t *testing.T) {
	asm := `
	BEQ $0004
	CLC
	CLC
	BRK`

	checkASM(t, asm, "F002181800")
}

func TestColumnZeroLabels(t *testing.T) {
	asm := `
start LDA #1
	BNE end
end	BRK`

	checkASM(t, asm, "A901D00000")
}

func TestEquates(t *testing.T) {
	asm := `
COUNT = 3
MASK .EQ COUNT * 2 + 1
LIMIT=$10
	LDA #COUNT
	AND #MASK
	LDA #LIMIT - 1
	BRK`

	checkASM(t, asm, "A9032907A90F00")
}

func TestEquateOnLabel(t *testing.T) {
	asm := `
	BNE there
	CLC
done:
	BRK
there = done`

	checkASM(t, asm, "D0011800")
}

func TestData(t *testing.T) {
	asm := `
	.DB $EA, %1010, 'x', 10
	.byte ';', ','   ; comment`

	checkASM(t, asm, "EA0A780A3B2C")
}

func TestComments(t *testing.T) {
	asm := `
; full-line comment
	LDA #1 ; trailing comment

	BRK`

	checkASM(t, asm, "A90100")
}

func TestArchitecture(t *testing.T) {
	asm := `
	BIT #$40
	BPL next
next:
	BRK`

	checkASMArch(t, asm, cpu.Extended, "8940100000")
	checkASMArch(t, ".arch extended\n"+asm, cpu.Core, "8940100000")

	_, err := assemble(asm, cpu.Core)
	assert.ErrorIs(t, err, ErrUnknownMnemonic)
}

func TestErrors(t *testing.T) {
	checkASMError(t, "\tFOO #1", ErrUnknownMnemonic)
	checkASMError(t, "\tLDA A", ErrBadOperand)
	checkASMError(t, "\tTAX #1", ErrBadOperand)
	checkASMError(t, "\tLDA", ErrBadOperand)
	checkASMError(t, "\tLDA #", ErrBadOperand)
	checkASMError(t, "\tLDA #  ; nothing\nend:\n\tBRK", ErrBadOperand)
	checkASMError(t, "loop:\n\tBNE loop", ErrBranchRange)
	checkASMError(t, "\tBNE $200", ErrBranchRange)
	checkASMError(t, "\tLDA #256", ErrValueRange)
	checkASMError(t, "\tLDA #-129", ErrValueRange)
	checkASMError(t, "a: BRK\na: BRK", ErrDuplicateLabel)
	checkASMError(t, "\tLDA #nothing", ErrExpression)
	checkASMError(t, "\tLDA #1 +", ErrExpression)
	checkASMError(t, "\t.db", ErrDirective)
	checkASMError(t, "\t.arch z80", ErrDirective)
	checkASMError(t, "\t.eq 5", ErrDirective)
	checkASMError(t, "1abc: BRK", ErrParse)
}

func TestSyntaxErrorPosition(t *testing.T) {
	assert := assert.New(t)

	assembly, err := assemble("\tLDA #1\n\tFOO\n\tBAR\n", cpu.Core)
	assert.Error(err)

	var se *SyntaxError
	if assert.ErrorAs(err, &se) {
		assert.Equal("test", se.File)
		assert.Equal(2, se.Line)
		assert.Equal(2, se.Column)
	}
	assert.True(IsSyntaxError(err))
	assert.Len(assembly.Errors, 2)
	assert.Contains(assembly.Errors[1], "line 3")
}

func TestLabels(t *testing.T) {
	assert := assert.New(t)

	assembly, err := assemble(`
	LDA #$05
	BCC skip
	LDA #$07
skip:
	BRK
VALUE = skip + 2`, cpu.Core)
	assert.NoError(err)
	assert.Equal(uint16(6), assembly.Labels["skip"])
	assert.Equal(uint16(8), assembly.Labels["VALUE"])
}

func TestEvalExpr(t *testing.T) {
	assert := assert.New(t)

	symbols := map[string]int{"x": 7}
	cases := []struct {
		expr string
		want int
	}{
		{"$10 + %11", 19},
		{"'A'", 65},
		{"x * 2", 14},
		{"(1 << 4) | 1", 17},
		{"x % 2", 1},
		{"$FF & ~$0F", 0xf0},
		{"-x", -7},
		{"7 %10", 7},
		{"x%1", 0},
		{"$1F %10", 1},
		{"(%10) + 1", 3},
		{"-%11", -3},
		{"1 + %11", 4},
	}
	for _, c := range cases {
		v, err := EvalExpr(c.expr, symbols)
		if assert.NoError(err, c.expr) {
			assert.Equal(c.want, v, c.expr)
		}
	}

	_, err := EvalExpr("", nil)
	assert.ErrorIs(err, ErrExpression)

	_, err = EvalExpr("1 +", nil)
	assert.ErrorIs(err, ErrExpression)

	_, err = EvalExpr("'a' + \"b\"", nil)
	assert.ErrorIs(err, ErrExpression)

	_, err = EvalExpr("undefined", nil)
	var ee *ExprError
	assert.ErrorAs(err, &ee)
	assert.Equal("undefined", ee.Expr)
}

func TestAssembleFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	err := os.WriteFile(path, []byte("\tLDA #$05\n\tTAX\n\tBRK\n"), 0600)
	assert.NoError(err)

	var out strings.Builder
	err = AssembleFile(path, cpu.Core, 0, &out)
	assert.NoError(err)
	assert.Contains(out.String(), "prog.bin")

	code, err := os.ReadFile(filepath.Join(dir, "prog.bin"))
	assert.NoError(err)
	assert.Equal([]byte{0xa9, 0x05, 0xaa, 0x00}, code)

	var a Assembly
	n, err := a.ReadFrom(bytes.NewReader(code))
	assert.NoError(err)
	assert.Equal(int64(4), n)
	assert.Equal(code, a.Code)
}

func TestAssembleFileError(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.asm")
	assert.NoError(os.WriteFile(path, []byte("\tFOO\n"), 0600))

	var out strings.Builder
	err := AssembleFile(path, cpu.Core, 0, &out)
	assert.ErrorIs(err, ErrUnknownMnemonic)
	assert.Contains(out.String(), "unknown mnemonic")

	_, err = os.Stat(filepath.Join(dir, "bad.bin"))
	assert.True(os.IsNotExist(err))
}

func TestVerbose(t *testing.T) {
	var out strings.Builder
	_, err := Assemble(strings.NewReader("\tLDA #1\n\tBRK"), "v", cpu.Core, &out, Verbose)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Parsing assembly code")
	assert.Contains(t, out.String(), "0000-*  A9 01")
}

func TestSegmentSizeMismatch(t *testing.T) {
	inst := cpu.GetInstructionSet(cpu.Core).Lookup(0xa9)
	l := &line{row: 1, full: "\tLDA #"}
	a := &assembler{
		filename: "test",
		symbols:  map[string]int{},
		segments: []*segment{{l: l, addr: 0, inst: inst}},
		out:      io.Discard,
	}

	a.generateCode()
	if assert.Len(t, a.errors, 1) {
		assert.ErrorIs(t, a.errors[0].err, ErrBadOperand)
	}
	assert.Equal(t, []byte{0xa9}, a.code)
}
