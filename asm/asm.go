// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass assembler for the tiny6502
// instruction set.
//
// Each source line holds an optional label followed by an instruction, a
// directive or an equate:
//
//	start:  LDA #$05      ; immediate operand
//	        ASL A         ; accumulator operand
//	        BCC done      ; relative branch to a label
//	        .DB $EA, %1010, 'x'
//	COUNT = 3
//	done:   BRK
//
// Branch targets are converted to unsigned forward offsets. A branch to a
// target behind the instruction cannot be encoded.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/beevik/tiny6502/cpu"
)

type pseudoOpData struct {
	fn func(a *assembler, l *line, label, remain string) error
}

var pseudoOps = map[string]pseudoOpData{
	".ar":   {fn: (*assembler).parseArch},
	".arch": {fn: (*assembler).parseArch},
	".db":   {fn: (*assembler).parseData},
	".byte": {fn: (*assembler).parseData},
	".eq":   {fn: (*assembler).parseEquate},
	".equ":  {fn: (*assembler).parseEquate},
	"=":     {fn: (*assembler).parseEquate},
}

var equateLine = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)

// A line of source code.
type line struct {
	row  int    // 1-based line number
	full string // complete line of text
}

// Return the 1-based column of 'part' within the line.
func (l *line) column(part string) int {
	if i := strings.Index(l.full, part); i >= 0 && part != "" {
		return i + 1
	}
	return 1
}

// A segment is a chunk of machine code: a single instruction or a group of
// data bytes.
type segment struct {
	l     *line
	addr  int              // offset assigned to the segment
	inst  *cpu.Instruction // selected instruction, nil for data
	exprs []string         // operand or data expressions
}

func (s *segment) size() int {
	if s.inst != nil {
		return int(s.inst.Length)
	}
	return len(s.exprs)
}

type equate struct {
	l    *line
	name string
	expr string
}

// An error encountered during assembly.
type asmerror struct {
	l   *line
	col int
	err error
}

// The assembler is a state object used during the assembly of machine
// code from assembly code.
type assembler struct {
	filename string
	instSet  *cpu.InstructionSet // instructions on current arch
	pc       int                 // the program counter
	code     []byte              // generated machine code
	r        io.Reader           // the reader passed to Assemble
	labels   map[string]int      // label -> offset
	equates  []equate            // equates in source order
	symbols  map[string]int      // resolved labels and equates
	segments []*segment          // segments of machine code
	out      io.Writer           // output used for verbose output
	verbose  bool                // verbose output
	errors   []asmerror          // errors encountered during assembly
}

// Assembly contains the assembled machine code and other data associated
// with the machine code.
type Assembly struct {
	Code   []byte            // Assembled machine code
	Labels map[string]uint16 // Label and equate values
	Errors []string          // Errors encountered during assembly
}

// ReadFrom reads machine code from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Errors = []string{}
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if n > 0x10000 {
		return n, fmt.Errorf("code exceeded 64K size")
	}
	return n, err
}

// WriteTo saves machine code as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

// Option type used by the Assembly function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// AssembleFile reads a file containing assembly code, assembles it, and
// produces a binary output file with the same name and a .bin extension.
func AssembleFile(path string, arch cpu.Architecture, options Option, out io.Writer) error {
	inFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer inFile.Close()

	assembly, err := Assemble(inFile, path, arch, out, options)
	if err != nil {
		for _, e := range assembly.Errors {
			fmt.Fprintln(out, e)
		}
		return err
	}

	ext := filepath.Ext(path)
	binPath := path[:len(path)-len(ext)] + ".bin"
	binFile, err := os.OpenFile(binPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer binFile.Close()

	_, err = assembly.WriteTo(binFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Assembled '%s' to produce '%s'.\n",
		filepath.Base(path),
		filepath.Base(binPath))
	return nil
}

// Assemble reads data from the provided stream and attempts to assemble it
// into byte code. On failure the returned error is the first *SyntaxError,
// and the Assembly lists every error encountered.
func Assemble(r io.Reader, filename string, arch cpu.Architecture, out io.Writer, options Option) (*Assembly, error) {
	if out == nil {
		out = os.Stdout
	}

	a := &assembler{
		filename: filename,
		instSet:  cpu.GetInstructionSet(arch),
		r:        r,
		labels:   make(map[string]int),
		symbols:  make(map[string]int),
		out:      out,
		verbose:  (options & Verbose) != 0,
	}

	// Assembly consists of the following steps
	steps := []func(a *assembler) error{
		(*assembler).parse,           // Parse the assembly code and assign offsets
		(*assembler).evaluateEquates, // Resolve equates with all labels known
		(*assembler).generateCode,    // Generate the machine code
	}

	// Execute assembler steps, breaking if an error is encountered
	// in any one of them.
	var err error
	for _, step := range steps {
		err = step(a)
		if err != nil {
			break
		}
		if len(a.errors) > 0 {
			break
		}
	}

	errs := make([]string, 0, len(a.errors))
	for _, e := range a.errors {
		errs = append(errs, a.syntaxError(e).Error())
	}
	if err == nil && len(a.errors) > 0 {
		err = a.syntaxError(a.errors[0])
	}

	labels := make(map[string]uint16, len(a.symbols))
	for k, v := range a.symbols {
		labels[k] = uint16(v)
	}

	assembly := &Assembly{
		Code:   a.code,
		Labels: labels,
		Errors: errs,
	}
	return assembly, err
}

func (a *assembler) syntaxError(e asmerror) *SyntaxError {
	return &SyntaxError{File: a.filename, Line: e.l.row, Column: e.col, Err: e.err}
}

// Read the assembly code and perform the initial parsing. Build up machine
// code segments, the label table and the equate list.
func (a *assembler) parse() error {
	a.logSection("Parsing assembly code")

	scanner := bufio.NewScanner(a.r)
	row := 0
	for scanner.Scan() {
		row++
		l := &line{row: row, full: scanner.Text()}
		a.parseLine(l)
	}
	return scanner.Err()
}

// Parse a single line of assembly code.
func (a *assembler) parseLine(l *line) {
	text := stripComment(l.full)
	if strings.TrimSpace(text) == "" {
		return
	}

	// NAME = expr, with or without surrounding spaces.
	if m := equateLine.FindStringSubmatch(text); m != nil {
		if err := a.parseEquate(l, m[1], m[2]); err != nil {
			a.addError(l, m[1], err)
		}
		return
	}

	// A label ends with a colon or begins in the first column. Mnemonics
	// and directives in the first column are not labels.
	var label string
	first, rest := nextField(text)
	switch {
	case strings.HasSuffix(first, ":"):
		label, text = strings.TrimSuffix(first, ":"), rest
	case !unicode.IsSpace(rune(text[0])) && !a.isKeyword(first):
		label, text = first, rest
	}

	op, remain := nextField(text)
	if label != "" && !isIdentifier(label) {
		a.addError(l, label, fmt.Errorf("%w: '%s'", ErrParse, label))
		return
	}

	// Equates and other pseudo-ops.
	if pseudo, ok := pseudoOps[strings.ToLower(op)]; ok {
		if err := pseudo.fn(a, l, label, remain); err != nil {
			a.addError(l, op, err)
		}
		return
	}

	if label != "" {
		if err := a.storeLabel(label); err != nil {
			a.addError(l, label, err)
			return
		}
		a.logLine(l, "label=%s", label)
	}

	if op == "" {
		return
	}
	if err := a.parseInstruction(l, op, remain); err != nil {
		a.addError(l, op, err)
	}
}

// Return true if 'word' names a directive or an instruction.
func (a *assembler) isKeyword(word string) bool {
	if _, ok := pseudoOps[strings.ToLower(word)]; ok {
		return true
	}
	return len(a.instSet.GetInstructions(word)) > 0
}

func (a *assembler) storeLabel(label string) error {
	if _, ok := a.labels[label]; ok {
		return fmt.Errorf("%w: '%s'", ErrDuplicateLabel, label)
	}
	a.labels[label] = a.pc
	a.symbols[label] = a.pc
	return nil
}

func (a *assembler) parseArch(l *line, label, remain string) error {
	name, _ := nextField(remain)
	arch, err := cpu.ParseArchitecture(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirective, err)
	}
	a.instSet = cpu.GetInstructionSet(arch)
	a.logLine(l, "arch=%s", arch)
	return nil
}

func (a *assembler) parseEquate(l *line, label, remain string) error {
	if label == "" {
		return fmt.Errorf("%w: equate without a name", ErrDirective)
	}
	if _, ok := a.labels[label]; ok {
		return fmt.Errorf("%w: '%s'", ErrDuplicateLabel, label)
	}
	a.labels[label] = -1
	a.equates = append(a.equates, equate{l: l, name: label, expr: strings.TrimSpace(remain)})
	a.logLine(l, "equ=%s", label)
	return nil
}

func (a *assembler) parseData(l *line, label, remain string) error {
	if label != "" {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}

	var exprs []string
	for _, e := range splitList(remain) {
		if e = strings.TrimSpace(e); e != "" {
			exprs = append(exprs, e)
		}
	}
	if len(exprs) == 0 {
		return fmt.Errorf("%w: data directive without values", ErrDirective)
	}

	a.segments = append(a.segments, &segment{l: l, addr: a.pc, exprs: exprs})
	a.logLine(l, "data=%d bytes", len(exprs))
	a.pc += len(exprs)
	return nil
}

// Select the instruction variant matching the syntactic operand form.
func (a *assembler) parseInstruction(l *line, op, remain string) error {
	variants := a.instSet.GetInstructions(op)
	if len(variants) == 0 {
		return fmt.Errorf("%w: '%s'", ErrUnknownMnemonic, op)
	}

	operand := strings.TrimSpace(remain)
	var modes []cpu.Mode
	var expr string
	switch {
	case operand == "":
		modes = []cpu.Mode{cpu.IMP, cpu.ACC}
	case strings.EqualFold(operand, "A"):
		modes = []cpu.Mode{cpu.ACC}
	case operand[0] == '#':
		modes, expr = []cpu.Mode{cpu.IMM}, strings.TrimSpace(operand[1:])
		if expr == "" {
			return fmt.Errorf("%w: %s %s", ErrBadOperand, strings.ToUpper(op), operand)
		}
	default:
		modes, expr = []cpu.Mode{cpu.REL}, operand
	}

	var inst *cpu.Instruction
	for _, v := range variants {
		for _, m := range modes {
			if v.Mode == m {
				inst = v
			}
		}
	}
	if inst == nil {
		return fmt.Errorf("%w: %s %s", ErrBadOperand, strings.ToUpper(op), operand)
	}

	seg := &segment{l: l, addr: a.pc, inst: inst}
	if expr != "" {
		seg.exprs = []string{expr}
	}
	a.segments = append(a.segments, seg)
	a.logLine(l, "op=%s mode=%s", inst.Name, inst.Mode)
	a.pc += seg.size()
	return nil
}

// Evaluate equates in source order. Labels are all known by now, and an
// equate may refer to any label and to any earlier equate.
func (a *assembler) evaluateEquates() error {
	a.logSection("Evaluating equates")
	for _, e := range a.equates {
		v, err := EvalExpr(e.expr, a.symbols)
		if err != nil {
			a.addError(e.l, e.expr, err)
			continue
		}
		a.symbols[e.name] = v
		a.logLine(e.l, "%s=$%04X", e.name, v)
	}
	return nil
}

// Generate machine code for every segment.
func (a *assembler) generateCode() error {
	a.logSection("Generating code")

	a.code = make([]byte, 0, a.pc)
	for _, s := range a.segments {
		var b []byte
		if s.inst != nil {
			b = append(b, s.inst.Opcode)
		}
		for _, e := range s.exprs {
			v, err := EvalExpr(e, a.symbols)
			if err != nil {
				a.addError(s.l, e, err)
				v = 0
			}

			switch {
			case s.inst != nil && s.inst.Mode == cpu.REL:
				off, err := relOffset(v, s.addr+int(s.inst.Length))
				if err != nil {
					a.addError(s.l, e, fmt.Errorf("%w: $%04X from $%04X", err, v, s.addr))
				}
				b = append(b, off)
			default:
				if v < -128 || v > 0xff {
					a.addError(s.l, e, fmt.Errorf("%w: %d", ErrValueRange, v))
				}
				b = append(b, byte(v))
			}
		}
		if len(b) != s.size() {
			err := fmt.Errorf("%w: %d bytes generated, %d expected", ErrBadOperand, len(b), s.size())
			a.addError(s.l, strings.TrimSpace(s.l.full), err)
		}
		a.logBytes(s.addr, b)
		a.code = append(a.code, b...)
	}
	return nil
}

func (a *assembler) addError(l *line, part string, err error) {
	e := asmerror{l: l, col: l.column(part), err: err}
	a.errors = append(a.errors, e)
	if a.verbose {
		fmt.Fprintln(a.out, a.syntaxError(e))
		fmt.Fprintln(a.out, l.full)
		fmt.Fprintln(a.out, strings.Repeat("-", e.col-1)+"^")
	}
}

// In verbose mode, log a string to the output.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintf(a.out, "\n")
	}
}

// In verbose mode, log a string and its associated line of assembly code.
func (a *assembler) logLine(l *line, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-3d | %-20s | %s\n", l.row, detail, strings.TrimSpace(l.full))
	}
}

// In verbose mode, log a series of bytes with starting address.
func (a *assembler) logBytes(addr int, b []byte) {
	if a.verbose {
		for i, n := 0, len(b); i < n; i += 3 {
			j := min(i+3, n)
			a.log("%04X-*  %s", addr+i, byteString(b[i:j]))
		}
	}
}

// In verbose mode, log a section header to the output.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}

// Compute the unsigned forward offset from 'from' to 'target'. The
// processor does not sign extend branch offsets, so only 0..255 can be
// encoded.
func relOffset(target, from int) (byte, error) {
	diff := target - from
	if diff < 0 || diff > 0xff {
		return 0, ErrBranchRange
	}
	return byte(diff), nil
}

// IsSyntaxError returns true if err is an assembly syntax error.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
