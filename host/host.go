// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that drives a tiny6502 CPU
// from a line-oriented command shell, with a built-in assembler, a
// built-in debugger, and other useful tools.
//
// Within the host it is possible to assemble and load programs, step
// through machine code, set breakpoints, disassemble the program,
// manipulate CPU registers, and evaluate arbitrary expressions.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"

	"github.com/beevik/tiny6502/asm"
	"github.com/beevik/tiny6502/cpu"
	"github.com/beevik/tiny6502/disasm"
	"github.com/beevik/tiny6502/translate"
)

var f = translate.From

// Errors reported by the host.
var (
	// ErrStepLimit is reported when a run executes MaxSteps instructions
	// without halting.
	ErrStepLimit = errors.New(f("step limit reached"))

	errQuit        = errors.New(f("exiting program"))
	errInvalidType = errors.New(f("invalid type"))
)

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displaySteps

	displayAll = displayRegisters | displaySteps
)

type state int32

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

// A Host represents a tiny6502 CPU with a program, a built-in assembler,
// a built-in debugger, and other useful tools.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	arch        cpu.Architecture
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	labels      map[string]uint16
	lastCmd     *selection
	state       atomic.Int32
	settings    *settings
}

// New creates a new host environment for a CPU of the given architecture.
func New(arch cpu.Architecture) *Host {
	h := &Host{
		output:   bufio.NewWriter(os.Stdout),
		arch:     arch,
		labels:   make(map[string]uint16),
		settings: newSettings(),
	}

	// Create the emulated CPU.
	h.cpu = cpu.NewCPU(arch)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// CPU returns the emulated CPU.
func (h *Host) CPU() *cpu.CPU {
	return h.cpu
}

// Load replaces the current program and resets the program counter.
func (h *Host) Load(program []byte) {
	h.setProgram(program, nil)
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
		h.displayPC()
	}

	h.processCommands()
	h.flush()
}

// Process commands until the input is exhausted or a command asks to
// quit.
func (h *Host) processCommands() error {
	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return err
		}

		var c selection
		if strings.TrimSpace(line) != "" {
			n, args, err := cmds.Lookup(line)
			if err != nil {
				h.printf("%v.\n", err)
				continue
			}

			node, ok := n.(*cmd.Command)
			if !ok {
				h.displayCommands(n.(*cmd.Tree))
				continue
			}
			c = selection{command: node, args: args}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.command.Data.(func(*Host, selection) error)
		err = handler(h, c)
		if err != nil {
			return err
		}
	}
}

// Break interrupts a running CPU. It may be called from any goroutine.
func (h *Host) Break() {
	h.state.CompareAndSwap(int32(stateRunning), int32(stateProcessingCommands))
}

// AssembleFile assembles a file and writes the machine code to a binary
// file with the same name and a .bin extension.
func (h *Host) AssembleFile(filename string) error {
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}
	err := asm.AssembleFile(filename, h.arch, 0, h.output)
	h.flush()
	return err
}

func (h *Host) getState() state {
	return state(h.state.Load())
}

func (h *Host) setState(s state) {
	h.state.Store(int32(s))
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdAssemble(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	filename := c.args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	var options asm.Option
	if len(c.args) > 1 {
		verbose, err := stringToBool(c.args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if verbose {
			options |= asm.Verbose
		}
	}

	err := asm.AssembleFile(filename, h.arch, options, h.output)
	if err != nil {
		h.printf("Failed to assemble '%s'.\n", filepath.Base(filename))
	}
	h.flush()
	return nil
}

func (h *Host) cmdBreakpointList(c selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	addr, err := h.parseExpr(c.args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c selection) error {
	b := h.lookupBreakpoint(c)
	if b != nil {
		h.debugger.RemoveBreakpoint(b.Address)
		h.printf("Breakpoint at $%04X removed.\n", b.Address)
	}
	return nil
}

func (h *Host) cmdBreakpointEnable(c selection) error {
	b := h.lookupBreakpoint(c)
	if b != nil {
		b.Disabled = false
		h.printf("Breakpoint at $%04X enabled.\n", b.Address)
	}
	return nil
}

func (h *Host) cmdBreakpointDisable(c selection) error {
	b := h.lookupBreakpoint(c)
	if b != nil {
		b.Disabled = true
		h.printf("Breakpoint at $%04X disabled.\n", b.Address)
	}
	return nil
}

// Find the breakpoint named by the first command argument, reporting
// any problem to the user.
func (h *Host) lookupBreakpoint(c selection) *cpu.Breakpoint {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	addr, err := h.parseExpr(c.args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
	}
	return b
}

func (h *Host) cmdCode(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	program := make([]byte, 0, len(c.args))
	for _, a := range c.args {
		v, err := h.evalExpr(a)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if v < -128 || v > 0xff {
			h.printf("Value '%s' does not fit in a byte.\n", a)
			return nil
		}
		program = append(program, byte(v))
	}

	h.setProgram(program, nil)
	h.printf("Loaded %d bytes.\n", len(program))
	h.displayPC()
	return nil
}

func (h *Host) cmdDisassemble(c selection) error {
	if len(c.args) == 0 {
		c.args = []string{"$"}
	}

	var addr uint16
	switch c.args[0] {
	case "$":
		addr = h.settings.NextDisasmAddr
	case ".":
		addr = h.cpu.Reg.PC
	default:
		a, err := h.parseExpr(c.args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.args) > 1 {
		l, err := h.parseExpr(c.args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines && int(addr) < len(h.cpu.Program()); i++ {
		d, next := h.disassemble(addr, 0)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	expr := strings.Join(c.args, " ")
	v, err := h.evalExpr(expr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X (%d)\n", uint16(v), v)
	return nil
}

func (h *Host) cmdExecute(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	file, err := os.Open(c.args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	defer file.Close()

	input, interactive := h.input, h.interactive
	h.input, h.interactive = bufio.NewScanner(file), false
	err = h.processCommands()
	h.input, h.interactive = input, interactive
	h.lastCmd = nil

	if errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func (h *Host) cmdHelp(c selection) error {
	if len(c.args) == 0 {
		h.displayCommands(cmds)
		return nil
	}

	n, _, err := cmds.Lookup(strings.Join(c.args, " "))
	if err != nil {
		h.printf("%v.\n", err)
		return nil
	}

	switch node := n.(type) {
	case *cmd.Tree:
		h.displayCommands(node)
	case *cmd.Command:
		if node.Usage != "" {
			h.printf("Syntax: %s\n\n", node.Usage)
		}
		switch {
		case node.Description != "":
			h.printf("Description:\n%s\n\n", indentWrap(3, node.Description))
		case node.Brief != "":
			h.printf("Description:\n%s.\n\n", indentWrap(3, node.Brief))
		}
		node.DisplayShortcuts(h.output)
		h.flush()
	}
	return nil
}

func (h *Host) cmdLoad(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c.command)
		return nil
	}

	filename := c.args[0]
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	err := h.load(filename)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.displayPC()
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return errQuit
}

func (h *Host) cmdRegister(c selection) error {
	if len(c.args) == 0 {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
		return nil
	}
	if len(c.args) < 2 {
		h.displayUsage(c.command)
		return nil
	}

	key := strings.ToLower(c.args[0])
	v, err := h.evalExpr(strings.Join(c.args[1:], " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	r := &h.cpu.Reg
	switch key {
	case "a":
		r.A = byte(v)
	case "x":
		r.X = byte(v)
	case "y":
		r.Y = byte(v)
	case "sp":
		r.SP = byte(v)
	case "pc", ".":
		key = "pc"
		r.PC = uint16(v)
	default:
		bit, ok := flagNames[key]
		if !ok {
			h.printf("Unknown register '%s'.\n", c.args[0])
			return nil
		}
		r.SetStatus(bit, v != 0)
		h.printf("Flag %s set to %v.\n", strings.ToUpper(key), v != 0)
		return nil
	}

	if key == "pc" {
		h.printf("Register PC set to $%04X.\n", r.PC)
	} else {
		h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), byte(v))
	}
	return nil
}

func (h *Host) cmdReset(c selection) error {
	h.cpu.Load(h.cpu.Program())
	h.settings.NextDisasmAddr = 0
	h.println("Program counter reset.")
	h.displayPC()
	return nil
}

func (h *Host) cmdRun(c selection) error {
	if h.cpu.Halted {
		h.println("CPU is halted. Use reset to restart the program.")
		return nil
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)

	err := h.run()
	switch {
	case err != nil:
		h.printf("%v.\n", err)
		h.displayPC()
	case h.cpu.Halted:
		h.printf("CPU halted at $%04X after %d steps.\n", h.cpu.LastPC, h.cpu.Steps)
		h.displayPC()
	case h.getState() == stateProcessingCommands:
		h.println("Break.")
		h.displayPC()
	}
	h.setState(stateProcessingCommands)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c.command)

	default:
		key, value := strings.ToLower(c.args[0]), strings.Join(c.args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.String:
			err = h.settings.Set(key, value)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v int
			v, err = h.evalExpr(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

func (h *Host) cmdStep(c selection) error {
	// Parse the number of steps.
	count := 1
	if len(c.args) > 0 {
		n, err := h.parseExpr(c.args[0])
		if err == nil {
			count = int(n)
		}
	}

	// Step the CPU count times.
	h.setState(stateRunning)
	for i := count - 1; i >= 0 && h.getState() == stateRunning; i-- {
		if h.cpu.Halted {
			h.println("CPU is halted.")
			break
		}
		if err := h.step(); err != nil {
			h.printf("%v.\n", err)
			break
		}
		switch {
		case i == h.settings.StepLinesToDisplay:
			h.println("...")
		case i < h.settings.StepLinesToDisplay:
			h.displayPC()
		}
	}
	h.setState(stateProcessingCommands)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	h.lastCmd.args = []string{}
	return nil
}

// Load a program file. Assembly source is assembled in memory.
func (h *Host) load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".asm") {
		assembly, err := asm.Assemble(file, filename, h.arch, h.output, 0)
		if err != nil {
			for _, e := range assembly.Errors {
				h.println(e)
			}
			return fmt.Errorf("failed to assemble '%s'", filepath.Base(filename))
		}
		h.setProgram(assembly.Code, assembly.Labels)
	} else {
		var a asm.Assembly
		if _, err := a.ReadFrom(file); err != nil {
			return err
		}
		h.setProgram(a.Code, nil)
	}

	h.printf("Loaded '%s' (%d bytes).\n", filepath.Base(filename), len(h.cpu.Program()))
	return nil
}

func (h *Host) setProgram(program []byte, labels map[string]uint16) {
	if labels == nil {
		labels = make(map[string]uint16)
	}
	h.cpu.Load(program)
	h.labels = labels
	h.settings.NextDisasmAddr = 0
}

// Execute a single instruction, displaying it first when tracing.
func (h *Host) step() error {
	if h.settings.Trace {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayRegisters)
		h.println(d)
	}
	return h.cpu.Step()
}

// Run the CPU until it halts, fails, hits a breakpoint, is interrupted or
// executes MaxSteps instructions.
func (h *Host) run() error {
	h.setState(stateRunning)
	for n := 0; h.getState() == stateRunning; n++ {
		if h.settings.MaxSteps > 0 && n >= h.settings.MaxSteps {
			return ErrStepLimit
		}
		if err := h.step(); err != nil {
			return err
		}
		if h.cpu.Halted {
			return nil
		}
	}
	return nil
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	program := h.cpu.Program()

	var line string
	line, next = disasm.Disassemble(program, addr, h.cpu.InstSet)

	var b []byte
	if int(addr) < len(program) {
		end := min(int(next), len(program))
		b = program[addr:end]
	}

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.cpu.Reg)
	}

	if (flags & displaySteps) != 0 {
		str += fmt.Sprintf(" S=%-10d", h.cpu.Steps)
	}

	return str, next
}

func (h *Host) displayUsage(c *cmd.Command) {
	if c.Usage != "" {
		h.printf("Syntax: %s\n", c.Usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(t *cmd.Tree) {
	t.DisplayHelp(h.output)
	h.flush()
}

func (h *Host) onBreakpoint(cpu *cpu.CPU, b *cpu.Breakpoint) {
	if h.getState() != stateRunning {
		return
	}
	h.setState(stateBreakpoint)
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}
