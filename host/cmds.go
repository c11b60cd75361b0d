// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"

	"github.com/beevik/cmd"
)

// A command selected from a line of input, along with its arguments.
type selection struct {
	command *cmd.Command
	args    []string
}

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "tiny6502"})

	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "assemble",
		Brief: "Assemble a file and save the binary",
		Description: "Run the cross-assembler on the specified file," +
			" producing a binary file if successful. If you want verbose" +
			" output, specify true as a second parameter.",
		Usage: "assemble <filename> [<verbose>]",
		Data:  (*Host).cmdAssemble,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified program offset." +
			" The breakpoint starts enabled.",
		Usage: "breakpoint add <offset>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified program offset.",
		Usage:       "breakpoint remove <offset>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <offset>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		Usage: "breakpoint disable <offset>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "code",
		Brief: "Load a program from byte values",
		Description: "Replace the current program with the listed byte" +
			" values. Each byte may be an expression.",
		Usage: "code <byte> [<byte> ...]",
		Data:  (*Host).cmdCode,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble the program starting at the requested" +
			" offset. The number of instruction lines to disassemble may be" +
			" specified as an option. If no offset is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<offset>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "evaluate",
		Brief: "Evaluate an expression",
		Description: "Evaluate a mathematical expression. Register names" +
			" and the labels of the loaded program may be used.",
		Usage: "evaluate <expression>",
		Data:  (*Host).cmdEvaluate,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "execute",
		Brief: "Execute a script file",
		Description: "Load a script file from disk and execute the" +
			" commands it contains.",
		Usage: "execute <filename>",
		Data:  (*Host).cmdExecute,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a program file",
		Description: "Load a program from disk and reset the program" +
			" counter. A file with the .asm extension is assembled first" +
			" and its labels become available to expressions. Any other" +
			" file is loaded as raw machine code.",
		Usage: "load <filename>",
		Data:  (*Host).cmdLoad,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "View or change register values",
		Description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's status" +
			" flags. Allowed register names include A, X, Y, PC and SP. Allowed status" +
			" flag names include N (Sign), Z (Zero), C (Carry) and V (Overflow).",
		Usage: "register [<name> <value>]",
		Data:  (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "reset",
		Brief: "Reset the program counter",
		Description: "Set the program counter to zero and clear the halted" +
			" state. Registers and flags keep their values.",
		Usage: "reset",
		Data:  (*Host).cmdReset,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU until it halts, fails, hits a breakpoint," +
			" reaches the MaxSteps limit, or the user types Ctrl-C.",
		Usage: "run",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "step",
		Brief: "Step the CPU",
		Description: "Step the CPU by a single instruction. The number of" +
			" steps may be specified as an option.",
		Usage: "step [<count>]",
		Data:  (*Host).cmdStep,
	})

	// Add command shortcuts.
	shortcuts := []struct{ key, target string }{
		{"a", "assemble"},
		{"ba", "breakpoint add"},
		{"br", "breakpoint remove"},
		{"bl", "breakpoint list"},
		{"be", "breakpoint enable"},
		{"bd", "breakpoint disable"},
		{"d", "disassemble"},
		{"e", "evaluate"},
		{"l", "load"},
		{"r", "register"},
		{"s", "step"},
		{"?", "help"},
		{".", "register"},
	}
	for _, sc := range shortcuts {
		if err := root.AddShortcut(sc.key, sc.target); err != nil {
			panic(fmt.Sprintf("shortcut '%s': %v", sc.key, err))
		}
	}

	cmds = root
}
