// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command test6502 assembles a source file and traces its execution one
// instruction at a time.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/beevik/tiny6502/asm"
	"github.com/beevik/tiny6502/cpu"
	"github.com/beevik/tiny6502/disasm"
)

var (
	archName string
	maxSteps uint64
)

func init() {
	flag.StringVar(&archName, "arch", "core", "CPU architecture (core or extended)")
	flag.Uint64Var(&maxSteps, "max", 100000, "maximum instructions to execute")
	flag.CommandLine.Usage = func() {
		fmt.Println("Syntax: test6502 [options] file.asm\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.CommandLine.Usage()
		os.Exit(0)
	}

	arch, err := cpu.ParseArchitecture(archName)
	if err != nil {
		exitOnError(err)
	}

	if err := trace(flag.Arg(0), arch, os.Stdout); err != nil {
		exitOnError(err)
	}
}

func trace(filename string, arch cpu.Architecture, w io.Writer) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(w, "Assembling %s...\n\n", filename)
	assembly, err := asm.Assemble(file, filename, arch, w, 0)
	if err != nil {
		for _, e := range assembly.Errors {
			fmt.Fprintln(w, e)
		}
		return err
	}

	fmt.Fprintf(w, "Running assembled code...\n\n")

	c := cpu.NewCPU(arch)
	c.Load(assembly.Code)

	for !c.Halted {
		if c.Steps >= maxSteps {
			return fmt.Errorf("stopped after %d steps", c.Steps)
		}

		pc := c.Reg.PC
		line, _ := disasm.Disassemble(assembly.Code, pc, c.InstSet)
		if err := c.Step(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%04X-   %-12s  %s Steps=%d\n",
			pc, line, disasm.GetRegisterString(&c.Reg), c.Steps)
	}
	return nil
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
