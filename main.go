// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/beevik/term"

	"github.com/beevik/tiny6502/cpu"
	"github.com/beevik/tiny6502/host"
	"github.com/beevik/tiny6502/translate"
)

var (
	assemble string
	archName string
	langName string
)

func init() {
	flag.StringVar(&assemble, "a", "", "assemble file")
	flag.StringVar(&archName, "arch", "core", "CPU architecture (core or extended)")
	flag.StringVar(&langName, "lang", "", "message language (e.g. en-US)")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: tiny6502 [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if langName != "" {
		if err := translate.SetLanguage(langName); err != nil {
			exitOnError(err)
		}
	}

	arch, err := cpu.ParseArchitecture(archName)
	if err != nil {
		exitOnError(err)
	}

	h := host.New(arch)

	// Do command-line assemble if requested.
	if assemble != "" {
		err := h.AssembleFile(assemble)
		if err != nil {
			fmt.Printf("Failed to assemble file '%s'.\n", assemble)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Run commands contained in command-line files.
	args := flag.Args()
	if len(args) > 0 {
		for _, filename := range args {
			file, err := os.Open(filename)
			if err != nil {
				exitOnError(err)
			}
			h.RunCommands(file, os.Stdout, false)
			file.Close()
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively, or as a script when input is piped.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
