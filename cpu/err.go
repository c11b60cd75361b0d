// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"errors"

	"github.com/beevik/tiny6502/translate"
)

var f = translate.From

// Errors returned by Step and Interpret. Use errors.As with
// *UnknownOpcodeError or *OutOfBoundsError to recover the details.
var (
	ErrUnknownOpcode = errors.New(f("unknown opcode"))
	ErrOutOfBounds   = errors.New(f("fetch out of bounds"))
)

// UnknownOpcodeError reports a fetched opcode with no implementation.
type UnknownOpcodeError struct {
	Opcode byte   // the offending opcode
	Offset uint16 // program offset of the opcode
}

func (e *UnknownOpcodeError) Error() string {
	return f("unknown opcode $%02X at $%04X", e.Opcode, e.Offset)
}

func (e *UnknownOpcodeError) Unwrap() error {
	return ErrUnknownOpcode
}

// OutOfBoundsError reports an opcode or operand fetch past the end of the
// program.
type OutOfBoundsError struct {
	Offset uint16 // program offset of the attempted fetch
}

func (e *OutOfBoundsError) Error() string {
	return f("fetch out of bounds at $%04X", e.Offset)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}
