// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"

	"github.com/beevik/tiny6502/translate"
)

var f = translate.From

// Assembler errors
var (
	ErrParse           = errors.New(f("parse error"))
	ErrUnknownMnemonic = errors.New(f("unknown mnemonic"))
	ErrBadOperand      = errors.New(f("invalid operand for instruction"))
	ErrBranchRange     = errors.New(f("branch target out of forward range"))
	ErrValueRange      = errors.New(f("value does not fit in a byte"))
	ErrDuplicateLabel  = errors.New(f("label duplicated"))
	ErrExpression      = errors.New(f("invalid expression"))
	ErrDirective       = errors.New(f("invalid directive"))
)

// A SyntaxError describes an error on a line of assembly source.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Err    error
}

func (e *SyntaxError) Error() string {
	return f("syntax error in '%s' line %d, col %d: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// An ExprError describes an expression that could not be evaluated to an
// integer.
type ExprError struct {
	Expr string
	Err  error
}

func (e *ExprError) Error() string {
	return f("cannot evaluate '%s': %v", e.Expr, e.Err)
}

func (e *ExprError) Unwrap() error {
	return e.Err
}

// Is reports ExprError values as ErrExpression.
func (e *ExprError) Is(err error) bool {
	return err == ErrExpression
}
