// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	hexLiteral  = regexp.MustCompile(`\$([0-9A-Fa-f]+)`)
	binLiteral  = regexp.MustCompile(`%[01]+`)
	charLiteral = regexp.MustCompile(`'(\\?[^'])'`)
)

// Rewrite assembler number syntax ($hex, %binary, 'c') into starlark
// integer literals.
func rewriteLiterals(expr string) string {
	expr = charLiteral.ReplaceAllStringFunc(expr, func(s string) string {
		c := s[1 : len(s)-1]
		if c[0] == '\\' {
			c = c[1:]
		}
		return strconv.Itoa(int(c[0]))
	})
	expr = hexLiteral.ReplaceAllString(expr, "0x$1")
	return rewriteBinary(expr)
}

// Rewrite %binary literals. A '%' that follows an operand is the modulo
// operator and is left alone.
func rewriteBinary(expr string) string {
	var b strings.Builder
	last := 0
	for _, m := range binLiteral.FindAllStringIndex(expr, -1) {
		if followsOperand(expr[:m[0]]) {
			continue
		}
		b.WriteString(expr[last:m[0]])
		b.WriteString("0b")
		b.WriteString(expr[m[0]+1 : m[1]])
		last = m[1]
	}
	b.WriteString(expr[last:])
	return b.String()
}

func followsOperand(s string) bool {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if s == "" {
		return false
	}
	c := rune(s[len(s)-1])
	return c == ')' || c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

// EvalExpr evaluates an integer expression. Numbers may be written as
// decimal, $hex, %binary or 'c'. Identifiers are resolved from 'symbols'.
// The expression language is starlark, so operators such as +, -, *, //,
// %, &, |, ^, <<, >> and parentheses are available. A '%' written after an
// operand is always the modulo operator.
func EvalExpr(expr string, symbols map[string]int) (int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, ErrExpression
	}

	pred := make(starlark.StringDict, len(symbols))
	for key, v := range symbols {
		pred[key] = starlark.MakeInt(v)
	}

	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	prog := "rc = (" + rewriteLiterals(expr) + ")\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, &ExprError{Expr: expr, Err: err}
	}

	st, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, &ExprError{Expr: expr, Err: ErrExpression}
	}
	v, ok := st.Int64()
	if !ok {
		return 0, &ExprError{Expr: expr, Err: ErrExpression}
	}
	return int(v), nil
}
