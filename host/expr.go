// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"regexp"
	"strings"

	"github.com/beevik/tiny6502/asm"
	"github.com/beevik/tiny6502/cpu"
)

// A bare run of hex digits, not already prefixed by a radix marker and not
// part of a longer identifier.
var bareNumber = regexp.MustCompile(`(^|[^$%'\w])([0-9A-Fa-f]+)\b`)

// In hex mode, bare numbers are hexadecimal. A 0d prefix forces a decimal
// number.
func hexModeExpr(expr string) string {
	return bareNumber.ReplaceAllStringFunc(expr, func(s string) string {
		m := bareNumber.FindStringSubmatch(s)
		prefix, num := m[1], m[2]
		if len(num) > 2 && strings.EqualFold(num[:2], "0d") && isDecimal(num[2:]) {
			return prefix + num[2:]
		}
		return prefix + "$" + num
	})
}

func isDecimal(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Evaluate an expression using register values and program labels as
// identifiers.
func (h *Host) evalExpr(expr string) (int, error) {
	if h.settings.HexMode {
		expr = hexModeExpr(expr)
	}
	return asm.EvalExpr(expr, h.symbols())
}

// Evaluate an expression that produces a 16-bit value. Negative values wrap.
func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.evalExpr(expr)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		v = 0x10000 + v
	}
	return uint16(v), nil
}

func (h *Host) symbols() map[string]int {
	s := make(map[string]int, len(h.labels)+20)
	for k, v := range h.labels {
		s[k] = int(v)
	}

	r := &h.cpu.Reg
	regs := map[string]int{
		"a":  int(r.A),
		"x":  int(r.X),
		"y":  int(r.Y),
		"sp": int(r.SP),
		"pc": int(r.PC),
	}
	for k, v := range regs {
		s[k] = v
		s[strings.ToUpper(k)] = v
	}
	for name, bit := range flagNames {
		if len(name) > 1 {
			s[name] = boolToInt(r.IsSet(bit))
		}
	}
	return s
}

// Status flags by name, as accepted by the register command.
var flagNames = map[string]cpu.Status{
	"c":        cpu.CarryBit,
	"carry":    cpu.CarryBit,
	"z":        cpu.ZeroBit,
	"zero":     cpu.ZeroBit,
	"v":        cpu.OverflowBit,
	"overflow": cpu.OverflowBit,
	"n":        cpu.SignBit,
	"sign":     cpu.SignBit,
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
