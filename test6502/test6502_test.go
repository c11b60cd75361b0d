// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beevik/tiny6502/cpu"
)

func TestTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.asm")
	src := "\tLDA #$05\n\tASL A\n\tTAX\n\tBRK\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	var out strings.Builder
	err := trace(path, cpu.Core, &out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "0000-   LDA #$05      A=05 X=00")
	assert.Contains(t, out.String(), "0003-   TAX           A=0A X=0A")
	assert.Contains(t, out.String(), "Steps=4")
}

func TestTraceErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.asm")
	require.NoError(t, os.WriteFile(bad, []byte("\tBIT #1\n"), 0600))

	var out strings.Builder
	err := trace(bad, cpu.Core, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "unknown mnemonic")

	out.Reset()
	err = trace(bad, cpu.Extended, &out)
	assert.ErrorIs(t, err, cpu.ErrOutOfBounds)
}
