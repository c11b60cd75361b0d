// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestSetLanguage(t *testing.T) {
	saved := Language()
	defer use(saved)

	assert.NoError(t, SetLanguage("en-US"))
	assert.Equal(t, language.AmericanEnglish, Language())
	assert.Equal(t, "unknown opcode $FF at $0000", From("unknown opcode $%02X at $%04X", 0xff, 0))

	assert.Error(t, SetLanguage("not a language!"))
	assert.Equal(t, language.AmericanEnglish, Language())
}
