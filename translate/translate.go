// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package translate formats user-facing messages for the language of the
// current user. The language is detected from the environment at startup
// and may be overridden with SetLanguage.
package translate

import (
	"log"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type localizer struct {
	tag     language.Tag
	printer *message.Printer
}

var current atomic.Pointer[localizer]

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("tiny6502: locale: %v", err)
	}
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	use(message.MatchLanguage(locales...))
}

func use(tag language.Tag) {
	current.Store(&localizer{tag: tag, printer: message.NewPrinter(tag)})
}

// SetLanguage selects the language used by From. The name is a BCP 47
// tag such as "en-US" or "fr".
func SetLanguage(name string) error {
	tag, err := language.Parse(name)
	if err != nil {
		return err
	}
	use(tag)
	return nil
}

// Language returns the language currently used by From.
func Language() language.Tag {
	return current.Load().tag
}

// From formats an en-US Sprintf() format string and its arguments in the
// current language.
func From(key message.Reference, args ...any) string {
	return current.Load().printer.Sprintf(key, args...)
}
