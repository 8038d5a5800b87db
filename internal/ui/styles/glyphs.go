// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"

	"github.com/muesli/termenv"
)

// =============================================================================
// GLYPHS
// =============================================================================

// GlyphSet holds the characters used to draw PIN progress.
type GlyphSet struct {
	Filled string
	Empty  string
}

// UnicodeGlyphs draws progress with filled and hollow circles.
var UnicodeGlyphs = GlyphSet{Filled: "●", Empty: "○"}

// ASCIIGlyphs works on any terminal.
var ASCIIGlyphs = GlyphSet{Filled: "*", Empty: "-"}

// DetectGlyphs picks ASCII glyphs when forced, when the terminal reports no
// color support, or when TERM is "linux" (the Linux console font lacks the
// circles).
func DetectGlyphs(forceASCII bool) GlyphSet {
	if forceASCII {
		return ASCIIGlyphs
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return ASCIIGlyphs
	}
	if os.Getenv("TERM") == "linux" {
		return ASCIIGlyphs
	}
	return UnicodeGlyphs
}
