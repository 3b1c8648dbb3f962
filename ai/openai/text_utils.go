package openai

import (
	"strings"
	"unicode"
)

// sanitize drops invalid UTF-8 and control characters other than tab and
// newline, which some backends reject.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
