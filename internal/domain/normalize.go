package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHumanName prepares a person's name for storage and length checks: NFC composition,
// control and format characters (zero-width joiners, bidi marks) removed, whitespace runs
// collapsed to one space and the ends trimmed.
func NormalizeHumanName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}
