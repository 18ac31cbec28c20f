package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugBaseLength bounds the name-derived part of a slug (the timestamp suffix is not counted).
const MaxSlugBaseLength = 50

// Slugify derives the URL-safe base of a slug from a profile name.
//
// Diacritics are folded first ("José" -> "jose"), then anything outside [a-z0-9], whitespace and
// '-' is dropped, whitespace runs become a single '-', and the result is truncated.
func Slugify(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}

	out := b.String()
	if len(out) > MaxSlugBaseLength {
		out = strings.TrimRight(out[:MaxSlugBaseLength], "-")
	}
	return out
}

// NewSlug appends the epoch-millisecond timestamp of t to the slugified name.
// Equal inputs always produce equal slugs.
func NewSlug(name string, t time.Time) string {
	base := Slugify(name)
	suffix := strconv.FormatInt(t.UnixMilli(), 10)
	if base == "" {
		return "profile-" + suffix
	}
	return base + "-" + suffix
}
