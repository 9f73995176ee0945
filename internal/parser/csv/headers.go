package csv

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes to NFD, removes combining marks, and recomposes to
// NFC, turning "Krátký" into "Kratky".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonical converts a raw header into a stable snake_case identifier:
// diacritics stripped, lowercased, runs of non-alphanumeric characters
// collapsed into single underscores, leading/trailing underscores trimmed.
//
// Examples:
//
//	"Krátký Text"  -> "kratky_text"
//	" Total Debt " -> "total_debt"
//	"PČV"          -> "pcv"
func Canonical(h string) string {
	if s, _, err := transform.String(deaccent, h); err == nil {
		h = s
	}
	h = strings.ToLower(h)

	var b strings.Builder
	b.Grow(len(h))
	lastUnderscore := false
	for _, r := range h {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
