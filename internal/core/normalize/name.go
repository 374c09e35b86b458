package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeName strips leading OCR punctuation, collapses whitespace and
// uppercases. It returns false when no letters remain.
func NormalizeName(raw string) (string, bool) {
	s := strings.TrimLeftFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) })
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	s = strings.ToUpper(s)
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return "", false
	}
	return s, true
}
