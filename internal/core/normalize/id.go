// Package normalize repairs OCR character confusions in identity fields.
package normalize

import (
	"regexp"
	"strings"
)

const usnLength = 10

var (
	reUSN       = regexp.MustCompile(`^[0-9][A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{3}$`)
	reNonAlnum  = regexp.MustCompile(`[^A-Z0-9]+`)
	reBranchOne = regexp.MustCompile(`^(\d[A-Z]{2}\d{2}[A-Z])1(\d{3})$`)
)

// digit -> look-alike letter, applied to the branch segment.
var toLetter = map[byte]byte{'1': 'I', '0': 'O', '5': 'S', '8': 'B'}

// letter -> look-alike digit, applied to the roll segment.
var toDigit = map[byte]byte{'I': '1', 'O': '0', 'S': '5', 'B': '8'}

// NormalizeID returns the canonical 10-character USN for raw, or false when
// raw cannot be repaired without guessing.
func NormalizeID(raw string) (string, bool) {
	if id, ok := fixSegments(raw); ok {
		return id, true
	}
	return repairBranch(raw)
}

// IsValidID reports whether id already satisfies the USN grammar.
func IsValidID(id string) bool {
	return reUSN.MatchString(id)
}

func fixSegments(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != usnLength {
		return "", false
	}
	s = reNonAlnum.ReplaceAllString(s, "")
	if len(s) != usnLength {
		return "", false
	}

	b := []byte(s)
	// region(1) college(2) year(2) branch(2) roll(3)
	for i := 5; i < 7; i++ {
		if c, ok := toLetter[b[i]]; ok {
			b[i] = c
		}
	}
	for i := 7; i < 10; i++ {
		if c, ok := toDigit[b[i]]; ok {
			b[i] = c
		}
	}

	id := string(b)
	if !reUSN.MatchString(id) {
		return "", false
	}
	return id, true
}

// repairBranch handles a single "1" read in place of the second branch letter
// ("..A1.." -> "..AI.."). Like fixSegments it only accepts a 10-character
// input; anything else is rejected.
func repairBranch(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != usnLength {
		return "", false
	}
	if !reBranchOne.MatchString(s) {
		return "", false
	}
	id := reBranchOne.ReplaceAllString(s, "${1}I${2}")
	if !reUSN.MatchString(id) {
		return "", false
	}
	return id, true
}
