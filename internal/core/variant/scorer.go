// Package variant ranks alternative OCR renderings of the same page.
package variant

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

const minScorableLength = 50

var (
	reCode    = regexp.MustCompile(`\b[A-Z]{3,5}\d{3,4}[A-Z]?\b`)
	reNumber  = regexp.MustCompile(`\b\d{1,3}\b`)
	rePass    = regexp.MustCompile(`\bP\b`)
	reDate    = regexp.MustCompile(`\b20\d{2}[-/]\d{2}[-/]\d{2}\b`)
	reGarbage = regexp.MustCompile(`[~^|<>]{3,}`)
)

// Score rates how much of the result-sheet structure survived recognition.
// It never returns a negative value.
func Score(text string) int {
	if len(strings.TrimSpace(text)) < minScorableLength {
		return 0
	}
	t := strings.ToUpper(text)
	score := 0

	// header anchors
	if strings.Contains(t, "UNIVERSITY SEAT NUMBER") {
		score += 15
	}
	if strings.Contains(t, "STUDENT NAME") {
		score += 12
	}
	if strings.Contains(t, "SEMESTER") {
		score += 8
	}
	if strings.Contains(t, "VTU") || strings.Contains(t, "VISVESVARAYA") {
		score += 5
	}

	// table body
	score += min(len(reCode.FindAllString(t, -1))*4, 40)
	score += min(len(reNumber.FindAllString(t, -1)), 30)
	if rePass.MatchString(t) {
		score += 5
	}
	if strings.Contains(t, "RESULT") {
		score += 4
	}
	if reDate.MatchString(t) {
		score += 5
	}

	switch ratio := alnumRatio(text); {
	case ratio > 0.75:
		score += 10
	case ratio > 0.65:
		score += 5
	default:
		score -= 10
	}

	lines := 0
	for _, l := range strings.Split(text, "\n") {
		if len(strings.TrimSpace(l)) > 3 {
			lines++
		}
	}
	if lines > 25 {
		score += 10
	} else if lines > 15 {
		score += 5
	}

	if reGarbage.MatchString(text) {
		score -= 15
	}
	return max(score, 0)
}

// Select scores every candidate and returns the one with the strictly highest
// score; the first seen wins a tie. It returns false for an empty set.
func Select(candidates []entity.VariantCandidate) (entity.VariantCandidate, bool) {
	if len(candidates) == 0 {
		return entity.VariantCandidate{}, false
	}
	best := -1
	for i := range candidates {
		candidates[i].Score = Score(candidates[i].Text)
		if best < 0 || candidates[i].Score > candidates[best].Score {
			best = i
		}
	}
	return candidates[best], true
}

func alnumRatio(s string) float64 {
	var total, alnum int
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}
