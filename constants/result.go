package constants

import "strings"

// Result is the single-letter outcome printed in the result column.
type Result string

const (
	ResultPass        Result = "P"
	ResultFail        Result = "F"
	ResultAbsent      Result = "A"
	ResultNotEligible Result = "X"
	ResultWithheld    Result = "W"
)

var allResults = []Result{
	ResultPass,
	ResultFail,
	ResultAbsent,
	ResultNotEligible,
	ResultWithheld,
}

// ResultLetters is the character class used by the row patterns.
const ResultLetters = "PFAXW"

// SubjectCodePattern is the subject code grammar.
const SubjectCodePattern = `[A-Z]{3,5}\d{3,4}[A-Z]?`

// ResultsAsStrings returns the known result letters.
func ResultsAsStrings() []string {
	out := make([]string, len(allResults))
	for i, r := range allResults {
		out[i] = string(r)
	}
	return out
}

// CanonicalizeResult maps a result token, or a spelled-out synonym, to its letter.
func CanonicalizeResult(input string) (Result, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Result{
		"PASS":     ResultPass,
		"FAIL":     ResultFail,
		"ABSENT":   ResultAbsent,
		"AB":       ResultAbsent,
		"NE":       ResultNotEligible,
		"WITHHELD": ResultWithheld,
	}
	if r, ok := synonyms[normalized]; ok {
		return r, true
	}

	for _, r := range allResults {
		if normalized == string(r) {
			return r, true
		}
	}
	return "", false
}
