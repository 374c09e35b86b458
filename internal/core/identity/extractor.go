// Package identity locates the USN and student name in result page text.
package identity

import (
	"strings"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Labels printed in the identity block.
const (
	LabelUSN  = "university seat number"
	LabelName = "student name"
)

const labelPunct = ":-. \t"

// Extract returns the raw identity values found in text. Values are not
// normalized; a field is nil when its label is missing.
func Extract(text string) entity.Identity {
	lines := nonEmptyLines(text)

	var out entity.Identity
	for i, line := range lines {
		if out.USN != nil && out.Name != nil {
			break
		}
		lower := strings.ToLower(line)
		if out.USN == nil && strings.Contains(lower, LabelUSN) {
			out.USN = valueFor(lines, i, lower, LabelUSN)
			continue
		}
		if out.Name == nil && strings.Contains(lower, LabelName) {
			out.Name = valueFor(lines, i, lower, LabelName)
		}
	}
	return out
}

// valueFor prefers a value written after the label on the same line, and
// otherwise takes the following line.
func valueFor(lines []string, i int, lower, label string) *string {
	idx := strings.Index(lower, label)
	rest := lines[i][idx+len(label):]
	if strings.ContainsAny(rest, ":") {
		if v := strings.TrimLeft(rest, labelPunct); v != "" {
			v = strings.TrimSpace(v)
			return &v
		}
	}
	if i+1 >= len(lines) {
		return nil
	}
	v := strings.TrimSpace(strings.TrimLeft(lines[i+1], labelPunct))
	if v == "" {
		return nil
	}
	return &v
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
