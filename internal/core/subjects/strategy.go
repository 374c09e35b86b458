// Package subjects turns page text into subject rows. Clean, column-aligned
// text goes through Deterministic; recognizer output goes through Heuristic.
package subjects

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Extractor produces subject rows in document order. Rows are not deduplicated.
type Extractor interface {
	Extract(text string) []entity.SubjectRow
}

var (
	reCode = regexp.MustCompile(`\b` + constants.SubjectCodePattern + `\b`)
	reDate = regexp.MustCompile(`\b20\d{2}-\d{2}-\d{2}\b`)
)

// Strategies picks the extractor for a page's provenance.
type Strategies struct {
	Clean Extractor
	Noisy Extractor
}

// NewStrategies returns the deterministic and heuristic extractors.
func NewStrategies(cfg HeuristicConfig) Strategies {
	return Strategies{
		Clean: Deterministic{Tolerance: cfg.Tolerance},
		Noisy: NewHeuristic(cfg),
	}
}

// For returns the extractor registered for q.
func (s Strategies) For(q entity.Quality) Extractor {
	if q == entity.QualityNoisy {
		return s.Noisy
	}
	return s.Clean
}

// SplitBlocks groups non-empty lines into one block per subject code
// occurrence. Lines before the first code are dropped.
func SplitBlocks(text string) []string {
	var (
		blocks  []string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if reCode.MatchString(line) {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, " "))
			}
			current = []string{line}
			continue
		}
		if current != nil {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, " "))
	}
	return blocks
}
