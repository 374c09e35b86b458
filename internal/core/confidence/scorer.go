// Package confidence grades how complete each extracted subject row is.
package confidence

import (
	"math"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Thresholds maps a score to a review flag.
type Thresholds struct {
	OK      float64 `yaml:"ok"`
	Partial float64 `yaml:"partial"`
}

// DefaultThresholds returns the standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{OK: 0.85, Partial: 0.60}
}

// Score returns a value in [0,1] built from which fields are present.
func Score(row entity.SubjectRow) float64 {
	score := 0.0
	if row.Code != "" {
		score += 0.4
	}
	if row.Internal != nil {
		score += 0.2
	}
	if row.External != nil {
		score += 0.2
	}
	if row.Total != nil {
		score += 0.1
	}
	if row.Result != nil && *row.Result != "" {
		score += 0.1
	}
	return math.Round(score*100) / 100
}

// Flag maps a score to OK, PARTIAL or REVIEW.
func (t Thresholds) Flag(score float64) entity.Flag {
	switch {
	case score >= t.OK:
		return entity.FlagOK
	case score >= t.Partial:
		return entity.FlagPartial
	default:
		return entity.FlagReview
	}
}

// Annotate sets Confidence and Flag on every row in place. Rows are never dropped.
func (t Thresholds) Annotate(rows []entity.SubjectRow) {
	for i := range rows {
		rows[i].Confidence = Score(rows[i])
		rows[i].Flag = t.Flag(rows[i].Confidence)
	}
}
