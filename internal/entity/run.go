package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRun represents one processed document stream for data transfer between layers.
type ExtractionRun struct {
	ID           uuid.UUID  `json:"id"`
	Source       string     `json:"source"`
	Format       string     `json:"format"`
	Status       string     `json:"status"`
	Pages        int        `json:"pages"`
	SkippedPages int        `json:"skipped_pages"`
	Documents    int        `json:"documents"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}
