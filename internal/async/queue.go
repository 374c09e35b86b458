package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Job is one document stream waiting to be processed.
type Job struct {
	Stream      entity.Stream
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
