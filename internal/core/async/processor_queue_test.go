package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/results-tracker/internal/async"
	"github.com/joseph-ayodele/results-tracker/internal/core"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

type countingProcessor struct {
	calls atomic.Int32
}

func (c *countingProcessor) ProcessStream(_ context.Context, s entity.Stream) (core.StreamResult, error) {
	c.calls.Add(1)
	if s.ID == "bad" {
		return core.StreamResult{}, errors.New("boom")
	}
	return core.StreamResult{Documents: make([]entity.StudentDocument, len(s.Paths))}, nil
}

func TestQueueProcessesAndDrains(t *testing.T) {
	proc := &countingProcessor{}
	var (
		mu     sync.Mutex
		failed []string
	)
	q := NewProcessorQueue(proc, nil,
		WithWorkers(2),
		WithQueueSize(1),
		WithProcessTimeout(time.Second),
		WithResultHandler(func(job async.Job, _ core.StreamResult, err error) {
			if err != nil {
				mu.Lock()
				failed = append(failed, job.Stream.ID)
				mu.Unlock()
			}
		}),
	)

	ctx := context.Background()
	for _, id := range []string{"a", "b", "bad", "c"} {
		require.NoError(t, q.Enqueue(ctx, async.Job{Stream: entity.Stream{ID: id, Paths: []string{id}}}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.Equal(t, int32(4), proc.calls.Load())
	assert.Equal(t, []string{"bad"}, failed)
	assert.ErrorIs(t, q.Enqueue(ctx, async.Job{}), ErrQueueClosed)
	q.Shutdown(shutdownCtx)
}
