package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	asyncq "github.com/joseph-ayodele/results-tracker/internal/async"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []asyncq.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job asyncq.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func TestByRoot(t *testing.T) {
	a := filepath.Join("in", "a")
	b := filepath.Join("in", "b")
	got := byRoot([]string{a, b}, []string{
		filepath.Join(a, "x.pdf"),
		filepath.Join(b, "s1", "p1.jpg"),
		filepath.Join("elsewhere", "y.pdf"),
		filepath.Join("in", "ab", "z.pdf"),
	})
	assert.Equal(t, map[string][]string{
		a: {filepath.Join(a, "x.pdf")},
		b: {filepath.Join(b, "s1", "p1.jpg")},
	}, got)
}

func TestEnqueueResolvesFolderStreams(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "asha")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for name, body := range map[string]string{
		filepath.Join(root, "card.pdf"): "pdf",
		filepath.Join(sub, "p1.jpg"):    "one",
		filepath.Join(sub, "p2.jpg"):    "two",
	} {
		require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	}

	q := &recordingQueue{}
	enqueue(context.Background(), q, []string{root}, []string{filepath.Join(sub, "p2.jpg"), filepath.Join(root, "card.pdf")}, nil)

	require.Len(t, q.jobs, 2)
	ids := []string{q.jobs[0].Stream.ID, q.jobs[1].Stream.ID}
	assert.ElementsMatch(t, []string{"asha", "card.pdf"}, ids)
	for _, j := range q.jobs {
		assert.NotEmpty(t, j.TraceID)
		if j.Stream.ID == "asha" {
			assert.Len(t, j.Stream.Paths, 2)
		}
	}
}
