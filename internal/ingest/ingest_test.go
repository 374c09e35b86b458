package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func streamIDs(t *testing.T, root string) map[string][]string {
	t.Helper()
	streams, _, _, err := Discover(context.Background(), root, Options{}, nil)
	require.NoError(t, err)
	out := map[string][]string{}
	for _, s := range streams {
		var rel []string
		for _, p := range s.Paths {
			r, err := filepath.Rel(root, p)
			require.NoError(t, err)
			rel = append(rel, filepath.ToSlash(r))
		}
		out[s.ID] = rel
	}
	return out
}

func TestDiscoverGroupsStreams(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.pdf"), "pdf-a")
	write(t, filepath.Join(root, "single.png"), "png-single")
	write(t, filepath.Join(root, "notes.txt"), "ignored")
	write(t, filepath.Join(root, ".hidden.png"), "hidden")
	write(t, filepath.Join(root, "batch1", "p2.jpg"), "p2")
	write(t, filepath.Join(root, "batch1", "p1.jpg"), "p1")
	write(t, filepath.Join(root, "batch1", "inner.pdf"), "pdf-inner")
	write(t, filepath.Join(root, ".git", "x.png"), "git")

	got := streamIDs(t, root)
	assert.Equal(t, map[string][]string{
		"a.pdf":            {"a.pdf"},
		"single.png":       {"single.png"},
		"batch1":           {"batch1/p1.jpg", "batch1/p2.jpg"},
		"batch1/inner.pdf": {"batch1/inner.pdf"},
	}, got)
}

func TestDiscoverDeduplicatesContent(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.pdf"), "same")
	write(t, filepath.Join(root, "copy-of-a.pdf"), "same")
	write(t, filepath.Join(root, "b.pdf"), "other")

	streams, results, stats, err := Discover(context.Background(), root, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "a.pdf", streams[0].ID)
	assert.Equal(t, "b.pdf", streams[1].ID)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(2), stats.Streams)

	var dups int
	for _, r := range results {
		assert.Len(t, r.HashHex, 64)
		if r.Deduplicated {
			dups++
			assert.Equal(t, filepath.Join(root, "copy-of-a.pdf"), r.Path)
		}
	}
	assert.Equal(t, 1, dups)

	streams, _, _, err = Discover(context.Background(), root, Options{KeepDuplicates: true}, nil)
	require.NoError(t, err)
	assert.Len(t, streams, 3)
}

func TestDiscoverSingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "r.pdf")
	write(t, path, "x")

	streams, _, _, err := Discover(context.Background(), path, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, []string{path}, streams[0].Paths)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, _, _, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}, nil)
	require.Error(t, err)
	_, _, _, err = Discover(context.Background(), " ", Options{}, nil)
	require.Error(t, err)
}

func TestStreamsFor(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.pdf"), "a")
	write(t, filepath.Join(root, "b.pdf"), "b")
	write(t, filepath.Join(root, "scans", "1.png"), "1")
	write(t, filepath.Join(root, "scans", "2.png"), "2")

	streams, err := StreamsFor(context.Background(), root, []string{
		filepath.Join(root, "scans", "2.png"),
		filepath.Join(root, "scans", "1.png"),
		filepath.Join(root, "b.pdf"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "b.pdf", streams[0].ID)
	assert.Equal(t, "scans", streams[1].ID)
	assert.Len(t, streams[1].Paths, 2)
}

func TestWatcherEmitsDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "existing.pdf"), "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    100 * time.Millisecond,
	})
	require.NoError(t, err)

	select {
	case batch := <-events:
		assert.Equal(t, []string{filepath.Join(root, "existing.pdf")}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial scan batch")
	}

	write(t, filepath.Join(root, "new.pdf"), "new")
	write(t, filepath.Join(root, "ignored.txt"), "txt")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-events:
			if assert.NotEmpty(t, batch) {
				assert.Equal(t, filepath.Join(root, "new.pdf"), batch[0])
				return
			}
		case <-deadline:
			t.Fatal("no batch for new file")
		}
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	require.Error(t, err)
}
