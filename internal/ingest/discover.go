package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Discover groups the files under root into document streams:
//   - every PDF is its own stream;
//   - every image directly under root is a single-page stream;
//   - the images of each sub-folder form one stream, in lexical order.
//
// Files with identical content are kept once. Streams are ordered by ID,
// which is the slash-separated path relative to root.
func Discover(ctx context.Context, root string, opts Options, logger *slog.Logger) ([]entity.Stream, []FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, DirStats{}, fmt.Errorf("stat root: %w", err)
	}

	d := &discovery{opts: opts, seen: map[string]string{}, logger: logger}
	if !info.IsDir() {
		d.stats.Scanned++
		if p, ok := d.accept(root); ok {
			d.streams = append(d.streams, entity.Stream{ID: filepath.Base(p), Paths: []string{p}})
		}
	} else if err := d.walk(ctx, root, root); err != nil {
		return d.streams, d.results, d.stats, err
	}

	sort.SliceStable(d.streams, func(i, j int) bool { return d.streams[i].ID < d.streams[j].ID })
	d.stats.Streams = uint32(len(d.streams))
	logger.Info("ingest.discover.ok",
		"root", root,
		"scanned", d.stats.Scanned,
		"matched", d.stats.Matched,
		"deduplicated", d.stats.Deduplicated,
		"streams", d.stats.Streams,
	)
	return d.streams, d.results, d.stats, nil
}

type discovery struct {
	opts    Options
	seen    map[string]string // hash -> first path
	streams []entity.Stream
	results []FileResult
	stats   DirStats
	logger  *slog.Logger
}

func (d *discovery) walk(ctx context.Context, root, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.stats.Failed++
		d.results = append(d.results, FileResult{Path: dir, Err: err.Error()})
		return nil
	}

	var images []string
	for _, e := range entries { // ReadDir returns entries sorted by name
		path := filepath.Join(dir, e.Name())
		if !d.opts.IncludeHidden && IsHidden(path) {
			continue
		}
		if e.IsDir() {
			if err := d.walk(ctx, root, path); err != nil {
				return err
			}
			continue
		}
		d.stats.Scanned++
		p, ok := d.accept(path)
		if !ok {
			continue
		}
		if isPDF(p) || dir == root {
			d.streams = append(d.streams, entity.Stream{ID: relID(root, p), Paths: []string{p}})
			continue
		}
		images = append(images, p)
	}
	if len(images) > 0 {
		d.streams = append(d.streams, entity.Stream{ID: relID(root, dir), Paths: images})
	}
	return nil
}

// accept filters by extension and content hash.
func (d *discovery) accept(path string) (string, bool) {
	if !AllowedExt(filepath.Ext(path)) {
		return "", false
	}
	d.stats.Matched++

	sum, err := HashFile(path)
	if err != nil {
		d.stats.Failed++
		d.results = append(d.results, FileResult{Path: path, Err: err.Error()})
		d.logger.Warn("ingest.hash.failed", "path", path, "err", err)
		return "", false
	}
	res := FileResult{Path: path, HashHex: sum}
	if first, dup := d.seen[sum]; dup && !d.opts.KeepDuplicates {
		res.Deduplicated = true
		d.stats.Deduplicated++
		d.results = append(d.results, res)
		d.logger.Debug("ingest.duplicate", "path", path, "first", first)
		return "", false
	}
	d.seen[sum] = path
	d.results = append(d.results, res)
	return path, true
}

// StreamsFor maps changed paths under root to the streams that contain them.
// An image in a sub-folder re-emits that folder's whole stream.
func StreamsFor(ctx context.Context, root string, paths []string, logger *slog.Logger) ([]entity.Stream, error) {
	want := map[string]bool{}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if isPDF(p) || filepath.Clean(dir) == filepath.Clean(root) {
			want[relID(root, p)] = true
		} else {
			want[relID(root, dir)] = true
		}
	}
	all, _, _, err := Discover(ctx, root, Options{KeepDuplicates: true}, logger)
	if err != nil {
		return nil, err
	}
	var out []entity.Stream
	for _, s := range all {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func relID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
