package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/core"
	"github.com/joseph-ayodele/results-tracker/internal/core/pipeline"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
	"github.com/joseph-ayodele/results-tracker/internal/ingest"
)

// StreamProcessor is satisfied by *core.Processor.
type StreamProcessor interface {
	ProcessStream(ctx context.Context, stream entity.Stream) (core.StreamResult, error)
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	ExportFile(ctx context.Context, docs []entity.StudentDocument, path string) error
}

// Request describes one batch run.
type Request struct {
	Root    string
	OutPath string // empty -> no workbook
	Options ingest.Options
}

// StreamReport is the outcome of one stream in a batch.
type StreamReport struct {
	Stream    entity.Stream
	RunID     uuid.UUID
	Status    constants.RunStatus
	Documents int
	Err       error
}

// Report summarizes a batch.
type Report struct {
	Documents []entity.StudentDocument
	Streams   []StreamReport
	Stats     ingest.DirStats
	Failed    int
	OutPath   string
	Duration  time.Duration
}

// Service discovers the streams under a root, processes them concurrently
// and exports the merged, USN-sorted documents.
type Service struct {
	proc     StreamProcessor
	exporter Exporter
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
}

type Option func(*Service)

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithStreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewService(proc StreamProcessor, exporter Exporter, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{proc: proc, exporter: exporter, logger: logger, workers: 4, timeout: 3 * time.Minute}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run never aborts on a failing stream; failures are reported per stream.
// It returns an error when discovery fails, ctx ends, every stream fails, or
// the export cannot be written.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	var rep Report

	streams, _, stats, err := ingest.Discover(ctx, req.Root, req.Options, s.logger)
	rep.Stats = stats
	if err != nil {
		return rep, fmt.Errorf("discover: %w", err)
	}
	s.logger.Info("batch.start", "root", req.Root, "streams", len(streams), "workers", s.workers)

	rep.Streams = make([]StreamReport, len(streams))
	var (
		mu   sync.Mutex
		docs []entity.StudentDocument
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, stream := range streams {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			res, err := s.proc.ProcessStream(sctx, stream)
			rep.Streams[i] = StreamReport{
				Stream:    stream,
				RunID:     res.RunID,
				Status:    res.Status,
				Documents: len(res.Documents),
				Err:       err,
			}
			if err != nil {
				s.logger.Error("batch.stream.failed", "stream_id", stream.ID, "err", err)
				return gctx.Err()
			}
			mu.Lock()
			docs = append(docs, res.Documents...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	for _, sr := range rep.Streams {
		if sr.Err != nil {
			rep.Failed++
		}
	}
	pipeline.SortByUSN(docs)
	rep.Documents = docs

	if len(streams) > 0 && rep.Failed == len(streams) {
		return rep, errors.New("every stream failed")
	}

	if req.OutPath != "" && s.exporter != nil {
		if err := s.exporter.ExportFile(ctx, docs, req.OutPath); err != nil {
			return rep, fmt.Errorf("export: %w", err)
		}
		rep.OutPath = req.OutPath
	}

	rep.Duration = time.Since(start)
	s.logger.Info("batch.ok",
		"streams", len(streams),
		"failed", rep.Failed,
		"documents", len(docs),
		"out", rep.OutPath,
		"duration_ms", rep.Duration.Milliseconds(),
	)
	return rep, nil
}
