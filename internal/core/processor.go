package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/core/contract"
	"github.com/joseph-ayodele/results-tracker/internal/core/pipeline"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
	"github.com/joseph-ayodele/results-tracker/internal/ocr"
	"github.com/joseph-ayodele/results-tracker/internal/repository"
)

// PageExtractor turns one input file into ordered pages.
type PageExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// StreamResult is the outcome of one processed stream.
type StreamResult struct {
	RunID     uuid.UUID // uuid.Nil when persistence is disabled
	Status    constants.RunStatus
	Documents []entity.StudentDocument
	Pages     int
	Skipped   int
	Rejected  int // documents dropped for breaking the output contract
	Warnings  []string
	Duration  time.Duration
}

// Processor coordinates extraction (files to pages), the parsing pipeline,
// contract validation and persistence for one document stream.
type Processor struct {
	logger    *slog.Logger
	extractor PageExtractor
	pipeline  *pipeline.Pipeline
	runs      repository.RunRepository
	students  repository.StudentRepository
	validate  func(entity.Result) error
}

type ProcessorOption func(*Processor)

// WithPersistence records runs and documents. Without it ProcessStream only
// returns the documents.
func WithPersistence(runs repository.RunRepository, students repository.StudentRepository) ProcessorOption {
	return func(p *Processor) {
		p.runs = runs
		p.students = students
	}
}

// WithValidator replaces the output contract check.
func WithValidator(fn func(entity.Result) error) ProcessorOption {
	return func(p *Processor) {
		if fn != nil {
			p.validate = fn
		}
	}
}

func NewProcessor(logger *slog.Logger, extractor PageExtractor, pl *pipeline.Pipeline, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if pl == nil {
		pl = pipeline.New(pipeline.DefaultConfig(), logger)
	}
	p := &Processor{logger: logger, extractor: extractor, pipeline: pl, validate: contract.Validate}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessStream extracts every file of the stream in order, runs the
// pipeline, validates each result against the output contract and persists
// the run. A file that cannot be read is skipped; the stream fails only when
// no file yields pages.
func (p *Processor) ProcessStream(ctx context.Context, stream entity.Stream) (StreamResult, error) {
	start := time.Now()
	ctx = common.WithStreamID(ctx, stream.ID)

	if len(stream.Paths) == 0 {
		return StreamResult{}, common.NewAppError("EMPTY_STREAM", stream.ID, common.ErrInvalidInput)
	}

	res := StreamResult{Status: constants.RunStatusRunning}
	if p.runs != nil {
		format := constants.MapExtToFormat(filepath.Ext(stream.Paths[0]))
		run, err := p.runs.Start(ctx, stream.ID, format)
		if err != nil {
			return res, err
		}
		res.RunID = run.ID
		ctx = common.WithRunID(ctx, run.ID.String())
	}
	log := common.LoggerFrom(ctx, p.logger)

	var (
		pages  []entity.Page
		failed int
	)
	for _, path := range stream.Paths {
		if err := ctx.Err(); err != nil {
			return res, p.fail(ctx, res.RunID, err)
		}
		ext, err := p.extractor.Extract(ctx, path)
		res.Warnings = append(res.Warnings, ext.Warnings...)
		if err != nil {
			failed++
			log.Warn("processor.file.failed", "path", path, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			continue
		}
		log.Debug("processor.file.extracted", "path", path, "method", ext.Method, "pages", len(ext.Pages))
		pages = append(pages, ext.Pages...)
	}
	if len(pages) == 0 {
		return res, p.fail(ctx, res.RunID, fmt.Errorf("no pages extracted from %d file(s)", failed))
	}

	out, err := p.pipeline.Run(ctx, pages)
	if err != nil {
		return res, p.fail(ctx, res.RunID, err)
	}
	res.Pages, res.Skipped = out.Pages, out.Skipped

	// a document that breaks the output contract is dropped on its own
	docs := make([]entity.StudentDocument, 0, len(out.Documents))
	for _, doc := range out.Documents {
		if err := p.validate(doc.Result()); err != nil {
			err = errors.Join(common.ErrValidation, err)
			log.Error("processor.contract.violation", "usn", doc.USNOrEmpty(), "err", err)
			res.Rejected++
			res.Warnings = append(res.Warnings, fmt.Sprintf("document %q dropped: %v", doc.USNOrEmpty(), err))
			continue
		}
		docs = append(docs, doc)
	}
	res.Documents = docs

	res.Status = constants.RunStatusOK
	if out.Skipped > 0 || failed > 0 || res.Rejected > 0 {
		res.Status = constants.RunStatusPartial
	}

	if p.runs != nil {
		if p.students != nil {
			if err := p.students.SaveDocuments(ctx, res.RunID, docs); err != nil {
				return res, p.fail(ctx, res.RunID, err)
			}
		}
		if err := p.runs.Finish(ctx, res.RunID, repository.RunOutcome{
			Status:       res.Status,
			Pages:        out.Pages,
			SkippedPages: out.Skipped,
			Documents:    len(docs),
		}); err != nil {
			return res, err
		}
	}

	res.Duration = time.Since(start)
	log.Info("processor.stream.ok",
		"status", res.Status,
		"pages", res.Pages,
		"skipped", res.Skipped,
		"rejected", res.Rejected,
		"documents", len(res.Documents),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// fail marks the run FAILED (when persisted) and returns cause.
func (p *Processor) fail(ctx context.Context, runID uuid.UUID, cause error) error {
	if p.runs == nil || runID == uuid.Nil {
		return cause
	}
	// the run is closed even when ctx is already cancelled
	if err := p.runs.Fail(context.WithoutCancel(ctx), runID, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
