package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/results-tracker/internal/core/aggregate"
	"github.com/joseph-ayodele/results-tracker/internal/core/confidence"
	"github.com/joseph-ayodele/results-tracker/internal/core/identity"
	"github.com/joseph-ayodele/results-tracker/internal/core/normalize"
	"github.com/joseph-ayodele/results-tracker/internal/core/subjects"
	"github.com/joseph-ayodele/results-tracker/internal/core/variant"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Config holds the extraction tunables.
type Config struct {
	Heuristic  subjects.HeuristicConfig `yaml:"heuristic"`
	Thresholds confidence.Thresholds    `yaml:"thresholds"`
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		Heuristic:  subjects.DefaultHeuristicConfig(),
		Thresholds: confidence.DefaultThresholds(),
	}
}

// Outcome summarizes one stream.
type Outcome struct {
	Documents []entity.StudentDocument
	Pages     int
	Skipped   int
	Orphans   int
}

// Pipeline runs variant selection, extraction, scoring and merging over the
// pages of one stream. It holds no per-stream state and may be shared.
type Pipeline struct {
	logger     *slog.Logger
	strategies subjects.Strategies
	thresholds confidence.Thresholds
}

func New(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		strategies: subjects.NewStrategies(cfg.Heuristic),
		thresholds: cfg.Thresholds,
	}
}

// Run processes pages strictly in order with a fresh accumulator and returns
// the finalized documents sorted by USN. Faulty pages are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, pages []entity.Page) (Outcome, error) {
	acc := aggregate.New(p.logger)
	out := Outcome{Pages: len(pages)}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, ok := p.ExtractPage(page)
		if !ok {
			out.Skipped++
			continue
		}
		acc.Add(res)
	}

	out.Documents = acc.Finalize()
	out.Orphans = acc.Orphans()
	SortByUSN(out.Documents)

	p.logger.Debug("pipeline.run.ok",
		"pages", out.Pages,
		"skipped", out.Skipped,
		"orphans", out.Orphans,
		"documents", len(out.Documents),
	)
	return out, nil
}

// ExtractPage turns one page into a PageResult. It returns false when the page
// carries an extraction fault or no text variants.
func (p *Pipeline) ExtractPage(page entity.Page) (entity.PageResult, bool) {
	if page.Err != nil {
		p.logger.Warn("pipeline.page.skipped", "source", page.Source, "page", page.Index, "err", page.Err)
		return entity.PageResult{}, false
	}
	best, ok := variant.Select(page.Variants)
	if !ok {
		p.logger.Warn("pipeline.page.skipped", "source", page.Source, "page", page.Index, "err", "no text variants")
		return entity.PageResult{}, false
	}
	if len(page.Variants) > 1 {
		p.logger.Debug("pipeline.variant.selected",
			"source", page.Source,
			"page", page.Index,
			"label", best.Label,
			"score", best.Score,
		)
	}

	raw := identity.Extract(best.Text)
	var id entity.Identity
	if raw.USN != nil {
		if usn, ok := normalize.NormalizeID(*raw.USN); ok {
			id.USN = &usn
		} else {
			p.logger.Debug("pipeline.usn.rejected", "source", page.Source, "page", page.Index, "raw", *raw.USN)
		}
	}
	if raw.Name != nil {
		if name, ok := normalize.NormalizeName(*raw.Name); ok {
			id.Name = &name
		}
	}

	rows := p.strategies.For(page.Quality).Extract(best.Text)
	p.thresholds.Annotate(rows)

	return entity.PageResult{
		Source:   page.Source,
		Index:    page.Index,
		Identity: id,
		Subjects: rows,
	}, true
}

// SortByUSN orders documents by USN; documents without one sort last.
func SortByUSN(docs []entity.StudentDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].USNOrEmpty(), docs[j].USNOrEmpty()
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
}
