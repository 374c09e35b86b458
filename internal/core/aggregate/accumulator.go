// Package aggregate folds per-page results into per-student documents.
package aggregate

import (
	"log/slog"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// Accumulator stitches pages of one stream into documents. A page carrying a
// USN starts a new document; pages without one continue the open document.
//
// An Accumulator owns its open document and is not safe for concurrent use;
// create one per stream.
type Accumulator struct {
	logger  *slog.Logger
	current *entity.StudentDocument
	done    []entity.StudentDocument
	orphans int
}

// New returns an empty Accumulator.
func New(logger *slog.Logger) *Accumulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{logger: logger}
}

// Add folds one page in. Pages must arrive in scan order.
func (a *Accumulator) Add(page entity.PageResult) {
	if page.Identity.HasUSN() {
		a.closeCurrent()
		a.current = &entity.StudentDocument{
			Identity: page.Identity,
			Subjects: append([]entity.SubjectRow(nil), page.Subjects...),
			Sources:  appendSource(nil, page.Source),
		}
		return
	}

	if a.current == nil {
		a.orphans++
		a.logger.Warn("accumulator.orphan_page",
			"source", page.Source,
			"page", page.Index,
			"subjects", len(page.Subjects),
		)
		return
	}
	a.current.Subjects = append(a.current.Subjects, page.Subjects...)
	a.current.Sources = appendSource(a.current.Sources, page.Source)
}

// Finalize closes any open document and returns every closed document in
// order. The accumulator is empty afterwards.
func (a *Accumulator) Finalize() []entity.StudentDocument {
	a.closeCurrent()
	out := a.done
	a.done = nil
	return out
}

// Open reports whether a document is currently open.
func (a *Accumulator) Open() bool { return a.current != nil }

// Orphans returns how many continuation pages were dropped.
func (a *Accumulator) Orphans() int { return a.orphans }

func (a *Accumulator) closeCurrent() {
	if a.current == nil {
		return
	}
	doc := *a.current
	doc.Subjects = Dedupe(doc.Subjects)
	a.done = append(a.done, doc)
	a.current = nil
}

// Dedupe keeps one row per code. The last reading of a code wins and takes the
// position of the code's first appearance. Rows without a code are dropped.
func Dedupe(rows []entity.SubjectRow) []entity.SubjectRow {
	index := make(map[string]int, len(rows))
	out := make([]entity.SubjectRow, 0, len(rows))
	for _, r := range rows {
		if r.Code == "" {
			continue
		}
		if i, ok := index[r.Code]; ok {
			out[i] = r
			continue
		}
		index[r.Code] = len(out)
		out = append(out, r)
	}
	return out
}

func appendSource(sources []string, src string) []string {
	if src == "" {
		return sources
	}
	if n := len(sources); n > 0 && sources[n-1] == src {
		return sources
	}
	return append(sources, src)
}
