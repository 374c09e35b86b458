package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

const defaultSheet = "Results"

type Config struct {
	TemplatePath string // empty -> fresh workbook
	Sheet        string // empty -> active sheet of the template, or "Results"

	FailFill     string // RRGGBB
	PassInternal int
	PassExternal int
	PassTotal    int

	NoFailSubjects []string          // never coloured as failing
	ActivityFills  map[string]string // code -> RRGGBB
	MaxTotals      map[string]int    // code -> max marks; others use DefaultMax
	DefaultMax     int
}

func DefaultConfig() Config {
	return Config{
		FailFill:       "FFD60A",
		PassInternal:   18,
		PassExternal:   18,
		PassTotal:      36,
		NoFailSubjects: []string{"BAI586", "BAI786"},
		ActivityFills:  map[string]string{"BPEK559": "CFE2F3", "BNSK559": "EAD1DC"},
		MaxTotals:      map[string]int{"BAI786": 200},
		DefaultMax:     100,
	}
}

// Service writes finalized student documents into an XLSX workbook, either
// into a template's discovered layout or into a freshly generated sheet.
type Service struct {
	cfg    Config
	logger *slog.Logger
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.FailFill == "" {
		cfg.FailFill = def.FailFill
	}
	if cfg.DefaultMax <= 0 {
		cfg.DefaultMax = def.DefaultMax
	}
	return &Service{cfg: cfg, logger: logger}
}

// RowTotals is what one written row summed to.
type RowTotals struct {
	Grand      int
	Max        int
	Percentage float64
	Skipped    []string // codes with no column in the layout
}

// ExportXLSX returns the workbook bytes. Documents are written in the order
// given, one row each.
func (s *Service) ExportXLSX(ctx context.Context, docs []entity.StudentDocument) ([]byte, error) {
	start := time.Now()

	f, layout, err := s.open(docs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	w, err := newRowWriter(f, layout, s.cfg)
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		totals, err := w.write(layout.DataStartRow+i, i+1, doc)
		if err != nil {
			return nil, fmt.Errorf("write row for %q: %w", doc.USNOrEmpty(), err)
		}
		if len(totals.Skipped) > 0 {
			s.logger.Warn("export.subjects.unmapped", "usn", doc.USNOrEmpty(), "codes", totals.Skipped)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"template", s.cfg.TemplatePath,
		"sheet", layout.Sheet,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportFile writes the workbook to path.
func (s *Service) ExportFile(ctx context.Context, docs []entity.StudentDocument, path string) error {
	data, err := s.ExportXLSX(ctx, docs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Service) open(docs []entity.StudentDocument) (*excelize.File, *Layout, error) {
	if s.cfg.TemplatePath != "" {
		data, err := os.ReadFile(s.cfg.TemplatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("read template: %w", err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("open template: %w", err)
		}
		layout, err := discover(f, s.cfg.Sheet)
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		return f, layout, nil
	}

	sheet := s.cfg.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	seen := map[string]bool{}
	var codes []string
	for _, d := range docs {
		for _, sub := range d.Subjects {
			if sub.Code != "" && !seen[sub.Code] {
				seen[sub.Code] = true
				codes = append(codes, sub.Code)
			}
		}
	}
	SortCodes(codes)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	layout := freshLayout(sheet, codes)
	if err := writeHeader(f, layout); err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, layout, nil
}

func writeHeader(f *excelize.File, l *Layout) error {
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(l.Sheet, cell, v)
	}
	merge := func(c1, r1, c2, r2 int) error {
		a, _ := excelize.CoordinatesToCellName(c1, r1)
		b, _ := excelize.CoordinatesToCellName(c2, r2)
		return f.MergeCell(l.Sheet, a, b)
	}

	fixed := []struct {
		col   int
		label string
	}{{l.SlNoCol, "Sl No"}, {l.USNCol, "USN"}, {l.NameCol, "Name"}, {l.TotalCol, "Grand Total"}, {l.PercentageCol, "Percentage"}}
	for _, h := range fixed {
		if err := set(h.col, 1, h.label); err != nil {
			return err
		}
		if err := merge(h.col, 1, h.col, 2); err != nil {
			return err
		}
	}
	for _, code := range l.SubjectOrder {
		cols := l.Subjects[code]
		if err := set(cols.Internal, 1, code); err != nil {
			return err
		}
		if err := merge(cols.Internal, 1, cols.Result, 1); err != nil {
			return err
		}
		for i, label := range []string{"INT", "EXT", "TOT", "RES"} {
			if err := set(cols.Internal+i, 2, label); err != nil {
				return err
			}
		}
	}
	nameCol, _ := excelize.ColumnNumberToName(l.NameCol)
	_ = f.SetColWidth(l.Sheet, nameCol, nameCol, 28)
	usnCol, _ := excelize.ColumnNumberToName(l.USNCol)
	_ = f.SetColWidth(l.Sheet, usnCol, usnCol, 14)
	return nil
}

// rowWriter holds the fill styles for one workbook.
type rowWriter struct {
	f         *excelize.File
	l         *Layout
	cfg       Config
	failStyle int
	activity  map[string]int
	noFail    map[string]bool
}

func newRowWriter(f *excelize.File, l *Layout, cfg Config) (*rowWriter, error) {
	w := &rowWriter{f: f, l: l, cfg: cfg, activity: map[string]int{}, noFail: map[string]bool{}}
	var err error
	if w.failStyle, err = fillStyle(f, cfg.FailFill); err != nil {
		return nil, err
	}
	for code, color := range cfg.ActivityFills {
		if w.activity[code], err = fillStyle(f, color); err != nil {
			return nil, err
		}
	}
	for _, code := range cfg.NoFailSubjects {
		w.noFail[code] = true
	}
	return w, nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
}

// write fills one student row and its totals. Activity subjects go into the
// template's activity slots in order when it has any.
func (w *rowWriter) write(row, serial int, doc entity.StudentDocument) (RowTotals, error) {
	var totals RowTotals
	if w.l.SlNoCol > 0 {
		if err := w.set(w.l.SlNoCol, row, serial); err != nil {
			return totals, err
		}
	}
	if doc.Identity.USN != nil {
		if err := w.set(w.l.USNCol, row, *doc.Identity.USN); err != nil {
			return totals, err
		}
	}
	if doc.Identity.Name != nil {
		if err := w.set(w.l.NameCol, row, *doc.Identity.Name); err != nil {
			return totals, err
		}
	}

	subjects := append([]entity.SubjectRow(nil), doc.Subjects...)
	codes := make([]string, len(subjects))
	for i := range subjects {
		codes[i] = subjects[i].Code
	}
	byCode := make(map[string]entity.SubjectRow, len(subjects))
	for _, sub := range subjects {
		byCode[sub.Code] = sub
	}
	SortCodes(codes)

	slots := w.l.ActivitySlots
	for _, code := range codes {
		if code == "" {
			continue
		}
		sub := byCode[code]
		activity := IsActivity(code)

		key := code
		if activity && len(w.l.ActivitySlots) > 0 {
			if len(slots) == 0 {
				totals.Skipped = append(totals.Skipped, code)
				continue
			}
			key, slots = slots[0], slots[1:]
		}
		cols, ok := w.l.Subjects[key]
		if !ok {
			totals.Skipped = append(totals.Skipped, code)
			continue
		}

		if err := w.marks(row, cols, sub); err != nil {
			return totals, err
		}

		style := 0
		switch {
		case activity:
			style = w.activity[code]
		case !w.noFail[code] && w.failing(sub):
			style = w.failStyle
		}
		if style != 0 {
			if err := w.fill(row, cols, style); err != nil {
				return totals, err
			}
		}

		if sub.Total != nil {
			totals.Grand += *sub.Total
			totals.Max += w.maxFor(code, activity)
		}
	}

	if totals.Max > 0 {
		totals.Percentage = math.Round(float64(totals.Grand)/float64(totals.Max)*1000) / 10
	}
	if w.l.TotalCol > 0 {
		if err := w.set(w.l.TotalCol, row, totals.Grand); err != nil {
			return totals, err
		}
	}
	if w.l.PercentageCol > 0 && totals.Max > 0 {
		if err := w.set(w.l.PercentageCol, row, totals.Percentage); err != nil {
			return totals, err
		}
	}
	return totals, nil
}

func (w *rowWriter) marks(row int, cols SubjectColumns, sub entity.SubjectRow) error {
	for _, v := range []struct {
		col int
		val *int
	}{{cols.Internal, sub.Internal}, {cols.External, sub.External}, {cols.Total, sub.Total}} {
		if v.val == nil {
			continue
		}
		if err := w.set(v.col, row, *v.val); err != nil {
			return err
		}
	}
	if sub.Result != nil {
		return w.set(cols.Result, row, *sub.Result)
	}
	return nil
}

// failing compares only the marks that are present.
func (w *rowWriter) failing(sub entity.SubjectRow) bool {
	below := func(v *int, pass int) bool { return v != nil && *v < pass }
	return below(sub.Internal, w.cfg.PassInternal) ||
		below(sub.External, w.cfg.PassExternal) ||
		below(sub.Total, w.cfg.PassTotal)
}

func (w *rowWriter) maxFor(code string, activity bool) int {
	if m, ok := w.cfg.MaxTotals[code]; ok && m > 0 && !activity {
		return m
	}
	return w.cfg.DefaultMax
}

func (w *rowWriter) fill(row int, cols SubjectColumns, style int) error {
	a, _ := excelize.CoordinatesToCellName(cols.Internal, row)
	b, _ := excelize.CoordinatesToCellName(cols.Total, row)
	return w.f.SetCellStyle(w.l.Sheet, a, b, style)
}

func (w *rowWriter) set(col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(w.l.Sheet, cell, v)
}
