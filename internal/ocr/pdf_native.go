package ocr

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// nativePDFPages reads each page's text layer in-process, rebuilding rows from
// glyph positions. It is the fallback when pdftotext is unavailable.
func nativePDFPages(path string, maxPages int) (pages []string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// the reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, rec)
		}
	}()

	n := r.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, rowsToText(p.Content().Text))
	}
	return pages, nil
}

// rowsToText groups glyphs into rows by baseline (top to bottom) and joins each
// row left to right, inserting a space at visible gaps.
func rowsToText(texts []pdf.Text) string {
	if len(texts) == 0 {
		return ""
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance(sorted[i]) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		b       strings.Builder
		rowY    = sorted[0].Y
		lastEnd = math.Inf(-1)
	)
	for _, t := range sorted {
		if math.Abs(t.Y-rowY) > rowTolerance(t) {
			b.WriteByte('\n')
			rowY = t.Y
			lastEnd = math.Inf(-1)
		} else if t.X-lastEnd > 0.25*t.FontSize {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	return b.String()
}

func rowTolerance(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize / 2
	}
	return 2
}
