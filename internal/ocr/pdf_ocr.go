package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-text", Language: e.cfg.TesseractLang}

	texts, warns, err := e.pdfToText(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		e.logger.Warn("pdftotext failed, using in-process reader", "path", path, "error", err)
		texts, err = nativePDFPages(path, e.cfg.MaxPages)
		if err != nil {
			return res, fmt.Errorf("read pdf text: %w", err)
		}
		res.Method = "pdf-native"
	}

	if NeedsOCR(strings.Join(texts, "\n")) {
		e.logger.Info("pdf text layer unusable, rasterizing", "path", path, "pages", len(texts))
		pages, w, err := e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, w...)
		if err != nil {
			return res, err
		}
		res.Method = "pdf-ocr"
		res.Pages = pages
		return res, nil
	}

	for i, t := range texts {
		res.Pages = append(res.Pages, entity.Page{
			Source:   path,
			Index:    i,
			Quality:  entity.QualityClean,
			Variants: []entity.VariantCandidate{{Label: res.Method, Text: Normalize(t)}},
		})
	}
	return res, nil
}

// pdfToText returns one string per page of the PDF text layer.
func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	// A form-feed \f terminates every page
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	return pages, nil, nil
}

// pdfToOCR rasterizes every page and recognizes each image independently. A
// page that fails carries its error; siblings are unaffected.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]entity.Page, []string, error) {
	tmpDir, err := os.MkdirTemp("", "rt-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, []string{string(errb)}, err
	}

	// prefix-1.png, prefix-2.png, ... (zero padded to the page count width)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var (
		pages []entity.Page
		warns []string
	)
	for i, img := range matches {
		if err := ctx.Err(); err != nil {
			return pages, warns, err
		}
		page, w := e.recognizePage(ctx, img, i)
		page.Source = path
		pages = append(pages, page)
		warns = append(warns, w...)
	}
	return pages, warns, nil
}
