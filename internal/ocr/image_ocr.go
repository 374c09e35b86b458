package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// recognizePage decodes one page image, renders the enhancement variants and
// recognizes each. Failures are recorded on the page.
func (e *Extractor) recognizePage(ctx context.Context, path string, index int) (entity.Page, []string) {
	page := entity.Page{Source: path, Index: index, Quality: entity.QualityNoisy}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		page.Err = fmt.Errorf("decode image: %w", err)
		return page, []string{page.Err.Error()}
	}

	tmpDir, err := os.MkdirTemp("", "rt-var-*")
	if err != nil {
		page.Err = err
		return page, nil
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	var warns []string
	for _, v := range Enhance(img, e.cfg.Variants) {
		if err := ctx.Err(); err != nil {
			page.Err = err
			return page, warns
		}
		out := filepath.Join(tmpDir, v.Label+".png")
		if err := imaging.Save(v.Image, out); err != nil {
			warns = append(warns, fmt.Sprintf("variant %s: save: %v", v.Label, err))
			continue
		}
		txt, err := e.recognizer.Recognize(ctx, out)
		if err != nil {
			e.logger.Warn("variant recognition failed", "path", path, "variant", v.Label, "error", err)
			warns = append(warns, fmt.Sprintf("variant %s: %v", v.Label, err))
			continue
		}
		page.Variants = append(page.Variants, entity.VariantCandidate{Label: v.Label, Text: Normalize(txt)})
	}

	if len(page.Variants) == 0 {
		page.Err = fmt.Errorf("all variants failed for %s: %s", path, strings.Join(warns, "; "))
	}
	e.logger.Debug("page recognized", "path", path, "index", index, "variants", len(page.Variants))
	return page, warns
}
