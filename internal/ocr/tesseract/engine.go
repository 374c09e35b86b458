//go:build gosseract

package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine implements ocr.Recognizer over a fresh gosseract client per image.
type Engine struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

func New(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Engine{opts: opts, clientFactory: gosseract.NewClient}, nil
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.opts.TessdataDir != "" {
		c.SetTessdataPrefix(e.opts.TessdataDir)
	}
	if err := c.SetLanguage(e.opts.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if e.opts.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.opts.PSM)); err != nil {
			return "", fmt.Errorf("set psm: %w", err)
		}
	}
	if e.opts.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.opts.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
