package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir   string
	HeicConverter string

	PSM int // 6 suits the single uniform table block
	OEM int // 1 = LSTM; leave 0 to use default

	// Variants lists the enhancement passes to recognize; empty means all.
	Variants []string

	ArtifactCacheDir string
}

// ExtractionResult holds the pages read from one file, in order.
type ExtractionResult struct {
	Pages      []entity.Page
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-native" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

type Extractor struct {
	cfg        Config
	runner     Runner
	recognizer Recognizer
	logger     *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the exec runner (tests).
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithRecognizer replaces the tesseract CLI recognizer.
func WithRecognizer(r Recognizer) Option {
	return func(e *Extractor) {
		if r != nil {
			e.recognizer = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	e := &Extractor{cfg: cfg, runner: NewExecRunner(logger), logger: logger}
	for _, o := range opts {
		o(e)
	}
	if e.recognizer == nil {
		e.recognizer = NewTesseractCLI(cfg, e.runner)
	}
	return e
}

// Extract picks a strategy based on file extension. Page-level failures are
// reported on the page, not as an error.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting ocr extraction", "path", path, "method", "auto", "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		var warns []string
		src := path
		if constants.IsHEICExt(ext) {
			out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
			warns = append(warns, w...)
			if cleanup != nil {
				defer cleanup()
			}
			if err != nil {
				e.logger.Error("heic conversion failed", "path", path, "error", err)
				return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
			}
			src = out
		}
		page, w := e.recognizePage(ctx, src, 0)
		page.Source = path
		return ExtractionResult{
			Pages:      []entity.Page{page},
			SourceType: constants.IMAGE,
			Method:     "image-ocr",
			Language:   e.cfg.TesseractLang,
			Duration:   time.Since(start),
			Warnings:   append(warns, w...),
		}, nil
	default:
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("%w: extension %q", common.ErrUnsupported, ext)
	}
}
