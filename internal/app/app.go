// Package app builds the shared components from configuration so the
// binaries wire them the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/core"
	"github.com/joseph-ayodele/results-tracker/internal/core/pipeline"
	"github.com/joseph-ayodele/results-tracker/internal/export"
	"github.com/joseph-ayodele/results-tracker/internal/ocr"
	"github.com/joseph-ayodele/results-tracker/internal/ocr/tesseract"
	"github.com/joseph-ayodele/results-tracker/internal/repository"
)

const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// OpenDB opens the configured database and applies pending migrations.
func OpenDB(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewExtractor builds the page extractor. The gosseract engine needs a
// binary built with -tags gosseract.
func NewExtractor(cfg *common.Config, logger *slog.Logger) (*ocr.Extractor, error) {
	ocfg := ocr.Config{
		Pdftotext:        cfg.OCR.Pdftotext,
		Pdftoppm:         cfg.OCR.Pdftoppm,
		Tesseract:        cfg.OCR.Tesseract,
		TesseractLang:    cfg.OCR.Language,
		DPI:              cfg.OCR.DPI,
		MaxPages:         cfg.OCR.MaxPages,
		TessdataDir:      cfg.OCR.TessdataDir,
		HeicConverter:    cfg.OCR.HeicConverter,
		PSM:              cfg.OCR.PSM,
		OEM:              cfg.OCR.OEM,
		Variants:         cfg.OCR.Variants,
		ArtifactCacheDir: cfg.OCR.ArtifactCacheDir,
	}
	var opts []ocr.Option
	switch cfg.OCR.Engine {
	case "", EngineCLI:
	case EngineGosseract:
		eng, err := tesseract.New(tesseract.Options{
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
			PSM:         cfg.OCR.PSM,
			DPI:         cfg.OCR.DPI,
		})
		if err != nil {
			return nil, common.NewAppError("CONFIG_ERROR", "ocr engine", err)
		}
		opts = append(opts, ocr.WithRecognizer(eng))
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown ocr engine %q", cfg.OCR.Engine), common.ErrInvalidInput)
	}
	return ocr.NewExtractor(ocfg, logger, opts...), nil
}

// NewProcessor builds a stream processor; db may be nil to skip persistence.
func NewProcessor(cfg *common.Config, db *repository.DB, logger *slog.Logger) (*core.Processor, error) {
	ex, err := NewExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	var opts []core.ProcessorOption
	if db != nil {
		opts = append(opts, core.WithPersistence(
			repository.NewRunRepository(db, logger),
			repository.NewStudentRepository(db, logger),
		))
	}
	return core.NewProcessor(logger, ex, pipeline.New(cfg.Extraction, logger), opts...), nil
}

// NewExporter maps the export section onto the workbook writer.
func NewExporter(cfg *common.Config, logger *slog.Logger) *export.Service {
	return export.NewService(exportConfig(cfg), logger)
}

// exportConfig overlays the non-zero export settings on the defaults.
func exportConfig(cfg *common.Config) export.Config {
	ecfg := export.DefaultConfig()
	ecfg.TemplatePath = cfg.Export.TemplatePath
	ecfg.Sheet = cfg.Export.Sheet
	if cfg.Export.FailFill != "" {
		ecfg.FailFill = cfg.Export.FailFill
	}
	if cfg.Export.PassInternal > 0 {
		ecfg.PassInternal = cfg.Export.PassInternal
	}
	if cfg.Export.PassExternal > 0 {
		ecfg.PassExternal = cfg.Export.PassExternal
	}
	if cfg.Export.PassTotal > 0 {
		ecfg.PassTotal = cfg.Export.PassTotal
	}
	if cfg.Export.NoFailSubjects != nil {
		ecfg.NoFailSubjects = cfg.Export.NoFailSubjects
	}
	if cfg.Export.ActivityFills != nil {
		ecfg.ActivityFills = cfg.Export.ActivityFills
	}
	if cfg.Export.MaxTotals != nil {
		ecfg.MaxTotals = cfg.Export.MaxTotals
	}
	return ecfg
}
