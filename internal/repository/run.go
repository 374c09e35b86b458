package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// RunOutcome is what a finished run records.
type RunOutcome struct {
	Status       constants.RunStatus
	Pages        int
	SkippedPages int
	Documents    int
}

type RunRepository interface {
	Start(ctx context.Context, source, format string) (*entity.ExtractionRun, error)
	Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error
	Fail(ctx context.Context, runID uuid.UUID, message string) error
	GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error)
	Count(ctx context.Context) (int, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

func (r *runRepo) Start(ctx context.Context, source, format string) (*entity.ExtractionRun, error) {
	run := &entity.ExtractionRun{
		ID:        uuid.New(),
		Source:    source,
		Format:    format,
		Status:    string(constants.RunStatusRunning),
		StartedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO extraction_runs (id, source, format, status, started_at)
		VALUES (?, ?, ?, ?, ?)`),
		run.ID.String(), run.Source, run.Format, run.Status, run.StartedAt)
	if err != nil {
		r.log.Error("extraction_run start failed", "source", source, "err", err)
		return nil, common.NewAppError("DB_ERROR", "start extraction run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extraction_run started", "run_id", run.ID, "source", source, "format", format)
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, runID uuid.UUID, out RunOutcome) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE extraction_runs
		SET status = ?, pages = ?, skipped_pages = ?, documents = ?, finished_at = ?
		WHERE id = ?`),
		string(out.Status), out.Pages, out.SkippedPages, out.Documents, time.Now().UTC(), runID.String())
	if err != nil {
		r.log.Error("extraction_run finish failed", "run_id", runID, "err", err)
		return common.NewAppError("DB_ERROR", "finish extraction run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extraction_run finished", "run_id", runID, "status", out.Status, "documents", out.Documents)
	return nil
}

func (r *runRepo) Fail(ctx context.Context, runID uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE extraction_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`),
		string(constants.RunStatusFailed), message, time.Now().UTC(), runID.String())
	if err != nil {
		r.log.Error("extraction_run fail failed", "run_id", runID, "err", err)
		return common.NewAppError("DB_ERROR", "fail extraction run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Warn("extraction_run finished (FAILED)", "run_id", runID, "error", message)
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error) {
	var (
		run      entity.ExtractionRun
		id       string
		finished sql.NullTime
		errMsg   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, source, format, status, pages, skipped_pages, documents, started_at, finished_at, error
		FROM extraction_runs WHERE id = ?`), runID.String()).
		Scan(&id, &run.Source, &run.Format, &run.Status, &run.Pages, &run.SkippedPages, &run.Documents,
			&run.StartedAt, &finished, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "extraction run "+runID.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "get extraction run", errors.Join(common.ErrDatabase, err))
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}
	return &run, nil
}

func (r *runRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM extraction_runs").Scan(&n); err != nil {
		return 0, common.NewAppError("DB_ERROR", "count extraction runs", errors.Join(common.ErrDatabase, err))
	}
	return n, nil
}
