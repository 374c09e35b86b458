package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

type StudentRepository interface {
	SaveDocuments(ctx context.Context, runID uuid.UUID, docs []entity.StudentDocument) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.StudentDocument, error)
	LatestByUSN(ctx context.Context, usn string) (*entity.StudentDocument, error)
}

type studentRepo struct {
	db  *DB
	log *slog.Logger
}

func NewStudentRepository(db *DB, log *slog.Logger) StudentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &studentRepo{db: db, log: log}
}

// SaveDocuments writes every document of a run in one transaction.
func (r *studentRepo) SaveDocuments(ctx context.Context, runID uuid.UUID, docs []entity.StudentDocument) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin tx", errors.Join(common.ErrDatabase, err))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Error("rollback failed", "run_id", runID, "err", rbErr)
			}
		}
	}()

	insStudent := r.db.Rebind(`
		INSERT INTO students (id, run_id, position, usn, name, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	insMark := r.db.Rebind(`
		INSERT INTO subject_marks (student_id, position, subject_code, internal, external, total, result, confidence, flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	now := time.Now().UTC()
	for i, doc := range docs {
		sources, err := json.Marshal(nonNil(doc.Sources))
		if err != nil {
			return fmt.Errorf("marshal sources: %w", err)
		}
		studentID := uuid.New().String()
		if _, err = tx.ExecContext(ctx, insStudent,
			studentID, runID.String(), i, nullString(doc.Identity.USN), nullString(doc.Identity.Name), string(sources), now); err != nil {
			r.log.Error("insert student failed", "run_id", runID, "usn", doc.USNOrEmpty(), "err", err)
			return common.NewAppError("DB_ERROR", "insert student", errors.Join(common.ErrDatabase, err))
		}
		for j, s := range doc.Subjects {
			if _, err = tx.ExecContext(ctx, insMark,
				studentID, j, s.Code, nullInt(s.Internal), nullInt(s.External), nullInt(s.Total),
				nullString(s.Result), s.Confidence, string(s.Flag)); err != nil {
				r.log.Error("insert subject mark failed", "run_id", runID, "subject_code", s.Code, "err", err)
				return common.NewAppError("DB_ERROR", "insert subject mark", errors.Join(common.ErrDatabase, err))
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("saved documents", "run_id", runID, "documents", len(docs))
	return nil
}

func (r *studentRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.StudentDocument, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, usn, name, sources FROM students WHERE run_id = ? ORDER BY position`), runID.String())
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list students", errors.Join(common.ErrDatabase, err))
	}
	ids, docs, err := scanStudents(rows)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].Subjects, err = r.subjects(ctx, ids[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// LatestByUSN returns the most recently stored document for usn.
func (r *studentRepo) LatestByUSN(ctx context.Context, usn string) (*entity.StudentDocument, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, usn, name, sources FROM students WHERE usn = ?
		ORDER BY created_at DESC, position DESC LIMIT 1`), usn)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "latest student", errors.Join(common.ErrDatabase, err))
	}
	ids, docs, err := scanStudents(rows)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "student "+usn, common.ErrNotFound)
	}
	if docs[0].Subjects, err = r.subjects(ctx, ids[0]); err != nil {
		return nil, err
	}
	return &docs[0], nil
}

func (r *studentRepo) subjects(ctx context.Context, studentID string) ([]entity.SubjectRow, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT subject_code, internal, external, total, result, confidence, flag
		FROM subject_marks WHERE student_id = ? ORDER BY position`), studentID)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list subject marks", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	out := []entity.SubjectRow{}
	for rows.Next() {
		var (
			s                         entity.SubjectRow
			internal, external, total sql.NullInt64
			result                    sql.NullString
			flag                      string
		)
		if err := rows.Scan(&s.Code, &internal, &external, &total, &result, &s.Confidence, &flag); err != nil {
			return nil, err
		}
		s.Internal, s.External, s.Total = intPtr(internal), intPtr(external), intPtr(total)
		s.Result = strPtr(result)
		s.Flag = entity.Flag(flag)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStudents(rows *sql.Rows) ([]string, []entity.StudentDocument, error) {
	defer rows.Close()
	var (
		ids  []string
		docs []entity.StudentDocument
	)
	for rows.Next() {
		var (
			id, sources string
			usn, name   sql.NullString
		)
		if err := rows.Scan(&id, &usn, &name, &sources); err != nil {
			return nil, nil, err
		}
		doc := entity.StudentDocument{Identity: entity.Identity{USN: strPtr(usn), Name: strPtr(name)}}
		if err := json.Unmarshal([]byte(sources), &doc.Sources); err != nil {
			return nil, nil, fmt.Errorf("decode sources: %w", err)
		}
		ids = append(ids, id)
		docs = append(docs, doc)
	}
	return ids, docs, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
