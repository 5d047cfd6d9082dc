package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fabworks/printflow/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id                          TEXT PRIMARY KEY,
    student_name                TEXT NOT NULL,
    student_email               TEXT NOT NULL,
    discipline                  TEXT NOT NULL,
    class_number                TEXT NOT NULL,
    original_filename           TEXT NOT NULL,
    display_name                TEXT NOT NULL,
    file_path                   TEXT NOT NULL,
    status                      TEXT NOT NULL DEFAULT 'UPLOADED',
    printer                     TEXT,
    color                       TEXT,
    material                    TEXT,
    weight_g                    REAL,
    time_hours                  REAL,
    cost_usd                    TEXT,
    scaled_correctly            INTEGER NOT NULL DEFAULT 0,
    acknowledged_minimum_charge INTEGER NOT NULL DEFAULT 0,
    confirm_token               TEXT UNIQUE,
    confirm_token_expires       DATETIME,
    student_confirmed           INTEGER NOT NULL DEFAULT 0,
    student_confirmed_at        DATETIME,
    reject_reasons              TEXT,
    created_at                  DATETIME NOT NULL,
    updated_at                  DATETIME NOT NULL,
    last_updated_by             TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

const jobColumns = `id, student_name, student_email, discipline, class_number,
	original_filename, display_name, file_path, status, printer, color, material,
	weight_g, time_hours, cost_usd, scaled_correctly, acknowledged_minimum_charge,
	confirm_token, confirm_token_expires, student_confirmed, student_confirmed_at,
	reject_reasons, created_at, updated_at, last_updated_by`

// Repository implements domain.JobRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new job row.
func (r *Repository) Create(ctx context.Context, job *domain.Job) error {
	reasons, err := marshalReasons(job.RejectReasons)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.StudentName, job.StudentEmail, job.Discipline, job.ClassNumber,
		job.OriginalFilename, job.DisplayName, job.FilePath, string(job.Status),
		nullString(job.Printer), nullString(job.Color), nullString(job.Material),
		job.WeightGrams, job.TimeHours, costValue(job.CostUSD),
		job.ScaledCorrectly, job.AcknowledgedMinimumCharge,
		nullString(job.ConfirmToken), nullTime(job.ConfirmTokenExpires),
		job.StudentConfirmed, nullTime(job.StudentConfirmedAt),
		reasons, job.CreatedAt, job.UpdatedAt, nullString(job.LastUpdatedBy),
	)
	return err
}

// Get retrieves a job by id.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns jobs, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status domain.Status) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// UpdateTransition commits every mutable field, guarded by the optimistic
// status check. Zero rows affected means the status moved underneath us
// (or the job vanished), reported as ErrStaleStatus / ErrJobNotFound.
func (r *Repository) UpdateTransition(ctx context.Context, job *domain.Job, from domain.Status) error {
	reasons, err := marshalReasons(job.RejectReasons)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET
			file_path = ?, status = ?, printer = ?, color = ?, material = ?,
			weight_g = ?, time_hours = ?, cost_usd = ?,
			confirm_token = ?, confirm_token_expires = ?,
			student_confirmed = ?, student_confirmed_at = ?,
			reject_reasons = ?, updated_at = ?, last_updated_by = ?
		 WHERE id = ? AND status = ?`,
		job.FilePath, string(job.Status),
		nullString(job.Printer), nullString(job.Color), nullString(job.Material),
		job.WeightGrams, job.TimeHours, costValue(job.CostUSD),
		nullString(job.ConfirmToken), nullTime(job.ConfirmTokenExpires),
		job.StudentConfirmed, nullTime(job.StudentConfirmedAt),
		reasons, job.UpdatedAt, nullString(job.LastUpdatedBy),
		job.ID, string(from),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.Get(ctx, job.ID); err != nil {
			return err
		}
		return domain.ErrStaleStatus
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job                   domain.Job
		status                string
		printer, color        sql.NullString
		material, token       sql.NullString
		cost, reasons, updBy  sql.NullString
		weight, hours         sql.NullFloat64
		tokenExp, confirmedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.StudentName, &job.StudentEmail, &job.Discipline, &job.ClassNumber,
		&job.OriginalFilename, &job.DisplayName, &job.FilePath, &status,
		&printer, &color, &material,
		&weight, &hours, &cost,
		&job.ScaledCorrectly, &job.AcknowledgedMinimumCharge,
		&token, &tokenExp, &job.StudentConfirmed, &confirmedAt,
		&reasons, &job.CreatedAt, &job.UpdatedAt, &updBy,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	job.Status = domain.Status(status)
	job.Printer = printer.String
	job.Color = color.String
	job.Material = material.String
	job.WeightGrams = weight.Float64
	job.TimeHours = hours.Float64
	job.ConfirmToken = token.String
	job.LastUpdatedBy = updBy.String
	if tokenExp.Valid {
		t := tokenExp.Time
		job.ConfirmTokenExpires = &t
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		job.StudentConfirmedAt = &t
	}
	if cost.Valid && cost.String != "" {
		d, err := decimal.NewFromString(cost.String)
		if err != nil {
			return nil, fmt.Errorf("parse cost_usd %q: %w", cost.String, err)
		}
		job.CostUSD = d
	}
	if reasons.Valid && reasons.String != "" {
		if err := json.Unmarshal([]byte(reasons.String), &job.RejectReasons); err != nil {
			return nil, fmt.Errorf("parse reject_reasons: %w", err)
		}
	}
	return &job, nil
}

func marshalReasons(reasons []string) (any, error) {
	if len(reasons) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(reasons)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func costValue(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.StringFixed(2)
}
