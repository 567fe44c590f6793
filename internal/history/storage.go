package history

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/redditlink/shared/postgresql"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS media_jobs (
	job_id      TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	quality     TEXT NOT NULL,
	status      TEXT NOT NULL,
	progress    INTEGER NOT NULL DEFAULT 0,
	result_name TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS media_jobs_finished_idx ON media_jobs (finished_at DESC, job_id DESC);
`

// Filter narrows a history listing
type Filter struct {
	Status   string
	Quality  string
	PageSize int
	Cursor   *Cursor
}

// Page is one page of history, newest first
type Page struct {
	Records    []Record
	NextCursor string
}

// Storage persists finished jobs in PostgreSQL
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a new history storage
func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// EnsureSchema creates the journal table if it does not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Insert stores rec. Recording the same job twice keeps the first entry.
func (s *Storage) Insert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO media_jobs (
			job_id, url, quality, status, progress,
			result_name, error, created_at, finished_at
		) VALUES (
			:job_id, :url, :quality, :status, :progress,
			:result_name, :error, :created_at, :finished_at
		)
		ON CONFLICT (job_id) DO NOTHING
	`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// List returns one page of history matching filter
func (s *Storage) List(ctx context.Context, filter Filter) (*Page, error) {
	filter.PageSize = clampPageSize(filter.PageSize)
	query, args := buildListQuery(filter)

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return paginate(records, filter.PageSize), nil
}

func clampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, MaxPageSize)
}

func buildListQuery(filter Filter) (string, []any) {
	query := `
		SELECT
			job_id, url, quality, status, progress,
			result_name, error, created_at, finished_at
		FROM media_jobs
		WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Quality != "" {
		query += fmt.Sprintf(" AND quality = $%d", argIdx)
		args = append(args, filter.Quality)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (finished_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.FinishedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY finished_at DESC, job_id DESC"

	// one extra row tells whether another page exists
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	return query, args
}

func paginate(records []Record, pageSize int) *Page {
	if len(records) <= pageSize {
		return &Page{Records: records}
	}

	records = records[:pageSize]
	last := records[len(records)-1]
	next := &Cursor{FinishedAt: last.FinishedAt, JobID: last.JobID}
	return &Page{Records: records, NextCursor: next.Encode()}
}
