// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// DefaultSQLitePath is used when no path is configured.
const DefaultSQLitePath = "pdf-markup-history.db"

// SQLiteStore keeps jobs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			files TEXT NOT NULL,
			operation_count INTEGER NOT NULL,
			operations TEXT,
			status TEXT NOT NULL,
			http_status INTEGER,
			error TEXT,
			result_name TEXT,
			submitted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_submitted_at ON jobs(submitted_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, job types.Job) (types.Job, error) {
	job = prepare(job)
	files, err := json.Marshal(job.Files)
	if err != nil {
		return job, fmt.Errorf("encoding files: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, files, operation_count, operations, status, http_status, error, result_name, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(files), job.OperationCount, job.Operations, string(job.Status),
		job.HTTPStatus, job.Error, job.ResultName, job.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return job, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return job, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]types.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, files, operation_count, operations, status, http_status, error, result_name, submitted_at
		 FROM jobs ORDER BY rowid DESC LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var job types.Job
		var files, status, submitted string
		var ops, errMsg, resultName sql.NullString
		var httpStatus sql.NullInt64
		if err := rows.Scan(&job.ID, &files, &job.OperationCount, &ops, &status,
			&httpStatus, &errMsg, &resultName, &submitted); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		if err := json.Unmarshal([]byte(files), &job.Files); err != nil {
			return nil, fmt.Errorf("decoding files of job %s: %w", job.ID, err)
		}
		job.Operations = ops.String
		job.Status = types.JobStatus(status)
		job.HTTPStatus = int(httpStatus.Int64)
		job.Error = errMsg.String
		job.ResultName = resultName.String
		if job.SubmittedAt, err = time.Parse(time.RFC3339Nano, submitted); err != nil {
			return nil, fmt.Errorf("parsing time of job %s: %w", job.ID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
