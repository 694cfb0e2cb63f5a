// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records batch submission attempts so users can review
// what was sent and how the Processing Service answered.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// DefaultLimit bounds List when the caller passes a non-positive limit.
const DefaultLimit = 50

// Store persists submission jobs.
type Store interface {
	// Record stores job, assigning ID and SubmittedAt when they are unset.
	Record(ctx context.Context, job types.Job) (types.Job, error)
	// List returns up to limit jobs, most recent first.
	List(ctx context.Context, limit int) ([]types.Job, error)
	Close() error
}

// Open returns the store selected by cfg. The none backend yields a nil
// Store and no error.
func Open(cfg types.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", types.HistoryNone:
		return nil, nil
	case types.HistoryMemory:
		return NewMemoryStore(), nil
	case types.HistorySQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// prepare fills in the fields a store assigns.
func prepare(job types.Job) types.Job {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	return job
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Export writes jobs to w as "yaml" or "json".
func Export(w io.Writer, jobs []types.Job, format string) error {
	if jobs == nil {
		jobs = []types.Job{}
	}
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(jobs); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jobs); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
