// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"sync"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// MemoryStore keeps jobs for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	jobs []types.Job
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Record(_ context.Context, job types.Job) (types.Job, error) {
	job = prepare(job)
	job.Files = append([]string(nil), job.Files...)
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return job, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]types.Job, error) {
	limit = limitOrDefault(limit)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Job, 0, min(limit, len(s.jobs)))
	for i := len(s.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.jobs[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
