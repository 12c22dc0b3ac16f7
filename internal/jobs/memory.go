package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRegistry is the fallback backend used when no durable store is
// configured or reachable. Entries never expire and live only inside the
// current process: under multiple server processes a job created on one
// is invisible to the others. That is an explicit, documented limitation
// of this backend, not something callers should try to mask.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]*Job)}
}

func (r *MemoryRegistry) Name() string { return "memory" }

func (r *MemoryRegistry) Get(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.Clone(), nil
}

func (r *MemoryRegistry) Put(_ context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	snapshot := job.Clone()
	snapshot.UpdatedAt = time.Now()

	r.mu.Lock()
	r.jobs[job.ID] = snapshot
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) UpdateProgress(ctx context.Context, id string, progress int) error {
	job, err := r.Get(ctx, id)
	if err != nil || job == nil {
		return err
	}
	job.Progress = progress
	return r.Put(ctx, job)
}
