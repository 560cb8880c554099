package repository

import (
	"context"
	"sync"
)

// MemoryRunRepository keeps the most recent runs in memory
type MemoryRunRepository struct {
	mu    sync.RWMutex
	limit int
	order []string
	runs  map[string]*StoredRun
}

// NewMemoryRunRepository keeps at most limit runs; older ones are dropped
func NewMemoryRunRepository(limit int) *MemoryRunRepository {
	if limit <= 0 {
		limit = 10
	}
	return &MemoryRunRepository{limit: limit, runs: make(map[string]*StoredRun)}
}

func (r *MemoryRunRepository) SaveRun(ctx context.Context, run *StoredRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := run.ID()
	if _, ok := r.runs[id]; !ok {
		r.order = append(r.order, id)
	}
	r.runs[id] = run
	for len(r.order) > r.limit {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryRunRepository) LatestRun(ctx context.Context) (*StoredRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, ErrRunNotFound
	}
	return r.runs[r.order[len(r.order)-1]], nil
}

func (r *MemoryRunRepository) GetRun(ctx context.Context, id string) (*StoredRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}
