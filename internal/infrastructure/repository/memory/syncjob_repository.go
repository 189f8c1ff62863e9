package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
)

// SyncJobRepository is an in-memory job queue with the same claim semantics
// as the postgres implementation: oldest pending first, claim marks
// processing before any work happens.
type SyncJobRepository struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]syncjob.Job
}

func NewSyncJobRepository() *SyncJobRepository {
	return &SyncJobRepository{
		items: make(map[int64]syncjob.Job),
	}
}

func (r *SyncJobRepository) Enqueue(_ context.Context, jobs []syncjob.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return err
		}
		r.nextID++
		job.ID = r.nextID
		job.Status = syncjob.StatusPending
		if job.CreatedAt.IsZero() {
			job.CreatedAt = time.Now().UTC()
		}
		r.items[job.ID] = job
	}
	return nil
}

// SeedRaw stores a job without validation. Tests only, for rows that predate
// the current type set or were written by another component.
func (r *SyncJobRepository) SeedRaw(job syncjob.Job) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	job.ID = r.nextID
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.items[job.ID] = job
	return job.ID
}

func (r *SyncJobRepository) ClaimPending(_ context.Context, limit int, startedAt time.Time) ([]syncjob.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]syncjob.Job, 0, limit)
	for _, job := range r.items {
		if job.Status == syncjob.StatusPending {
			pending = append(pending, job)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	claimed := make([]syncjob.Job, 0, len(pending))
	for _, job := range pending {
		at := startedAt
		job.Status = syncjob.StatusProcessing
		job.StartedAt = &at
		r.items[job.ID] = job
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (r *SyncJobRepository) MarkCompleted(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.items[id]
	if !ok {
		return syncjob.ErrNotFound
	}
	job.Status = syncjob.StatusCompleted
	job.CompletedAt = &at
	r.items[id] = job
	return nil
}

func (r *SyncJobRepository) MarkFailed(_ context.Context, id int64, at time.Time, errorLog string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.items[id]
	if !ok {
		return syncjob.ErrNotFound
	}
	job.Status = syncjob.StatusFailed
	job.CompletedAt = &at
	job.ErrorLog = errorLog
	r.items[id] = job
	return nil
}

func (r *SyncJobRepository) RequeueStale(_ context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requeued := 0
	for id, job := range r.items {
		if job.Status != syncjob.StatusProcessing || job.StartedAt == nil {
			continue
		}
		if job.StartedAt.After(olderThan) {
			continue
		}
		job.Status = syncjob.StatusPending
		job.StartedAt = nil
		r.items[id] = job
		requeued++
	}
	return requeued, nil
}

func (r *SyncJobRepository) CountByStatus(_ context.Context, status syncjob.Status) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, job := range r.items {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

// Get returns one job by id. Tests only.
func (r *SyncJobRepository) Get(id int64) (syncjob.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.items[id]
	return job, ok
}

// List returns all jobs ordered by id. Tests only.
func (r *SyncJobRepository) List() []syncjob.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]syncjob.Job, 0, len(r.items))
	for _, job := range r.items {
		out = append(out, job)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
