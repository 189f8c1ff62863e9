package syncjob

import (
	"context"
	"time"
)

// Repository is the queue backing store.
//
// ClaimPending atomically selects up to limit oldest pending jobs and marks
// them processing with startedAt as the claim timestamp, claim-then-work, so
// a concurrent worker cannot pick up the same rows. RequeueStale flips
// processing jobs whose claim is older than the cutoff back to pending and
// returns how many it touched.
type Repository interface {
	Enqueue(ctx context.Context, jobs []Job) error
	ClaimPending(ctx context.Context, limit int, startedAt time.Time) ([]Job, error)
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, at time.Time, errorLog string) error
	RequeueStale(ctx context.Context, olderThan time.Time) (int, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}
