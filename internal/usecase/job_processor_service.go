package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// BatchResult summarizes one processing pass.
type BatchResult struct {
	Requeued  int `json:"requeued"`
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobProcessorService drains the sync_jobs queue. Jobs move
// pending -> processing -> completed|failed; every job's error is isolated
// so one bad record never aborts the batch.
type JobProcessorService struct {
	jobs      syncjob.Repository
	router    *SyncService
	batchSize int
	lease     time.Duration
	workers   int
	logger    *logging.Logger
	now       func() time.Time
}

func NewJobProcessorService(
	jobs syncjob.Repository,
	router *SyncService,
	batchSize int,
	lease time.Duration,
	workers int,
	logger *logging.Logger,
) *JobProcessorService {
	if logger == nil {
		logger = logging.Default()
	}
	if batchSize < 1 {
		batchSize = 5
	}
	if lease <= 0 {
		lease = 10 * time.Minute
	}
	if workers < 1 {
		workers = 1
	}
	return &JobProcessorService{
		jobs:      jobs,
		router:    router,
		batchSize: batchSize,
		lease:     lease,
		workers:   workers,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *JobProcessorService) WithClock(now func() time.Time) *JobProcessorService {
	if now != nil {
		s.now = now
	}
	return s
}

// ProcessBatch sweeps stale processing jobs back to pending, claims up to
// batchSize oldest pending jobs, and runs them on a bounded pool. Claiming
// happens before any work so a concurrent worker's double-processing window
// is the claim race, not the whole job duration.
func (s *JobProcessorService) ProcessBatch(ctx context.Context) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobProcessorService.ProcessBatch")
	defer span.End()

	if s.jobs == nil || s.router == nil {
		return BatchResult{}, fmt.Errorf("%w: job processor is not fully configured", ErrDependencyUnavailable)
	}

	result := BatchResult{}

	requeued, err := s.jobs.RequeueStale(ctx, s.now().Add(-s.lease))
	if err != nil {
		// A failed sweep is not fatal; stale jobs stay parked until the next pass.
		s.logger.WarnContext(ctx, "stale job requeue failed", "error", err)
	} else if requeued > 0 {
		s.logger.InfoContext(ctx, "stale jobs requeued", "count", requeued)
	}
	result.Requeued = requeued

	claimed, err := s.jobs.ClaimPending(ctx, s.batchSize, s.now().UTC())
	if err != nil {
		return result, fmt.Errorf("claim pending jobs: %w", err)
	}
	result.Claimed = len(claimed)
	if len(claimed) == 0 {
		return result, nil
	}

	workerCount := s.workers
	if workerCount > len(claimed) {
		workerCount = len(claimed)
	}
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return result, fmt.Errorf("create job worker pool: %w", err)
	}
	defer workerPool.Release()

	var completed atomic.Int32
	var failed atomic.Int32
	var wg sync.WaitGroup
	for _, job := range claimed {
		job := job
		wg.Add(1)
		if err := workerPool.Submit(func() {
			defer wg.Done()
			if s.runJob(ctx, job) {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
		}); err != nil {
			wg.Done()
			return result, fmt.Errorf("submit job id=%d to worker pool: %w", job.ID, err)
		}
	}
	wg.Wait()

	result.Completed = int(completed.Load())
	result.Failed = int(failed.Load())

	s.logger.InfoContext(ctx, "job batch processed",
		"claimed", result.Claimed,
		"completed", result.Completed,
		"failed", result.Failed)
	return result, nil
}

func (s *JobProcessorService) runJob(ctx context.Context, job syncjob.Job) bool {
	start := s.now()
	err := s.route(ctx, job)
	if err != nil {
		if markErr := s.jobs.MarkFailed(ctx, job.ID, s.now().UTC(), err.Error()); markErr != nil {
			s.logger.ErrorContext(ctx, "mark job failed errored",
				"job_id", job.ID, "error", markErr)
		}
		s.logger.WarnContext(ctx, "sync job failed",
			"job_id", job.ID,
			"job_type", job.Type,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return false
	}

	if markErr := s.jobs.MarkCompleted(ctx, job.ID, s.now().UTC()); markErr != nil {
		s.logger.ErrorContext(ctx, "mark job completed errored",
			"job_id", job.ID, "error", markErr)
	}
	s.logger.InfoContext(ctx, "sync job completed",
		"job_id", job.ID,
		"job_type", job.Type,
		"duration_ms", time.Since(start).Milliseconds())
	return true
}

func (s *JobProcessorService) route(ctx context.Context, job syncjob.Job) error {
	switch job.Type {
	case syncjob.TypeSyncLeague:
		leagueID := job.PayloadString("league_id")
		if leagueID == "" {
			return fmt.Errorf("%w: sync_league payload is missing league_id", ErrInvalidInput)
		}
		return s.router.SyncLeague(ctx, leagueID)
	case syncjob.TypeSyncClub:
		clubID := job.PayloadString("club_id")
		if clubID == "" {
			return fmt.Errorf("%w: sync_club payload is missing club_id", ErrInvalidInput)
		}
		return s.router.SyncClub(ctx, clubID)
	case syncjob.TypeSyncStandings:
		leagueID := job.PayloadString("league_id")
		if leagueID == "" {
			return fmt.Errorf("%w: sync_standings payload is missing league_id", ErrInvalidInput)
		}
		return s.router.SyncStandings(ctx, leagueID, job.PayloadString("season"))
	case syncjob.TypeEnrichPlayer:
		playerID := job.PayloadString("player_id")
		if playerID == "" {
			return fmt.Errorf("%w: enrich_player payload is missing player_id", ErrInvalidInput)
		}
		return s.router.EnrichPlayer(ctx, playerID)
	default:
		return fmt.Errorf("%w: job type %q is not supported", ErrInvalidInput, job.Type)
	}
}
