package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// JobProducerService seeds the queue. The importer uses SeedLeagueJobs to
// kick off a full sync; the worker loop uses EnqueueEnrichmentJobs to top up
// bio data for players the roster sync left sparse.
type JobProducerService struct {
	jobs   syncjob.Repository
	topics topic.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewJobProducerService(jobs syncjob.Repository, topics topic.Repository, logger *logging.Logger) *JobProducerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &JobProducerService{
		jobs:   jobs,
		topics: topics,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *JobProducerService) WithClock(now func() time.Time) *JobProducerService {
	if now != nil {
		s.now = now
	}
	return s
}

// SeedLeagueJobs enqueues one sync_league job per league id. In dry-run mode
// it logs the plan and enqueues nothing.
func (s *JobProducerService) SeedLeagueJobs(ctx context.Context, leagueIDs []string, dryRun bool) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobProducerService.SeedLeagueJobs")
	defer span.End()

	if s.jobs == nil {
		return 0, fmt.Errorf("%w: job repository is not configured", ErrDependencyUnavailable)
	}

	pending := make([]syncjob.Job, 0, len(leagueIDs))
	for _, leagueID := range leagueIDs {
		leagueID = strings.TrimSpace(leagueID)
		if leagueID == "" {
			continue
		}
		pending = append(pending, syncjob.Job{
			Type:      syncjob.TypeSyncLeague,
			Payload:   map[string]any{"league_id": leagueID},
			Status:    syncjob.StatusPending,
			CreatedAt: s.now(),
		})
	}
	if len(pending) == 0 {
		return 0, fmt.Errorf("%w: no league ids to seed", ErrInvalidInput)
	}

	if dryRun {
		for _, job := range pending {
			s.logger.InfoContext(ctx, "dry run: would enqueue job",
				"job_type", job.Type, "league_id", job.PayloadString("league_id"))
		}
		return 0, nil
	}

	if err := s.jobs.Enqueue(ctx, pending); err != nil {
		return 0, fmt.Errorf("enqueue league jobs: %w", err)
	}
	s.logger.InfoContext(ctx, "league sync jobs enqueued", "count", len(pending))
	return len(pending), nil
}

// EnqueueEnrichmentJobs finds player topics still missing bio metadata and
// enqueues an enrich_player job for each, up to limit.
func (s *JobProducerService) EnqueueEnrichmentJobs(ctx context.Context, limit int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobProducerService.EnqueueEnrichmentJobs")
	defer span.End()

	if s.jobs == nil || s.topics == nil {
		return 0, fmt.Errorf("%w: enrichment producer is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 {
		limit = 25
	}

	candidates, err := s.topics.ListNeedingEnrichment(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list enrichment candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	pending := make([]syncjob.Job, 0, len(candidates))
	for _, candidate := range candidates {
		externalID := candidate.ExternalID()
		if externalID == "" {
			continue
		}
		pending = append(pending, syncjob.Job{
			Type:      syncjob.TypeEnrichPlayer,
			Payload:   map[string]any{"player_id": externalID},
			Status:    syncjob.StatusPending,
			CreatedAt: s.now(),
		})
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if err := s.jobs.Enqueue(ctx, pending); err != nil {
		return 0, fmt.Errorf("enqueue enrichment jobs: %w", err)
	}
	s.logger.InfoContext(ctx, "enrichment jobs enqueued", "count", len(pending))
	return len(pending), nil
}
