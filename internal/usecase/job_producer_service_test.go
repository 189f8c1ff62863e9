package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/infrastructure/repository/memory"
	"github.com/midfieldhq/reconciler/internal/platform/cache"
)

func TestJobProducerService_SeedLeagueJobs_EnqueuesOnePerLeague(t *testing.T) {
	t.Parallel()

	jobs := memory.NewSyncJobRepository()
	svc := NewJobProducerService(jobs, memory.NewTopicRepository(), testLogger())

	count, err := svc.SeedLeagueJobs(context.Background(), []string{"4328", " 4335 ", ""}, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	seeded := jobs.List()
	if len(seeded) != 2 {
		t.Fatalf("queue length = %d, want 2", len(seeded))
	}
	for _, job := range seeded {
		if job.Type != syncjob.TypeSyncLeague {
			t.Fatalf("job type = %q, want %q", job.Type, syncjob.TypeSyncLeague)
		}
		if job.Status != syncjob.StatusPending {
			t.Fatalf("job status = %q, want pending", job.Status)
		}
		if job.PayloadString("league_id") == "" {
			t.Fatal("job payload is missing league_id")
		}
	}
}

func TestJobProducerService_SeedLeagueJobs_DryRunEnqueuesNothing(t *testing.T) {
	t.Parallel()

	jobs := memory.NewSyncJobRepository()
	svc := NewJobProducerService(jobs, memory.NewTopicRepository(), testLogger())

	count, err := svc.SeedLeagueJobs(context.Background(), []string{"4328", "4335"}, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0 in dry run", count)
	}
	if len(jobs.List()) != 0 {
		t.Fatal("dry run wrote to the queue")
	}
}

func TestJobProducerService_SeedLeagueJobs_NoLeaguesIsAnError(t *testing.T) {
	t.Parallel()

	svc := NewJobProducerService(memory.NewSyncJobRepository(), memory.NewTopicRepository(), testLogger())
	if _, err := svc.SeedLeagueJobs(context.Background(), []string{"", "  "}, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestJobProducerService_EnqueueEnrichmentJobs_TargetsSparsePlayers(t *testing.T) {
	t.Parallel()

	topics := memory.NewTopicRepository()
	jobs := memory.NewSyncJobRepository()
	topicSvc := NewTopicService(topics, nil, cache.NewStore(time.Minute), testLogger())
	svc := NewJobProducerService(jobs, topics, testLogger())
	ctx := context.Background()

	// Sparse roster record, needs enrichment.
	if _, _, err := topicSvc.Upsert(ctx, playerUpsertInput(ExternalPlayer{
		ExternalID: "34145937",
		Name:       "Mohamed Salah",
		Position:   "Forward",
	})); err != nil {
		t.Fatalf("seed sparse player: %v", err)
	}
	// Fully enriched record, left alone.
	if _, _, err := topicSvc.Upsert(ctx, playerUpsertInput(ExternalPlayer{
		ExternalID:   "34161265",
		Name:         "Virgil van Dijk",
		Position:     "Defender",
		Nationality:  "Netherlands",
		Height:       "1.95 m",
		JerseyNumber: "4",
	})); err != nil {
		t.Fatalf("seed enriched player: %v", err)
	}
	// Clubs never get enrichment jobs.
	if _, _, err := topicSvc.Upsert(ctx, TopicUpsertInput{
		Type:       topic.TypeClub,
		ExternalID: "133602",
		Title:      "Liverpool",
		IsActive:   true,
	}); err != nil {
		t.Fatalf("seed club: %v", err)
	}

	count, err := svc.EnqueueEnrichmentJobs(ctx, 10)
	if err != nil {
		t.Fatalf("enqueue enrichment: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	seeded := jobs.List()
	if len(seeded) != 1 {
		t.Fatalf("queue length = %d, want 1", len(seeded))
	}
	if seeded[0].Type != syncjob.TypeEnrichPlayer {
		t.Fatalf("job type = %q, want %q", seeded[0].Type, syncjob.TypeEnrichPlayer)
	}
	if got := seeded[0].PayloadString("player_id"); got != "34145937" {
		t.Fatalf("payload player_id = %q, want 34145937", got)
	}
}

func TestJobProducerService_EnqueueEnrichmentJobs_NoCandidatesIsQuiet(t *testing.T) {
	t.Parallel()

	jobs := memory.NewSyncJobRepository()
	svc := NewJobProducerService(jobs, memory.NewTopicRepository(), testLogger())

	count, err := svc.EnqueueEnrichmentJobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("enqueue enrichment: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	if len(jobs.List()) != 0 {
		t.Fatal("queue is not empty")
	}
}
