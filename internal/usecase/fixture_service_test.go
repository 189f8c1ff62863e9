package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/fixture"
	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/infrastructure/repository/memory"
	"github.com/midfieldhq/reconciler/internal/platform/cache"
)

type fixtureSvcFixture struct {
	provider *fakeProvider
	topics   *memory.TopicRepository
	fixtures *memory.FixtureRepository
	svc      *FixtureService
	clock    *time.Time
}

func newFixtureSvcFixture(t *testing.T) *fixtureSvcFixture {
	t.Helper()

	now := time.Date(2026, time.September, 12, 14, 0, 0, 0, time.UTC)
	f := &fixtureSvcFixture{
		provider: newFakeProvider(),
		topics:   memory.NewTopicRepository(),
		fixtures: memory.NewFixtureRepository(),
		clock:    &now,
	}
	topicSvc := NewTopicService(f.topics, nil, cache.NewStore(time.Minute), testLogger())
	f.svc = NewFixtureService(f.provider, f.fixtures, topicSvc, nil, testLogger()).
		WithClock(func() time.Time { return *f.clock })
	return f
}

func TestFixtureService_SyncDailySchedules_UpsertsAndStubsTeams(t *testing.T) {
	t.Parallel()

	f := newFixtureSvcFixture(t)
	ctx := context.Background()
	kickoff := time.Date(2026, time.September, 13, 16, 30, 0, 0, time.UTC)

	round := 4
	f.provider.schedules["4328|2026-2027"] = []ExternalEvent{
		{
			ExternalID:         "2070802",
			HomeTeamExternalID: "133604",
			AwayTeamExternalID: "133602",
			HomeTeamName:       "Arsenal",
			AwayTeamName:       "Liverpool",
			Venue:              "Emirates Stadium",
			Round:              &round,
			Status:             "Not Started",
			KickoffAt:          kickoff,
		},
		{
			// Missing participants, skipped without failing the league.
			ExternalID: "2070803",
			Status:     "Not Started",
		},
	}

	count, err := f.svc.SyncDailySchedules(ctx, []string{"4328"})
	if err != nil {
		t.Fatalf("sync schedules: %v", err)
	}
	if count != 1 {
		t.Fatalf("synced = %d, want 1", count)
	}

	stored, ok := f.fixtures.Get("2070802")
	if !ok {
		t.Fatal("fixture not stored")
	}
	if stored.Status != fixture.StatusNotStarted {
		t.Fatalf("status = %q, want %q", stored.Status, fixture.StatusNotStarted)
	}
	if stored.Gameweek == nil || *stored.Gameweek != 4 {
		t.Fatalf("gameweek = %v, want 4", stored.Gameweek)
	}

	home, err := f.topics.FindByExternalID(ctx, topic.TypeClub, "133604")
	if err != nil {
		t.Fatalf("home stub missing: %v", err)
	}
	if stored.HomeTeamID != home.ID {
		t.Fatalf("home team id = %q, want %q", stored.HomeTeamID, home.ID)
	}
	if _, err := f.topics.FindByExternalID(ctx, topic.TypeLeague, "4328"); err != nil {
		t.Fatalf("league stub missing: %v", err)
	}

	// Second run with a score update lands on the same row.
	one, zero := 1, 0
	events := f.provider.schedules["4328|2026-2027"]
	events[0].Status = "Match Finished"
	events[0].HomeScore = &one
	events[0].AwayScore = &zero
	f.provider.schedules["4328|2026-2027"] = events

	if _, err := f.svc.SyncDailySchedules(ctx, []string{"4328"}); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if f.fixtures.Len() != 1 {
		t.Fatalf("fixture count = %d, want 1", f.fixtures.Len())
	}
	stored, _ = f.fixtures.Get("2070802")
	if stored.Status != fixture.StatusFinished {
		t.Fatalf("status after resync = %q, want %q", stored.Status, fixture.StatusFinished)
	}
	if stored.HomeScore == nil || *stored.HomeScore != 1 {
		t.Fatalf("home score = %v, want 1", stored.HomeScore)
	}
}

func TestFixtureService_SyncDailySchedules_LeagueFailureIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFixtureSvcFixture(t)
	f.provider.scheduleErr = nil
	f.provider.schedules["4335|2026-2027"] = []ExternalEvent{
		{
			ExternalID:         "3000001",
			HomeTeamExternalID: "134301",
			AwayTeamExternalID: "134302",
			HomeTeamName:       "Real Madrid",
			AwayTeamName:       "Barcelona",
			Status:             "Not Started",
			KickoffAt:          time.Date(2026, time.September, 14, 20, 0, 0, 0, time.UTC),
		},
	}

	// "4328" has no scripted schedule and yields zero events, "4335" syncs.
	count, err := f.svc.SyncDailySchedules(context.Background(), []string{"4328", "4335"})
	if err != nil {
		t.Fatalf("sync schedules: %v", err)
	}
	if count != 1 {
		t.Fatalf("synced = %d, want 1", count)
	}
}

func TestFixtureService_UpdateLivescores_OnlyTouchesLiveWindow(t *testing.T) {
	t.Parallel()

	f := newFixtureSvcFixture(t)
	ctx := context.Background()
	now := *f.clock

	f.provider.schedules["4328|2026-2027"] = []ExternalEvent{
		{
			ExternalID:         "5001",
			HomeTeamExternalID: "133604",
			AwayTeamExternalID: "133602",
			HomeTeamName:       "Arsenal",
			AwayTeamName:       "Liverpool",
			Status:             "Not Started",
			KickoffAt:          now.Add(-time.Hour), // in play
		},
		{
			ExternalID:         "5002",
			HomeTeamExternalID: "133616",
			AwayTeamExternalID: "133619",
			HomeTeamName:       "Everton",
			AwayTeamName:       "West Ham",
			Status:             "Not Started",
			KickoffAt:          now.Add(48 * time.Hour), // far future
		},
	}
	if _, err := f.svc.SyncDailySchedules(ctx, []string{"4328"}); err != nil {
		t.Fatalf("seed schedules: %v", err)
	}

	two, one := 2, 1
	f.provider.live["4328"] = []ExternalEvent{
		{ExternalID: "5001", Status: "2nd Half", HomeScore: &two, AwayScore: &one},
		{ExternalID: "5002", Status: "1st Half", HomeScore: &one, AwayScore: &one},
		{ExternalID: "9999", Status: "1st Half"}, // untracked event
	}

	updated, err := f.svc.UpdateLivescores(ctx)
	if err != nil {
		t.Fatalf("update livescores: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	live, _ := f.fixtures.Get("5001")
	if live.Status != fixture.StatusLive {
		t.Fatalf("live status = %q, want %q", live.Status, fixture.StatusLive)
	}
	if live.HomeScore == nil || *live.HomeScore != 2 {
		t.Fatalf("live home score = %v, want 2", live.HomeScore)
	}

	future, _ := f.fixtures.Get("5002")
	if future.Status != fixture.StatusNotStarted {
		t.Fatalf("future fixture touched: status = %q", future.Status)
	}
	if future.HomeScore != nil {
		t.Fatalf("future fixture scored: %v", *future.HomeScore)
	}
}

func TestFixtureService_UpdateLivescores_QuietWindowSkipsProvider(t *testing.T) {
	t.Parallel()

	f := newFixtureSvcFixture(t)
	updated, err := f.svc.UpdateLivescores(context.Background())
	if err != nil {
		t.Fatalf("update livescores: %v", err)
	}
	if updated != 0 {
		t.Fatalf("updated = %d, want 0", updated)
	}
	if f.provider.callCount("FetchLivescores") != 0 {
		t.Fatal("provider called with nothing in the live window")
	}
}
