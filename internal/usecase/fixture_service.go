package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/fixture"
	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/platform/id"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

const (
	// Matches that kicked off up to 2.5 hours ago can still be in play;
	// matches starting within 30 minutes are about to be.
	livescoreLookback  = 150 * time.Minute
	livescoreLookahead = 30 * time.Minute
)

// FixtureService keeps the fixtures table in step with the provider's
// schedule and livescore feeds. Per-league failures are logged and skipped.
type FixtureService struct {
	provider SportsProvider
	fixtures fixture.Repository
	topics   *TopicService
	ids      id.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewFixtureService(
	provider SportsProvider,
	fixtures fixture.Repository,
	topics *TopicService,
	ids id.Generator,
	logger *logging.Logger,
) *FixtureService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewDeterministicGenerator()
	}
	return &FixtureService{
		provider: provider,
		fixtures: fixtures,
		topics:   topics,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *FixtureService) WithClock(now func() time.Time) *FixtureService {
	if now != nil {
		s.now = now
	}
	return s
}

// SyncDailySchedules pulls each league's season schedule and upserts the
// fixtures idempotently by external event id. Teams the topics table has not
// seen yet are materialized as stubs so every fixture row resolves.
func (s *FixtureService) SyncDailySchedules(ctx context.Context, leagueExternalIDs []string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.SyncDailySchedules")
	defer span.End()

	if s.provider == nil || s.fixtures == nil || s.topics == nil {
		return 0, fmt.Errorf("%w: fixture sync is not fully configured", ErrDependencyUnavailable)
	}

	season := fixture.SeasonLabel(s.now())
	total := 0
	for _, leagueID := range leagueExternalIDs {
		leagueID = strings.TrimSpace(leagueID)
		if leagueID == "" {
			continue
		}

		count, err := s.syncLeagueSchedule(ctx, leagueID, season)
		if err != nil {
			s.logger.WarnContext(ctx, "league schedule sync failed",
				"league_external_id", leagueID, "season", season, "error", err)
			continue
		}
		total += count
	}

	s.logger.InfoContext(ctx, "daily schedule sync complete",
		"season", season, "fixtures", total)
	return total, nil
}

func (s *FixtureService) syncLeagueSchedule(ctx context.Context, leagueExternalID, season string) (int, error) {
	events, err := s.provider.FetchLeagueSchedule(ctx, leagueExternalID, season)
	if err != nil {
		return 0, fmt.Errorf("fetch schedule: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	competitionID, err := s.topics.EnsureStub(ctx, topic.TypeLeague, leagueExternalID, "")
	if err != nil {
		return 0, fmt.Errorf("ensure league topic: %w", err)
	}

	rows := make([]fixture.Fixture, 0, len(events))
	for _, event := range events {
		row, err := s.buildFixture(ctx, competitionID, event)
		if err != nil {
			s.logger.WarnContext(ctx, "fixture skipped",
				"league_external_id", leagueExternalID,
				"event_external_id", event.ExternalID,
				"error", err)
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.fixtures.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert fixtures: %w", err)
	}
	return len(rows), nil
}

func (s *FixtureService) buildFixture(ctx context.Context, competitionID string, event ExternalEvent) (fixture.Fixture, error) {
	if strings.TrimSpace(event.ExternalID) == "" {
		return fixture.Fixture{}, fmt.Errorf("event is missing its external id")
	}
	if strings.TrimSpace(event.HomeTeamExternalID) == "" || strings.TrimSpace(event.AwayTeamExternalID) == "" {
		return fixture.Fixture{}, fmt.Errorf("event is missing participant ids")
	}

	homeID, err := s.topics.EnsureStub(ctx, topic.TypeClub, event.HomeTeamExternalID, event.HomeTeamName)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("ensure home club: %w", err)
	}
	awayID, err := s.topics.EnsureStub(ctx, topic.TypeClub, event.AwayTeamExternalID, event.AwayTeamName)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("ensure away club: %w", err)
	}

	return fixture.Fixture{
		ID:            s.ids.ForEntity("fixture", event.ExternalID),
		ExternalID:    event.ExternalID,
		CompetitionID: competitionID,
		HomeTeamID:    homeID,
		AwayTeamID:    awayID,
		HomeTeamName:  event.HomeTeamName,
		AwayTeamName:  event.AwayTeamName,
		HomeBadgeURL:  event.HomeBadgeURL,
		AwayBadgeURL:  event.AwayBadgeURL,
		Venue:         event.Venue,
		Gameweek:      event.Round,
		HomeScore:     event.HomeScore,
		AwayScore:     event.AwayScore,
		Status:        fixture.NormalizeStatus(event.Status),
		KickoffAt:     event.KickoffAt,
	}, nil
}

// UpdateLivescores refreshes status and score for fixtures inside the live
// window. When nothing is kicking off it returns without touching the
// provider, which keeps the one-minute cadence cheap on quiet days.
func (s *FixtureService) UpdateLivescores(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.UpdateLivescores")
	defer span.End()

	if s.provider == nil || s.fixtures == nil {
		return 0, fmt.Errorf("%w: livescore sync is not fully configured", ErrDependencyUnavailable)
	}

	now := s.now()
	active, err := s.fixtures.ListKickingOffBetween(ctx, now.Add(-livescoreLookback), now.Add(livescoreLookahead))
	if err != nil {
		return 0, fmt.Errorf("list active fixtures: %w", err)
	}
	if len(active) == 0 {
		return 0, nil
	}

	byExternalID := make(map[string]fixture.Fixture, len(active))
	for _, item := range active {
		byExternalID[item.ExternalID] = item
	}

	updated := 0
	seen := make(map[string]struct{}, 2)
	for _, item := range active {
		leagueExternalID := s.leagueExternalID(ctx, item.CompetitionID)
		if leagueExternalID == "" {
			continue
		}
		if _, done := seen[leagueExternalID]; done {
			continue
		}
		seen[leagueExternalID] = struct{}{}

		events, err := s.provider.FetchLivescores(ctx, leagueExternalID)
		if err != nil {
			s.logger.WarnContext(ctx, "livescore fetch failed",
				"league_external_id", leagueExternalID, "error", err)
			continue
		}
		for _, event := range events {
			if _, tracked := byExternalID[event.ExternalID]; !tracked {
				continue
			}
			status := fixture.NormalizeStatus(event.Status)
			if err := s.fixtures.UpdateScore(ctx, event.ExternalID, status, event.HomeScore, event.AwayScore); err != nil {
				s.logger.WarnContext(ctx, "livescore update failed",
					"event_external_id", event.ExternalID, "error", err)
				continue
			}
			updated++
		}
	}

	return updated, nil
}

func (s *FixtureService) leagueExternalID(ctx context.Context, competitionTopicID string) string {
	if s.topics == nil {
		return ""
	}
	leagueTopic, err := s.topics.repo.FindByID(ctx, competitionTopicID)
	if err != nil {
		return ""
	}
	return leagueTopic.ExternalID()
}
