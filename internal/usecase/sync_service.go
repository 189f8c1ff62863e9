package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/midfieldhq/reconciler/internal/domain/fixture"
	"github.com/midfieldhq/reconciler/internal/domain/standing"
	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// SyncConfig narrows the runtime config to what the router needs.
type SyncConfig struct {
	// ContinentalLeagueIDs lists cross-national competitions. Their member
	// clubs belong to domestic leagues, so a continental sync never fans out.
	ContinentalLeagueIDs map[string]struct{}
	FanoutWorkers        int
}

// SyncService routes sync work: it turns provider payloads into topic
// upserts, relationship updates, standings replacements, and follow-up jobs.
type SyncService struct {
	provider      SportsProvider
	topics        *TopicService
	relationships *RelationshipService
	standings     standing.Repository
	jobs          syncjob.Repository
	cfg           SyncConfig
	logger        *logging.Logger
	now           func() time.Time
}

func NewSyncService(
	provider SportsProvider,
	topics *TopicService,
	relationships *RelationshipService,
	standings standing.Repository,
	jobs syncjob.Repository,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FanoutWorkers < 1 {
		cfg.FanoutWorkers = 5
	}
	return &SyncService{
		provider:      provider,
		topics:        topics,
		relationships: relationships,
		standings:     standings,
		jobs:          jobs,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *SyncService) WithClock(now func() time.Time) *SyncService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SyncService) isContinental(leagueExternalID string) bool {
	_, ok := s.cfg.ContinentalLeagueIDs[leagueExternalID]
	return ok
}

// SyncLeague upserts the league topic. National leagues additionally fan out
// one sync_club job per member club plus one sync_standings job; continental
// competitions stop at the league topic because their clubs are owned by
// their domestic league sync.
func (s *SyncService) SyncLeague(ctx context.Context, leagueExternalID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncLeague")
	defer span.End()

	leagueExternalID = strings.TrimSpace(leagueExternalID)
	if leagueExternalID == "" {
		return fmt.Errorf("%w: league external id is required", ErrInvalidInput)
	}

	league, err := s.provider.FetchLeague(ctx, leagueExternalID)
	if err != nil {
		return fmt.Errorf("fetch league external_id=%s: %w", leagueExternalID, err)
	}

	leagueMetadata := topic.Metadata{
		topic.MetadataExternalKey: map[string]any{
			"source": "thesportsdb",
		},
	}
	setIfPresent(leagueMetadata, "badge_url", league.BadgeURL)
	setIfPresent(leagueMetadata, "country", league.Country)
	setIfPresent(leagueMetadata, "sport", league.Sport)

	if _, _, err := s.topics.Upsert(ctx, TopicUpsertInput{
		Type:        topic.TypeLeague,
		ExternalID:  leagueExternalID,
		Title:       league.Name,
		Description: league.Description,
		Metadata:    leagueMetadata,
		IsActive:    true,
	}); err != nil {
		return fmt.Errorf("upsert league topic external_id=%s: %w", leagueExternalID, err)
	}

	if s.isContinental(leagueExternalID) {
		s.logger.InfoContext(ctx, "continental competition synced without fan-out",
			"league_external_id", leagueExternalID)
		return nil
	}

	clubs, err := s.provider.FetchLeagueClubs(ctx, leagueExternalID)
	if err != nil {
		return fmt.Errorf("fetch league clubs external_id=%s: %w", leagueExternalID, err)
	}

	followUps := make([]syncjob.Job, 0, len(clubs)+1)
	for _, club := range clubs {
		if strings.TrimSpace(club.ExternalID) == "" {
			continue
		}
		followUps = append(followUps, syncjob.Job{
			Type: syncjob.TypeSyncClub,
			Payload: map[string]any{
				"club_id":   club.ExternalID,
				"club_name": club.Name,
			},
		})
	}
	followUps = append(followUps, syncjob.Job{
		Type: syncjob.TypeSyncStandings,
		Payload: map[string]any{
			"league_id": leagueExternalID,
			"season":    fixture.SeasonLabel(s.now()),
		},
	})

	if err := s.jobs.Enqueue(ctx, followUps); err != nil {
		return fmt.Errorf("enqueue league fan-out external_id=%s: %w", leagueExternalID, err)
	}

	s.logger.InfoContext(ctx, "league fan-out enqueued",
		"league_external_id", leagueExternalID, "clubs", len(clubs))
	return nil
}

// SyncClub upserts the club topic, then upserts every rostered player and
// reconciles their plays_for edge. Player failures are logged and skipped;
// the job only fails when the club itself cannot be synced.
func (s *SyncService) SyncClub(ctx context.Context, clubExternalID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncClub")
	defer span.End()

	clubExternalID = strings.TrimSpace(clubExternalID)
	if clubExternalID == "" {
		return fmt.Errorf("%w: club external id is required", ErrInvalidInput)
	}

	club, err := s.provider.FetchClub(ctx, clubExternalID)
	if err != nil {
		return fmt.Errorf("fetch club external_id=%s: %w", clubExternalID, err)
	}

	clubMetadata := topic.Metadata{
		topic.MetadataExternalKey: map[string]any{
			"source": "thesportsdb",
		},
	}
	setIfPresent(clubMetadata, "badge_url", club.BadgeURL)
	setIfPresent(clubMetadata, "stadium", club.Stadium)
	setIfPresent(clubMetadata, "capacity", club.Capacity)
	setIfPresent(clubMetadata, "founded", club.Founded)
	setIfPresent(clubMetadata, "league", club.League)

	clubTopic, _, err := s.topics.Upsert(ctx, TopicUpsertInput{
		Type:        topic.TypeClub,
		ExternalID:  clubExternalID,
		Title:       club.Name,
		Description: club.Description,
		Metadata:    clubMetadata,
		IsActive:    true,
	})
	if err != nil {
		return fmt.Errorf("upsert club topic external_id=%s: %w", clubExternalID, err)
	}

	players, err := s.provider.FetchClubPlayers(ctx, clubExternalID)
	if err != nil {
		return fmt.Errorf("fetch club players external_id=%s: %w", clubExternalID, err)
	}

	var failed atomic.Int32
	workers := pool.New().WithMaxGoroutines(s.cfg.FanoutWorkers)
	for _, player := range players {
		player := player
		workers.Go(func() {
			if err := s.syncRosterPlayer(ctx, clubTopic.ID, player); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "roster player sync failed",
					"club_external_id", clubExternalID,
					"player_external_id", player.ExternalID,
					"error", err)
			}
		})
	}
	workers.Wait()

	s.logger.InfoContext(ctx, "club synced",
		"club_external_id", clubExternalID,
		"players", len(players),
		"player_failures", failed.Load())
	return nil
}

func (s *SyncService) syncRosterPlayer(ctx context.Context, clubTopicID string, player ExternalPlayer) error {
	if strings.TrimSpace(player.ExternalID) == "" {
		return fmt.Errorf("player record is missing its external id")
	}

	playerTopic, _, err := s.topics.Upsert(ctx, playerUpsertInput(player))
	if err != nil {
		return fmt.Errorf("upsert player topic: %w", err)
	}
	if _, err := s.relationships.SyncPlayerForClub(ctx, playerTopic.ID, clubTopicID); err != nil {
		return fmt.Errorf("sync plays_for edge: %w", err)
	}
	return nil
}

// SyncStandings replaces the league table wholesale. A team with no topic
// yet, which happens when the standings job outruns its sibling club jobs,
// gets a stub instead of failing the whole table.
func (s *SyncService) SyncStandings(ctx context.Context, leagueExternalID, season string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncStandings")
	defer span.End()

	leagueExternalID = strings.TrimSpace(leagueExternalID)
	if leagueExternalID == "" {
		return fmt.Errorf("%w: league external id is required", ErrInvalidInput)
	}
	season = strings.TrimSpace(season)
	if season == "" {
		season = fixture.SeasonLabel(s.now())
	}

	rows, err := s.provider.FetchLeagueTable(ctx, leagueExternalID, season)
	if err != nil {
		return fmt.Errorf("fetch league table external_id=%s season=%s: %w", leagueExternalID, season, err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "league table empty, nothing to replace",
			"league_external_id", leagueExternalID, "season", season)
		return nil
	}

	leagueTopicID, err := s.topics.EnsureStub(ctx, topic.TypeLeague, leagueExternalID, "")
	if err != nil {
		return fmt.Errorf("ensure league topic external_id=%s: %w", leagueExternalID, err)
	}

	standings := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.TeamExternalID) == "" || row.Position <= 0 {
			continue
		}
		teamTopicID, err := s.topics.EnsureStub(ctx, topic.TypeClub, row.TeamExternalID, row.TeamName)
		if err != nil {
			return fmt.Errorf("ensure club topic external_id=%s: %w", row.TeamExternalID, err)
		}
		standings = append(standings, standing.Standing{
			LeagueID:     leagueTopicID,
			TeamID:       teamTopicID,
			Season:       season,
			Position:     row.Position,
			Played:       row.Played,
			Won:          row.Won,
			Draw:         row.Draw,
			Lost:         row.Lost,
			GoalsFor:     row.GoalsFor,
			GoalsAgainst: row.GoalsAgainst,
			Points:       row.Points,
		})
	}

	if err := s.standings.ReplaceForLeagueSeason(ctx, leagueTopicID, season, standings); err != nil {
		return fmt.Errorf("replace standings league=%s season=%s: %w", leagueTopicID, season, err)
	}

	s.logger.InfoContext(ctx, "league standings replaced",
		"league_external_id", leagueExternalID, "season", season, "rows", len(standings))
	return nil
}

// EnrichPlayer merges extended bio fields into an already-synced player.
// The merge engine guarantees a partial enrichment payload cannot erase
// fields captured by an earlier, richer pass.
func (s *SyncService) EnrichPlayer(ctx context.Context, playerExternalID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.EnrichPlayer")
	defer span.End()

	playerExternalID = strings.TrimSpace(playerExternalID)
	if playerExternalID == "" {
		return fmt.Errorf("%w: player external id is required", ErrInvalidInput)
	}

	player, err := s.provider.FetchPlayer(ctx, playerExternalID)
	if err != nil {
		return fmt.Errorf("fetch player external_id=%s: %w", playerExternalID, err)
	}
	if strings.TrimSpace(player.ExternalID) == "" {
		player.ExternalID = playerExternalID
	}

	if _, _, err := s.topics.Upsert(ctx, playerUpsertInput(player)); err != nil {
		return fmt.Errorf("merge player enrichment external_id=%s: %w", playerExternalID, err)
	}
	return nil
}

func playerUpsertInput(player ExternalPlayer) TopicUpsertInput {
	metadata := topic.Metadata{
		topic.MetadataExternalKey: map[string]any{
			"source": "thesportsdb",
		},
	}
	setIfPresent(metadata, "photo_url", player.PhotoURL)
	setIfPresent(metadata, "position", player.Position)
	setIfPresent(metadata, "nationality", player.Nationality)
	setIfPresent(metadata, "birth_date", player.BirthDate)
	setIfPresent(metadata, "height", player.Height)
	setIfPresent(metadata, "weight", player.Weight)
	setIfPresent(metadata, "jersey_number", player.JerseyNumber)

	return TopicUpsertInput{
		Type:        topic.TypePlayer,
		ExternalID:  player.ExternalID,
		Title:       player.Name,
		Description: player.Description,
		Metadata:    metadata,
		IsActive:    true,
	}
}

// setIfPresent keeps sparse provider payloads from writing empty strings
// over previously enriched fields.
func setIfPresent(metadata topic.Metadata, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		metadata[key] = trimmed
	}
}
