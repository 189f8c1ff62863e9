package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/midfieldhq/reconciler/internal/domain/fixture"
	qb "github.com/midfieldhq/reconciler/internal/platform/querybuilder"
)

type fixtureTableModel struct {
	ID            string    `db:"id"`
	ExternalID    string    `db:"external_id"`
	CompetitionID string    `db:"competition_id"`
	HomeTeamID    string    `db:"home_team_id"`
	AwayTeamID    string    `db:"away_team_id"`
	HomeTeamName  string    `db:"home_team_name"`
	AwayTeamName  string    `db:"away_team_name"`
	HomeBadgeURL  string    `db:"home_badge_url"`
	AwayBadgeURL  string    `db:"away_badge_url"`
	Venue         string    `db:"venue"`
	Gameweek      *int      `db:"gameweek"`
	HomeScore     *int      `db:"home_score"`
	AwayScore     *int      `db:"away_score"`
	Status        string    `db:"status"`
	KickoffAt     time.Time `db:"kickoff_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type fixtureInsertModel struct {
	ID            string    `db:"id"`
	ExternalID    string    `db:"external_id"`
	CompetitionID string    `db:"competition_id"`
	HomeTeamID    string    `db:"home_team_id"`
	AwayTeamID    string    `db:"away_team_id"`
	HomeTeamName  string    `db:"home_team_name"`
	AwayTeamName  string    `db:"away_team_name"`
	HomeBadgeURL  string    `db:"home_badge_url"`
	AwayBadgeURL  string    `db:"away_badge_url"`
	Venue         string    `db:"venue"`
	Gameweek      *int      `db:"gameweek"`
	HomeScore     *int      `db:"home_score"`
	AwayScore     *int      `db:"away_score"`
	Status        string    `db:"status"`
	KickoffAt     time.Time `db:"kickoff_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:            m.ID,
		ExternalID:    m.ExternalID,
		CompetitionID: m.CompetitionID,
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		HomeTeamName:  m.HomeTeamName,
		AwayTeamName:  m.AwayTeamName,
		HomeBadgeURL:  m.HomeBadgeURL,
		AwayBadgeURL:  m.AwayBadgeURL,
		Venue:         m.Venue,
		Gameweek:      m.Gameweek,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		Status:        fixture.Status(m.Status),
		KickoffAt:     m.KickoffAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) Upsert(ctx context.Context, items []fixture.Fixture) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		query, args, err := qb.InsertModel("fixtures", fixtureInsertModel{
			ID:            item.ID,
			ExternalID:    item.ExternalID,
			CompetitionID: item.CompetitionID,
			HomeTeamID:    item.HomeTeamID,
			AwayTeamID:    item.AwayTeamID,
			HomeTeamName:  item.HomeTeamName,
			AwayTeamName:  item.AwayTeamName,
			HomeBadgeURL:  item.HomeBadgeURL,
			AwayBadgeURL:  item.AwayBadgeURL,
			Venue:         item.Venue,
			Gameweek:      item.Gameweek,
			HomeScore:     item.HomeScore,
			AwayScore:     item.AwayScore,
			Status:        string(item.Status),
			KickoffAt:     item.KickoffAt,
		}, `ON CONFLICT (external_id)
DO UPDATE SET
    competition_id = EXCLUDED.competition_id,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    home_team_name = EXCLUDED.home_team_name,
    away_team_name = EXCLUDED.away_team_name,
    home_badge_url = EXCLUDED.home_badge_url,
    away_badge_url = EXCLUDED.away_badge_url,
    venue = EXCLUDED.venue,
    gameweek = EXCLUDED.gameweek,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    status = EXCLUDED.status,
    kickoff_at = EXCLUDED.kickoff_at,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert fixture query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fixture external_id=%s: %w", item.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert fixtures: %w", err)
	}
	return nil
}

func (r *FixtureRepository) UpdateScore(ctx context.Context, externalID string, status fixture.Status, homeScore, awayScore *int) error {
	query, args, err := qb.Update("fixtures").
		Set("status", string(status)).
		Set("home_score", homeScore).
		Set("away_score", awayScore).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture score query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture score external_id=%s: %w", externalID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fixture.ErrNotFound
	}
	return nil
}

func (r *FixtureRepository) ListKickingOffBetween(ctx context.Context, from, until time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Expr("kickoff_at >= ?", from),
			qb.Expr("kickoff_at <= ?", until),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by kickoff query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures by kickoff window: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
