package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/midfieldhq/reconciler/internal/domain/standing"
	qb "github.com/midfieldhq/reconciler/internal/platform/querybuilder"
)

type standingTableModel struct {
	LeagueID     string    `db:"league_id"`
	TeamID       string    `db:"team_id"`
	Season       string    `db:"season"`
	Position     int       `db:"position"`
	Played       int       `db:"played"`
	Won          int       `db:"won"`
	Draw         int       `db:"draw"`
	Lost         int       `db:"lost"`
	GoalsFor     int       `db:"goals_for"`
	GoalsAgainst int       `db:"goals_against"`
	Points       int       `db:"points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type standingInsertModel struct {
	LeagueID     string `db:"league_id"`
	TeamID       string `db:"team_id"`
	Season       string `db:"season"`
	Position     int    `db:"position"`
	Played       int    `db:"played"`
	Won          int    `db:"won"`
	Draw         int    `db:"draw"`
	Lost         int    `db:"lost"`
	GoalsFor     int    `db:"goals_for"`
	GoalsAgainst int    `db:"goals_against"`
	Points       int    `db:"points"`
}

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

// ReplaceForLeagueSeason swaps the whole table in one transaction. Positions
// shift every matchday, so a wholesale replace is simpler and safer than
// diffing rows, and it drops teams that left the table.
func (r *StandingRepository) ReplaceForLeagueSeason(ctx context.Context, leagueID, season string, items []standing.Standing) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace standings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery := "DELETE FROM league_standings WHERE league_id = $1 AND season = $2"
	if _, err := tx.ExecContext(ctx, deleteQuery, leagueID, season); err != nil {
		return fmt.Errorf("clear standings league=%s season=%s: %w", leagueID, season, err)
	}

	for _, item := range items {
		query, args, err := qb.InsertModel("league_standings", standingInsertModel{
			LeagueID:     leagueID,
			TeamID:       item.TeamID,
			Season:       season,
			Position:     item.Position,
			Played:       item.Played,
			Won:          item.Won,
			Draw:         item.Draw,
			Lost:         item.Lost,
			GoalsFor:     item.GoalsFor,
			GoalsAgainst: item.GoalsAgainst,
			Points:       item.Points,
		}, "")
		if err != nil {
			return fmt.Errorf("build insert standing query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert standing league=%s team=%s: %w", leagueID, item.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace standings: %w", err)
	}
	return nil
}

func (r *StandingRepository) ListForLeagueSeason(ctx context.Context, leagueID, season string) ([]standing.Standing, error) {
	query, args, err := qb.Select("*").From("league_standings").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("season", season),
		).
		OrderBy("position", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list standings league=%s season=%s: %w", leagueID, season, err)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, standing.Standing{
			LeagueID:     row.LeagueID,
			TeamID:       row.TeamID,
			Season:       row.Season,
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
	return out, nil
}
