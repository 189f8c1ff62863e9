package standing

import "context"

// Repository persists league table snapshots.
//
// ReplaceForLeagueSeason swaps the whole (league, season) table in one
// transaction; after it returns there is exactly one row per team.
type Repository interface {
	ReplaceForLeagueSeason(ctx context.Context, leagueID, season string, items []Standing) error
	ListForLeagueSeason(ctx context.Context, leagueID, season string) ([]Standing, error)
}
