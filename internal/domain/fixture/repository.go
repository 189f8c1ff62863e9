package fixture

import (
	"context"
	"time"
)

// Repository persists fixture snapshots.
//
// Upsert is idempotent on external id: syncing twice with the same upstream
// event leaves one row carrying the latest snapshot. ListKickingOffBetween
// backs the adaptive livescore window.
type Repository interface {
	Upsert(ctx context.Context, items []Fixture) error
	UpdateScore(ctx context.Context, externalID string, status Status, homeScore, awayScore *int) error
	ListKickingOffBetween(ctx context.Context, from, until time.Time) ([]Fixture, error)
}
