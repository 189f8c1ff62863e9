package memory

import (
	"context"
	"sync"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/fixture"
)

// FixtureRepository is an in-memory fixture store keyed by external id.
type FixtureRepository struct {
	mu    sync.RWMutex
	items map[string]fixture.Fixture
}

func NewFixtureRepository() *FixtureRepository {
	return &FixtureRepository{
		items: make(map[string]fixture.Fixture),
	}
}

func (r *FixtureRepository) Upsert(_ context.Context, items []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		r.items[item.ExternalID] = item
	}
	return nil
}

func (r *FixtureRepository) UpdateScore(_ context.Context, externalID string, status fixture.Status, homeScore, awayScore *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[externalID]
	if !ok {
		return fixture.ErrNotFound
	}
	existing.Status = status
	existing.HomeScore = homeScore
	existing.AwayScore = awayScore
	r.items[externalID] = existing
	return nil
}

func (r *FixtureRepository) ListKickingOffBetween(_ context.Context, from, until time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, 8)
	for _, item := range r.items {
		if item.KickoffAt.Before(from) || item.KickoffAt.After(until) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns one fixture by external id. Tests only.
func (r *FixtureRepository) Get(externalID string) (fixture.Fixture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[externalID]
	return item, ok
}

// Len reports the stored row count. Tests only.
func (r *FixtureRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
