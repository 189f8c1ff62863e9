package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/midfieldhq/reconciler/internal/domain/standing"
)

// StandingRepository is an in-memory league table store. Tables are swapped
// wholesale per (league, season), matching the SQL implementation.
type StandingRepository struct {
	mu     sync.RWMutex
	tables map[string][]standing.Standing
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{
		tables: make(map[string][]standing.Standing),
	}
}

func (r *StandingRepository) ReplaceForLeagueSeason(_ context.Context, leagueID, season string, items []standing.Standing) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	replacement := make([]standing.Standing, len(items))
	copy(replacement, items)
	sort.SliceStable(replacement, func(i, j int) bool {
		return replacement[i].Position < replacement[j].Position
	})

	r.mu.Lock()
	r.tables[leagueID+"|"+season] = replacement
	r.mu.Unlock()
	return nil
}

func (r *StandingRepository) ListForLeagueSeason(_ context.Context, leagueID, season string) ([]standing.Standing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := r.tables[leagueID+"|"+season]
	out := make([]standing.Standing, len(table))
	copy(out, table)
	return out, nil
}
