package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/relationship"
)

// RelationshipRepository is an in-memory edge store. The mutex serializes
// CloseAndInsert, mirroring the transaction the postgres implementation uses
// for transfers.
type RelationshipRepository struct {
	mu    sync.RWMutex
	items map[string]relationship.Relationship
}

func NewRelationshipRepository() *RelationshipRepository {
	return &RelationshipRepository{
		items: make(map[string]relationship.Relationship),
	}
}

func (r *RelationshipRepository) FindOpenByChild(_ context.Context, relType relationship.Type, childID string) (relationship.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Type == relType && item.ChildID == childID && item.Open() {
			return item, nil
		}
	}
	return relationship.Relationship{}, relationship.ErrNotFound
}

func (r *RelationshipRepository) Insert(_ context.Context, item relationship.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(item)
}

func (r *RelationshipRepository) CloseAndInsert(_ context.Context, closeID string, closedAt time.Time, next relationship.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	open, ok := r.items[closeID]
	if !ok || !open.Open() {
		return relationship.ErrNotFound
	}

	until := closedAt
	open.ValidUntil = &until
	r.items[closeID] = open

	if err := r.insertLocked(next); err != nil {
		// Roll the close back so the pair stays atomic.
		open.ValidUntil = nil
		r.items[closeID] = open
		return err
	}
	return nil
}

func (r *RelationshipRepository) ListByChild(_ context.Context, relType relationship.Type, childID string) ([]relationship.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]relationship.Relationship, 0, 4)
	for _, item := range r.items {
		if item.Type == relType && item.ChildID == childID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *RelationshipRepository) insertLocked(item relationship.Relationship) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("relationship id %s already exists", item.ID)
	}
	if item.Open() {
		for _, existing := range r.items {
			if existing.Type == item.Type && existing.ChildID == item.ChildID && existing.Open() {
				return fmt.Errorf("child %s already has an open %s edge", item.ChildID, item.Type)
			}
		}
	}
	r.items[item.ID] = item
	return nil
}
