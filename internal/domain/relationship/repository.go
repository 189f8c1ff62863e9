package relationship

import (
	"context"
	"time"
)

// Repository maintains time-bounded topic edges.
//
// At most one edge of a given type per child may be open at a time; the
// backing store enforces this with a partial unique index on open rows.
// CloseAndInsert performs the transfer pair atomically: a crash must never
// leave two open edges for the same child, and must at worst leave zero.
type Repository interface {
	FindOpenByChild(ctx context.Context, relType Type, childID string) (Relationship, error)
	Insert(ctx context.Context, item Relationship) error
	CloseAndInsert(ctx context.Context, closeID string, closedAt time.Time, next Relationship) error
	ListByChild(ctx context.Context, relType Type, childID string) ([]Relationship, error)
}
