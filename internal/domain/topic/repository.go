package topic

import "context"

// Repository describes topic persistence needs from use cases.
//
// Insert returns ErrDuplicate when the identity index on
// (type, metadata.external.thesportsdb_id) or the per-type slug index already
// holds the row; callers treat that as "someone else already did it" and
// switch to update. Update never touches id, slug, follower_count, or
// post_count.
type Repository interface {
	FindByID(ctx context.Context, id string) (Topic, error)
	FindByExternalID(ctx context.Context, topicType Type, externalID string) (Topic, error)
	SlugExists(ctx context.Context, topicType Type, slug string) (bool, error)
	Insert(ctx context.Context, item Topic) error
	Update(ctx context.Context, item Topic) error
	Deactivate(ctx context.Context, id string) error

	// ListNeedingEnrichment returns active player topics whose metadata is
	// still missing bio fields (height, nationality, jersey_number), oldest
	// updated first, up to limit.
	ListNeedingEnrichment(ctx context.Context, limit int) ([]Topic, error)
}
