package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/midfieldhq/reconciler/internal/domain/topic"
)

// TopicRepository is an in-memory topic store. It enforces the same identity
// and slug uniqueness the SQL schema does, so races surface as
// topic.ErrDuplicate here too.
type TopicRepository struct {
	mu    sync.RWMutex
	items map[string]topic.Topic
}

func NewTopicRepository() *TopicRepository {
	return &TopicRepository{
		items: make(map[string]topic.Topic),
	}
}

func (r *TopicRepository) FindByID(_ context.Context, id string) (topic.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return topic.Topic{}, topic.ErrNotFound
	}
	return cloneTopic(item), nil
}

func (r *TopicRepository) FindByExternalID(_ context.Context, topicType topic.Type, externalID string) (topic.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Type == topicType && item.ExternalID() == externalID {
			return cloneTopic(item), nil
		}
	}
	return topic.Topic{}, topic.ErrNotFound
}

func (r *TopicRepository) SlugExists(_ context.Context, topicType topic.Type, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Type == topicType && item.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *TopicRepository) Insert(_ context.Context, item topic.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return topic.ErrDuplicate
	}
	externalID := item.ExternalID()
	for _, existing := range r.items {
		if existing.Type != item.Type {
			continue
		}
		if existing.Slug == item.Slug {
			return topic.ErrDuplicate
		}
		if externalID != "" && existing.ExternalID() == externalID {
			return topic.ErrDuplicate
		}
	}

	r.items[item.ID] = cloneTopic(item)
	return nil
}

func (r *TopicRepository) Update(_ context.Context, item topic.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return topic.ErrNotFound
	}

	// Protected columns keep their stored values.
	updated := cloneTopic(item)
	updated.Slug = existing.Slug
	updated.FollowerCount = existing.FollowerCount
	updated.PostCount = existing.PostCount
	updated.CreatedAt = existing.CreatedAt
	r.items[item.ID] = updated
	return nil
}

func (r *TopicRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return topic.ErrNotFound
	}
	existing.IsActive = false
	r.items[id] = existing
	return nil
}

func (r *TopicRepository) ListNeedingEnrichment(_ context.Context, limit int) ([]topic.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]topic.Topic, 0, limit)
	for _, item := range r.items {
		if item.Type != topic.TypePlayer || !item.IsActive {
			continue
		}
		if hasBioMetadata(item.Metadata) {
			continue
		}
		out = append(out, cloneTopic(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hasBioMetadata(meta topic.Metadata) bool {
	for _, key := range []string{"height", "nationality", "jersey_number"} {
		value, ok := meta[key]
		if !ok {
			return false
		}
		if text, isString := value.(string); isString && text == "" {
			return false
		}
	}
	return true
}

// Len reports the stored row count. Tests only.
func (r *TopicRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneTopic(item topic.Topic) topic.Topic {
	out := item
	out.Metadata = item.Metadata.Clone()
	return out
}
