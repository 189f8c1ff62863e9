package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/topic"
	"github.com/midfieldhq/reconciler/internal/platform/cache"
	"github.com/midfieldhq/reconciler/internal/platform/id"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// UpsertOutcome reports whether an upsert inserted a fresh row or merged
// into an existing one.
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

// TopicUpsertInput carries one provider record headed for the topics table.
// Metadata may include a nested external block; the service always forces
// the upstream id into it.
type TopicUpsertInput struct {
	Type        topic.Type
	ExternalID  string
	Title       string
	Description string
	Metadata    topic.Metadata
	IsActive    bool
}

// TopicService owns identity resolution and the metadata merge path for
// topics. It is the only writer of the topics table in this pipeline.
type TopicService struct {
	repo      topic.Repository
	ids       id.Generator
	stubCache *cache.Store
	logger    *logging.Logger
	now       func() time.Time
}

func NewTopicService(repo topic.Repository, ids id.Generator, stubCache *cache.Store, logger *logging.Logger) *TopicService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewDeterministicGenerator()
	}
	return &TopicService{
		repo:      repo,
		ids:       ids,
		stubCache: stubCache,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *TopicService) WithClock(now func() time.Time) *TopicService {
	if now != nil {
		s.now = now
	}
	return s
}

// Upsert resolves the incoming record to an internal row by
// (type, external id). Absent rows are inserted with a deterministic id and
// a collision-safe slug; present rows get their metadata merged without
// loss. The id, slug, follower_count, and post_count columns are never
// rewritten here.
func (s *TopicService) Upsert(ctx context.Context, input TopicUpsertInput) (topic.Topic, UpsertOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TopicService.Upsert")
	defer span.End()

	if s.repo == nil {
		return topic.Topic{}, "", fmt.Errorf("%w: topic repository is not configured", ErrDependencyUnavailable)
	}
	if !input.Type.Valid() {
		return topic.Topic{}, "", fmt.Errorf("%w: topic type %q is not supported", ErrInvalidInput, input.Type)
	}
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return topic.Topic{}, "", fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return topic.Topic{}, "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	incoming := withExternalID(input.Metadata, externalID)

	existing, err := s.repo.FindByExternalID(ctx, input.Type, externalID)
	switch {
	case err == nil:
		return s.mergeInto(ctx, existing, input, incoming)
	case errors.Is(err, topic.ErrNotFound):
		return s.insertFresh(ctx, input, externalID, title, incoming)
	default:
		return topic.Topic{}, "", fmt.Errorf("find topic type=%s external_id=%s: %w", input.Type, externalID, err)
	}
}

func (s *TopicService) insertFresh(ctx context.Context, input TopicUpsertInput, externalID, title string, incoming topic.Metadata) (topic.Topic, UpsertOutcome, error) {
	slug, err := s.safeSlug(ctx, input.Type, title, externalID)
	if err != nil {
		return topic.Topic{}, "", err
	}

	now := s.now().UTC()
	fresh := topic.Topic{
		ID:          s.ids.ForEntity(string(input.Type), externalID),
		Type:        input.Type,
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Metadata:    incoming,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := fresh.Validate(); err != nil {
		return topic.Topic{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	insertErr := s.repo.Insert(ctx, fresh)
	if insertErr == nil {
		return fresh, OutcomeCreated, nil
	}
	if !errors.Is(insertErr, topic.ErrDuplicate) {
		return topic.Topic{}, "", fmt.Errorf("insert topic type=%s external_id=%s: %w", input.Type, externalID, insertErr)
	}

	// Lost the insert race: another writer materialized the row between the
	// lookup and the insert. Re-fetch and merge into it.
	s.logger.DebugContext(ctx, "topic insert conflicted, retrying as update",
		"type", input.Type, "external_id", externalID)
	existing, err := s.repo.FindByExternalID(ctx, input.Type, externalID)
	if err != nil {
		return topic.Topic{}, "", fmt.Errorf("refetch topic after conflict type=%s external_id=%s: %w", input.Type, externalID, err)
	}
	return s.mergeInto(ctx, existing, input, incoming)
}

func (s *TopicService) mergeInto(ctx context.Context, existing topic.Topic, input TopicUpsertInput, incoming topic.Metadata) (topic.Topic, UpsertOutcome, error) {
	merged := existing
	merged.Metadata = topic.MergeMetadata(existing.Metadata, incoming)
	if title := strings.TrimSpace(input.Title); title != "" {
		merged.Title = title
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		merged.Description = description
	}
	if input.IsActive {
		merged.IsActive = true
	}
	// A full record arriving for a stub promotes it.
	if existing.IsStub() && !isStubMetadata(incoming) {
		delete(merged.Metadata, topic.MetadataStubKey)
	}
	merged.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, merged); err != nil {
		return topic.Topic{}, "", fmt.Errorf("update topic id=%s: %w", existing.ID, err)
	}
	return merged, OutcomeUpdated, nil
}

// EnsureStub materializes a minimal inactive placeholder for an upstream id
// so references can be satisfied before full data arrives. Created and
// observed ids are remembered in the injected cache to skip repeat store
// round-trips within a run.
func (s *TopicService) EnsureStub(ctx context.Context, topicType topic.Type, externalID, name string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TopicService.EnsureStub")
	defer span.End()

	if s.repo == nil {
		return "", fmt.Errorf("%w: topic repository is not configured", ErrDependencyUnavailable)
	}
	if !topicType.Valid() {
		return "", fmt.Errorf("%w: topic type %q is not supported", ErrInvalidInput, topicType)
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return "", fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}

	cacheKey := stubCacheKey(topicType, externalID)
	if s.stubCache != nil {
		if cached, ok := s.stubCache.Get(ctx, cacheKey); ok {
			if topicID, ok := cached.(string); ok && topicID != "" {
				return topicID, nil
			}
		}
	}

	existing, err := s.repo.FindByExternalID(ctx, topicType, externalID)
	if err == nil {
		s.remember(ctx, cacheKey, existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, topic.ErrNotFound) {
		return "", fmt.Errorf("find topic for stub type=%s external_id=%s: %w", topicType, externalID, err)
	}

	title := strings.TrimSpace(name)
	if title == "" {
		title = fmt.Sprintf("%s %s", topicType, externalID)
	}
	slug, err := s.safeSlug(ctx, topicType, title, externalID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	stub := topic.Topic{
		ID:    s.ids.ForEntity(string(topicType), externalID),
		Type:  topicType,
		Slug:  slug,
		Title: title,
		Metadata: topic.Metadata{
			topic.MetadataStubKey: true,
			topic.MetadataExternalKey: map[string]any{
				topic.MetadataExternalIDKey: externalID,
				"source":                    "stub",
			},
		},
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertErr := s.repo.Insert(ctx, stub)
	if insertErr != nil && !errors.Is(insertErr, topic.ErrDuplicate) {
		return "", fmt.Errorf("insert stub type=%s external_id=%s: %w", topicType, externalID, insertErr)
	}
	if errors.Is(insertErr, topic.ErrDuplicate) {
		existing, err := s.repo.FindByExternalID(ctx, topicType, externalID)
		if err != nil {
			return "", fmt.Errorf("refetch stub after conflict type=%s external_id=%s: %w", topicType, externalID, err)
		}
		s.remember(ctx, cacheKey, existing.ID)
		return existing.ID, nil
	}

	s.logger.InfoContext(ctx, "stub topic created",
		"type", topicType, "external_id", externalID, "topic_id", stub.ID)
	s.remember(ctx, cacheKey, stub.ID)
	return stub.ID, nil
}

func (s *TopicService) safeSlug(ctx context.Context, topicType topic.Type, name, externalID string) (string, error) {
	slug := id.Slugify(name)
	if slug == "" {
		slug = id.Slugify(fmt.Sprintf("%s-%s", topicType, externalID))
	}

	exists, err := s.repo.SlugExists(ctx, topicType, slug)
	if err != nil {
		return "", fmt.Errorf("check slug %q type=%s: %w", slug, topicType, err)
	}
	if exists {
		slug = id.SuffixSlug(slug, externalID)
	}
	return slug, nil
}

func (s *TopicService) remember(ctx context.Context, key, topicID string) {
	if s.stubCache != nil {
		s.stubCache.Set(ctx, key, topicID)
	}
}

func stubCacheKey(topicType topic.Type, externalID string) string {
	return "stub:" + string(topicType) + ":" + externalID
}

func withExternalID(metadata topic.Metadata, externalID string) topic.Metadata {
	out := metadata.Clone()
	if out == nil {
		out = topic.Metadata{}
	}
	external, ok := out[topic.MetadataExternalKey].(map[string]any)
	if !ok {
		external = make(map[string]any, 2)
	}
	external[topic.MetadataExternalIDKey] = externalID
	out[topic.MetadataExternalKey] = external
	return out
}

func isStubMetadata(metadata topic.Metadata) bool {
	if metadata == nil {
		return false
	}
	stub, _ := metadata[topic.MetadataStubKey].(bool)
	return stub
}
