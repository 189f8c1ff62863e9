package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/midfieldhq/reconciler/internal/domain/topic"
)

func playerTopic(id, slug, externalID string, meta topic.Metadata) topic.Topic {
	if meta == nil {
		meta = topic.Metadata{}
	}
	meta[topic.MetadataExternalKey] = map[string]any{topic.MetadataExternalIDKey: externalID}
	return topic.Topic{
		ID:       id,
		Type:     topic.TypePlayer,
		Slug:     slug,
		Title:    slug,
		Metadata: meta,
		IsActive: true,
	}
}

func TestTopicRepository_UniquenessMatchesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTopicRepository()
	require.NoError(t, repo.Insert(ctx, playerTopic("id-1", "salah", "1001", nil)))

	t.Run("duplicate id", func(t *testing.T) {
		err := repo.Insert(ctx, playerTopic("id-1", "other", "1009", nil))
		require.ErrorIs(t, err, topic.ErrDuplicate)
	})

	t.Run("duplicate slug within type", func(t *testing.T) {
		err := repo.Insert(ctx, playerTopic("id-2", "salah", "1002", nil))
		require.ErrorIs(t, err, topic.ErrDuplicate)
	})

	t.Run("duplicate external id within type", func(t *testing.T) {
		err := repo.Insert(ctx, playerTopic("id-3", "m-salah", "1001", nil))
		require.ErrorIs(t, err, topic.ErrDuplicate)
	})

	t.Run("same slug on another type is fine", func(t *testing.T) {
		club := playerTopic("id-4", "salah", "2001", nil)
		club.Type = topic.TypeClub
		require.NoError(t, repo.Insert(ctx, club))
	})
}

func TestTopicRepository_UpdateKeepsProtectedColumns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTopicRepository()

	stored := playerTopic("id-1", "salah", "1001", nil)
	stored.FollowerCount = 42
	stored.PostCount = 7
	require.NoError(t, repo.Insert(ctx, stored))

	patch := playerTopic("id-1", "renamed-slug", "1001", topic.Metadata{"height": "1.75m"})
	patch.Title = "Mohamed Salah"
	patch.FollowerCount = 0
	patch.PostCount = 0
	require.NoError(t, repo.Update(ctx, patch))

	got, err := repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	require.Equal(t, "salah", got.Slug)
	require.Equal(t, 42, got.FollowerCount)
	require.Equal(t, 7, got.PostCount)
	require.Equal(t, "Mohamed Salah", got.Title)
}

func TestTopicRepository_ListNeedingEnrichment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTopicRepository()

	sparse := playerTopic("id-1", "sparse", "1001", nil)
	sparse.UpdatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, sparse))

	older := playerTopic("id-2", "older-sparse", "1002", topic.Metadata{"height": ""})
	older.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, older))

	full := playerTopic("id-3", "full", "1003", topic.Metadata{
		"height":        "1.85m",
		"nationality":   "Netherlands",
		"jersey_number": "4",
	})
	require.NoError(t, repo.Insert(ctx, full))

	inactive := playerTopic("id-4", "inactive", "1004", nil)
	inactive.IsActive = false
	require.NoError(t, repo.Insert(ctx, inactive))

	got, err := repo.ListNeedingEnrichment(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "id-2", got[0].ID, "oldest updated first")
	require.Equal(t, "id-1", got[1].ID)

	limited, err := repo.ListNeedingEnrichment(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "id-2", limited[0].ID)
}
