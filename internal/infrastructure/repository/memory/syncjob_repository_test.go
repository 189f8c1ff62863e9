package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/midfieldhq/reconciler/internal/domain/syncjob"
)

func TestSyncJobRepository_ClaimOldestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSyncJobRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo.SeedRaw(syncjob.Job{
		Type:      syncjob.TypeSyncLeague,
		Status:    syncjob.StatusPending,
		CreatedAt: base.Add(time.Minute),
	})
	repo.SeedRaw(syncjob.Job{
		Type:      syncjob.TypeSyncLeague,
		Status:    syncjob.StatusPending,
		CreatedAt: base,
	})

	claimed, err := repo.ClaimPending(ctx, 1, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, int64(2), claimed[0].ID, "older row wins")
	require.Equal(t, syncjob.StatusProcessing, claimed[0].Status)
	require.NotNil(t, claimed[0].StartedAt)

	pending, err := repo.CountByStatus(ctx, syncjob.StatusPending)
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestSyncJobRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSyncJobRepository()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Enqueue(ctx, []syncjob.Job{
		{Type: syncjob.TypeSyncClub, Payload: map[string]any{"club_id": "1337"}},
		{Type: syncjob.TypeSyncClub, Payload: map[string]any{"club_id": "1338"}},
	}))

	claimed, err := repo.ClaimPending(ctx, 10, now)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	require.NoError(t, repo.MarkCompleted(ctx, claimed[0].ID, now.Add(time.Second)))
	require.NoError(t, repo.MarkFailed(ctx, claimed[1].ID, now.Add(time.Second), "club not found upstream"))

	done, ok := repo.Get(claimed[0].ID)
	require.True(t, ok)
	require.Equal(t, syncjob.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	failed, ok := repo.Get(claimed[1].ID)
	require.True(t, ok)
	require.Equal(t, syncjob.StatusFailed, failed.Status)
	require.Equal(t, "club not found upstream", failed.ErrorLog)
}

func TestSyncJobRepository_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	err := NewSyncJobRepository().Enqueue(context.Background(), []syncjob.Job{{Type: "reindex_everything"}})
	require.Error(t, err)
}

func TestSyncJobRepository_RequeueStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSyncJobRepository()
	claimTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Enqueue(ctx, []syncjob.Job{{Type: syncjob.TypeSyncStandings}}))
	claimed, err := repo.ClaimPending(ctx, 1, claimTime)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Lease still fresh.
	requeued, err := repo.RequeueStale(ctx, claimTime.Add(-time.Minute))
	require.NoError(t, err)
	require.Zero(t, requeued)

	requeued, err = repo.RequeueStale(ctx, claimTime.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, requeued)

	job, ok := repo.Get(claimed[0].ID)
	require.True(t, ok)
	require.Equal(t, syncjob.StatusPending, job.Status)
	require.Nil(t, job.StartedAt)
}
