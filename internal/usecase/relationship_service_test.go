package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/relationship"
	"github.com/midfieldhq/reconciler/internal/infrastructure/repository/memory"
)

func TestRelationshipService_SyncPlayerForClub_CreatesFirstEdge(t *testing.T) {
	t.Parallel()

	repo := memory.NewRelationshipRepository()
	svc := NewRelationshipService(repo, nil, testLogger())

	status, err := svc.SyncPlayerForClub(context.Background(), "player-1", "club-a")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if status != TransferCreated {
		t.Fatalf("status = %q, want %q", status, TransferCreated)
	}

	open, err := repo.FindOpenByChild(context.Background(), relationship.TypePlaysFor, "player-1")
	if err != nil {
		t.Fatalf("find open edge: %v", err)
	}
	if open.ParentID != "club-a" {
		t.Fatalf("open edge parent = %q, want club-a", open.ParentID)
	}
	if open.ValidUntil != nil {
		t.Fatal("fresh edge must be open ended")
	}
}

func TestRelationshipService_SyncPlayerForClub_SameClubIsNoOp(t *testing.T) {
	t.Parallel()

	repo := memory.NewRelationshipRepository()
	svc := NewRelationshipService(repo, nil, testLogger())
	ctx := context.Background()

	if _, err := svc.SyncPlayerForClub(ctx, "player-1", "club-a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	status, err := svc.SyncPlayerForClub(ctx, "player-1", "club-a")
	if err != nil {
		t.Fatalf("repeat sync: %v", err)
	}
	if status != TransferUnchanged {
		t.Fatalf("status = %q, want %q", status, TransferUnchanged)
	}

	edges, err := repo.ListByChild(ctx, relationship.TypePlaysFor, "player-1")
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}
}

func TestRelationshipService_SyncPlayerForClub_TransferClosesOldEdge(t *testing.T) {
	t.Parallel()

	repo := memory.NewRelationshipRepository()
	base := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	current := base
	svc := NewRelationshipService(repo, nil, testLogger()).WithClock(func() time.Time { return current })
	ctx := context.Background()

	if _, err := svc.SyncPlayerForClub(ctx, "player-1", "club-a"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	current = base.Add(30 * 24 * time.Hour)
	status, err := svc.SyncPlayerForClub(ctx, "player-1", "club-b")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if status != TransferTransferred {
		t.Fatalf("status = %q, want %q", status, TransferTransferred)
	}

	edges, err := repo.ListByChild(ctx, relationship.TypePlaysFor, "player-1")
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("edge count = %d, want 2", len(edges))
	}

	openCount := 0
	for _, edge := range edges {
		if edge.Open() {
			openCount++
			if edge.ParentID != "club-b" {
				t.Fatalf("open edge parent = %q, want club-b", edge.ParentID)
			}
			if !edge.ValidFrom.Equal(current) {
				t.Fatalf("open edge valid_from = %v, want %v", edge.ValidFrom, current)
			}
		} else {
			if edge.ParentID != "club-a" {
				t.Fatalf("closed edge parent = %q, want club-a", edge.ParentID)
			}
			if edge.ValidUntil == nil || !edge.ValidUntil.Equal(current) {
				t.Fatalf("closed edge valid_until = %v, want %v", edge.ValidUntil, current)
			}
		}
	}
	if openCount != 1 {
		t.Fatalf("open edge count = %d, want exactly 1", openCount)
	}
}

func TestRelationshipService_SyncPlayerForClub_RejectsEmptyIDs(t *testing.T) {
	t.Parallel()

	svc := NewRelationshipService(memory.NewRelationshipRepository(), nil, testLogger())
	if _, err := svc.SyncPlayerForClub(context.Background(), "", "club-a"); err == nil {
		t.Fatal("expected error for empty player id")
	}
	if _, err := svc.SyncPlayerForClub(context.Background(), "player-1", " "); err == nil {
		t.Fatal("expected error for empty club id")
	}
}
