package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/midfieldhq/reconciler/internal/domain/relationship"
	"github.com/midfieldhq/reconciler/internal/platform/id"
	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// TransferStatus describes what SyncPlayerForClub did.
type TransferStatus string

const (
	TransferCreated     TransferStatus = "created"
	TransferUnchanged   TransferStatus = "unchanged"
	TransferTransferred TransferStatus = "transferred"
)

// RelationshipService maintains the time-bounded plays_for edges between
// players and clubs.
type RelationshipService struct {
	repo   relationship.Repository
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewRelationshipService(repo relationship.Repository, ids id.Generator, logger *logging.Logger) *RelationshipService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewDeterministicGenerator()
	}
	return &RelationshipService{
		repo:   repo,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *RelationshipService) WithClock(now func() time.Time) *RelationshipService {
	if now != nil {
		s.now = now
	}
	return s
}

// SyncPlayerForClub reconciles a player's current club edge. No open edge
// means a fresh one is created; an open edge to the same club is a no-op; an
// open edge to a different club is a transfer, handled close-then-open so
// the player never carries two open edges. The close/insert pair runs inside
// one repository call so a crash can at worst leave the player with no
// current club, never a duplicate-active edge.
func (s *RelationshipService) SyncPlayerForClub(ctx context.Context, playerID, clubID string) (TransferStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RelationshipService.SyncPlayerForClub")
	defer span.End()

	if s.repo == nil {
		return "", fmt.Errorf("%w: relationship repository is not configured", ErrDependencyUnavailable)
	}
	playerID = strings.TrimSpace(playerID)
	clubID = strings.TrimSpace(clubID)
	if playerID == "" || clubID == "" {
		return "", fmt.Errorf("%w: player id and club id are required", ErrInvalidInput)
	}

	now := s.now().UTC()

	open, err := s.repo.FindOpenByChild(ctx, relationship.TypePlaysFor, playerID)
	if errors.Is(err, relationship.ErrNotFound) {
		fresh := s.newEdge(playerID, clubID, now)
		if err := s.repo.Insert(ctx, fresh); err != nil {
			return "", fmt.Errorf("insert plays_for edge player=%s club=%s: %w", playerID, clubID, err)
		}
		return TransferCreated, nil
	}
	if err != nil {
		return "", fmt.Errorf("find open plays_for edge player=%s: %w", playerID, err)
	}

	if open.ParentID == clubID {
		return TransferUnchanged, nil
	}

	next := s.newEdge(playerID, clubID, now)
	if err := s.repo.CloseAndInsert(ctx, open.ID, now, next); err != nil {
		return "", fmt.Errorf("transfer player=%s from club=%s to club=%s: %w", playerID, open.ParentID, clubID, err)
	}

	s.logger.InfoContext(ctx, "player transferred",
		"player_id", playerID, "from_club_id", open.ParentID, "to_club_id", clubID)
	return TransferTransferred, nil
}

func (s *RelationshipService) newEdge(playerID, clubID string, validFrom time.Time) relationship.Relationship {
	seed := fmt.Sprintf("%s:%s:%d", playerID, clubID, validFrom.UnixNano())
	return relationship.Relationship{
		ID:        s.ids.ForEntity(string(relationship.TypePlaysFor), seed),
		Type:      relationship.TypePlaysFor,
		ParentID:  clubID,
		ChildID:   playerID,
		ValidFrom: validFrom,
		CreatedAt: validFrom,
	}
}
