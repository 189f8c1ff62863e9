package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/midfieldhq/reconciler/internal/domain/relationship"
	qb "github.com/midfieldhq/reconciler/internal/platform/querybuilder"
)

type relationshipTableModel struct {
	ID         string     `db:"id"`
	Type       string     `db:"type"`
	ParentID   string     `db:"parent_id"`
	ChildID    string     `db:"child_id"`
	ValidFrom  time.Time  `db:"valid_from"`
	ValidUntil *time.Time `db:"valid_until"`
	CreatedAt  time.Time  `db:"created_at"`
}

type relationshipInsertModel struct {
	ID         string     `db:"id"`
	Type       string     `db:"type"`
	ParentID   string     `db:"parent_id"`
	ChildID    string     `db:"child_id"`
	ValidFrom  time.Time  `db:"valid_from"`
	ValidUntil *time.Time `db:"valid_until"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (m relationshipTableModel) toDomain() relationship.Relationship {
	return relationship.Relationship{
		ID:         m.ID,
		Type:       relationship.Type(m.Type),
		ParentID:   m.ParentID,
		ChildID:    m.ChildID,
		ValidFrom:  m.ValidFrom,
		ValidUntil: m.ValidUntil,
		CreatedAt:  m.CreatedAt,
	}
}

type RelationshipRepository struct {
	db *sqlx.DB
}

func NewRelationshipRepository(db *sqlx.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

func (r *RelationshipRepository) FindOpenByChild(ctx context.Context, relType relationship.Type, childID string) (relationship.Relationship, error) {
	query, args, err := qb.Select("*").From("topic_relationships").
		Where(
			qb.Eq("type", string(relType)),
			qb.Eq("child_id", childID),
			qb.IsNull("valid_until"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return relationship.Relationship{}, fmt.Errorf("build select open relationship query: %w", err)
	}

	var row relationshipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return relationship.Relationship{}, relationship.ErrNotFound
		}
		return relationship.Relationship{}, fmt.Errorf("select open relationship child=%s: %w", childID, err)
	}
	return row.toDomain(), nil
}

func (r *RelationshipRepository) Insert(ctx context.Context, item relationship.Relationship) error {
	query, args, err := qb.InsertModel("topic_relationships", insertModelFor(item), "")
	if err != nil {
		return fmt.Errorf("build insert relationship query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert relationship id=%s: %w", item.ID, err)
	}
	return nil
}

// CloseAndInsert runs the transfer as one transaction. The partial unique
// index on (type, child_id) where valid_until is null makes a second open
// edge impossible even if two workers race the same transfer.
func (r *RelationshipRepository) CloseAndInsert(ctx context.Context, closeID string, closedAt time.Time, next relationship.Relationship) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx transfer relationship: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	closeQuery, closeArgs, err := qb.Update("topic_relationships").
		Set("valid_until", closedAt).
		Where(
			qb.Eq("id", closeID),
			qb.IsNull("valid_until"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close relationship query: %w", err)
	}
	result, err := tx.ExecContext(ctx, closeQuery, closeArgs...)
	if err != nil {
		return fmt.Errorf("close relationship id=%s: %w", closeID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return relationship.ErrNotFound
	}

	insertQuery, insertArgs, err := qb.InsertModel("topic_relationships", insertModelFor(next), "")
	if err != nil {
		return fmt.Errorf("build insert relationship query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert relationship id=%s: %w", next.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer relationship: %w", err)
	}
	return nil
}

func (r *RelationshipRepository) ListByChild(ctx context.Context, relType relationship.Type, childID string) ([]relationship.Relationship, error) {
	query, args, err := qb.Select("*").From("topic_relationships").
		Where(
			qb.Eq("type", string(relType)),
			qb.Eq("child_id", childID),
		).
		OrderBy("valid_from", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list relationships query: %w", err)
	}

	var rows []relationshipTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list relationships child=%s: %w", childID, err)
	}

	out := make([]relationship.Relationship, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func insertModelFor(item relationship.Relationship) relationshipInsertModel {
	return relationshipInsertModel{
		ID:         item.ID,
		Type:       string(item.Type),
		ParentID:   item.ParentID,
		ChildID:    item.ChildID,
		ValidFrom:  item.ValidFrom,
		ValidUntil: item.ValidUntil,
		CreatedAt:  item.CreatedAt,
	}
}
