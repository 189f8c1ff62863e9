package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/midfieldhq/reconciler/internal/domain/topic"
	qb "github.com/midfieldhq/reconciler/internal/platform/querybuilder"
)

const externalIDExpr = "metadata->'external'->>'thesportsdb_id'"

type TopicRepository struct {
	db *sqlx.DB
}

func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) FindByID(ctx context.Context, id string) (topic.Topic, error) {
	query, args, err := qb.Select("*").From("topics").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return topic.Topic{}, fmt.Errorf("build select topic query: %w", err)
	}

	var row topicTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return topic.Topic{}, topic.ErrNotFound
		}
		return topic.Topic{}, fmt.Errorf("select topic id=%s: %w", id, err)
	}
	return row.toDomain()
}

func (r *TopicRepository) FindByExternalID(ctx context.Context, topicType topic.Type, externalID string) (topic.Topic, error) {
	query, args, err := qb.Select("*").From("topics").
		Where(
			qb.Eq("type", string(topicType)),
			qb.Expr(externalIDExpr+" = ?", externalID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return topic.Topic{}, fmt.Errorf("build select topic by external id query: %w", err)
	}

	var row topicTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return topic.Topic{}, topic.ErrNotFound
		}
		return topic.Topic{}, fmt.Errorf("select topic type=%s external_id=%s: %w", topicType, externalID, err)
	}
	return row.toDomain()
}

func (r *TopicRepository) SlugExists(ctx context.Context, topicType topic.Type, slug string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("topics").
		Where(
			qb.Eq("type", string(topicType)),
			qb.Eq("slug", slug),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build slug exists query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("count topics type=%s slug=%s: %w", topicType, slug, err)
	}
	return count > 0, nil
}

func (r *TopicRepository) Insert(ctx context.Context, item topic.Topic) error {
	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return fmt.Errorf("encode topic metadata id=%s: %w", item.ID, err)
	}

	query, args, err := qb.InsertModel("topics", topicInsertModel{
		ID:          item.ID,
		Type:        string(item.Type),
		Slug:        item.Slug,
		Title:       item.Title,
		Description: item.Description,
		Metadata:    metadata,
		IsActive:    item.IsActive,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert topic query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return topic.ErrDuplicate
		}
		return fmt.Errorf("insert topic id=%s: %w", item.ID, err)
	}
	return nil
}

// Update deliberately leaves id, slug, follower_count, and post_count alone;
// those columns belong to the serving side of the topics table.
func (r *TopicRepository) Update(ctx context.Context, item topic.Topic) error {
	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return fmt.Errorf("encode topic metadata id=%s: %w", item.ID, err)
	}

	query, args, err := qb.Update("topics").
		Set("title", item.Title).
		Set("description", item.Description).
		Set("metadata", metadata).
		Set("is_active", item.IsActive).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update topic query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update topic id=%s: %w", item.ID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return topic.ErrNotFound
	}
	return nil
}

func (r *TopicRepository) Deactivate(ctx context.Context, id string) error {
	query, args, err := qb.Update("topics").
		Set("is_active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate topic query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate topic id=%s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return topic.ErrNotFound
	}
	return nil
}

func (r *TopicRepository) ListNeedingEnrichment(ctx context.Context, limit int) ([]topic.Topic, error) {
	query, args, err := qb.Select("*").From("topics").
		Where(
			qb.Eq("type", string(topic.TypePlayer)),
			qb.Eq("is_active", true),
			qb.Expr("(COALESCE(metadata->>'height', '') = '' OR COALESCE(metadata->>'nationality', '') = '' OR COALESCE(metadata->>'jersey_number', '') = '')"),
		).
		OrderBy("updated_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build enrichment candidates query: %w", err)
	}

	var rows []topicTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select enrichment candidates: %w", err)
	}

	out := make([]topic.Topic, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
