package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/midfieldhq/reconciler/internal/domain/topic"
)

type topicTableModel struct {
	ID            string    `db:"id"`
	Type          string    `db:"type"`
	Slug          string    `db:"slug"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	Metadata      string    `db:"metadata"`
	IsActive      bool      `db:"is_active"`
	FollowerCount int       `db:"follower_count"`
	PostCount     int       `db:"post_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type topicInsertModel struct {
	ID          string    `db:"id"`
	Type        string    `db:"type"`
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Metadata    string    `db:"metadata"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m topicTableModel) toDomain() (topic.Topic, error) {
	metadata, err := unmarshalMetadata(m.Metadata)
	if err != nil {
		return topic.Topic{}, fmt.Errorf("decode topic metadata id=%s: %w", m.ID, err)
	}
	return topic.Topic{
		ID:            m.ID,
		Type:          topic.Type(m.Type),
		Slug:          m.Slug,
		Title:         m.Title,
		Description:   m.Description,
		Metadata:      metadata,
		IsActive:      m.IsActive,
		FollowerCount: m.FollowerCount,
		PostCount:     m.PostCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func marshalMetadata(metadata topic.Metadata) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalMetadata(raw string) (topic.Metadata, error) {
	if raw == "" {
		return topic.Metadata{}, nil
	}
	var metadata topic.Metadata
	if err := jsoniter.UnmarshalFromString(raw, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}
