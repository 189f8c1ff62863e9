package topic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type enumerates the entity kinds a Topic can represent. The set is closed;
// switch statements over it are expected to be exhaustive.
type Type string

const (
	TypeClub   Type = "club"
	TypePlayer Type = "player"
	TypeLeague Type = "league"
)

func (t Type) Valid() bool {
	switch t {
	case TypeClub, TypePlayer, TypeLeague:
		return true
	default:
		return false
	}
}

// MetadataExternalKey is the nested provenance block inside Topic metadata.
// MetadataExternalIDKey is the upstream identifier field inside that block.
const (
	MetadataExternalKey   = "external"
	MetadataExternalIDKey = "thesportsdb_id"
	MetadataStubKey       = "is_stub"
)

var (
	ErrNotFound  = errors.New("topic not found")
	ErrDuplicate = errors.New("topic already exists")
)

// Topic is a polymorphic entity: a club, player, or league. Topics are never
// hard-deleted, only deactivated.
type Topic struct {
	ID            string
	Type          Type
	Slug          string
	Title         string
	Description   string
	Metadata      Metadata
	IsActive      bool
	FollowerCount int
	PostCount     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Topic) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("topic id is required")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("topic type %q is not supported", t.Type)
	}
	if strings.TrimSpace(t.Slug) == "" {
		return fmt.Errorf("topic slug is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("topic title is required")
	}
	return nil
}

func (t Topic) IsStub() bool {
	if t.Metadata == nil {
		return false
	}
	stub, _ := t.Metadata[MetadataStubKey].(bool)
	return stub
}

func (t Topic) ExternalID() string {
	return t.Metadata.ExternalField(MetadataExternalIDKey)
}

// Metadata is the open key-value document attached to a Topic: badge and
// photo URLs, physical attributes, founding year, provenance, stub flag.
type Metadata map[string]any

// Clone copies the document one level deep, including the external block.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for key, value := range m {
		out[key] = value
	}
	if external, ok := m[MetadataExternalKey].(map[string]any); ok {
		copied := make(map[string]any, len(external))
		for key, value := range external {
			copied[key] = value
		}
		out[MetadataExternalKey] = copied
	}
	return out
}

func (m Metadata) ExternalField(key string) string {
	if m == nil {
		return ""
	}
	external, ok := m[MetadataExternalKey].(map[string]any)
	if !ok {
		return ""
	}
	switch value := external[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case fmt.Stringer:
		return strings.TrimSpace(value.String())
	case float64:
		return strings.TrimSpace(strings.TrimSuffix(fmt.Sprintf("%v", value), ".0"))
	case int, int64:
		return fmt.Sprintf("%d", value)
	default:
		return ""
	}
}

// MergeMetadata layers incoming over existing without data loss: a shallow
// merge of the top level, with the nested external block merged separately so
// a partial enrichment pass cannot erase provenance fields captured earlier.
func MergeMetadata(existing, incoming Metadata) Metadata {
	if existing == nil && incoming == nil {
		return Metadata{}
	}

	merged := existing.Clone()
	if merged == nil {
		merged = make(Metadata, len(incoming))
	}

	var mergedExternal map[string]any
	if block, ok := merged[MetadataExternalKey].(map[string]any); ok {
		mergedExternal = block
	}

	for key, value := range incoming {
		if key == MetadataExternalKey {
			continue
		}
		merged[key] = value
	}

	if incomingExternal, ok := incoming[MetadataExternalKey].(map[string]any); ok {
		if mergedExternal == nil {
			mergedExternal = make(map[string]any, len(incomingExternal))
		}
		for key, value := range incomingExternal {
			mergedExternal[key] = value
		}
	}
	if mergedExternal != nil {
		merged[MetadataExternalKey] = mergedExternal
	}

	return merged
}
