package relationship

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type enumerates the supported edge kinds between topics.
type Type string

// TypePlaysFor links a player (child) to the club they currently or
// previously play for (parent).
const TypePlaysFor Type = "plays_for"

var ErrNotFound = errors.New("relationship not found")

// Relationship is a directed, typed, time-bounded edge between two topics.
// A nil ValidUntil means the edge is currently active. Closed edges are
// never mutated again.
type Relationship struct {
	ID         string
	Type       Type
	ParentID   string
	ChildID    string
	ValidFrom  time.Time
	ValidUntil *time.Time
	CreatedAt  time.Time
}

func (r Relationship) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("relationship id is required")
	}
	if r.Type != TypePlaysFor {
		return fmt.Errorf("relationship type %q is not supported", r.Type)
	}
	if strings.TrimSpace(r.ParentID) == "" {
		return fmt.Errorf("relationship parent id is required")
	}
	if strings.TrimSpace(r.ChildID) == "" {
		return fmt.Errorf("relationship child id is required")
	}
	return nil
}

func (r Relationship) Open() bool {
	return r.ValidUntil == nil
}
