package syncjob

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType enumerates the units of work the processor understands.
type JobType string

const (
	TypeSyncLeague    JobType = "sync_league"
	TypeSyncClub      JobType = "sync_club"
	TypeSyncStandings JobType = "sync_standings"
	TypeEnrichPlayer  JobType = "enrich_player"
)

func (t JobType) Valid() bool {
	switch t {
	case TypeSyncLeague, TypeSyncClub, TypeSyncStandings, TypeEnrichPlayer:
		return true
	default:
		return false
	}
}

// Status is the job state machine: pending -> processing -> completed|failed.
// Failed jobs are terminal for this layer; a producer may re-enqueue.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var ErrNotFound = errors.New("sync job not found")

// Job is one unit of sync work. StartedAt is set when the processor claims
// the job and doubles as the lease timestamp for stale-job recovery.
type Job struct {
	ID          int64
	Type        JobType
	Payload     map[string]any
	Status      Status
	ErrorLog    string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (j Job) Validate() error {
	if !j.Type.Valid() {
		return fmt.Errorf("job type %q is not supported", j.Type)
	}
	return nil
}

// PayloadString extracts a trimmed string field from the payload, tolerating
// numeric payload values since upstream ids are numeric strings.
func (j Job) PayloadString(key string) string {
	if j.Payload == nil {
		return ""
	}
	switch value := j.Payload[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%v", value), ".0"), ".")
	case int:
		return fmt.Sprintf("%d", value)
	case int64:
		return fmt.Sprintf("%d", value)
	default:
		return ""
	}
}
