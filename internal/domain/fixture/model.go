package fixture

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("fixture not found")

// Status is the closed fixture state enum. Provider strings are reduced to
// this set at the client boundary via NormalizeStatus.
type Status string

const (
	StatusNotStarted Status = "NS"
	StatusLive       Status = "LIVE"
	StatusHalftime   Status = "HT"
	StatusFinished   Status = "FT"
	StatusPostponed  Status = "PST"
	StatusAbandoned  Status = "ABD"
)

// Fixture is a scheduled or completed match between two club topics under a
// competition topic. Keyed by the upstream event id, so re-syncs overwrite
// the same row with the latest snapshot.
type Fixture struct {
	ID            string
	ExternalID    string
	CompetitionID string
	HomeTeamID    string
	AwayTeamID    string
	HomeTeamName  string
	AwayTeamName  string
	HomeBadgeURL  string
	AwayBadgeURL  string
	Venue         string
	Gameweek      *int
	HomeScore     *int
	AwayScore     *int
	Status        Status
	KickoffAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (f Fixture) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("fixture id is required")
	}
	if strings.TrimSpace(f.ExternalID) == "" {
		return fmt.Errorf("fixture external id is required")
	}
	if strings.TrimSpace(f.HomeTeamID) == "" || strings.TrimSpace(f.AwayTeamID) == "" {
		return fmt.Errorf("fixture team ids are required")
	}
	return nil
}

// NormalizeStatus reduces a free-form provider status to the closed enum.
// Unrecognized non-empty values are treated as live, since the provider
// reports in-play fixtures with minute markers like "34'" or "2H".
func NormalizeStatus(apiStatus string) Status {
	s := strings.ToLower(strings.TrimSpace(apiStatus))
	switch s {
	case "":
		return StatusNotStarted
	case "match finished", "finished", "ft", "aet", "pen":
		return StatusFinished
	case "not started", "ns", "time to be defined":
		return StatusNotStarted
	case "postponed", "cancelled":
		return StatusPostponed
	case "abandoned", "suspended":
		return StatusAbandoned
	case "ht", "halftime", "break":
		return StatusHalftime
	default:
		return StatusLive
	}
}

func IsActiveStatus(status Status) bool {
	return status == StatusLive || status == StatusHalftime
}

// SeasonLabel formats the Aug-split season containing the given instant.
// December 2025 falls in "2025-2026"; August 2026 starts "2026-2027".
func SeasonLabel(at time.Time) string {
	year := at.Year()
	if at.Month() >= time.August {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}
