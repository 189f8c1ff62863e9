package standing

import (
	"fmt"
	"strings"
)

// Standing is one row of a league table snapshot for a season. The source
// only ever supplies full tables, so rows are replaced wholesale per
// (league, season) rather than patched.
type Standing struct {
	LeagueID     string
	TeamID       string
	Season       string
	Position     int
	Played       int
	Won          int
	Draw         int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

func (s Standing) Validate() error {
	if strings.TrimSpace(s.LeagueID) == "" {
		return fmt.Errorf("standing league id is required")
	}
	if strings.TrimSpace(s.TeamID) == "" {
		return fmt.Errorf("standing team id is required")
	}
	if strings.TrimSpace(s.Season) == "" {
		return fmt.Errorf("standing season is required")
	}
	if s.Position <= 0 {
		return fmt.Errorf("standing position must be greater than zero")
	}
	return nil
}

func (s Standing) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}
