package usecase

import (
	"context"
	"time"
)

// ExternalLeague is a provider league record, already parsed and trimmed at
// the client boundary. The rest of the pipeline never sees raw provider JSON.
type ExternalLeague struct {
	ExternalID  string
	Name        string
	Sport       string
	Country     string
	BadgeURL    string
	Description string
}

type ExternalClub struct {
	ExternalID  string
	Name        string
	BadgeURL    string
	Stadium     string
	Capacity    string
	Founded     string
	League      string
	Website     string
	Description string
}

type ExternalPlayer struct {
	ExternalID     string
	ClubExternalID string
	Name           string
	PhotoURL       string
	Position       string
	Nationality    string
	BirthDate      string
	Height         string
	Weight         string
	JerseyNumber   string
	Description    string
}

type ExternalStanding struct {
	TeamExternalID string
	TeamName       string
	TeamBadgeURL   string
	Position       int
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	Points         int
}

// ExternalEvent is one scheduled or in-play match. Status carries the raw
// provider string; callers reduce it with fixture.NormalizeStatus.
type ExternalEvent struct {
	ExternalID         string
	LeagueExternalID   string
	HomeTeamExternalID string
	AwayTeamExternalID string
	HomeTeamName       string
	AwayTeamName       string
	HomeBadgeURL       string
	AwayBadgeURL       string
	Venue              string
	Status             string
	Round              *int
	HomeScore          *int
	AwayScore          *int
	KickoffAt          time.Time
}

// SportsProvider is the read-only surface of the upstream sports API.
// An empty slice, never an error, signals "no data" on list endpoints.
type SportsProvider interface {
	FetchLeague(ctx context.Context, leagueExternalID string) (ExternalLeague, error)
	FetchLeagueClubs(ctx context.Context, leagueExternalID string) ([]ExternalClub, error)
	FetchClub(ctx context.Context, clubExternalID string) (ExternalClub, error)
	FetchClubPlayers(ctx context.Context, clubExternalID string) ([]ExternalPlayer, error)
	FetchPlayer(ctx context.Context, playerExternalID string) (ExternalPlayer, error)
	FetchLeagueTable(ctx context.Context, leagueExternalID, season string) ([]ExternalStanding, error)
	FetchLeagueSchedule(ctx context.Context, leagueExternalID, season string) ([]ExternalEvent, error)
	FetchLivescores(ctx context.Context, leagueExternalID string) ([]ExternalEvent, error)
}
