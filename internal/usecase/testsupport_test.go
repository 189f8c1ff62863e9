package usecase

import (
	"context"
	"sync"

	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

// fakeProvider is a scripted SportsProvider. Unset fields yield empty
// results; set err fields force failures for the paths under test.
type fakeProvider struct {
	mu sync.Mutex

	leagues     map[string]ExternalLeague
	leagueClubs map[string][]ExternalClub
	clubs       map[string]ExternalClub
	rosters   map[string][]ExternalPlayer
	players   map[string]ExternalPlayer
	tables    map[string][]ExternalStanding
	schedules map[string][]ExternalEvent
	live      map[string][]ExternalEvent

	leagueErr   error
	clubErr     error
	rosterErr   error
	playerErr   error
	tableErr    error
	scheduleErr error
	liveErr     error

	calls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		leagues:     make(map[string]ExternalLeague),
		leagueClubs: make(map[string][]ExternalClub),
		clubs:       make(map[string]ExternalClub),
		rosters:   make(map[string][]ExternalPlayer),
		players:   make(map[string]ExternalPlayer),
		tables:    make(map[string][]ExternalStanding),
		schedules: make(map[string][]ExternalEvent),
		live:      make(map[string][]ExternalEvent),
		calls:     make(map[string]int),
	}
}

func (f *fakeProvider) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeProvider) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeProvider) FetchLeague(_ context.Context, externalID string) (ExternalLeague, error) {
	f.record("FetchLeague")
	if f.leagueErr != nil {
		return ExternalLeague{}, f.leagueErr
	}
	return f.leagues[externalID], nil
}

func (f *fakeProvider) FetchLeagueClubs(_ context.Context, leagueExternalID string) ([]ExternalClub, error) {
	f.record("FetchLeagueClubs")
	if f.clubErr != nil {
		return nil, f.clubErr
	}
	return f.leagueClubs[leagueExternalID], nil
}

func (f *fakeProvider) FetchClub(_ context.Context, externalID string) (ExternalClub, error) {
	f.record("FetchClub")
	if f.clubErr != nil {
		return ExternalClub{}, f.clubErr
	}
	return f.clubs[externalID], nil
}

func (f *fakeProvider) FetchClubPlayers(_ context.Context, clubExternalID string) ([]ExternalPlayer, error) {
	f.record("FetchClubPlayers")
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.rosters[clubExternalID], nil
}

func (f *fakeProvider) FetchPlayer(_ context.Context, externalID string) (ExternalPlayer, error) {
	f.record("FetchPlayer")
	if f.playerErr != nil {
		return ExternalPlayer{}, f.playerErr
	}
	return f.players[externalID], nil
}

func (f *fakeProvider) FetchLeagueTable(_ context.Context, leagueExternalID, season string) ([]ExternalStanding, error) {
	f.record("FetchLeagueTable")
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	return f.tables[leagueExternalID+"|"+season], nil
}

func (f *fakeProvider) FetchLeagueSchedule(_ context.Context, leagueExternalID, season string) ([]ExternalEvent, error) {
	f.record("FetchLeagueSchedule")
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return f.schedules[leagueExternalID+"|"+season], nil
}

func (f *fakeProvider) FetchLivescores(_ context.Context, leagueExternalID string) ([]ExternalEvent, error) {
	f.record("FetchLivescores")
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live[leagueExternalID], nil
}

func testLogger() *logging.Logger {
	return logging.NewNop()
}
