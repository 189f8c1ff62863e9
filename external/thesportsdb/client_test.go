package thesportsdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		V1BaseURL:      server.URL + "/api/v1/json",
		V2BaseURL:      server.URL + "/api/v2/json",
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		Logger:         logging.NewNop(),
	})
	return client, server
}

func TestClient_FetchLeague_UsesKeyPathAuth(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		_, _ = w.Write([]byte(`{"leagues":[{"idLeague":"4328","strLeague":"English Premier League","strSport":"Soccer","strCountry":"England","strBadge":"https://badge.png"}]}`))
	}))

	league, err := client.FetchLeague(context.Background(), "4328")
	if err != nil {
		t.Fatalf("fetch league: %v", err)
	}
	if league.Name != "English Premier League" {
		t.Fatalf("name = %q", league.Name)
	}
	if league.Country != "England" {
		t.Fatalf("country = %q", league.Country)
	}
	if path := gotPath.Load().(string); path != "/api/v1/json/test-key/lookupleague.php" {
		t.Fatalf("path = %q, want key segment auth", path)
	}
}

func TestClient_FetchLeague_MissingIsNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"leagues":null}`))
	}))

	_, err := client.FetchLeague(context.Background(), "9999999")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClient_ExecuteRequest_RetriesOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"teams":[{"idTeam":"133604","strTeam":"Arsenal","strStadium":"Emirates Stadium"}]}`))
	}))

	club, err := client.FetchClub(context.Background(), "133604")
	if err != nil {
		t.Fatalf("fetch club after retries: %v", err)
	}
	if club.Name != "Arsenal" {
		t.Fatalf("name = %q", club.Name)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("request count = %d, want 3", got)
	}
}

func TestClient_ExecuteRequest_NonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.FetchClub(context.Background(), "133604")
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("request count = %d, want 1 without retries", got)
	}
}

func TestClient_FetchLeagueSchedule_V2HeaderAuthAnd404AsEmpty(t *testing.T) {
	t.Parallel()

	var gotHeader atomic.Value
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Get("X-API-KEY"))
		if strings.Contains(r.URL.Path, "/schedule/league/4328/") {
			_, _ = w.Write([]byte(`{"schedule":[{"idEvent":"2070802","idHomeTeam":"133604","idAwayTeam":"133602","strHomeTeam":"Arsenal","strAwayTeam":"Liverpool","strStatus":"Not Started","intRound":"4","strTimestamp":"2026-09-13T15:30:00"}]}`))
			return
		}
		http.NotFound(w, r)
	}))

	events, err := client.FetchLeagueSchedule(context.Background(), "4328", "2026-2027")
	if err != nil {
		t.Fatalf("fetch schedule: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d, want 1", len(events))
	}
	event := events[0]
	if event.Round == nil || *event.Round != 4 {
		t.Fatalf("round = %v, want 4", event.Round)
	}
	if event.KickoffAt.IsZero() {
		t.Fatal("kickoff not parsed")
	}
	if gotHeader.Load().(string) != "test-key" {
		t.Fatal("v2 request is missing the X-API-KEY header")
	}

	// Off-season league has no schedule; v2 answers 404 and the client
	// reports no events rather than an error.
	empty, err := client.FetchLeagueSchedule(context.Background(), "4335", "2026-2027")
	if err != nil {
		t.Fatalf("fetch empty schedule: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("event count = %d, want 0", len(empty))
	}
}

func TestClient_FetchLeagueTable_ParsesNumericStrings(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("l") != "4328" || r.URL.Query().Get("s") != "2026-2027" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"table":[{"idTeam":"133604","strTeam":"Arsenal","intRank":"1","intPlayed":"10","intWin":"8","intDraw":"1","intLoss":"1","intGoalsFor":"24","intGoalsAgainst":"8","intPoints":"25"},{"idTeam":"","strTeam":"ghost"}]}`))
	}))

	rows, err := client.FetchLeagueTable(context.Background(), "4328", "2026-2027")
	if err != nil {
		t.Fatalf("fetch table: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("row count = %d, want 1 after dropping the id-less row", len(rows))
	}
	row := rows[0]
	if row.Position != 1 || row.Played != 10 || row.Points != 25 {
		t.Fatalf("parsed row = %+v", row)
	}
}

func TestClient_FetchClubPlayers_PrefersCutoutPhoto(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"player":[{"idPlayer":"34145937","idTeam":"133602","strPlayer":"Mohamed Salah","strCutout":"https://cutout.png","strThumb":"https://thumb.png","strPosition":"Forward"},{"idPlayer":"34161265","strPlayer":"Virgil van Dijk","strThumb":"https://thumb2.png"}]}`))
	}))

	players, err := client.FetchClubPlayers(context.Background(), "133602")
	if err != nil {
		t.Fatalf("fetch players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("player count = %d, want 2", len(players))
	}
	if players[0].PhotoURL != "https://cutout.png" {
		t.Fatalf("photo = %q, want cutout preferred", players[0].PhotoURL)
	}
	if players[1].PhotoURL != "https://thumb2.png" {
		t.Fatalf("photo = %q, want thumb fallback", players[1].PhotoURL)
	}
}

func TestClient_Redact_StripsKeyEverywhere(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: "super-secret", Logger: logging.NewNop()})
	redacted := client.redact("https://www.thesportsdb.com/api/v1/json/super-secret/lookupteam.php?id=1")
	if strings.Contains(redacted, "super-secret") {
		t.Fatalf("key leaked: %q", redacted)
	}
}

func TestParseKickoff_FallsBackToDateAndTime(t *testing.T) {
	t.Parallel()

	got := parseKickoff(eventItem{Date: "2026-09-13", Time: "15:30:00"})
	want := time.Date(2026, time.September, 13, 15, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("kickoff = %v, want %v", got, want)
	}

	dateOnly := parseKickoff(eventItem{Date: "2026-09-13"})
	if dateOnly.IsZero() {
		t.Fatal("date-only event should still parse")
	}
}
