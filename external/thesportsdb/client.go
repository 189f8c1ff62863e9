package thesportsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/midfieldhq/reconciler/internal/platform/logging"
	"github.com/midfieldhq/reconciler/internal/platform/resilience"
	"github.com/midfieldhq/reconciler/internal/usecase"
)

const (
	defaultV1BaseURL = "https://www.thesportsdb.com/api/v1/json"
	defaultV2BaseURL = "https://www.thesportsdb.com/api/v2/json"
	maxBodyBytes     = 6 << 20
)

var keyPathRegex = regexp.MustCompile(`/json/[^/]+/`)
var errTheSportsDBTransient = crerr.New("thesportsdb transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	V1BaseURL      string
	V2BaseURL      string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to TheSportsDB. The v1 API authenticates through a key path
// segment and rate limits with 429; the v2 API authenticates through the
// X-API-KEY header and reports empty result sets as 404.
type Client struct {
	httpClient     *http.Client
	v1BaseURL      string
	v2BaseURL      string
	apiKey         string
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.SportsProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	v1 := strings.TrimRight(strings.TrimSpace(cfg.V1BaseURL), "/")
	if v1 == "" {
		v1 = defaultV1BaseURL
	}
	v2 := strings.TrimRight(strings.TrimSpace(cfg.V2BaseURL), "/")
	if v2 == "" {
		v2 = defaultV2BaseURL
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		v1BaseURL:      v1,
		v2BaseURL:      v2,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		retryBaseDelay: retryBase,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchLeague(ctx context.Context, leagueExternalID string) (usecase.ExternalLeague, error) {
	var envelope leagueEnvelope
	if err := c.doV1JSON(ctx, "/lookupleague.php", url.Values{"id": {leagueExternalID}}, &envelope); err != nil {
		return usecase.ExternalLeague{}, fmt.Errorf("lookup league id=%s: %w", leagueExternalID, err)
	}
	if len(envelope.Leagues) == 0 {
		return usecase.ExternalLeague{}, fmt.Errorf("league id=%s: %w", leagueExternalID, usecase.ErrNotFound)
	}
	item := envelope.Leagues[0]
	return usecase.ExternalLeague{
		ExternalID:  item.ID,
		Name:        item.Name,
		Sport:       item.Sport,
		Country:     item.Country,
		BadgeURL:    item.Badge,
		Description: item.Description,
	}, nil
}

func (c *Client) FetchLeagueClubs(ctx context.Context, leagueExternalID string) ([]usecase.ExternalClub, error) {
	var envelope teamsEnvelope
	if err := c.doV1JSON(ctx, "/lookup_all_teams.php", url.Values{"id": {leagueExternalID}}, &envelope); err != nil {
		return nil, fmt.Errorf("lookup league teams id=%s: %w", leagueExternalID, err)
	}
	clubs := make([]usecase.ExternalClub, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		clubs = append(clubs, mapTeam(item))
	}
	return clubs, nil
}

func (c *Client) FetchClub(ctx context.Context, clubExternalID string) (usecase.ExternalClub, error) {
	var envelope teamsEnvelope
	if err := c.doV1JSON(ctx, "/lookupteam.php", url.Values{"id": {clubExternalID}}, &envelope); err != nil {
		return usecase.ExternalClub{}, fmt.Errorf("lookup team id=%s: %w", clubExternalID, err)
	}
	if len(envelope.Teams) == 0 {
		return usecase.ExternalClub{}, fmt.Errorf("team id=%s: %w", clubExternalID, usecase.ErrNotFound)
	}
	return mapTeam(envelope.Teams[0]), nil
}

func (c *Client) FetchClubPlayers(ctx context.Context, clubExternalID string) ([]usecase.ExternalPlayer, error) {
	var envelope playersEnvelope
	if err := c.doV1JSON(ctx, "/lookup_all_players.php", url.Values{"id": {clubExternalID}}, &envelope); err != nil {
		return nil, fmt.Errorf("lookup team players id=%s: %w", clubExternalID, err)
	}
	players := make([]usecase.ExternalPlayer, 0, len(envelope.Players))
	for _, item := range envelope.Players {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		players = append(players, mapPlayer(item))
	}
	return players, nil
}

func (c *Client) FetchPlayer(ctx context.Context, playerExternalID string) (usecase.ExternalPlayer, error) {
	var envelope playersEnvelope
	if err := c.doV1JSON(ctx, "/lookupplayer.php", url.Values{"id": {playerExternalID}}, &envelope); err != nil {
		return usecase.ExternalPlayer{}, fmt.Errorf("lookup player id=%s: %w", playerExternalID, err)
	}
	if len(envelope.Players) == 0 {
		return usecase.ExternalPlayer{}, fmt.Errorf("player id=%s: %w", playerExternalID, usecase.ErrNotFound)
	}
	return mapPlayer(envelope.Players[0]), nil
}

func (c *Client) FetchLeagueTable(ctx context.Context, leagueExternalID, season string) ([]usecase.ExternalStanding, error) {
	var envelope tableEnvelope
	query := url.Values{"l": {leagueExternalID}, "s": {season}}
	if err := c.doV1JSON(ctx, "/lookuptable.php", query, &envelope); err != nil {
		return nil, fmt.Errorf("lookup table league=%s season=%s: %w", leagueExternalID, season, err)
	}
	rows := make([]usecase.ExternalStanding, 0, len(envelope.Table))
	for _, item := range envelope.Table {
		if strings.TrimSpace(item.TeamID) == "" {
			continue
		}
		rows = append(rows, usecase.ExternalStanding{
			TeamExternalID: item.TeamID,
			TeamName:       item.TeamName,
			TeamBadgeURL:   item.TeamBadge,
			Position:       parseIntField(item.Rank),
			Played:         parseIntField(item.Played),
			Won:            parseIntField(item.Win),
			Draw:           parseIntField(item.Draw),
			Lost:           parseIntField(item.Loss),
			GoalsFor:       parseIntField(item.GoalsFor),
			GoalsAgainst:   parseIntField(item.GoalsAgainst),
			Points:         parseIntField(item.Points),
		})
	}
	return rows, nil
}

func (c *Client) FetchLeagueSchedule(ctx context.Context, leagueExternalID, season string) ([]usecase.ExternalEvent, error) {
	var envelope scheduleEnvelope
	path := fmt.Sprintf("/schedule/league/%s/%s", leagueExternalID, season)
	if err := c.doV2JSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch schedule league=%s season=%s: %w", leagueExternalID, season, err)
	}
	return mapEvents(envelope.Schedule), nil
}

func (c *Client) FetchLivescores(ctx context.Context, leagueExternalID string) ([]usecase.ExternalEvent, error) {
	var envelope livescoreEnvelope
	path := fmt.Sprintf("/livescore/%s", leagueExternalID)
	if err := c.doV2JSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch livescores league=%s: %w", leagueExternalID, err)
	}
	return mapEvents(envelope.Livescore), nil
}

func (c *Client) doV1JSON(ctx context.Context, path string, query url.Values, target any) error {
	fullURL := c.v1BaseURL + "/" + c.apiKey + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return c.doJSON(ctx, fullURL, false, target)
}

func (c *Client) doV2JSON(ctx context.Context, path string, target any) error {
	return c.doJSON(ctx, c.v2BaseURL+path, true, target)
}

func (c *Client) doJSON(ctx context.Context, fullURL string, v2Auth bool, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "thesportsdb circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sports data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, v2Auth)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errTheSportsDBTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	// A v2 404 surfaces here as an empty body; the envelope stays zero valued.
	if len(raw) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, v2Auth bool) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if v2Auth {
			req.Header.Set("X-API-KEY", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errTheSportsDBTransient, c.redact(err.Error()))
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTheSportsDBTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound && v2Auth:
				// v2 reports "no rows" as 404.
				return nil, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("%w: provider status=429", errTheSportsDBTransient)
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := c.retryBaseDelay * time.Duration(1<<attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "thesportsdb request failed", "url", c.redact(fullURL), "error", lastErr)
	return nil, lastErr
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(body, maxBodyBytes)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

func (c *Client) redact(value string) string {
	value = strings.TrimSpace(value)
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return keyPathRegex.ReplaceAllString(value, "/json/REDACTED/")
}

func mapTeam(item teamItem) usecase.ExternalClub {
	return usecase.ExternalClub{
		ExternalID:  item.ID,
		Name:        item.Name,
		BadgeURL:    item.Badge,
		Stadium:     item.Stadium,
		Capacity:    item.Capacity,
		Founded:     item.Formed,
		League:      item.League,
		Website:     item.Website,
		Description: item.Description,
	}
}

func mapPlayer(item playerItem) usecase.ExternalPlayer {
	photo := item.Cutout
	if photo == "" {
		photo = item.Thumb
	}
	return usecase.ExternalPlayer{
		ExternalID:     item.ID,
		ClubExternalID: item.TeamID,
		Name:           item.Name,
		PhotoURL:       photo,
		Position:       item.Position,
		Nationality:    item.Nationality,
		BirthDate:      item.BirthDate,
		Height:         item.Height,
		Weight:         item.Weight,
		JerseyNumber:   item.Number,
		Description:    item.Description,
	}
}

func mapEvents(items []eventItem) []usecase.ExternalEvent {
	events := make([]usecase.ExternalEvent, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		events = append(events, usecase.ExternalEvent{
			ExternalID:         item.ID,
			LeagueExternalID:   item.LeagueID,
			HomeTeamExternalID: item.HomeTeamID,
			AwayTeamExternalID: item.AwayTeamID,
			HomeTeamName:       item.HomeTeamName,
			AwayTeamName:       item.AwayTeamName,
			HomeBadgeURL:       item.HomeTeamBadge,
			AwayBadgeURL:       item.AwayTeamBadge,
			Venue:              item.Venue,
			Status:             item.Status,
			Round:              parseIntPtr(item.Round),
			HomeScore:          parseIntPtr(item.HomeScore),
			AwayScore:          parseIntPtr(item.AwayScore),
			KickoffAt:          parseKickoff(item),
		})
	}
	return events
}

// parseKickoff prefers the UTC timestamp; older events only carry the date
// and local time pair.
func parseKickoff(item eventItem) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, item.Timestamp); err == nil {
			return parsed.UTC()
		}
	}
	if item.Date != "" {
		raw := item.Date + "T" + firstNonEmpty(item.Time, "00:00:00")
		if parsed, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return parsed.UTC()
		}
		if parsed, err := time.Parse("2006-01-02", item.Date); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func parseIntField(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

func parseIntPtr(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
