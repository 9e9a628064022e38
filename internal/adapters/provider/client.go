// Package provider fetches game identifiers, metadata and raw play-by-play
// rows from the upstream scoreboard API. Fetching is an external,
// cancellable operation; results are handed to the normalizer synchronously
// and no retries happen here.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/gameselect/internal/domain/pbp"
	"github.com/okian/gameselect/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL        = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"
	defaultUserAgent      = "Mozilla/5.0"
	defaultRequestTimeout = 15 * time.Second
	defaultRatePerSecond  = 4
	defaultBurst          = 2
)

// GameMeta is the metadata the catalog needs about one game.
type GameMeta struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	Venue     string
	Tipoff    time.Time
	HomeScore *int
	AwayScore *int
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the upstream API base URL, e.g. for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// Client talks to the upstream provider. Safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a provider client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: defaultRequestTimeout},
		limiter:   rate.NewLimiter(defaultRatePerSecond, defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// scoreboardResponse mirrors the subset of the scoreboard payload we read.
type scoreboardResponse struct {
	Events []struct {
		ID string `json:"id"`
	} `json:"events"`
}

// summaryResponse mirrors the subset of the game summary payload we read.
type summaryResponse struct {
	Header struct {
		Competitions []struct {
			Date        string `json:"date"`
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					ID          string `json:"id"`
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
			Venue struct {
				FullName string `json:"fullName"`
			} `json:"venue"`
		} `json:"competitions"`
	} `json:"header"`
	GameInfo struct {
		Venue struct {
			FullName string `json:"fullName"`
		} `json:"venue"`
	} `json:"gameInfo"`
	Plays []playRow `json:"plays"`
}

type playRow struct {
	Period struct {
		Number int `json:"number"`
	} `json:"period"`
	Clock struct {
		DisplayValue string `json:"displayValue"`
	} `json:"clock"`
	Type struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"type"`
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
	Participants []struct {
		Athlete struct {
			ID string `json:"id"`
		} `json:"athlete"`
	} `json:"participants"`
	Text         string `json:"text"`
	ScoringPlay  bool   `json:"scoringPlay"`
	ShootingPlay bool   `json:"shootingPlay"`
	ScoreValue   int    `json:"scoreValue"`
	HomeScore    int    `json:"homeScore"`
	AwayScore    int    `json:"awayScore"`
}

// GameIDsForDate returns the provider's game identifiers for one day.
func (c *Client) GameIDsForDate(ctx context.Context, day time.Time) ([]string, error) {
	url := fmt.Sprintf("%s/scoreboard?dates=%s", c.baseURL, day.Format("20060102"))
	var resp scoreboardResponse
	if err := c.getJSON(ctx, url, "scoreboard", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if ev.ID != "" {
			ids = append(ids, ev.ID)
		}
	}
	return ids, nil
}

// GameIDsForRange aggregates identifiers across [from, to] inclusive.
func (c *Client) GameIDsForRange(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayIDs, err := c.GameIDsForDate(ctx, day)
		if err != nil {
			return nil, err
		}
		ids = append(ids, dayIDs...)
	}
	return ids, nil
}

// GameSummary fetches one game's metadata and raw play-by-play rows.
func (c *Client) GameSummary(ctx context.Context, gameID string) (GameMeta, []pbp.RawRow, error) {
	url := fmt.Sprintf("%s/summary?event=%s", c.baseURL, gameID)
	var resp summaryResponse
	if err := c.getJSON(ctx, url, "summary", &resp); err != nil {
		return GameMeta{}, nil, err
	}

	meta := GameMeta{GameID: gameID}
	if len(resp.Header.Competitions) > 0 {
		comp := resp.Header.Competitions[0]
		if t, err := time.Parse(time.RFC3339, comp.Date); err == nil {
			meta.Tipoff = t
		}
		for _, competitor := range comp.Competitors {
			var score *int
			if n, err := strconv.Atoi(competitor.Score); err == nil {
				score = &n
			}
			if competitor.HomeAway == "home" {
				meta.HomeTeam = competitor.Team.DisplayName
				meta.HomeScore = score
			} else {
				meta.AwayTeam = competitor.Team.DisplayName
				meta.AwayScore = score
			}
		}
		meta.Venue = comp.Venue.FullName
	}
	// The gameInfo venue is more reliable when present.
	if v := resp.GameInfo.Venue.FullName; v != "" {
		meta.Venue = v
	}

	rows := make([]pbp.RawRow, 0, len(resp.Plays))
	for _, play := range resp.Plays {
		row := pbp.RawRow{
			Period:       play.Period.Number,
			Clock:        play.Clock.DisplayValue,
			TypeID:       play.Type.ID,
			TypeText:     play.Type.Text,
			Text:         play.Text,
			TeamID:       play.Team.ID,
			ScoringPlay:  play.ScoringPlay,
			ShootingPlay: play.ShootingPlay,
			ScoreValue:   play.ScoreValue,
			HomeScore:    play.HomeScore,
			AwayScore:    play.AwayScore,
		}
		if len(play.Participants) > 0 {
			// First participant is the acting player.
			row.PlayerID = play.Participants[0].Athlete.ID
		}
		rows = append(rows, row)
	}
	return meta, rows, nil
}

// getJSON performs one rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordProviderRequest(endpoint, err == nil)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderLatency(float64(time.Since(start).Milliseconds()))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %w (status %d)", endpoint, ErrUpstreamStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
