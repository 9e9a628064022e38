// Package repository persists the game catalog, raw play-by-play rows and
// the durable feature-cache tier in SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/pbp"
)

// Game is one catalog row: the metadata the recommender and the API need
// about a game, independent of feature extraction.
type Game struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	Venue     string
	Tipoff    time.Time
	HomeScore *int
	AwayScore *int
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id    TEXT PRIMARY KEY,
	home_team  TEXT NOT NULL,
	away_team  TEXT NOT NULL,
	venue      TEXT NOT NULL DEFAULT '',
	tipoff     TEXT NOT NULL,
	home_score INTEGER,
	away_score INTEGER
);
CREATE INDEX IF NOT EXISTS idx_games_tipoff ON games(tipoff);

CREATE TABLE IF NOT EXISTS pbp_rows (
	game_id       TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	period        INTEGER NOT NULL,
	clock         TEXT NOT NULL,
	type_id       TEXT NOT NULL,
	type_text     TEXT NOT NULL DEFAULT '',
	play_text     TEXT NOT NULL DEFAULT '',
	team_id       TEXT NOT NULL DEFAULT '',
	player_id     TEXT NOT NULL DEFAULT '',
	scoring_play  INTEGER NOT NULL DEFAULT 0,
	shooting_play INTEGER NOT NULL DEFAULT 0,
	score_value   INTEGER NOT NULL DEFAULT 0,
	home_score    INTEGER NOT NULL DEFAULT 0,
	away_score    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (game_id, seq)
);

CREATE TABLE IF NOT EXISTS feature_cache (
	game_id    TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	vector     TEXT NOT NULL,
	attributes TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Catalog is the SQLite-backed store. A single open connection serialises
// writes; WAL mode lets readers proceed without blocking the writer.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at dsn. Use
// ":memory:" for tests.
func Open(dsn string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure catalog: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// UpsertGame inserts or replaces a catalog row.
func (c *Catalog) UpsertGame(ctx context.Context, g Game) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO games (game_id, home_team, away_team, venue, tipoff, home_score, away_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			home_team = excluded.home_team,
			away_team = excluded.away_team,
			venue = excluded.venue,
			tipoff = excluded.tipoff,
			home_score = excluded.home_score,
			away_score = excluded.away_score`,
		g.GameID, g.HomeTeam, g.AwayTeam, g.Venue, g.Tipoff.UTC().Format(time.RFC3339),
		g.HomeScore, g.AwayScore)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", g.GameID, err)
	}
	return nil
}

// Game returns one catalog row. Returns ErrGameNotFound for unknown IDs.
func (c *Catalog) Game(ctx context.Context, gameID string) (Game, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT game_id, home_team, away_team, venue, tipoff, home_score, away_score
		FROM games WHERE game_id = ?`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	return g, err
}

// GamesInRange returns catalog rows with tip-off inside [from, to],
// ordered by tip-off ascending then game ID for a stable candidate window.
func (c *Catalog) GamesInRange(ctx context.Context, from, to time.Time) ([]Game, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT game_id, home_team, away_team, venue, tipoff, home_score, away_score
		FROM games WHERE tipoff >= ? AND tipoff <= ?
		ORDER BY tipoff, game_id`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("games in range: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GamesByDate returns catalog rows whose tip-off falls on the given UTC day.
func (c *Catalog) GamesByDate(ctx context.Context, day time.Time) ([]Game, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return c.GamesInRange(ctx, start, start.Add(24*time.Hour-time.Nanosecond))
}

// CountGames returns the number of games tracked in the catalog.
func (c *Catalog) CountGames(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (Game, error) {
	var g Game
	var tipoff string
	if err := r.Scan(&g.GameID, &g.HomeTeam, &g.AwayTeam, &g.Venue, &tipoff, &g.HomeScore, &g.AwayScore); err != nil {
		return Game{}, err
	}
	t, err := time.Parse(time.RFC3339, tipoff)
	if err != nil {
		return Game{}, fmt.Errorf("parse tipoff for %s: %w", g.GameID, err)
	}
	g.Tipoff = t
	return g, nil
}

// SavePlayByPlay replaces the stored raw rows for a game. Row order is the
// authoritative chronological order, preserved via the seq column.
func (c *Catalog) SavePlayByPlay(ctx context.Context, gameID string, rows []pbp.RawRow) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save pbp %s: %w", gameID, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM pbp_rows WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("clear pbp %s: %w", gameID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pbp_rows (game_id, seq, period, clock, type_id, type_text, play_text,
			team_id, player_id, scoring_play, shooting_play, score_value, home_score, away_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pbp insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, gameID, i, row.Period, row.Clock, row.TypeID,
			row.TypeText, row.Text, row.TeamID, row.PlayerID,
			boolToInt(row.ScoringPlay), boolToInt(row.ShootingPlay),
			row.ScoreValue, row.HomeScore, row.AwayScore); err != nil {
			return fmt.Errorf("insert pbp row %d for %s: %w", i, gameID, err)
		}
	}
	return tx.Commit()
}

// PlayByPlay returns the stored raw rows for a game in sequence order.
// Returns ErrNoPlayByPlay when nothing is stored.
func (c *Catalog) PlayByPlay(ctx context.Context, gameID string) ([]pbp.RawRow, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT period, clock, type_id, type_text, play_text, team_id, player_id,
			scoring_play, shooting_play, score_value, home_score, away_score
		FROM pbp_rows WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load pbp %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []pbp.RawRow
	for rows.Next() {
		var r pbp.RawRow
		var scoring, shooting int
		if err := rows.Scan(&r.Period, &r.Clock, &r.TypeID, &r.TypeText, &r.Text,
			&r.TeamID, &r.PlayerID, &scoring, &shooting,
			&r.ScoreValue, &r.HomeScore, &r.AwayScore); err != nil {
			return nil, fmt.Errorf("scan pbp row for %s: %w", gameID, err)
		}
		r.ScoringPlay = scoring != 0
		r.ShootingPlay = shooting != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNoPlayByPlay)
	}
	return out, nil
}

// Features returns the persisted feature entry for gameID if it exists and
// was written under the requested extraction version.
func (c *Catalog) Features(ctx context.Context, gameID string, version int) (model.CacheEntry, bool, error) {
	var storedVersion int
	var vectorJSON, attrsJSON string
	err := c.db.QueryRowContext(ctx, `
		SELECT version, vector, attributes FROM feature_cache WHERE game_id = ?`,
		gameID).Scan(&storedVersion, &vectorJSON, &attrsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CacheEntry{}, false, nil
	}
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("load features %s: %w", gameID, err)
	}
	if storedVersion != version {
		// Stale scheme: treated as a miss so the caller recomputes.
		return model.CacheEntry{}, false, nil
	}

	entry := model.CacheEntry{Version: storedVersion}
	if err := json.Unmarshal([]byte(vectorJSON), &entry.Vector); err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("decode vector %s: %w", gameID, err)
	}
	if err := json.Unmarshal([]byte(attrsJSON), &entry.Attributes); err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("decode attributes %s: %w", gameID, err)
	}
	return entry, true, nil
}

// PutFeatures stores a feature entry, replacing any previous version.
func (c *Catalog) PutFeatures(ctx context.Context, gameID string, entry model.CacheEntry) error {
	vectorJSON, err := json.Marshal(entry.Vector)
	if err != nil {
		return fmt.Errorf("encode vector %s: %w", gameID, err)
	}
	attrsJSON, err := json.Marshal(entry.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes %s: %w", gameID, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO feature_cache (game_id, version, vector, attributes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			version = excluded.version,
			vector = excluded.vector,
			attributes = excluded.attributes,
			created_at = excluded.created_at`,
		gameID, entry.Version, string(vectorJSON), string(attrsJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store features %s: %w", gameID, err)
	}
	return nil
}

// DeleteFeatures removes the persisted entry for gameID, if any.
func (c *Catalog) DeleteFeatures(ctx context.Context, gameID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM feature_cache WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete features %s: %w", gameID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
