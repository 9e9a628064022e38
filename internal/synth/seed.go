package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gameselect/internal/adapters/repository"
	"github.com/okian/gameselect/pkg/logger"
)

// Seed generates games and writes them into the catalog at cfg.DBPath.
func Seed(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	log := logger.Get()
	log.Info(ctx, "seeding synthetic catalog",
		logger.String("dbPath", cfg.DBPath),
		logger.Int("games", cfg.NumGames),
		logger.Int("days", cfg.Days),
		logger.Int("seed", int(cfg.Seed)),
	)

	catalog, err := repository.Open(cfg.DBPath)
	if err != nil {
		return stats, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = catalog.Close() }()

	games := GenerateGames(cfg)
	stats.GamesGenerated = len(games)

	for _, g := range games {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		home, away := g.HomeScore, g.AwayScore
		if err := catalog.UpsertGame(ctx, repository.Game{
			GameID:    g.GameID,
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			Venue:     g.Venue,
			Tipoff:    g.Tipoff,
			HomeScore: &home,
			AwayScore: &away,
		}); err != nil {
			return stats, fmt.Errorf("store game %s: %w", g.GameID, err)
		}
		if err := catalog.SavePlayByPlay(ctx, g.GameID, g.Rows); err != nil {
			return stats, fmt.Errorf("store play-by-play %s: %w", g.GameID, err)
		}
		stats.GamesSeeded++
		stats.PlaysWritten += len(g.Rows)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "catalog seeded",
		logger.Int("games", stats.GamesSeeded),
		logger.Int("plays", stats.PlaysWritten),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}
