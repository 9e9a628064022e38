package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/gameselect/internal/synth"
	"github.com/okian/gameselect/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumGames    = 200
	defaultDays        = 30
	defaultSeed        = 1
	defaultTopN        = 5
	defaultTimeout     = 30 * time.Second
	defaultToolTimeout = 10 * time.Minute
)

func main() {
	var (
		dbPath  = flag.String("db", "gameselect.db", "SQLite catalog to seed")
		games   = flag.Int("games", defaultNumGames, "Number of games to generate")
		days    = flag.Int("days", defaultDays, "Spread tipoffs across this many trailing days")
		seed    = flag.Int64("seed", defaultSeed, "Random seed; fixed seeds reproduce the same catalog")
		smoke   = flag.Bool("smoke", false, "Smoke-check a running service instead of seeding")
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service for smoke mode")
		topN    = flag.Int("top", defaultTopN, "Number of recommendations to request in smoke mode")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for tool output")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		synth.ShowHelp()
		return
	}

	if err := synth.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultToolTimeout)
	defer cancel()

	cfg := &synth.Config{
		BaseURL:  *baseURL,
		DBPath:   *dbPath,
		NumGames: *games,
		Days:     *days,
		Seed:     *seed,
		TopN:     *topN,
		Timeout:  *timeout,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	if *smoke {
		if err := synth.Smoke(ctx, cfg); err != nil {
			os.Stderr.WriteString("Smoke check failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	if _, err := synth.Seed(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
