package synth

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/gameselect/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to console, or to both console and a
// file when logFile is set.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "synth_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the synth tool.
func ShowHelp() {
	os.Stdout.WriteString(`GameSelect Synth Tool
=====================

Seeds a catalog with reproducible synthetic games, or smoke-checks a
running GameSelect service.

Usage:
  go run cmd/synth/main.go [options]

Options:
  -db string
        SQLite catalog to seed (default "gameselect.db")
  -games int
        Number of games to generate (default 200)
  -days int
        Spread tipoffs across this many trailing days (default 30)
  -seed int
        Random seed; fixed seeds reproduce the same catalog (default 1)
  -smoke
        Smoke-check a running service instead of seeding
  -url string
        Base URL of the service for smoke mode (default "http://localhost:9080")
  -top int
        Number of recommendations to request in smoke mode (default 5)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for tool output (default: synth_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed 500 games across the last two weeks
  go run cmd/synth/main.go -db dev.db -games 500 -days 14

  # Smoke-check a locally running service
  go run cmd/synth/main.go -smoke -url http://localhost:9080
`)
}
