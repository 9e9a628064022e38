package synth

import "time"

// Config holds configuration for the synthetic game tool.
type Config struct {
	BaseURL  string        // Base URL of a running service, for smoke mode
	DBPath   string        // SQLite catalog to seed
	NumGames int           // Number of games to generate
	Days     int           // Spread tipoffs across this many trailing days
	Seed     int64         // Random seed; fixed seeds reproduce the same catalog
	TopN     int           // Number of recommendations to request in smoke mode
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for tool output
	Verbose  bool          // Enable verbose logging
}

// Stats holds seeding and smoke statistics.
type Stats struct {
	GamesGenerated int
	GamesSeeded    int
	PlaysWritten   int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
