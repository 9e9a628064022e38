package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrGameNotFound = errors.New("game not found")
	ErrNoPlayByPlay = errors.New("no play-by-play stored")
)
