package recommend

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrEmptyCandidateWindow is returned when a request supplies no
	// candidate games. Fatal for that request only.
	ErrEmptyCandidateWindow = errors.New("empty candidate window")

	// ErrInvalidTopN is returned when the requested result size is not a
	// positive integer.
	ErrInvalidTopN = errors.New("top-n must be positive")
)
