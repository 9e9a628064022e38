package feature

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrDegenerateGame marks a game whose events cannot support feature
	// extraction, e.g. zero events or zero elapsed time. Per-game and
	// non-fatal to a batch; the offending game is skipped upstream.
	ErrDegenerateGame = errors.New("degenerate game")

	// ErrNonFinite marks a feature computation that produced NaN or an
	// overflow. Treated as an error, never silently clamped.
	ErrNonFinite = errors.New("non-finite feature value")
)
