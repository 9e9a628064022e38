package similarity

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidWeightConfig = errors.New("invalid weight config")
	ErrEmptyLikedSet       = errors.New("empty liked set")
)
