package scoring

import "errors"

// ErrInvalidWeightConfig reports an excitement weight configuration that
// fails validation. Configuration-time and fatal: it must be fixed before
// any scoring runs.
var ErrInvalidWeightConfig = errors.New("invalid weight config")
