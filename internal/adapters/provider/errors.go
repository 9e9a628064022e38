package provider

import "errors"

// ErrUpstreamStatus reports a non-200 response from the provider.
var ErrUpstreamStatus = errors.New("unexpected upstream status")
