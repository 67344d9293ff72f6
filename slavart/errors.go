package slavart

import "errors"

// Failure kinds. Returned errors join one of these with a *flaw.Flaw describing the
// failure, so callers match with errors.Is and log with log.Flaw.
var (
	ErrNetwork              = errors.New("network error")
	ErrDecode               = errors.New("decode error")
	ErrMissingContentLength = errors.New("missing content length")
	ErrIO                   = errors.New("io error")
)
