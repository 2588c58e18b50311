package risk

import "errors"

// ErrInvalidStop reports a zero or negative stop distance. The orchestrator
// maps it to an INVALID_STOP rejection rather than surfacing it to callers.
var ErrInvalidStop = errors.New("stop distance must be positive")
