package records

import "errors"

// ErrValidation marks payloads that fail schema validation. Handlers map it
// to a 4xx response and the pipeline is never started for such payloads.
var ErrValidation = errors.New("payload validation failed")
