package services

// Error taxonomy. Only the two remote adapters can fail a request; local
// heuristics and the session store never return errors. The handler maps
// these onto HTTP statuses.

// ValidationError reports a malformed request, rejected before routing.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation error" }

// ClassificationError means the remote topic classifier was unreachable or
// timed out. Fatal to the request, never retried. A classifier that replies
// with an unparsable payload is NOT this error; that case recovers locally
// to an off-topic classification.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string { return "topic classification failed: " + e.Err.Error() }
func (e *ClassificationError) Unwrap() error { return e.Err }

// GenerationError means the remote answer generator was unreachable, timed
// out, or returned an unusable reply. Fatal to the request.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "answer generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigurationError means a remote collaborator cannot be constructed,
// typically a missing or rejected credential. Surfaced at startup.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
