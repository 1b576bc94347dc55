package models

// APIError is the structured payload returned on request failure. Info is
// a bounded diagnostic excerpt, never raw error internals.
type APIError struct {
	Error     string `json:"error"`
	LatencyMs int64  `json:"latency_ms"`
	Info      string `json:"info,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}
