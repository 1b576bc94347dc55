package models

const (
	MaxMessageLen   = 4000
	MaxSessionIDLen = 80
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the reply returned to the caller. SessionID echoes the
// identifier the conversation continues under, minted server-side when the
// client sent none.
type ChatResponse struct {
	Answer    string `json:"answer"`
	Safe      bool   `json:"safe"`
	LatencyMs int64  `json:"latency_ms"`
	SessionID string `json:"session_id"`
}
