package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"medichat-backend/internal/models"
	"medichat-backend/internal/services"
)

type turnRouter interface {
	HandleTurn(ctx context.Context, sessionID, message string) (string, error)
}

type ChatHandler struct {
	router turnRouter
}

func NewChatHandler(router turnRouter) *ChatHandler {
	return &ChatHandler{router: router}
}

// Chat handles POST /chat. Every response, success or failure, carries the
// elapsed time measured from request entry.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.APIError{
			Error:     "validation error",
			LatencyMs: elapsedMs(start),
			Info:      "invalid request body",
			RequestID: r.Header.Get("X-Request-ID"),
		})
		return
	}

	if msg := validateRequest(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.APIError{
			Error:     "validation error",
			LatencyMs: elapsedMs(start),
			Info:      msg,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := h.router.HandleTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		h.writeTurnError(w, r, err, start)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Answer:    answer,
		Safe:      true,
		LatencyMs: elapsedMs(start),
		SessionID: sessionID,
	})
}

// Health handles GET /health.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func validateRequest(req *models.ChatRequest) string {
	if strings.TrimSpace(req.Message) == "" {
		return "message is required"
	}
	if utf8.RuneCountInString(req.Message) > models.MaxMessageLen {
		return "message exceeds 4000 characters"
	}
	if utf8.RuneCountInString(req.SessionID) > models.MaxSessionIDLen {
		return "session_id exceeds 80 characters"
	}
	return ""
}

// writeTurnError converts a remote-adapter failure into the uniform
// service-unavailable payload. The diagnostic excerpt is bounded; raw error
// internals never leak past it.
func (h *ChatHandler) writeTurnError(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	status := http.StatusServiceUnavailable
	label := "LLM unavailable or timeout"

	switch err.(type) {
	case *services.ClassificationError:
		label = "topic classifier unavailable or timeout"
	case *services.GenerationError:
		label = "LLM unavailable or timeout"
	}

	writeJSON(w, status, models.APIError{
		Error:     label,
		LatencyMs: elapsedMs(start),
		Info:      excerpt(err.Error(), 200),
		RequestID: r.Header.Get("X-Request-ID"),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

func excerpt(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
