package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns each request an identifier, reusing the client's
// X-Request-ID when present. Handlers read it back from the request header
// to stamp error payloads.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r)
	})
}
