package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/RonitKhanna333/sih-final-2/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates X-Request-ID, generating a UUIDv7 when the client sent none,
// and stores it in the context for log records.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
