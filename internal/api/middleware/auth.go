// Package middleware holds the HTTP middleware of the API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
)

// Auth rejects requests whose bearer token does not match apiKey.
func Auth(apiKey string) func(http.Handler) http.Handler {
	want := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.RespondUnauthorized(w, "Missing Authorization header")

				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				response.RespondUnauthorized(w, "Invalid Authorization header format. Expected: Bearer <api-key>")

				return
			}

			token = strings.TrimSpace(token)
			if token == "" {
				response.RespondUnauthorized(w, "API key is empty")

				return
			}

			if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				response.RespondUnauthorized(w, "Invalid API key")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
