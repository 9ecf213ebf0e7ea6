package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"airline-admin/internal/observability"
)

// APIAuthConfig controls authentication for the JSON API. With a token
// configured the API requires "Authorization: Bearer <token>"; without one it
// accepts the logged-in browser session instead. metrics may be nil.
type APIAuthConfig struct {
	Token    string
	Sessions *Sessions
	Metrics  *observability.SessionMetrics
}

// APIAuthMiddleware authenticates JSON API requests.
func APIAuthMiddleware(cfg APIAuthConfig) func(http.Handler) http.Handler {
	token := strings.TrimSpace(cfg.Token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				if cfg.Sessions == nil {
					writeUnauthorized(w)
					return
				}
				if _, ok := cfg.Sessions.identify(r); !ok {
					recordAPIDenied(cfg.Metrics, r, "api_session_required")
					writeUnauthorized(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !constantTimeTokenMatch(bearerToken(r), token) {
				recordAPIDenied(cfg.Metrics, r, "api_token_invalid")
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// constantTimeTokenMatch hashes both sides so the comparison leaks neither
// content nor length.
func constantTimeTokenMatch(provided string, expected string) bool {
	providedDigest := sha256.Sum256([]byte(provided))
	expectedDigest := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(providedDigest[:], expectedDigest[:]) == 1
}

func recordAPIDenied(metrics *observability.SessionMetrics, r *http.Request, reason string) {
	if metrics != nil {
		metrics.RecordDenied(r.Context(), r.URL.Path, reason)
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprint(w, `{"error":"unauthorized"}`)
}
