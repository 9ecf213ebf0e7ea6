package middleware

import (
	"net/http"
	"time"

	"airline-admin/internal/observability"

	"github.com/go-chi/chi/v5"
)

// RequestMetricsMiddleware records duration, status and in-flight counts for
// every page request, keyed by the matched route pattern.
func RequestMetricsMiddleware(metrics *observability.RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			metrics.IncrementActiveRequests(ctx)
			defer metrics.DecrementActiveRequests(ctx)

			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			metrics.RecordRequest(ctx, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// routePattern reports the chi route template that served the request, so
// /users/42 and /users/43 aggregate under /users/{userid}.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
