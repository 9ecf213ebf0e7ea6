package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"airline-admin/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqLogger := logging.FromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")

	if s.healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout)
		defer cancel()

		if err := s.healthCheck(ctx); err != nil {
			reqLogger.Error("health check failed",
				slog.String("error", err.Error()),
				slog.String("check", "database"),
			)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprint(w, `{"status":"unhealthy","database":"failed"}`)
			return
		}
	}

	reqLogger.Debug("health check passed")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, `{"status":"healthy","database":"ok"}`)
}
