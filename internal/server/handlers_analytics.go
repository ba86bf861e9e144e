package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonathan/portfolio/internal/server/middleware"
)

// handleAnalyticsSummary reports recorded telemetry counts. The window starts
// at the optional since query parameter (RFC 3339) and defaults to the
// configured summary window.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorFromErr(w, &ErrUnavailable{Feature: "event store"})
		return
	}

	since := s.now().Add(-s.summaryWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.errorFromErr(w, &ErrValidation{Field: "since", Message: "must be an RFC 3339 timestamp"})
			return
		}
		since = parsed
	}

	summary, err := s.store.Summary(r.Context(), since)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	if principal, err := middleware.GetPrincipal(r); err == nil {
		s.logger.InfoContext(r.Context(), "analytics summary served",
			slog.String("principal", principal), slog.Time("since", since))
	}
	s.jsonResponse(w, http.StatusOK, summary)
}
