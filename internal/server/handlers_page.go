package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
)

// handleIndex renders the portfolio page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.page.Render(&buf, s.resume, s.siteURL); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render page", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.DebugContext(r.Context(), "failed to write page", slog.Any("error", err))
	}
}

// handleOGImage serves the social preview image produced by the og-image command.
func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	if s.ogImagePath == "" {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(s.ogImagePath); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, s.ogImagePath)
}

// handleGetResume returns the validated content document.
func (s *Server) handleGetResume(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.resume)
}
