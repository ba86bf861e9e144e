package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/portfolio/internal/analytics"
	"github.com/jonathan/portfolio/internal/types"
)

// ---------------------------------------------------------------------
// Page view handlers
// ---------------------------------------------------------------------

func (s *Server) handleOpenPageView(w http.ResponseWriter, r *http.Request) {
	id := s.pageViews.Open(r.Context())
	s.jsonResponse(w, http.StatusCreated, types.PageViewResponse{ID: id.String()})
}

func (s *Server) handleScrollSignal(w http.ResponseWriter, r *http.Request) {
	id, err := parsePageViewID(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	var req types.ScrollSignalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorFromErr(w, toValidationError(err))
		return
	}

	fired, err := s.pageViews.Scroll(r.Context(), id, analytics.Position{
		Offset:         req.Offset,
		ScrollHeight:   req.ScrollHeight,
		ViewportHeight: req.ViewportHeight,
	})
	if err != nil {
		if errors.Is(err, analytics.ErrPageViewNotFound) {
			err = &ErrNotFound{Resource: "page view", ID: id.String()}
		}
		s.errorFromErr(w, err)
		return
	}

	if fired == nil {
		fired = []int{}
	}
	s.jsonResponse(w, http.StatusOK, types.ScrollSignalResponse{Fired: fired})
}

func (s *Server) handleClosePageView(w http.ResponseWriter, r *http.Request) {
	id, err := parsePageViewID(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.pageViews.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------
// Event handlers
// ---------------------------------------------------------------------

func (s *Server) handleLinkClick(w http.ResponseWriter, r *http.Request) {
	var req types.LinkClickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorFromErr(w, toValidationError(err))
		return
	}

	s.analytics.TrackLinkClick(r.Context(), req.Name, req.URL)
	w.WriteHeader(http.StatusAccepted)
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

func parsePageViewID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid page view ID"}
	}
	return id, nil
}

// decodeJSON reads a single bounded JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &ErrValidation{Field: "body", Message: "request body too large"}
		}
		return &ErrValidation{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// toValidationError converts validator errors into an ErrValidation for the
// first failing field.
func toValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}
