package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ScrollSignalRequest reports the page's scroll geometry at one point in time.
type ScrollSignalRequest struct {
	Offset         float64 `json:"offset" validate:"gte=0"`
	ScrollHeight   float64 `json:"scrollHeight" validate:"gte=0"`
	ViewportHeight float64 `json:"viewportHeight" validate:"gte=0"`
}

// ScrollSignalResponse lists the milestones fired by one scroll signal.
type ScrollSignalResponse struct {
	Fired []int `json:"fired"`
}

// LinkClickRequest reports a user-initiated navigation to an outbound link.
type LinkClickRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	URL  string `json:"url" validate:"required,max=2048"`
}

// PageViewResponse identifies a newly opened page view.
type PageViewResponse struct {
	ID string `json:"id"`
}

// EventCount is one row of the analytics summary.
type EventCount struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Count int64  `json:"count"`
}

// AnalyticsSummary aggregates recorded telemetry events.
type AnalyticsSummary struct {
	ScrollDepth []EventCount `json:"scrollDepth"`
	LinkClicks  []EventCount `json:"linkClicks"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so validation errors match
// the request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the ScrollSignalRequest using the validator.
func (r *ScrollSignalRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the LinkClickRequest using the validator.
func (r *LinkClickRequest) Validate() error {
	return validate.Struct(r)
}
