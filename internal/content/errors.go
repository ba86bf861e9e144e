package content

import (
	"fmt"
	"strings"

	"github.com/jonathan/portfolio/internal/schemas"
)

// RootSection names the document itself in validation errors.
const RootSection = "(root)"

// SchemaValidationError reports that the content document does not match the
// resume schema. It is the only error kind Load returns and is fatal to
// rendering: callers must not render any part of a document that failed.
type SchemaValidationError struct {
	Section string
	Message string
	Fields  []schemas.FieldError
	Cause   error
}

func (e *SchemaValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid resume content: %s: %s", e.Section, e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "; %s: %s", f.Field, f.Message)
	}
	if e.Cause != nil && len(e.Fields) == 0 {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}

// newSectionError converts a schema failure for one section, qualifying field
// paths with the section name.
func newSectionError(section string, err error) *SchemaValidationError {
	verr := &SchemaValidationError{
		Section: section,
		Message: "does not match schema",
		Cause:   err,
	}
	if fieldErrs, ok := err.(*schemas.ValidationError); ok {
		for _, f := range fieldErrs.Errors {
			field := section
			if f.Field != RootSection {
				field = section + "." + f.Field
			}
			verr.Fields = append(verr.Fields, schemas.FieldError{Field: field, Message: f.Message})
		}
	}
	return verr
}
