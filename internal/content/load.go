// Package content loads and validates the resume document that every page
// section renders from.
package content

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/jonathan/portfolio/internal/types"
)

// Load validates an untyped document, as produced by encoding/json, against the
// resume schema and returns it as a typed Resume.
//
// Sections are checked in the order basics, skills, experience, projects,
// education and validation stops at the first failing section. projects is
// only checked when present. Any failure is a *SchemaValidationError.
func Load(raw any) (*types.Resume, error) {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return nil, &SchemaValidationError{
			Section: RootSection,
			Message: "document must be a JSON object",
		}
	}

	for _, s := range sections {
		value, present := doc[s.key]
		if !present {
			if s.optional {
				continue
			}
			return nil, &SchemaValidationError{
				Section: s.key,
				Message: "section is required",
			}
		}
		if err := s.schema.Validate(value); err != nil {
			return nil, newSectionError(s.key, err)
		}
	}

	return decode(doc)
}

// Parse decodes a JSON or JSONC document into its untyped form. Comments and
// trailing commas are accepted.
func Parse(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, &SchemaValidationError{
			Section: RootSection,
			Message: "malformed JSON",
			Cause:   err,
		}
	}
	return raw, nil
}

// LoadBytes parses a JSON or JSONC document and validates it with Load.
func LoadBytes(data []byte) (*types.Resume, error) {
	raw, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Load(raw)
}

// LoadFile reads the document at path and validates it with Load.
func LoadFile(path string) (*types.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}
	return LoadBytes(data)
}

// decode narrows an already validated document to its typed form.
func decode(doc map[string]any) (*types.Resume, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, &SchemaValidationError{Section: RootSection, Message: "document is not encodable", Cause: err}
	}

	var resume types.Resume
	if err := json.Unmarshal(encoded, &resume); err != nil {
		return nil, &SchemaValidationError{Section: RootSection, Message: "document does not decode", Cause: err}
	}
	return &resume, nil
}
