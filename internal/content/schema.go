package content

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/jonathan/portfolio/internal/schemas"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// section is one top-level key of the document and the schema its value must satisfy.
type section struct {
	key      string
	optional bool
	schema   *schemas.Schema
	raw      []byte
}

// sections are evaluated in this order; the first failure stops validation.
var sections = []*section{
	mustSection("basics", false),
	mustSection("skills", false),
	mustSection("experience", false),
	mustSection("projects", true),
	mustSection("education", false),
}

func mustSection(key string, optional bool) *section {
	name := "schemas/" + key + ".schema.json"
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded schema %s missing: %v", name, err))
	}
	return &section{
		key:      key,
		optional: optional,
		schema:   schemas.MustCompile(name, raw),
		raw:      raw,
	}
}

// DocumentSchema returns a single JSON Schema for the whole resume document,
// assembled from the per-section schemas.
func DocumentSchema() ([]byte, error) {
	properties := make(map[string]any, len(sections))
	required := make([]string, 0, len(sections))

	for _, s := range sections {
		var sub map[string]any
		if err := json.Unmarshal(s.raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse %s schema: %w", s.key, err)
		}
		delete(sub, "$schema")
		properties[s.key] = sub
		if !s.optional {
			required = append(required, s.key)
		}
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      "resume",
		"type":       "object",
		"required":   required,
		"properties": properties,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Report validates the whole document at once and returns every violation,
// rather than stopping at the first failing section as Load does. It is meant
// for diagnostics; Load remains the gate for rendering.
func Report(raw any) error {
	docSchema, err := DocumentSchema()
	if err != nil {
		return err
	}
	compiled, err := schemas.Compile("resume.schema.json", docSchema)
	if err != nil {
		return err
	}
	return compiled.Validate(raw)
}
