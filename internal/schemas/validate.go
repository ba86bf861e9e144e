// Package schemas provides JSON Schema validation for the content document and its sections.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Schema is a compiled JSON Schema that can be evaluated many times.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses and compiles schema content. The name identifies the schema in errors.
func Compile(name string, content []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    name,
			Message: "failed to compile schema",
			Cause:   err,
		}
	}
	return &Schema{name: name, schema: compiled}, nil
}

// MustCompile is like Compile but panics on error. Used for embedded schemas.
func MustCompile(name string, content []byte) *Schema {
	s, err := Compile(name, content)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema's identifying name.
func (s *Schema) Name() string {
	return s.name
}

// Validate evaluates an in-memory Go value (as produced by encoding/json) against the schema.
func (s *Schema) Validate(value any) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return &SchemaLoadError{
			Path:    s.name,
			Message: "failed to evaluate document",
			Cause:   err,
		}
	}
	return newValidationError(result)
}

// CompileFile reads and compiles a JSON Schema file. Relative $ref values
// resolve against the file's directory.
func CompileFile(schemaPath string) (*Schema, error) {
	// Resolve absolute paths to handle relative paths correctly
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaAbsPath))
	if err != nil {
		return nil, &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema compilation failed",
			Cause:   err,
		}
	}
	return &Schema{name: filepath.Base(schemaAbsPath), schema: compiled}, nil
}

// newValidationError converts a failed result into a *ValidationError, or nil when valid.
func newValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
