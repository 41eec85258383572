package stage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema validates a single stage value against a JSON Schema document.
type Schema struct {
	doc    map[string]interface{}
	schema *gojsonschema.Schema
}

// NewSchema compiles a JSON Schema document.
func NewSchema(doc map[string]interface{}) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Schema{doc: doc, schema: compiled}, nil
}

// MustSchema is like NewSchema but panics on an invalid document.
// Intended for package-level stage tables.
func MustSchema(doc map[string]interface{}) *Schema {
	s, err := NewSchema(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Enum accepts exactly one of the given strings.
func Enum(values ...string) *Schema {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return MustSchema(map[string]interface{}{
		"type": "string",
		"enum": enum,
	})
}

// Boolean accepts true or false.
func Boolean() *Schema {
	return MustSchema(map[string]interface{}{"type": "boolean"})
}

// NonEmptyString accepts any string with at least one character.
func NonEmptyString() *Schema {
	return MustSchema(map[string]interface{}{
		"type":      "string",
		"minLength": 1,
	})
}

// Validate returns nil when value satisfies the schema.
func (s *Schema) Validate(value interface{}) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return fmt.Errorf("validating value: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.Description())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// Choices returns the enum values of the schema, if any.
func (s *Schema) Choices() []string {
	enum, ok := s.doc["enum"].([]interface{})
	if !ok {
		return nil
	}
	choices := make([]string, 0, len(enum))
	for _, v := range enum {
		if str, ok := v.(string); ok {
			choices = append(choices, str)
		}
	}
	return choices
}

// Describe renders the schema for help output, e.g. `"yarn"|"npm"` or `boolean`.
func (s *Schema) Describe() string {
	if choices := s.Choices(); len(choices) > 0 {
		quoted := make([]string, len(choices))
		for i, c := range choices {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		return strings.Join(quoted, "|")
	}
	if t, ok := s.doc["type"].(string); ok {
		return t
	}
	return "unknown"
}
