package input

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ty-ras/start/internal/stage"
)

// Config is a validated project configuration. Its concrete type depends on
// the components choice: *BackendConfig, *FrontendConfig or *FullStackConfig.
type Config interface {
	Components() string
	Base() Common
	// Server returns the server flavor, empty when there is no backend.
	Server() string
	// Client returns the client flavor, empty when there is no frontend.
	Client() string

	sealed()
}

// Common holds the fields every configuration variant has.
type Common struct {
	FolderName     string `json:"folderName"`
	PackageManager string `json:"packageManager"`
	DataValidation string `json:"dataValidation"`
}

func (c Common) Base() Common { return c }

// BackendConfig is the backend-only variant.
type BackendConfig struct {
	Common
	ServerFlavor string `json:"server"`
}

func (*BackendConfig) Components() string { return ComponentsBackend }
func (c *BackendConfig) Server() string   { return c.ServerFlavor }
func (*BackendConfig) Client() string     { return "" }
func (*BackendConfig) sealed()            {}

// FrontendConfig is the frontend-only variant.
type FrontendConfig struct {
	Common
	ClientFlavor string `json:"client"`
}

func (*FrontendConfig) Components() string { return ComponentsFrontend }
func (*FrontendConfig) Server() string     { return "" }
func (c *FrontendConfig) Client() string   { return c.ClientFlavor }
func (*FrontendConfig) sealed()            {}

// FullStackConfig is the backend and frontend variant.
type FullStackConfig struct {
	Common
	ServerFlavor string `json:"server"`
	ClientFlavor string `json:"client"`
}

func (*FullStackConfig) Components() string { return ComponentsFullStack }
func (c *FullStackConfig) Server() string   { return c.ServerFlavor }
func (c *FullStackConfig) Client() string   { return c.ClientFlavor }
func (*FullStackConfig) sealed()            {}

// ShapeError reports answers that match no configuration variant. It means
// some applicable stage did not produce a value of the expected shape, so
// the answers as a whole cannot be trusted.
type ShapeError struct {
	Details []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("collected answers do not match any configuration variant: %s", strings.Join(e.Details, "; "))
}

var unionSchema = mustCompile(unionDocument())

func unionDocument() map[string]interface{} {
	common := map[string]interface{}{
		KeyFolderName:     map[string]interface{}{"type": "string", "minLength": 1},
		KeyPackageManager: enumOf(PackageManagers),
		KeyDataValidation: enumOf(DataValidations),
	}
	variant := func(components string, extra map[string][]string) map[string]interface{} {
		props := map[string]interface{}{
			KeyComponents: map[string]interface{}{"const": components},
		}
		required := []interface{}{KeyComponents, KeyFolderName, KeyPackageManager, KeyDataValidation}
		for k, v := range common {
			props[k] = v
		}
		for k, values := range extra {
			props[k] = enumOf(values)
			required = append(required, k)
		}
		return map[string]interface{}{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
	}

	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"oneOf": []interface{}{
			variant(ComponentsBackend, map[string][]string{KeyServer: Servers}),
			variant(ComponentsFrontend, map[string][]string{KeyClient: Clients}),
			variant(ComponentsFullStack, map[string][]string{KeyServer: Servers, KeyClient: Clients}),
		},
	}
}

func enumOf(values []string) map[string]interface{} {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]interface{}{"type": "string", "enum": enum}
}

func mustCompile(doc map[string]interface{}) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(err)
	}
	return s
}

// Decode turns answers into the configuration variant selected by the
// components answer. Any structural mismatch yields a *ShapeError.
func Decode(answers stage.Answers) (Config, error) {
	result, err := unionSchema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(answers)))
	if err != nil {
		return nil, &ShapeError{Details: []string{err.Error()}}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, &ShapeError{Details: details}
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, &ShapeError{Details: []string{err.Error()}}
	}

	components, _ := answers.String(KeyComponents)
	var cfg Config
	switch components {
	case ComponentsBackend:
		cfg = &BackendConfig{}
	case ComponentsFrontend:
		cfg = &FrontendConfig{}
	case ComponentsFullStack:
		cfg = &FullStackConfig{}
	default:
		return nil, &ShapeError{Details: []string{fmt.Sprintf("unknown components %q", components)}}
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, &ShapeError{Details: []string{err.Error()}}
	}
	return cfg, nil
}
