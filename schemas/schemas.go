// Package schemas holds the JSON schemas of the structured model responses.
// The files under cached_schemas are generated from the models package with
// go generate and embedded at build time.
package schemas

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

//go:embed cached_schemas/*.json
var schemaFiles embed.FS

// Names of the embedded schemas.
const (
	AudioAnalysis = "AudioAnalysisResult"
	FoodAnalysis  = "FoodAnalysisResult"
)

// JSONSchema is the subset of JSON schema emitted by cmd/gen_schema.
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Description string                `json:"description,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
}

var validators sync.Map // name -> *gojsonschema.Schema

// Load returns the raw embedded schema document.
func Load(name string) ([]byte, error) {
	data, err := schemaFiles.ReadFile(path.Join("cached_schemas", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema '%s': %w", name, err)
	}
	return data, nil
}

// Parse decodes the embedded schema.
func Parse(name string) (JSONSchema, error) {
	data, err := Load(name)
	if err != nil {
		return JSONSchema{}, err
	}
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return JSONSchema{}, fmt.Errorf("failed to unmarshal schema '%s': %w", name, err)
	}
	return schema, nil
}

// Genai converts the embedded schema into a Gemini response schema.
func Genai(name string) (*genai.Schema, error) {
	schema, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return toGenai(schema), nil
}

func toGenai(s JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenai(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGenai(*s.Items)
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "boolean":
		return genai.TypeBoolean
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	}
	return genai.TypeUnspecified
}

// Validate checks doc against the named schema. The returned error lists
// every violation.
func Validate(name string, doc any) error {
	schema, err := validator(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate against '%s': %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}

func validator(name string) (*gojsonschema.Schema, error) {
	if v, ok := validators.Load(name); ok {
		return v.(*gojsonschema.Schema), nil
	}
	data, err := Load(name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema '%s': %w", name, err)
	}
	v, _ := validators.LoadOrStore(name, schema)
	return v.(*gojsonschema.Schema), nil
}
