package sanitizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Desarso/babyzen/models"
	"github.com/Desarso/babyzen/schemas"
)

var jsonFences = regexp.MustCompile("(?i)```json\\n?|```")

// SafeParse decodes a JSON object from model output, tolerating markdown code
// fences around it. It never fails: anything that is not a JSON object yields
// an empty, non-nil map.
func SafeParse(raw string) map[string]any {
	cleaned := strings.TrimSpace(jsonFences.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// DecodeAudio parses a cry analysis. When the output does not match the
// schema it returns the zero result and a *models.ParseError.
func DecodeAudio(raw string) (models.AudioAnalysisResult, error) {
	var result models.AudioAnalysisResult
	if err := decode(raw, schemas.AudioAnalysis, &result); err != nil {
		return models.AudioAnalysisResult{}, err
	}
	return result, nil
}

// DecodeFood parses a food safety analysis. When the output does not match
// the schema it returns the zero result and a *models.ParseError.
func DecodeFood(raw string) (models.FoodAnalysisResult, error) {
	var result models.FoodAnalysisResult
	if err := decode(raw, schemas.FoodAnalysis, &result); err != nil {
		return models.FoodAnalysisResult{}, err
	}
	return result, nil
}

func decode(raw, schema string, v any) error {
	doc := SafeParse(raw)
	if err := schemas.Validate(schema, doc); err != nil {
		return &models.ParseError{Schema: schema, Err: err}
	}
	// The document already passed validation, so this only re-shapes it.
	data, err := json.Marshal(doc)
	if err != nil {
		return &models.ParseError{Schema: schema, Err: fmt.Errorf("failed to re-encode document: %w", err)}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &models.ParseError{Schema: schema, Err: err}
	}
	return nil
}
