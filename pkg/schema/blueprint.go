// Package schema validates collaborator-produced artifacts against their
// JSON schemas before they enter the workflow state.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidBlueprint indicates the analyzer returned a blueprint that does
// not satisfy the blueprint schema.
var ErrInvalidBlueprint = errors.New("invalid blueprint")

const blueprintSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "platform", "steps"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "platform": {"type": "string", "enum": ["mobile", "web"]},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["number", "action"],
        "properties": {
          "number": {"type": "integer", "minimum": 1},
          "action": {"type": "string", "minLength": 1},
          "target": {"type": "object"},
          "input": {"type": "string"},
          "expected": {"type": "string"}
        }
      }
    },
    "metadata": {"type": "object"}
  }
}`

// BlueprintValidator checks analyzer output before it is committed to the
// workflow state. The schema is compiled once.
type BlueprintValidator struct {
	schema *gojsonschema.Schema
}

// NewBlueprintValidator compiles the blueprint schema.
func NewBlueprintValidator() (*BlueprintValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(blueprintSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile blueprint schema: %w", err)
	}

	return &BlueprintValidator{schema: compiled}, nil
}

// Validate checks one blueprint against the schema.
func (v *BlueprintValidator) Validate(blueprint *models.Blueprint) error {
	if blueprint == nil {
		return fmt.Errorf("%w: blueprint is nil", ErrInvalidBlueprint)
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(blueprint))
	if err != nil {
		return fmt.Errorf("blueprint schema validation failed: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, validationError := range result.Errors() {
			details = append(details, validationError.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidBlueprint, strings.Join(details, "; "))
	}

	return nil
}
