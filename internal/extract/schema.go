package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recipeContentSchema is the canonical shape the model output must satisfy
// after normalization. Normalization removes nulls and unknown keys first,
// so the schema can stay strict.
const recipeContentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["title", "ingredients", "instructions", "tags"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "ingredients": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "quantity": {"type": "string"},
          "unit": {"type": "string"}
        }
      }
    },
    "instructions": {"type": "array", "items": {"type": "string"}},
    "prepTime": {"type": "string"},
    "cookTime": {"type": "string"},
    "servings": {"type": "string"},
    "difficulty": {"enum": ["Facile", "Moyen", "Difficile"]},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString("recipe_content.json", recipeContentSchema)

// validateContent checks a normalized document against the content schema.
func validateContent(doc map[string]interface{}) error {
	// The validator works on generically-decoded values; round-trip through
	// json to drop any concrete types the caller may have used.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode for validation: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("decode for validation: %w", err)
	}
	return compiledSchema.Validate(value)
}
