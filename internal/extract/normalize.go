package extract

import "strings"

// Sentinel strings models emit instead of proper null.
func isSentinel(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "N/A", "null":
		return true
	}
	return false
}

var optionalStringFields = []string{"difficulty", "prepTime", "cookTime", "servings", "description"}

var allowedKeys = map[string]struct{}{
	"title": {}, "description": {}, "ingredients": {}, "instructions": {},
	"prepTime": {}, "cookTime": {}, "servings": {}, "difficulty": {}, "tags": {},
}

var allowedIngredientKeys = map[string]struct{}{
	"name": {}, "quantity": {}, "unit": {},
}

// Normalize maps model sentinels to proper absence and enforces the fallback
// title. It is a pure function of its input: running it twice yields the
// same document.
func Normalize(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		if _, ok := allowedKeys[key]; ok {
			out[key] = value
		}
	}

	// "N/A" / "null" / "" / null all mean the field is absent.
	for _, key := range optionalStringFields {
		switch v := out[key].(type) {
		case nil:
			delete(out, key)
		case string:
			if isSentinel(v) {
				delete(out, key)
			}
		default:
			if _, ok := out[key]; ok {
				delete(out, key)
			}
		}
	}

	title, _ := out["title"].(string)
	if isSentinel(title) {
		out["title"] = "Recette sans titre"
	}

	if rawIngredients, ok := out["ingredients"].([]interface{}); ok {
		normalized := make([]interface{}, 0, len(rawIngredients))
		for _, entry := range rawIngredients {
			item, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			ing := make(map[string]interface{}, 3)
			for key, value := range item {
				if _, allowed := allowedIngredientKeys[key]; allowed {
					ing[key] = value
				}
			}
			name, _ := ing["name"].(string)
			ing["name"] = name
			for _, key := range []string{"quantity", "unit"} {
				switch v := ing[key].(type) {
				case nil:
					delete(ing, key)
				case string:
					if strings.TrimSpace(v) == "" || strings.EqualFold(strings.TrimSpace(v), "null") {
						delete(ing, key)
					}
				default:
					if _, present := ing[key]; present {
						delete(ing, key)
					}
				}
			}
			normalized = append(normalized, ing)
		}
		out["ingredients"] = normalized
	}

	if rawTags, ok := out["tags"].([]interface{}); ok {
		tags := make([]interface{}, 0, len(rawTags))
		for _, tag := range rawTags {
			if s, ok := tag.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, s)
			}
		}
		out["tags"] = tags
	}

	if rawInstructions, ok := out["instructions"].([]interface{}); ok {
		steps := make([]interface{}, 0, len(rawInstructions))
		for _, step := range rawInstructions {
			if s, ok := step.(string); ok {
				steps = append(steps, s)
			}
		}
		out["instructions"] = steps
	}

	return out
}
