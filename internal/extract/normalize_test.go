package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestNormalizeSentinels(t *testing.T) {
	doc := decode(t, `{
		"title": "Ratatouille",
		"ingredients": [],
		"instructions": [],
		"tags": [],
		"prepTime": "N/A",
		"cookTime": "null",
		"servings": "",
		"difficulty": null
	}`)

	out := Normalize(doc)

	for _, key := range []string{"prepTime", "cookTime", "servings", "difficulty"} {
		_, present := out[key]
		assert.False(t, present, "sentinel %s should be removed", key)
	}
	assert.Equal(t, "Ratatouille", out["title"])
}

func TestNormalizeTitleFallback(t *testing.T) {
	for _, title := range []string{"", "N/A", "null", "  "} {
		doc := map[string]interface{}{"title": title}
		assert.Equal(t, "Recette sans titre", Normalize(doc)["title"])
	}
	assert.Equal(t, "Recette sans titre", Normalize(map[string]interface{}{})["title"])
}

func TestNormalizeDropsUnknownKeys(t *testing.T) {
	doc := decode(t, `{
		"title": "Soupe",
		"nutrition": {"calories": 120},
		"author": "quelqu'un",
		"ingredients": [{"name": "poireau", "brand": "x", "quantity": "2"}]
	}`)

	out := Normalize(doc)

	_, present := out["nutrition"]
	assert.False(t, present)
	_, present = out["author"]
	assert.False(t, present)

	ingredients := out["ingredients"].([]interface{})
	require.Len(t, ingredients, 1)
	ing := ingredients[0].(map[string]interface{})
	_, present = ing["brand"]
	assert.False(t, present)
	assert.Equal(t, "poireau", ing["name"])
	assert.Equal(t, "2", ing["quantity"])
}

func TestNormalizeIngredientDefaults(t *testing.T) {
	doc := decode(t, `{
		"title": "Salade",
		"ingredients": [
			{"quantity": "1"},
			{"name": "tomate", "unit": "null", "quantity": null},
			"pas un objet"
		]
	}`)

	out := Normalize(doc)
	ingredients := out["ingredients"].([]interface{})
	require.Len(t, ingredients, 2, "non-object entries are dropped")

	first := ingredients[0].(map[string]interface{})
	assert.Equal(t, "", first["name"], "missing name defaults to empty string")

	second := ingredients[1].(map[string]interface{})
	assert.Equal(t, "tomate", second["name"])
	_, present := second["unit"]
	assert.False(t, present)
	_, present = second["quantity"]
	assert.False(t, present)
}

func TestNormalizeTagAndInstructionCleanup(t *testing.T) {
	doc := decode(t, `{
		"title": "Gratin",
		"tags": ["plat", "", "  ", 3, "hiver"],
		"instructions": ["Éplucher.", 42, "Cuire."]
	}`)

	out := Normalize(doc)
	assert.Equal(t, []interface{}{"plat", "hiver"}, out["tags"])
	assert.Equal(t, []interface{}{"Éplucher.", "Cuire."}, out["instructions"])
}

func TestNormalizeIsIdempotent(t *testing.T) {
	doc := decode(t, `{
		"title": "",
		"ingredients": [{"name": "sel", "unit": "N/A"}],
		"instructions": ["Saler."],
		"tags": ["x", ""],
		"prepTime": "10 min",
		"difficulty": "N/A"
	}`)

	once := Normalize(doc)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}

func TestValidateContentAcceptsNormalizedOutput(t *testing.T) {
	doc := decode(t, `{
		"title": "Quiche",
		"ingredients": [{"name": "oeufs", "quantity": "3"}],
		"instructions": ["Battre les oeufs."],
		"tags": ["plat"],
		"difficulty": "Facile",
		"prepTime": "15 min"
	}`)
	assert.NoError(t, validateContent(Normalize(doc)))
}

func TestValidateContentRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown difficulty", `{"title": "X", "ingredients": [], "instructions": [], "tags": [], "difficulty": "Expert"}`},
		{"missing ingredients", `{"title": "X", "instructions": [], "tags": []}`},
		{"numeric servings", `{"title": "X", "ingredients": [], "instructions": [], "tags": [], "servings": 4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, validateContent(decode(t, tt.raw)))
		})
	}
}
