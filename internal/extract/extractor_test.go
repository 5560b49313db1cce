package extract

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tormknd/RecipeMe/internal/gemini"
	"github.com/Tormknd/RecipeMe/internal/pipeline"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubGenerator struct {
	response string
	err      error
	parts    []gemini.Part
}

func (g *stubGenerator) Generate(ctx context.Context, parts []gemini.Part) (string, error) {
	g.parts = parts
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

const stubRecipe = `{
	"title": "Gâteau au yaourt",
	"ingredients": [{"name": "yaourt", "quantity": "1", "unit": "pot"}],
	"instructions": ["Mélanger.", "Cuire 30 minutes."],
	"tags": ["dessert"],
	"prepTime": "N/A"
}`

func TestExtractFromText(t *testing.T) {
	gen := &stubGenerator{response: stubRecipe}
	extractor := NewExtractor(gen, testLogger())

	var messages []string
	content, err := extractor.Extract(context.Background(), Input{Text: "Gâteau au yaourt..."}, func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)

	assert.Equal(t, "Gâteau au yaourt", content.Title)
	require.Len(t, content.Ingredients, 1)
	assert.Equal(t, "yaourt", content.Ingredients[0].Name)
	assert.Nil(t, content.PrepTime, "sentinel times are normalized away")
	assert.Equal(t, []string{"dessert"}, content.Tags)

	assert.Equal(t, []string{
		"Extraction des informations...",
		"Structuration de la recette...",
	}, messages)
	require.Len(t, gen.parts, 2, "system prompt plus user text")
}

func TestExtractFromImagesBuildsMultimodalParts(t *testing.T) {
	gen := &stubGenerator{response: stubRecipe}
	extractor := NewExtractor(gen, testLogger())

	images := []Image{
		{Data: []byte{1, 2}, MimeType: "image/png"},
		{Data: []byte{3, 4}, MimeType: "image/jpeg"},
	}
	var messages []string
	_, err := extractor.Extract(context.Background(), Input{Images: images}, func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)

	// system prompt, two image parts, closing instruction
	require.Len(t, gen.parts, 4)
	assert.Contains(t, messages, "Analyse des images...")
	assert.Contains(t, messages, "Extraction des ingrédients avec Gemini...")
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + stubRecipe + "\n```"}
	extractor := NewExtractor(gen, testLogger())

	content, err := extractor.Extract(context.Background(), Input{Text: "..."}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Gâteau au yaourt", content.Title)
}

func TestExtractPolicyBlockPassesThrough(t *testing.T) {
	blocked := &pipeline.PolicyBlockError{Reason: "SAFETY"}
	extractor := NewExtractor(&stubGenerator{err: blocked}, testLogger())

	_, err := extractor.Extract(context.Background(), Input{Text: "..."}, nil)
	require.Error(t, err)
	assert.True(t, pipeline.IsPolicyBlock(err))

	var extraction *pipeline.ExtractionError
	assert.False(t, errors.As(err, &extraction), "a policy block must not be rewrapped")
}

func TestExtractInvalidResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "Voici la recette: prenez des oeufs..."},
		{"schema violation", `{"title": "X", "ingredients": "pas une liste", "instructions": [], "tags": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor(&stubGenerator{response: tt.response}, testLogger())
			_, err := extractor.Extract(context.Background(), Input{Text: "..."}, nil)

			var extraction *pipeline.ExtractionError
			require.ErrorAs(t, err, &extraction)
			assert.Equal(t, invalidRecipeMessage, extraction.Message)
			assert.Equal(t, tt.response, extraction.RawOutput)
		})
	}
}

func TestExtractGeneratorFailure(t *testing.T) {
	extractor := NewExtractor(&stubGenerator{err: errors.New("http 500")}, testLogger())

	_, err := extractor.Extract(context.Background(), Input{Text: "..."}, nil)
	var extraction *pipeline.ExtractionError
	require.ErrorAs(t, err, &extraction)
	assert.Equal(t, invalidRecipeMessage, extraction.Message)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(` {"a":1} `))
}
