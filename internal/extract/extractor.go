// Package extract turns raw text or images into validated recipe content by
// prompting a generative understanding service.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/acquire"
	"github.com/Tormknd/RecipeMe/internal/gemini"
	"github.com/Tormknd/RecipeMe/internal/pipeline"
	"github.com/Tormknd/RecipeMe/models"
)

// Generator is the generative understanding service contract. The concrete
// client is injected so tests can substitute a canned implementation.
type Generator interface {
	Generate(ctx context.Context, parts []gemini.Part) (string, error)
}

// Image is one photographed or screenshotted recipe source.
type Image struct {
	Data     []byte
	MimeType string
}

// Input is either raw text or a set of images, never both.
type Input struct {
	Text   string
	Images []Image
}

const invalidRecipeMessage = "L'IA n'a pas réussi à générer une recette valide."

// Extractor invokes the generative service with a fixed instruction template
// and validates the response into the canonical content shape.
type Extractor struct {
	generator Generator
	log       *logrus.Logger
}

// NewExtractor builds an Extractor around an injected generator.
func NewExtractor(generator Generator, log *logrus.Logger) *Extractor {
	return &Extractor{generator: generator, log: log}
}

// Extract runs a single model call over the input and returns validated
// content. A content-policy refusal propagates as *pipeline.PolicyBlockError
// unmodified; every other failure is an *pipeline.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, input Input, onProgress pipeline.ProgressFunc) (models.RecipeContent, error) {
	parts := []gemini.Part{gemini.TextPart(systemPrompt)}

	if len(input.Images) > 0 {
		progress(onProgress, "Analyse des images...")
		for _, img := range input.Images {
			parts = append(parts, gemini.ImagePart(img.Data, img.MimeType))
		}
		parts = append(parts, gemini.TextPart(imagesPrompt(len(input.Images))))
		progress(onProgress, "Extraction des ingrédients avec Gemini...")
	} else {
		progress(onProgress, "Extraction des informations...")
		parts = append(parts, gemini.TextPart(textPrompt(acquire.Truncate(input.Text, acquire.MaxContentChars))))
	}

	text, err := e.generator.Generate(ctx, parts)
	if err != nil {
		var blocked *pipeline.PolicyBlockError
		if errors.As(err, &blocked) {
			return models.RecipeContent{}, blocked
		}
		return models.RecipeContent{}, &pipeline.ExtractionError{
			Message: invalidRecipeMessage,
			Err:     err,
		}
	}

	progress(onProgress, "Structuration de la recette...")

	content, err := parseContent(text)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"error":        err,
			"raw_response": acquire.Truncate(text, 500),
		}).Error("AI parsing error")
		return models.RecipeContent{}, &pipeline.ExtractionError{
			Message:   invalidRecipeMessage,
			RawOutput: text,
			Err:       err,
		}
	}
	return content, nil
}

// parseContent decodes, normalizes and validates a model response.
func parseContent(text string) (models.RecipeContent, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(stripFences(text)), &doc); err != nil {
		return models.RecipeContent{}, err
	}

	doc = Normalize(doc)
	if err := validateContent(doc); err != nil {
		return models.RecipeContent{}, err
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return models.RecipeContent{}, err
	}
	var content models.RecipeContent
	if err := json.Unmarshal(normalized, &content); err != nil {
		return models.RecipeContent{}, err
	}
	if content.Ingredients == nil {
		content.Ingredients = []models.Ingredient{}
	}
	if content.Instructions == nil {
		content.Instructions = []string{}
	}
	if content.Tags == nil {
		content.Tags = []string{}
	}
	return content, nil
}

// stripFences drops a leading/trailing Markdown code fence some models emit
// despite the JSON response directive.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func progress(onProgress pipeline.ProgressFunc, message string) {
	if onProgress != nil {
		onProgress(message)
	}
}
