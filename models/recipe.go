package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recipe lifecycle statuses. Transitions are monotonic for a given job:
// processing -> completed | error. error -> processing only through retry.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// PlaceholderTitle is the title carried by a record while extraction runs.
const PlaceholderTitle = "En cours de création..."

// ErrorTitle replaces the title when a background job fails.
const ErrorTitle = "Erreur lors du traitement"

// FallbackTitle is used when the extraction produced no usable title.
const FallbackTitle = "Recette sans titre"

// Recipe represents the structure of a recipe record in the database.
// Data holds the serialized RecipeContent; while status is "processing" it
// contains the placeholder shape, never partially-written real content.
type Recipe struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	StatusMessage *string   `json:"status_message,omitempty"`
	SourceURL     *string   `json:"source_url,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Data          string    `json:"data"`
	Tags          *string   `json:"tags,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Content deserializes the record's Data payload.
func (r *Recipe) Content() (RecipeContent, error) {
	var content RecipeContent
	err := json.Unmarshal([]byte(r.Data), &content)
	return content, err
}

// Ingredient is a single ingredient line split into its parts. Quantity and
// unit stay free-text strings ("1/2", "200", "cuillère à soupe"), nil when
// the source line carried none.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity *string `json:"quantity,omitempty"`
	Unit     *string `json:"unit,omitempty"`
}

// RecipeContent is the business payload embedded in Recipe.Data.
// Times and servings are human-authored free text, not normalized numerics.
type RecipeContent struct {
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	PrepTime     *string      `json:"prepTime,omitempty"`
	CookTime     *string      `json:"cookTime,omitempty"`
	Servings     *string      `json:"servings,omitempty"`
	Difficulty   *string      `json:"difficulty,omitempty"`
	Tags         []string     `json:"tags"`
}

// PlaceholderContent is what a record holds between creation and completion.
func PlaceholderContent() RecipeContent {
	return RecipeContent{
		Title:        PlaceholderTitle,
		Ingredients:  []Ingredient{},
		Instructions: []string{},
		Tags:         []string{},
	}
}

// JoinedTags returns the denormalized comma-joined tag projection stored on
// the record, or nil when there are no tags.
func (c RecipeContent) JoinedTags() *string {
	if len(c.Tags) == 0 {
		return nil
	}
	joined := strings.Join(c.Tags, ",")
	return &joined
}

// Difficulty values accepted by the content schema.
var Difficulties = []string{"Facile", "Moyen", "Difficile"}
