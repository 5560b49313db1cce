package models

import (
	"time"

	"github.com/google/uuid"
)

// AiUsage tracks one generative extraction launch, used for daily quotas.
type AiUsage struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// ActionRecipeGeneration is the usage action recorded per ingestion launch.
const ActionRecipeGeneration = "recipe_generation"
