package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/jobs"
	"github.com/Tormknd/RecipeMe/internal/store"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Store        store.RecipeStore
	Orchestrator *jobs.Orchestrator
	Reaper       *jobs.Reaper
	Logger       *logrus.Logger
	Validate     *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(
	recipeStore store.RecipeStore,
	orchestrator *jobs.Orchestrator,
	reaper *jobs.Reaper,
	logger *logrus.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		Store:        recipeStore,
		Orchestrator: orchestrator,
		Reaper:       reaper,
		Logger:       logger,
		Validate:     validator.New(),
	}
}

// ErrorResponse defines a common structure for error responses.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
