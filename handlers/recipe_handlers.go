package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/store"
	"github.com/Tormknd/RecipeMe/middleware"
	"github.com/Tormknd/RecipeMe/models"
	"github.com/Tormknd/RecipeMe/utils"
)

// CreateRecipeRequest defines the body for creating a recipe by hand, without
// any extraction job.
type CreateRecipeRequest struct {
	Title        string              `json:"title" validate:"required"`
	Description  *string             `json:"description,omitempty"`
	Ingredients  []models.Ingredient `json:"ingredients"`
	Instructions []string            `json:"instructions"`
	PrepTime     *string             `json:"prepTime,omitempty"`
	CookTime     *string             `json:"cookTime,omitempty"`
	Servings     *string             `json:"servings,omitempty"`
	Difficulty   *string             `json:"difficulty,omitempty" validate:"omitempty,oneof=Facile Moyen Difficile"`
	Tags         []string            `json:"tags"`
	Notes        *string             `json:"notes,omitempty"`
	SourceURL    *string             `json:"source_url,omitempty" validate:"omitempty,url"`
	ImageURL     *string             `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdateRecipeRequest defines the body for editing a recipe. All fields are
// optional; only provided ones are written.
type UpdateRecipeRequest struct {
	Title   *string               `json:"title,omitempty"`
	Content *models.RecipeContent `json:"content,omitempty"`
	Notes   *string               `json:"notes,omitempty"`
}

// UpdateNotesRequest carries the personal notes attached to a recipe.
type UpdateNotesRequest struct {
	Notes *string `json:"notes"`
}

// RecipeSuccessResponse defines the structure for a successful response for a single recipe.
type RecipeSuccessResponse struct {
	Status string        `json:"status"`
	Data   models.Recipe `json:"data"`
}

// RecipeListSuccessResponse defines the structure for a successful response when listing recipes.
type RecipeListSuccessResponse struct {
	Status string          `json:"status"`
	Data   []models.Recipe `json:"data"`
}

// ListRecipes godoc
// @Summary List the caller's recipes
// @Description Returns all recipes of the authenticated user, oldest first. Stuck processing jobs are cleaned up before listing.
// @Tags recipes
// @Produce json
// @Success 200 {object} RecipeListSuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /recipes [get]
func (h *ApplicationHandler) ListRecipes(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	// Listing is the other moment a user observes their jobs, so orphans are
	// cleaned here too. Failure only logs; the listing still answers.
	if _, err := h.Reaper.Reap(c.Context(), userID); err != nil {
		h.Logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Reaper failed before listing")
	}

	recipes, err := h.Store.List(c.Context(), userID)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Listing recipes failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return c.JSON(RecipeListSuccessResponse{Status: "success", Data: recipes})
}

// GetRecipe godoc
// @Summary Get one recipe
// @Tags recipes
// @Produce json
// @Param   id path string true "Recipe ID"
// @Success 200 {object} RecipeSuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /recipes/{id} [get]
func (h *ApplicationHandler) GetRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Identifiant de recette invalide")
	}

	recipe, err := h.Store.Get(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Recette introuvable")
		}
		h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Recipe lookup failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	return c.JSON(RecipeSuccessResponse{Status: "success", Data: recipe})
}

// CreateRecipe godoc
// @Summary Create a recipe manually
// @Description Stores a user-authored recipe directly in completed state, no extraction involved.
// @Tags recipes
// @Accept  json
// @Produce json
// @Param   recipe body CreateRecipeRequest true "Recipe to create"
// @Success 201 {object} RecipeSuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /recipes [post]
func (h *ApplicationHandler) CreateRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	req := new(CreateRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}
	req.Title = utils.SanitizeInput(req.Title)
	if err := h.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  utils.FormatValidationErrors(err),
		})
	}

	content := models.RecipeContent{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Tags:         req.Tags,
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

	data, err := json.Marshal(content)
	if err != nil {
		h.Logger.WithField("error", err).Error("Marshalling manual recipe failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}

	recipe := models.Recipe{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     content.Title,
		Status:    models.StatusCompleted,
		Data:      string(data),
		Tags:      content.JoinedTags(),
		Notes:     req.Notes,
		SourceURL: req.SourceURL,
		ImageURL:  req.ImageURL,
	}

	created, err := h.Store.Create(c.Context(), recipe)
	if err != nil {
		h.Logger.WithField("error", err).Error("Creating manual recipe failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	return c.Status(fiber.StatusCreated).JSON(RecipeSuccessResponse{Status: "success", Data: created})
}

// UpdateRecipe godoc
// @Summary Edit a recipe
// @Description Updates title, content and/or notes of a recipe. Only provided fields are changed.
// @Tags recipes
// @Accept  json
// @Produce json
// @Param   id     path string              true "Recipe ID"
// @Param   recipe body UpdateRecipeRequest true "Fields to update"
// @Success 200 {object} RecipeSuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /recipes/{id} [patch]
func (h *ApplicationHandler) UpdateRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Identifiant de recette invalide")
	}

	req := new(UpdateRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := utils.SanitizeInput(*req.Title)
		if title == "" {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Le titre ne peut pas être vide")
		}
		fields["title"] = title
	}
	if req.Content != nil {
		// The content edit carries its own title; keep the record's
		// denormalized title and tags in sync with it.
		data, err := json.Marshal(req.Content)
		if err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Contenu de recette invalide")
		}
		fields["data"] = string(data)
		if req.Title == nil && req.Content.Title != "" {
			fields["title"] = req.Content.Title
		}
		fields["tags"] = req.Content.JoinedTags()
	}
	if req.Notes != nil {
		fields["notes"] = req.Notes
	}
	if len(fields) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Aucun champ à mettre à jour")
	}

	updated, err := h.Store.Update(c.Context(), id, userID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Recette introuvable")
		}
		h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Recipe update failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	return c.JSON(RecipeSuccessResponse{Status: "success", Data: updated})
}

// UpdateRecipeNotes godoc
// @Summary Replace a recipe's personal notes
// @Tags recipes
// @Accept  json
// @Produce json
// @Param   id    path string             true "Recipe ID"
// @Param   notes body UpdateNotesRequest true "Notes payload; null clears the notes"
// @Success 200 {object} RecipeSuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /recipes/{id}/notes [put]
func (h *ApplicationHandler) UpdateRecipeNotes(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Identifiant de recette invalide")
	}

	req := new(UpdateNotesRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	updated, err := h.Store.Update(c.Context(), id, userID, map[string]interface{}{"notes": req.Notes})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Recette introuvable")
		}
		h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Notes update failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	return c.JSON(RecipeSuccessResponse{Status: "success", Data: updated})
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Produce json
// @Param   id path string true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /recipes/{id} [delete]
func (h *ApplicationHandler) DeleteRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Identifiant de recette invalide")
	}

	if err := h.Store.Delete(c.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Recette introuvable")
		}
		h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Recipe deletion failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Recette supprimée"})
}
