package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/extract"
	"github.com/Tormknd/RecipeMe/internal/jobs"
	"github.com/Tormknd/RecipeMe/internal/pipeline"
	"github.com/Tormknd/RecipeMe/internal/ratelimit"
	"github.com/Tormknd/RecipeMe/internal/store"
	"github.com/Tormknd/RecipeMe/middleware"
	"github.com/Tormknd/RecipeMe/utils"
)

const (
	maxIngestImages   = 5
	maxImageSizeBytes = 10 * 1024 * 1024
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
}

// IngestResponse is returned on job creation: the id to poll plus the
// initial status.
type IngestResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	} `json:"data"`
}

// StatusResponse is the polling payload.
type StatusResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID            uuid.UUID `json:"id"`
		Status        string    `json:"status"`
		StatusMessage *string   `json:"status_message,omitempty"`
		Title         string    `json:"title"`
	} `json:"data"`
}

// IngestRecipe godoc
// @Summary Start a recipe extraction job
// @Description Accepts a source URL or up to 5 images (multipart form) and starts background extraction. Returns immediately with the job id to poll.
// @Tags recipes
// @Accept  mpfd
// @Produce json
// @Param   url    formData string false "Source URL (social media or any recipe page)"
// @Param   images formData file   false "Recipe photos or screenshots"
// @Success 202 {object} IngestResponse "Job accepted"
// @Failure 400 {object} ErrorResponse "Neither or both of url and images provided"
// @Failure 429 {object} ErrorResponse "Daily generation quota reached"
// @Router /recipes/ingest [post]
func (h *ApplicationHandler) IngestRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	req := jobs.StartRequest{
		UserID: userID,
		URL:    strings.TrimSpace(c.FormValue("url")),
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		images, err := readImages(form.File["images"])
		if err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
		}
		req.Images = images
	}

	id, err := h.Orchestrator.StartIngestion(c.Context(), req)
	if err != nil {
		return h.respondIngestionError(c, err)
	}

	resp := IngestResponse{Status: "success"}
	resp.Data.ID = id
	resp.Data.Status = "processing"
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// GetRecipeStatus godoc
// @Summary Poll a job's status
// @Description Returns the current status, progress message and title of an extraction job.
// @Tags recipes
// @Produce json
// @Param   id path string true "Recipe ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse "Unknown recipe or not the caller's"
// @Router /recipes/{id}/status [get]
func (h *ApplicationHandler) GetRecipeStatus(c *fiber.Ctx) error {
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
		h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Status lookup failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
	}

	resp := StatusResponse{Status: "success"}
	resp.Data.ID = recipe.ID
	resp.Data.Status = recipe.Status
	resp.Data.StatusMessage = recipe.StatusMessage
	resp.Data.Title = recipe.Title
	return c.JSON(resp)
}

// RetryRecipe godoc
// @Summary Retry a failed extraction
// @Description Relaunches extraction for an errored job that has a source URL. Image-sourced jobs cannot be retried.
// @Tags recipes
// @Produce json
// @Param   id path string true "Recipe ID"
// @Success 202 {object} IngestResponse "Retry accepted"
// @Failure 404 {object} ErrorResponse "Unknown recipe"
// @Failure 409 {object} ErrorResponse "Recipe is not in error state, has no source URL, or is already being processed"
// @Router /recipes/{id}/retry [post]
func (h *ApplicationHandler) RetryRecipe(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Identifiant de recette invalide")
	}

	if err := h.Orchestrator.Retry(c.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.RespondWithError(c, fiber.StatusNotFound, "Recette introuvable")
		case errors.Is(err, pipeline.ErrNotInErrorState),
			errors.Is(err, pipeline.ErrNoSourceURL),
			errors.Is(err, pipeline.ErrJobInFlight):
			return utils.RespondWithError(c, fiber.StatusConflict, err.Error())
		default:
			h.Logger.WithFields(logrus.Fields{"recipe_id": id, "error": err}).Error("Retry failed")
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
		}
	}

	resp := IngestResponse{Status: "success"}
	resp.Data.ID = id
	resp.Data.Status = "processing"
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *ApplicationHandler) respondIngestionError(c *fiber.Ctx, err error) error {
	var validation *pipeline.ValidationError
	if errors.As(err, &validation) {
		return utils.RespondWithError(c, fiber.StatusBadRequest, validation.Message)
	}
	var limit *ratelimit.LimitError
	if errors.As(err, &limit) {
		return utils.RespondWithError(c, fiber.StatusTooManyRequests, limit.Message)
	}
	h.Logger.WithField("error", err).Error("Ingestion start failed")
	return utils.RespondWithError(c, fiber.StatusInternalServerError, "Erreur interne")
}

func readImages(files []*multipart.FileHeader) ([]extract.Image, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxIngestImages {
		return nil, errors.New("Trop d'images: 5 maximum par recette")
	}

	images := make([]extract.Image, 0, len(files))
	for _, header := range files {
		if header.Size > maxImageSizeBytes {
			return nil, errors.New("Image trop volumineuse: 10 Mo maximum")
		}
		file, err := header.Open()
		if err != nil {
			return nil, errors.New("Impossible de lire l'image envoyée")
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.New("Impossible de lire l'image envoyée")
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		if _, ok := allowedImageTypes[mimeType]; !ok {
			return nil, errors.New("Format d'image non supporté (JPEG, PNG, WebP ou HEIC)")
		}
		images = append(images, extract.Image{Data: data, MimeType: mimeType})
	}
	return images, nil
}
