package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/Tormknd/RecipeMe/models"
)

const (
	recipesTable = "recipes"
	usageTable   = "ai_usage"
)

// SupabaseStore implements RecipeStore and UsageStore over PostgREST.
type SupabaseStore struct {
	client *supa.Client
	log    *logrus.Logger
}

// NewSupabaseStore wraps an initialized Supabase client.
func NewSupabaseStore(client *supa.Client, log *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{client: client, log: log}
}

func (s *SupabaseStore) Create(ctx context.Context, recipe models.Recipe) (models.Recipe, error) {
	row := map[string]interface{}{
		"id":      recipe.ID.String(),
		"user_id": recipe.UserID,
		"title":   recipe.Title,
		"status":  recipe.Status,
		"data":    recipe.Data,
	}
	if recipe.SourceURL != nil {
		row["source_url"] = *recipe.SourceURL
	}
	if recipe.ImageURL != nil {
		row["image_url"] = *recipe.ImageURL
	}
	if recipe.Tags != nil {
		row["tags"] = *recipe.Tags
	}

	var results []models.Recipe
	_, err := s.client.From(recipesTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("insert recipe: %w", err)
	}
	if len(results) == 0 {
		return models.Recipe{}, fmt.Errorf("no record returned after insert, recipe_id: %s", recipe.ID)
	}
	return results[0], nil
}

func (s *SupabaseStore) Get(ctx context.Context, id uuid.UUID, userID string) (models.Recipe, error) {
	body, _, err := s.client.From(recipesTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return models.Recipe{}, fmt.Errorf("fetch recipe %s: %w", id, err)
	}

	var recipes []models.Recipe
	if err := json.Unmarshal(body, &recipes); err != nil {
		return models.Recipe{}, fmt.Errorf("unmarshal recipe %s: %w", id, err)
	}
	if len(recipes) == 0 {
		return models.Recipe{}, ErrNotFound
	}
	return recipes[0], nil
}

func (s *SupabaseStore) List(ctx context.Context, userID string) ([]models.Recipe, error) {
	body, _, err := s.client.From(recipesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := json.Unmarshal(body, &recipes); err != nil {
		return nil, fmt.Errorf("unmarshal recipes: %w", err)
	}
	return recipes, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	var deleted []models.Recipe
	_, err := s.client.From(recipesTable).
		Delete("representation", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		ExecuteTo(&deleted)
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) UpdateStatusMessage(ctx context.Context, id uuid.UUID, userID string, message *string) error {
	update := map[string]interface{}{
		"status":         models.StatusProcessing,
		"status_message": message,
		"updated_at":     time.Now(),
	}
	_, _, err := s.client.From(recipesTable).
		Update(update, "", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("update status message for %s: %w", id, err)
	}
	return nil
}

func (s *SupabaseStore) FinalizeCompleted(ctx context.Context, id uuid.UUID, userID string, upd CompletedUpdate) error {
	update := map[string]interface{}{
		"title":          upd.Title,
		"data":           upd.Data,
		"tags":           upd.Tags,
		"source_url":     upd.SourceURL,
		"image_url":      upd.ImageURL,
		"status":         models.StatusCompleted,
		"status_message": nil,
		"updated_at":     time.Now(),
	}

	// The status filter makes the transition conditional: a record that has
	// already left processing (reaped, retried and finished) is not touched.
	var results []models.Recipe
	_, err := s.client.From(recipesTable).
		Update(update, "representation", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		Eq("status", models.StatusProcessing).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("finalize recipe %s: %w", id, err)
	}
	if len(results) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) FinalizeError(ctx context.Context, id uuid.UUID, userID string, message string) error {
	update := map[string]interface{}{
		"title":          models.ErrorTitle,
		"status":         models.StatusError,
		"status_message": message,
		"updated_at":     time.Now(),
	}
	var results []models.Recipe
	_, err := s.client.From(recipesTable).
		Update(update, "representation", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		Eq("status", models.StatusProcessing).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("finalize error for recipe %s: %w", id, err)
	}
	if len(results) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) ResetForRetry(ctx context.Context, id uuid.UUID, userID string) error {
	placeholder, err := json.Marshal(models.PlaceholderContent())
	if err != nil {
		return fmt.Errorf("marshal placeholder: %w", err)
	}

	update := map[string]interface{}{
		"title":          models.PlaceholderTitle,
		"data":           string(placeholder),
		"status":         models.StatusProcessing,
		"status_message": nil,
		"updated_at":     time.Now(),
	}
	var results []models.Recipe
	_, err = s.client.From(recipesTable).
		Update(update, "representation", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		Eq("status", models.StatusError).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("reset recipe %s for retry: %w", id, err)
	}
	if len(results) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) Update(ctx context.Context, id uuid.UUID, userID string, fields map[string]interface{}) (models.Recipe, error) {
	fields["updated_at"] = time.Now()

	var results []models.Recipe
	_, err := s.client.From(recipesTable).
		Update(fields, "representation", "").
		Eq("id", id.String()).
		Eq("user_id", userID).
		ExecuteTo(&results)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("update recipe %s: %w", id, err)
	}
	if len(results) == 0 {
		return models.Recipe{}, ErrNotFound
	}
	return results[0], nil
}

func (s *SupabaseStore) DeleteStuckProcessing(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	var deleted []models.Recipe
	_, err := s.client.From(recipesTable).
		Delete("representation", "").
		Eq("user_id", userID).
		Eq("status", models.StatusProcessing).
		Lt("created_at", cutoff.UTC().Format(time.RFC3339)).
		ExecuteTo(&deleted)
	if err != nil {
		return 0, fmt.Errorf("delete stuck recipes: %w", err)
	}
	if len(deleted) > 0 {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"deleted": len(deleted),
		}).Info("Cleaned up stuck processing recipes")
	}
	return len(deleted), nil
}

func (s *SupabaseStore) RecordUsage(ctx context.Context, userID string, action string) error {
	row := map[string]interface{}{
		"user_id": userID,
		"action":  action,
	}
	_, _, err := s.client.From(usageTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("record ai usage: %w", err)
	}
	return nil
}

func (s *SupabaseStore) CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error) {
	// Head request: PostgREST returns the exact count without any rows.
	_, count, err := s.client.From(usageTable).
		Select("id", "exact", true).
		Eq("user_id", userID).
		Gte("created_at", since.UTC().Format(time.RFC3339)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("count user ai usage: %w", err)
	}
	return int(count), nil
}

func (s *SupabaseStore) CountAllUsageSince(ctx context.Context, since time.Time) (int, error) {
	_, count, err := s.client.From(usageTable).
		Select("id", "exact", true).
		Gte("created_at", since.UTC().Format(time.RFC3339)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("count global ai usage: %w", err)
	}
	return int(count), nil
}
