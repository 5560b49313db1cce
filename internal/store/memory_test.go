package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tormknd/RecipeMe/models"
)

func createProcessing(t *testing.T, s *MemoryStore, userID string) models.Recipe {
	t.Helper()
	recipe, err := s.Create(context.Background(), models.Recipe{
		ID:     uuid.New(),
		UserID: userID,
		Title:  models.PlaceholderTitle,
		Status: models.StatusProcessing,
		Data:   "{}",
	})
	require.NoError(t, err)
	return recipe
}

func TestFinalizeCompletedOnlyFromProcessing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	recipe := createProcessing(t, s, "user-1")

	tags := "plat"
	upd := CompletedUpdate{Title: "Bourguignon", Data: `{"title":"Bourguignon"}`, Tags: &tags}
	require.NoError(t, s.FinalizeCompleted(ctx, recipe.ID, "user-1", upd))

	got, err := s.Get(ctx, recipe.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Nil(t, got.StatusMessage)

	// A second finalize must not apply: the record already left processing.
	err = s.FinalizeCompleted(ctx, recipe.ID, "user-1", CompletedUpdate{Title: "Autre", Data: "{}"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.Get(ctx, recipe.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Bourguignon", got.Title)
}

func TestFinalizeErrorSetsTitleAndMessage(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	recipe := createProcessing(t, s, "user-1")

	require.NoError(t, s.FinalizeError(ctx, recipe.ID, "user-1", "Source illisible"))

	got, err := s.Get(ctx, recipe.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, got.Status)
	assert.Equal(t, models.ErrorTitle, got.Title)
	require.NotNil(t, got.StatusMessage)
	assert.Equal(t, "Source illisible", *got.StatusMessage)

	// error -> error is not a valid transition either.
	assert.ErrorIs(t, s.FinalizeError(ctx, recipe.ID, "user-1", "encore"), ErrNotFound)
}

func TestResetForRetryRequiresErrorState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	recipe := createProcessing(t, s, "user-1")

	assert.ErrorIs(t, s.ResetForRetry(ctx, recipe.ID, "user-1"), ErrNotFound)

	require.NoError(t, s.FinalizeError(ctx, recipe.ID, "user-1", "boom"))
	require.NoError(t, s.ResetForRetry(ctx, recipe.ID, "user-1"))

	got, err := s.Get(ctx, recipe.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)
	assert.Equal(t, models.PlaceholderTitle, got.Title)
	assert.Nil(t, got.StatusMessage)

	content, err := got.Content()
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderTitle, content.Title)
}

func TestOwnerScoping(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	recipe := createProcessing(t, s, "user-1")

	_, err := s.Get(ctx, recipe.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, recipe.ID, "user-2"), ErrNotFound)
	assert.ErrorIs(t, s.FinalizeError(ctx, recipe.ID, "user-2", "x"), ErrNotFound)
	_, err = s.Update(ctx, recipe.ID, "user-2", map[string]interface{}{"title": "volé"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsageCounters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	require.NoError(t, s.RecordUsage(ctx, "user-1", models.ActionRecipeGeneration))
	require.NoError(t, s.RecordUsage(ctx, "user-1", models.ActionRecipeGeneration))
	require.NoError(t, s.RecordUsage(ctx, "user-2", models.ActionRecipeGeneration))

	count, err := s.CountUsageSince(ctx, "user-1", start)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := s.CountAllUsageSince(ctx, start)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	none, err := s.CountUsageSince(ctx, "user-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, none)
}
