package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tormknd/RecipeMe/internal/store"
	"github.com/Tormknd/RecipeMe/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedRecipe(t *testing.T, s *store.MemoryStore, userID, status string, age time.Duration) uuid.UUID {
	t.Helper()
	created, err := s.Create(context.Background(), models.Recipe{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     models.PlaceholderTitle,
		Status:    status,
		Data:      "{}",
		CreatedAt: time.Now().Add(-age),
	})
	require.NoError(t, err)
	return created.ID
}

func TestReapDeletesOnlyStuckProcessing(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	stuck := seedRecipe(t, s, "user-1", models.StatusProcessing, 10*time.Minute)
	fresh := seedRecipe(t, s, "user-1", models.StatusProcessing, time.Minute)
	done := seedRecipe(t, s, "user-1", models.StatusCompleted, time.Hour)
	other := seedRecipe(t, s, "user-2", models.StatusProcessing, time.Hour)

	count, err := NewReaper(s, testLogger()).Reap(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.Get(ctx, stuck, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, id := range []uuid.UUID{fresh, done} {
		_, err = s.Get(ctx, id, "user-1")
		assert.NoError(t, err)
	}
	_, err = s.Get(ctx, other, "user-2")
	assert.NoError(t, err, "other owners' jobs must not be touched")
}

func TestReapIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	seedRecipe(t, s, "user-1", models.StatusProcessing, time.Hour)

	reaper := NewReaper(s, testLogger())
	count, err := reaper.Reap(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = reaper.Reap(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
