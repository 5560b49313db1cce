package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tormknd/RecipeMe/models"
)

// MemoryStore is an in-memory RecipeStore/UsageStore used by tests and local
// runs without a database. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[uuid.UUID]models.Recipe
	usage   []models.AiUsage
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recipes: make(map[uuid.UUID]models.Recipe)}
}

func (s *MemoryStore) Create(ctx context.Context, recipe models.Recipe) (models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now
	s.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID, userID string) (models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID {
		return models.Recipe{}, ErrNotFound
	}
	return recipe, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Recipe
	for _, r := range s.recipes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID {
		return ErrNotFound
	}
	delete(s.recipes, id)
	return nil
}

func (s *MemoryStore) UpdateStatusMessage(ctx context.Context, id uuid.UUID, userID string, message *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID {
		return ErrNotFound
	}
	recipe.Status = models.StatusProcessing
	recipe.StatusMessage = message
	recipe.UpdatedAt = time.Now()
	s.recipes[id] = recipe
	return nil
}

func (s *MemoryStore) FinalizeCompleted(ctx context.Context, id uuid.UUID, userID string, upd CompletedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID || recipe.Status != models.StatusProcessing {
		return ErrNotFound
	}
	recipe.Title = upd.Title
	recipe.Data = upd.Data
	recipe.Tags = upd.Tags
	recipe.SourceURL = upd.SourceURL
	recipe.ImageURL = upd.ImageURL
	recipe.Status = models.StatusCompleted
	recipe.StatusMessage = nil
	recipe.UpdatedAt = time.Now()
	s.recipes[id] = recipe
	return nil
}

func (s *MemoryStore) FinalizeError(ctx context.Context, id uuid.UUID, userID string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID || recipe.Status != models.StatusProcessing {
		return ErrNotFound
	}
	recipe.Title = models.ErrorTitle
	recipe.Status = models.StatusError
	recipe.StatusMessage = &message
	recipe.UpdatedAt = time.Now()
	s.recipes[id] = recipe
	return nil
}

func (s *MemoryStore) ResetForRetry(ctx context.Context, id uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID || recipe.Status != models.StatusError {
		return ErrNotFound
	}
	placeholder, err := json.Marshal(models.PlaceholderContent())
	if err != nil {
		return err
	}
	recipe.Title = models.PlaceholderTitle
	recipe.Data = string(placeholder)
	recipe.Status = models.StatusProcessing
	recipe.StatusMessage = nil
	recipe.UpdatedAt = time.Now()
	s.recipes[id] = recipe
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, userID string, fields map[string]interface{}) (models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipe, ok := s.recipes[id]
	if !ok || recipe.UserID != userID {
		return models.Recipe{}, ErrNotFound
	}
	for key, value := range fields {
		switch key {
		case "title":
			recipe.Title = value.(string)
		case "data":
			recipe.Data = value.(string)
		case "tags":
			recipe.Tags = asStringPtr(value)
		case "notes":
			recipe.Notes = asStringPtr(value)
		}
	}
	recipe.UpdatedAt = time.Now()
	s.recipes[id] = recipe
	return recipe, nil
}

func (s *MemoryStore) DeleteStuckProcessing(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, r := range s.recipes {
		if r.UserID == userID && r.Status == models.StatusProcessing && r.CreatedAt.Before(cutoff) {
			delete(s.recipes, id)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RecordUsage(ctx context.Context, userID string, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = append(s.usage, models.AiUsage{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemoryStore) CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.usage {
		if u.UserID == userID && !u.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountAllUsageSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.usage {
		if !u.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func asStringPtr(value interface{}) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return &v
	case *string:
		return v
	}
	return nil
}
