// Package store persists recipe records. All writes are scoped by the
// (recipe id, owner id) compound key so jobs can never touch another owner's
// records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Tormknd/RecipeMe/models"
)

// ErrNotFound is returned when no record matches the (id, owner) pair.
var ErrNotFound = errors.New("recipe not found")

// RecipeStore is the single shared mutable resource of the pipeline. The
// background task communicates with polling clients only through it.
type RecipeStore interface {
	Create(ctx context.Context, recipe models.Recipe) (models.Recipe, error)
	Get(ctx context.Context, id uuid.UUID, userID string) (models.Recipe, error)
	List(ctx context.Context, userID string) ([]models.Recipe, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error

	// UpdateStatusMessage is the progress channel: a best-effort,
	// last-write-wins write of the status message for a processing job.
	UpdateStatusMessage(ctx context.Context, id uuid.UUID, userID string, message *string) error

	// FinalizeCompleted writes the extraction result and flips the record to
	// completed. The write only applies while the record is still in
	// processing, which keeps transitions monotonic even when a superseded
	// run finishes late.
	FinalizeCompleted(ctx context.Context, id uuid.UUID, userID string, update CompletedUpdate) error

	// FinalizeError flips a processing record to error with a sanitized
	// message and the generic error title.
	FinalizeError(ctx context.Context, id uuid.UUID, userID string, message string) error

	// ResetForRetry puts an errored record back into processing with
	// placeholder content, clearing prior error state.
	ResetForRetry(ctx context.Context, id uuid.UUID, userID string) error

	// Update persists user edits (title, data, tags, notes).
	Update(ctx context.Context, id uuid.UUID, userID string, fields map[string]interface{}) (models.Recipe, error)

	// DeleteStuckProcessing removes the owner's processing records created
	// before the cutoff and reports how many were deleted.
	DeleteStuckProcessing(ctx context.Context, userID string, cutoff time.Time) (int, error)
}

// CompletedUpdate carries the fields written on successful extraction.
type CompletedUpdate struct {
	Title     string
	Data      string
	Tags      *string
	SourceURL *string
	ImageURL  *string
}

// UsageStore records and counts AI generation launches for rate limiting.
type UsageStore interface {
	RecordUsage(ctx context.Context, userID string, action string) error
	CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountAllUsageSince(ctx context.Context, since time.Time) (int, error)
}
