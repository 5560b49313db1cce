package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/store"
)

// StuckJobTimeout is how long a record may sit in processing before it is
// considered orphaned. A hung external call holds its job until this cleanup
// catches it; there is no per-call timeout beyond it.
const StuckJobTimeout = 5 * time.Minute

// Reaper deletes an owner's processing records that outlived the timeout.
// It runs opportunistically before every new ingestion and on listing, never
// on its own timer. Owner-scoped, so it is safe alongside in-flight jobs of
// other owners.
type Reaper struct {
	store store.RecipeStore
	log   *logrus.Logger
}

// NewReaper creates a Reaper over the given store.
func NewReaper(recipeStore store.RecipeStore, log *logrus.Logger) *Reaper {
	return &Reaper{store: recipeStore, log: log}
}

// Reap deletes the owner's stuck processing records and returns how many
// were removed. Idempotent.
func (r *Reaper) Reap(ctx context.Context, userID string) (int, error) {
	cutoff := time.Now().Add(-StuckJobTimeout)
	count, err := r.store.DeleteStuckProcessing(ctx, userID, cutoff)
	if err != nil {
		r.log.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Cleanup of stuck recipes failed")
		return 0, err
	}
	if count > 0 {
		r.log.WithFields(logrus.Fields{"user_id": userID, "deleted": count}).Info("Cleaned up stuck recipes in processing state")
	}
	return count, nil
}
