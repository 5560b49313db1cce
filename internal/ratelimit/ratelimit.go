// Package ratelimit enforces daily quotas on generative extractions, backed
// by the ai_usage table.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/store"
)

// Daily quotas.
const (
	UserDailyLimit   = 10
	GlobalDailyLimit = 100
)

// LimitError reports an exhausted quota with a user-facing message.
type LimitError struct {
	Message string
}

func (e *LimitError) Error() string { return e.Message }

// Limiter checks quotas against recorded usage.
type Limiter struct {
	usage store.UsageStore
	log   *logrus.Logger
}

// NewLimiter creates a Limiter over the usage store.
func NewLimiter(usage store.UsageStore, log *logrus.Logger) *Limiter {
	return &Limiter{usage: usage, log: log}
}

// Check returns a *LimitError when the user or the whole service hit the
// daily cap. Counting failures do not block ingestion; they are logged and
// the request passes.
func (l *Limiter) Check(ctx context.Context, userID string) error {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	userCount, err := l.usage.CountUsageSince(ctx, userID, startOfDay)
	if err != nil {
		l.log.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("User usage count failed, skipping rate limit")
		return nil
	}
	if userCount >= UserDailyLimit {
		return &LimitError{Message: fmt.Sprintf("Vous avez atteint votre limite quotidienne de %d générations.", UserDailyLimit)}
	}

	globalCount, err := l.usage.CountAllUsageSince(ctx, startOfDay)
	if err != nil {
		l.log.WithField("error", err).Error("Global usage count failed, skipping rate limit")
		return nil
	}
	if globalCount >= GlobalDailyLimit {
		return &LimitError{Message: "La limite globale du service a été atteinte pour aujourd'hui. Réessayez demain."}
	}
	return nil
}
