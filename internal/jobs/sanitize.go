package jobs

import (
	"strings"

	"github.com/Tormknd/RecipeMe/models"
)

// MaxStatusMessageLen bounds what is persisted on the record.
const MaxStatusMessageLen = 100

// technicalMarkers flag internal error text that must never reach a user.
// Detection is substring-based; anything matching is replaced wholesale.
var technicalMarkers = []string{
	"goroutine",
	"runtime error",
	"panic:",
	"nil pointer",
	"supabase",
	"postgrest",
	"unmarshal",
	"connection refused",
	"context deadline exceeded",
}

func isTechnical(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range technicalMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// SanitizeError turns an internal error message into the short user-facing
// cause stored on the record: technical strings are replaced by a generic
// message and the result is truncated.
func SanitizeError(message string) string {
	message = strings.TrimSpace(message)
	if message == "" || isTechnical(message) {
		message = models.ErrorTitle
	}
	runes := []rune(message)
	if len(runes) > MaxStatusMessageLen {
		return string(runes[:MaxStatusMessageLen])
	}
	return message
}

// SanitizeProgress filters a progress message before persistence. Technical
// strings are dropped entirely (nil) rather than replaced: a missing progress
// message is better than a misleading one.
func SanitizeProgress(message string) *string {
	message = strings.TrimSpace(message)
	if message == "" || isTechnical(message) {
		return nil
	}
	runes := []rune(message)
	if len(runes) > MaxStatusMessageLen {
		message = string(runes[:MaxStatusMessageLen])
	}
	return &message
}
