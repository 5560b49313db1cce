package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries the authenticated user id, set by the web frontend.
const SessionCookie = "recipeme_session"

// UserIDHeader lets API clients authenticate without a cookie.
const UserIDHeader = "X-User-ID"

// LocalsUserKey is where RequireUser stores the resolved user id.
const LocalsUserKey = "userID"

// RequireUser resolves the caller's user id from the session cookie or the
// X-User-ID header and rejects the request when neither is present. Every
// downstream query is scoped by this id.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Cookies(SessionCookie))
		if userID == "" {
			userID = strings.TrimSpace(c.Get(UserIDHeader))
		}
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Authentification requise",
			})
		}
		c.Locals(LocalsUserKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsUserKey).(string)
	return id
}
