package middleware

import (
	"context"
	"errors"

	"github.com/clicktally/clicktally/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// SessionCookieName carries the signed opaque session token.
	SessionCookieName = "clicktally_session"

	// SessionLocalsKey is where the resolved session lands for handlers.
	SessionLocalsKey = "session"
)

// RequireSession gates admin-only routes. It resolves the session cookie
// before the guarded handler runs; anonymous callers get a 401 envelope and
// the handler never executes. Store failures surface as opaque 500s.
func RequireSession(auth service.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookieName)

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		session, err := auth.Check(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrNotAuthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "Not authorized. Log in first.",
				})
			}
			logger.Error("session lookup failed", zap.Error(err), zap.String("path", c.Path()))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Internal server error",
			})
		}

		c.Locals(SessionLocalsKey, session)
		return c.Next()
	}
}
