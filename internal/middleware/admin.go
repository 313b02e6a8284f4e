package middleware

import (
	"crypto/subtle"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminOnly guards admin routes with a shared token. An empty configured
// token disables the routes entirely.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			logger.Get().Warn("Admin route called but no admin token is configured", zap.String("path", c.Path()))
			return domain.NewUnauthorizedError("Admin access is disabled")
		}
		provided := c.Get(AdminTokenHeader)
		if provided == "" {
			return domain.NewUnauthorizedError("Admin token is missing")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return domain.NewUnauthorizedError("Admin token is invalid")
		}
		return c.Next()
	}
}
