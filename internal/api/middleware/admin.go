package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/veilworks/faceveil/internal/domain"
)

// AdminAuth guards the admin routes (session purge, stats) with a static
// bearer token from configuration. There are no user accounts; operators
// hold the token.
func AdminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return domain.ErrUnauthorized
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return domain.ErrUnauthorized
		}

		presented := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}
