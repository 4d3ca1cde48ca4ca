package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/ratelimit"
)

// RateLimit caps requests per client IP on the expensive routes (upload,
// analyze, process). The counter lives in Postgres; when the database is
// unreachable the middleware fails open, since blocking uploads on a
// limiter outage would be worse than briefly not limiting.
func RateLimit(limiter *ratelimit.Limiter, limit int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := limiter.Allow(c.Context(), c.IP(), limit)
		if err == nil {
			return c.Next()
		}

		var limitErr *ratelimit.ErrLimitExceeded
		if errors.As(err, &limitErr) {
			return domain.ErrRateLimitExceeded
		}

		logger.Warn("rate limiter unavailable, allowing request",
			slog.Any("error", err),
			slog.String("ip", c.IP()),
		)
		return c.Next()
	}
}
