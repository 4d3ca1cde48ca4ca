package middleware

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			token:      "secret-token",
			authHeader: "Bearer secret-token",
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "wrong token",
			token:      "secret-token",
			authHeader: "Bearer other-token",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "missing header",
			token:      "secret-token",
			authHeader: "",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "no bearer prefix",
			token:      "secret-token",
			authHeader: "secret-token",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "empty configured token rejects everything",
			token:      "",
			authHeader: "Bearer ",
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(testLogger()),
			})
			app.Get("/admin", AdminAuth(tt.token), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
