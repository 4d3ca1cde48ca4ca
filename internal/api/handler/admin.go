package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/domain"
)

// AdminService interface for the admin routes
type AdminService interface {
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.SessionStats, error)
}

// AdminHandler handles operator-only routes: immediate session purge and
// the aggregate stats endpoint.
type AdminHandler struct {
	service AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(service AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger,
	}
}

// DeleteSession DELETE /api/sessions/:id - purge a session and its media now
func (h *AdminHandler) DeleteSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": id.String(),
		"status":     "deleted",
	})
}

// Stats GET /api/stats - session counts, render timings and storage usage
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(stats)
}
