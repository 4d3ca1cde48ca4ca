package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker reports whether the media directory accepts writes.
type StorageChecker interface {
	CheckWritable() error
}

type HealthHandler struct {
	db      Pinger
	storage StorageChecker
}

func NewHealthHandler(db Pinger, storage StorageChecker) *HealthHandler {
	return &HealthHandler{
		db:      db,
		storage: storage,
	}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

// Ready verifies the two things a working deployment needs: a reachable
// database and a writable storage directory.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := map[string]string{
		"database": "ok",
		"storage":  "ok",
	}
	status := "ready"
	code := fiber.StatusOK

	if err := h.db.Ping(c.Context()); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	if err := h.storage.CheckWritable(); err != nil {
		checks["storage"] = err.Error()
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(HealthResponse{
		Status: status,
		Checks: checks,
	})
}
