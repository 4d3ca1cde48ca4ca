package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veilworks/faceveil/internal/api/middleware"
	"github.com/veilworks/faceveil/internal/domain"
)

type mockAdminService struct {
	mock.Mock
}

func (m *mockAdminService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAdminService) Stats(ctx context.Context) (*domain.SessionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionStats), args.Error(1)
}

func newAdminApp(svc AdminService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})

	h := NewAdminHandler(svc, testLogger())
	app.Delete("/api/sessions/:id", h.DeleteSession)
	app.Get("/api/stats", h.Stats)

	return app
}

func TestAdminHandler_DeleteSession(t *testing.T) {
	id := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := new(mockAdminService)
		svc.On("Delete", mock.Anything, id).Return(nil)

		app := newAdminApp(svc)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/sessions/"+id.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := new(mockAdminService)
		svc.On("Delete", mock.Anything, id).Return(domain.ErrSessionNotFound)

		app := newAdminApp(svc)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/sessions/"+id.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminHandler_Stats(t *testing.T) {
	svc := new(mockAdminService)
	svc.On("Stats", mock.Anything).Return(&domain.SessionStats{
		TotalSessions:        4,
		ByStatus:             map[string]int{"completed": 3, "error": 1},
		CompletedRenders:     3,
		AverageRenderSeconds: 42.5,
		StorageBytes:         1 << 20,
	}, nil)

	app := newAdminApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got domain.SessionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 4, got.TotalSessions)
	assert.Equal(t, 3, got.ByStatus["completed"])
	assert.Equal(t, int64(1<<20), got.StorageBytes)
}
