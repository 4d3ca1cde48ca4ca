package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilworks/faceveil/internal/audit"
	"github.com/veilworks/faceveil/internal/domain"
)

type mockSessionStore struct {
	listExpiredFunc func(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	deleteFunc      func(ctx context.Context, id uuid.UUID) error

	mu      sync.Mutex
	deleted []uuid.UUID
}

func (m *mockSessionStore) ListExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return m.listExpiredFunc(ctx, cutoff)
}

func (m *mockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, id)
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockFileStore struct {
	removeFunc func(id uuid.UUID) error

	mu      sync.Mutex
	removed []uuid.UUID
}

func (m *mockFileStore) Remove(id uuid.UUID) error {
	m.mu.Lock()
	m.removed = append(m.removed, id)
	m.mu.Unlock()
	if m.removeFunc != nil {
		return m.removeFunc(id)
	}
	return nil
}

type captureAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureAudit) Log(_ context.Context, event audit.Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	sessions := &mockSessionStore{
		listExpiredFunc: func(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
			assert.True(t, cutoff.Before(time.Now()))
			return []uuid.UUID{first, second}, nil
		},
	}
	files := &mockFileStore{}
	trail := &captureAudit{}

	sweeper := NewSweeper(sessions, files, trail, testLogger(), 24*time.Hour, time.Hour)
	removed := sweeper.Sweep(context.Background())

	assert.Equal(t, 2, removed)
	assert.Equal(t, []uuid.UUID{first, second}, files.removed)
	assert.Equal(t, []uuid.UUID{first, second}, sessions.deleted)

	require.Len(t, trail.events, 2)
	assert.Equal(t, audit.EventSessionExpired, trail.events[0].EventType)
	assert.Equal(t, first, trail.events[0].SessionID)
	assert.True(t, trail.events[0].Success)
}

func TestSweepNothingExpired(t *testing.T) {
	sessions := &mockSessionStore{
		listExpiredFunc: func(context.Context, time.Time) ([]uuid.UUID, error) {
			return nil, nil
		},
	}
	files := &mockFileStore{}

	sweeper := NewSweeper(sessions, files, &audit.NoOpLogger{}, testLogger(), 24*time.Hour, time.Hour)
	removed := sweeper.Sweep(context.Background())

	assert.Equal(t, 0, removed)
	assert.Empty(t, files.removed)
	assert.Empty(t, sessions.deleted)
}

func TestSweepListFailure(t *testing.T) {
	sessions := &mockSessionStore{
		listExpiredFunc: func(context.Context, time.Time) ([]uuid.UUID, error) {
			return nil, errors.New("connection refused")
		},
	}

	sweeper := NewSweeper(sessions, &mockFileStore{}, &audit.NoOpLogger{}, testLogger(), 24*time.Hour, time.Hour)
	assert.Equal(t, 0, sweeper.Sweep(context.Background()))
}

func TestSweepContinuesPastDeleteFailure(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	sessions := &mockSessionStore{
		listExpiredFunc: func(context.Context, time.Time) ([]uuid.UUID, error) {
			return []uuid.UUID{first, second}, nil
		},
		deleteFunc: func(_ context.Context, id uuid.UUID) error {
			if id == first {
				return errors.New("connection refused")
			}
			return nil
		},
	}
	files := &mockFileStore{}
	trail := &captureAudit{}

	sweeper := NewSweeper(sessions, files, trail, testLogger(), 24*time.Hour, time.Hour)
	removed := sweeper.Sweep(context.Background())

	assert.Equal(t, 1, removed)
	assert.Equal(t, []uuid.UUID{first, second}, files.removed)
	require.Len(t, trail.events, 1)
	assert.Equal(t, second, trail.events[0].SessionID)
}

func TestSweepSkipsAlreadyDeletedRows(t *testing.T) {
	id := uuid.New()

	sessions := &mockSessionStore{
		listExpiredFunc: func(context.Context, time.Time) ([]uuid.UUID, error) {
			return []uuid.UUID{id}, nil
		},
		deleteFunc: func(context.Context, uuid.UUID) error {
			return domain.ErrSessionNotFound
		},
	}
	files := &mockFileStore{}
	trail := &captureAudit{}

	sweeper := NewSweeper(sessions, files, trail, testLogger(), 24*time.Hour, time.Hour)
	removed := sweeper.Sweep(context.Background())

	assert.Equal(t, 0, removed)
	assert.Equal(t, []uuid.UUID{id}, files.removed)
	assert.Empty(t, trail.events)
}

func TestRunSweepsUntilCanceled(t *testing.T) {
	swept := make(chan struct{}, 4)
	sessions := &mockSessionStore{
		listExpiredFunc: func(context.Context, time.Time) ([]uuid.UUID, error) {
			select {
			case swept <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}

	sweeper := NewSweeper(sessions, &mockFileStore{}, &audit.NoOpLogger{}, testLogger(), 24*time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
