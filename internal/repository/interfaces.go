package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veilworks/faceveil/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use. pgxmock
// implements it, which is what the unit tests run against.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// SessionRepositoryInterface defines operations for session data access
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, message string, progress float64) error
	SetAnalysis(ctx context.Context, id uuid.UUID, schedule domain.Schedule) error
	SetRenderPlan(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int) error
	MarkCompleted(ctx context.Context, id uuid.UUID, message string) error
	ListExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.SessionStats, error)
}

// WebhookRepositoryInterface defines operations for the webhook delivery queue
type WebhookRepositoryInterface interface {
	Enqueue(ctx context.Context, delivery *domain.WebhookDelivery) error
	ListDue(ctx context.Context, limit int) ([]domain.WebhookDelivery, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, lastError string, nextAttempt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}
