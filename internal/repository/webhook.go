package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/domain"
)

type WebhookRepository struct {
	pool PgxPool
}

func NewWebhookRepository(pool PgxPool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) Enqueue(ctx context.Context, delivery *domain.WebhookDelivery) error {
	query := `
		INSERT INTO webhook_queue (id, session_id, url, payload, attempts, max_attempts,
			status, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at
	`

	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.Status == "" {
		delivery.Status = domain.DeliveryPending
	}
	if delivery.NextAttemptAt.IsZero() {
		delivery.NextAttemptAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(ctx, query,
		delivery.ID,
		delivery.SessionID,
		delivery.URL,
		delivery.Payload,
		delivery.Attempts,
		delivery.MaxAttempts,
		delivery.Status,
		delivery.NextAttemptAt,
	).Scan(&delivery.CreatedAt)

	if err != nil {
		return fmt.Errorf("enqueue webhook: %w", err)
	}

	return nil
}

func (r *WebhookRepository) ListDue(ctx context.Context, limit int) ([]domain.WebhookDelivery, error) {
	query := `
		SELECT id, session_id, url, payload, attempts, max_attempts,
			status, next_attempt_at, COALESCE(last_error, ''), created_at
		FROM webhook_queue
		WHERE status = 'pending' AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list due webhooks: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		var d domain.WebhookDelivery
		err := rows.Scan(
			&d.ID,
			&d.SessionID,
			&d.URL,
			&d.Payload,
			&d.Attempts,
			&d.MaxAttempts,
			&d.Status,
			&d.NextAttemptAt,
			&d.LastError,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return deliveries, nil
}

func (r *WebhookRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE webhook_queue
		SET status = 'delivered', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark webhook delivered: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook delivery %s not found", id)
	}

	return nil
}

func (r *WebhookRepository) Reschedule(ctx context.Context, id uuid.UUID, lastError string, nextAttempt time.Time) error {
	query := `
		UPDATE webhook_queue
		SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, lastError, nextAttempt)
	if err != nil {
		return fmt.Errorf("reschedule webhook: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook delivery %s not found", id)
	}

	return nil
}

func (r *WebhookRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	query := `
		UPDATE webhook_queue
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, lastError)
	if err != nil {
		return fmt.Errorf("mark webhook failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook delivery %s not found", id)
	}

	return nil
}
