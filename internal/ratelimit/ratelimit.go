// Package ratelimit counts requests per client in Postgres so limits hold
// across API replicas sharing one database.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Limiter enforces a fixed-window request limit per client key. Uploads and
// renders are expensive, so only those routes go through it.
type Limiter struct {
	db     DB
	window time.Duration
}

// NewLimiter creates a limiter over the shared connection pool.
func NewLimiter(db *pgxpool.Pool, window time.Duration) *Limiter {
	return &Limiter{
		db:     db,
		window: window,
	}
}

// NewLimiterWithDB creates a limiter with a custom DB interface (tests).
func NewLimiterWithDB(db DB, window time.Duration) *Limiter {
	return &Limiter{
		db:     db,
		window: window,
	}
}

// ErrLimitExceeded is returned by Allow when a key is over its limit.
type ErrLimitExceeded struct {
	Count int
	Limit int
}

func (e *ErrLimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d requests in window", e.Count, e.Limit)
}

// Allow atomically counts one request for key and fails when the count in
// the current window exceeds limit. A limit of zero or less disables the
// check.
func (l *Limiter) Allow(ctx context.Context, key string, limit int) error {
	if limit <= 0 {
		return nil
	}

	now := time.Now()
	windowStart := now.Add(-l.window)

	// ON CONFLICT restarts the counter whenever the stored window has
	// already closed, so one row per key is enough.
	query := `
		WITH current_count AS (
			INSERT INTO rate_limit_counters (key, count, window_start, window_end)
			VALUES ($1, 1, $2, $3)
			ON CONFLICT (key)
			DO UPDATE SET
				count = CASE
					WHEN rate_limit_counters.window_end < $2 THEN 1
					ELSE rate_limit_counters.count + 1
				END,
				window_start = CASE
					WHEN rate_limit_counters.window_end < $2 THEN $2
					ELSE rate_limit_counters.window_start
				END,
				window_end = $3
			RETURNING count
		)
		SELECT count FROM current_count
	`

	var count int
	err := l.db.QueryRow(ctx, query, key, windowStart, now).Scan(&count)
	if err != nil {
		return fmt.Errorf("check rate limit: %w", err)
	}

	if count > limit {
		return &ErrLimitExceeded{Count: count, Limit: limit}
	}

	return nil
}

// CleanupExpired removes counters whose window closed over an hour ago.
func (l *Limiter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < NOW() - INTERVAL '1 hour'`
	result, err := l.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CurrentCount returns the live count for a key, zero when no window is open.
func (l *Limiter) CurrentCount(ctx context.Context, key string) (int, error) {
	windowStart := time.Now().Add(-l.window)

	query := `
		SELECT count
		FROM rate_limit_counters
		WHERE key = $1 AND window_end > $2
	`

	var count int
	err := l.db.QueryRow(ctx, query, key, windowStart).Scan(&count)
	if err != nil {
		return 0, nil
	}

	return count, nil
}

// Reset clears the counter for a key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	query := `DELETE FROM rate_limit_counters WHERE key = $1`
	_, err := l.db.Exec(ctx, query, key)
	return err
}
