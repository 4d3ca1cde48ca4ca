package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veilworks/faceveil/internal/domain"
)

type SessionRepository struct {
	pool PgxPool
}

func NewSessionRepository(pool PgxPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, status, progress, message, source_name, source_ext,
			fps, frame_count, width, height, schedule, blur_strength, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	var desc domain.Descriptor
	if session.Descriptor != nil {
		desc = *session.Descriptor
	}

	var schedule any
	if session.Schedule != nil {
		schedule = session.Schedule
	}

	err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.Status,
		session.Progress,
		session.Message,
		session.SourceName,
		session.SourceExt,
		desc.FPS,
		desc.FrameCount,
		desc.Width,
		desc.Height,
		schedule,
		session.BlurStrength,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return &domain.AppError{
				Code:       "SESSION_ALREADY_EXISTS",
				Message:    "Session with this id already exists",
				StatusCode: 409,
			}
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT id, status, progress, message, source_name, source_ext,
			fps, frame_count, width, height, schedule, blur_strength,
			created_at, updated_at, processing_started_at, completed_at
		FROM sessions
		WHERE id = $1
	`

	var (
		session domain.Session
		desc    domain.Descriptor
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.Status,
		&session.Progress,
		&session.Message,
		&session.SourceName,
		&session.SourceExt,
		&desc.FPS,
		&desc.FrameCount,
		&desc.Width,
		&desc.Height,
		&session.Schedule,
		&session.BlurStrength,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.ProcessingStartedAt,
		&session.CompletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	session.Descriptor = &desc
	return &session, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, message string, progress float64) error {
	query := `
		UPDATE sessions
		SET status = $2, message = $3, progress = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, status, message, progress)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepository) SetAnalysis(ctx context.Context, id uuid.UUID, schedule domain.Schedule) error {
	query := `
		UPDATE sessions
		SET schedule = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, schedule)
	if err != nil {
		return fmt.Errorf("set session analysis: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepository) SetRenderPlan(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int) error {
	query := `
		UPDATE sessions
		SET schedule = $2, blur_strength = $3, processing_started_at = NOW(),
			completed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, schedule, strength)
	if err != nil {
		return fmt.Errorf("set session render plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE sessions
		SET status = 'completed', message = $2, progress = 100,
			completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, message)
	if err != nil {
		return fmt.Errorf("mark session completed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM sessions
		WHERE created_at < $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepository) Stats(ctx context.Context) (*domain.SessionStats, error) {
	stats := &domain.SessionStats{ByStatus: make(map[string]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count sessions by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalSessions += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	query := `
		SELECT COUNT(*),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - processing_started_at))), 0)::float8
		FROM sessions
		WHERE completed_at IS NOT NULL AND processing_started_at IS NOT NULL
	`

	err = r.pool.QueryRow(ctx, query).Scan(&stats.CompletedRenders, &stats.AverageRenderSeconds)
	if err != nil {
		return nil, fmt.Errorf("aggregate render stats: %w", err)
	}

	return stats, nil
}
