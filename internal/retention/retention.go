// Package retention expires old sessions. Uploaded footage is sensitive,
// so expiry is a hard delete of both the database row and the media files.
package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/audit"
	"github.com/veilworks/faceveil/internal/domain"
)

// SessionStore lists and removes expired session rows.
type SessionStore interface {
	ListExpired(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore removes a session's on-disk media.
type FileStore interface {
	Remove(id uuid.UUID) error
}

// Sweeper periodically deletes sessions older than the retention TTL.
type Sweeper struct {
	sessions SessionStore
	files    FileStore
	auditLog audit.Logger
	logger   *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper creates a retention sweeper.
func NewSweeper(sessions SessionStore, files FileStore, auditLog audit.Logger, logger *slog.Logger, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		files:    files,
		auditLog: auditLog,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the sweep loop and blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("retention sweeper started", "ttl", s.ttl, "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep removes every session past its TTL and returns how many were
// deleted. Media files go first so a failed row delete gets retried on
// the next pass instead of leaving orphaned footage on disk.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.ttl)

	ids, err := s.sessions.ListExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to list expired sessions", "error", err)
		return 0
	}

	removed := 0
	for _, id := range ids {
		if err := s.files.Remove(id); err != nil {
			s.logger.Warn("failed to remove session files", "error", err, "session_id", id)
		}

		if err := s.sessions.Delete(ctx, id); err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) {
				s.logger.Warn("failed to delete expired session", "error", err, "session_id", id)
			}
			continue
		}

		_ = s.auditLog.Log(ctx, audit.Event{
			SessionID: id,
			EventType: audit.EventSessionExpired,
			Success:   true,
		})
		removed++
	}

	if removed > 0 {
		s.logger.Info("retention sweep completed", "removed", removed)
	}

	return removed
}
