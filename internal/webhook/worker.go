package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/domain"
)

// Queue is the slice of the delivery store the worker drains.
type Queue interface {
	ListDue(ctx context.Context, limit int) ([]domain.WebhookDelivery, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, lastError string, nextAttempt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// Worker drains the delivery queue in the background.
type Worker struct {
	queue     Queue
	sender    *Sender
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
}

// NewWorker creates a queue worker.
func NewWorker(queue Queue, sender *Sender, logger *slog.Logger, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 5 * time.Second
	}

	return &Worker{
		queue:     queue,
		sender:    sender,
		logger:    logger,
		interval:  interval,
		batchSize: 10,
		stopCh:    make(chan struct{}),
	}
}

// Run blocks draining the queue until ctx is canceled or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("webhook worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case <-w.stopCh:
			w.logger.Info("webhook worker stopped")
			return
		case <-ticker.C:
			if err := w.processQueue(ctx); err != nil {
				w.logger.Error("failed to process webhook queue", "error", err)
			}
		}
	}
}

// Stop terminates Run.
func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) processQueue(ctx context.Context) error {
	due, err := w.queue.ListDue(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list due webhooks: %w", err)
	}

	for i := range due {
		if err := w.processJob(ctx, &due[i]); err != nil {
			w.logger.Error("failed to process webhook delivery",
				"delivery_id", due[i].ID,
				"session_id", due[i].SessionID,
				"attempts", due[i].Attempts,
				"error", err,
			)
		}
	}

	return nil
}

func (w *Worker) processJob(ctx context.Context, job *domain.WebhookDelivery) error {
	var event domain.WebhookEvent
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return w.queue.MarkFailed(ctx, job.ID, fmt.Sprintf("invalid payload: %v", err))
	}

	if err := w.sender.Post(ctx, job.URL, event.Event, job.Payload); err != nil {
		return w.scheduleRetry(ctx, job, err.Error())
	}

	if err := w.queue.MarkDelivered(ctx, job.ID); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	w.logger.Info("webhook delivered",
		"delivery_id", job.ID,
		"session_id", job.SessionID,
		"event", event.Event,
	)

	return nil
}

func (w *Worker) scheduleRetry(ctx context.Context, job *domain.WebhookDelivery, errorMsg string) error {
	if job.Attempts+1 >= job.MaxAttempts {
		if err := w.queue.MarkFailed(ctx, job.ID, errorMsg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		w.logger.Warn("webhook delivery failed permanently",
			"delivery_id", job.ID,
			"attempts", job.Attempts+1,
			"error", errorMsg,
		)
		return nil
	}

	delay := time.Duration(1<<job.Attempts) * time.Second
	nextRetry := time.Now().Add(delay)

	if err := w.queue.Reschedule(ctx, job.ID, errorMsg, nextRetry); err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}

	w.logger.Info("webhook delivery scheduled for retry",
		"delivery_id", job.ID,
		"attempts", job.Attempts+1,
		"next_retry", nextRetry,
	)

	return nil
}
