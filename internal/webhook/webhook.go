// Package webhook posts render notifications to the callback URL a client
// supplied when starting a render. Failed posts land in a Postgres queue
// and are retried with exponential backoff until MaxAttempts is reached.
package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/veilworks/faceveil/internal/domain"
)

// DefaultMaxAttempts is the delivery retry ceiling for new deliveries.
const DefaultMaxAttempts = 5

// NewDelivery marshals event into a queued delivery for url. The payload is
// frozen at enqueue time so retries post identical bytes.
func NewDelivery(event domain.WebhookEvent, url string) (*domain.WebhookDelivery, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return &domain.WebhookDelivery{
		SessionID:   event.SessionID,
		URL:         url,
		Payload:     payload,
		MaxAttempts: DefaultMaxAttempts,
		Status:      domain.DeliveryPending,
	}, nil
}
