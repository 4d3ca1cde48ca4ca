package domain

import (
	"time"

	"github.com/google/uuid"
)

// Webhook event types posted to callback URLs.
const (
	WebhookEventCompleted = "video.completed"
	WebhookEventFailed    = "video.failed"
)

// Delivery states of a queued webhook.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// WebhookEvent is the JSON body posted to a callback URL when a render
// finishes or fails.
type WebhookEvent struct {
	Event       string    `json:"event"`
	SessionID   uuid.UUID `json:"session_id"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	DownloadURL string    `json:"download_url,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// WebhookDelivery is one queued callback notification. Payload holds the
// marshaled event exactly as it will be posted, so retries sign and send
// identical bytes.
type WebhookDelivery struct {
	ID            uuid.UUID
	SessionID     uuid.UUID
	URL           string
	Payload       []byte
	Attempts      int
	MaxAttempts   int
	Status        string
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}
