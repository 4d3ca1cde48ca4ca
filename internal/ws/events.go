package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStatusChanged    EventType = "status.changed"
	EventProgressUpdated  EventType = "progress.updated"
	EventRenderCompleted  EventType = "render.completed"
	EventProcessingFailed EventType = "processing.failed"
	EventPreviewReady     EventType = "preview.ready"
)

type Event struct {
	SessionID uuid.UUID   `json:"-"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
