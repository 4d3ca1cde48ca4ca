package domain

// SessionStats aggregates session rows for the admin stats endpoint.
// StorageBytes is filled in by the service from the media store.
type SessionStats struct {
	TotalSessions        int            `json:"total_sessions"`
	ByStatus             map[string]int `json:"by_status"`
	CompletedRenders     int            `json:"completed_renders"`
	AverageRenderSeconds float64        `json:"average_render_seconds"`
	StorageBytes         int64          `json:"storage_bytes"`
}
