package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a processing session.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusAnalyzing  Status = "analyzing"
	StatusAnalyzed   Status = "analyzed"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusAnalyzing, StatusAnalyzed, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// statusTransitions lists the legal moves. Re-analysis and re-render are
// allowed from terminal states since re-invocation overwrites prior output.
var statusTransitions = map[Status][]Status{
	StatusUploaded:   {StatusAnalyzing},
	StatusAnalyzing:  {StatusAnalyzed, StatusError},
	StatusAnalyzed:   {StatusAnalyzing, StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
	StatusCompleted:  {StatusAnalyzing, StatusProcessing},
	StatusError:      {StatusAnalyzing, StatusProcessing},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session associates an uploaded video with its descriptor, the blur schedule
// produced by analysis (and possibly edited by the client), and the progress
// record the status endpoint serves. Media files live on disk under the
// session's directory; everything else lives here.
type Session struct {
	ID                  uuid.UUID   `json:"session_id"`
	Status              Status      `json:"status"`
	Progress            float64     `json:"progress"`
	Message             string      `json:"message"`
	SourceName          string      `json:"source_name"`
	SourceExt           string      `json:"-"`
	Descriptor          *Descriptor `json:"video_info,omitempty"`
	Schedule            Schedule    `json:"-"`
	BlurStrength        int         `json:"blur_strength,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	ProcessingStartedAt *time.Time  `json:"-"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
}

// NewSession builds a fresh session for an uploaded file.
func NewSession(sourceName, sourceExt string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.New(),
		Status:     StatusUploaded,
		Progress:   0,
		Message:    "Video uploaded",
		SourceName: sourceName,
		SourceExt:  sourceExt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Analyzed reports whether analysis results are available for this session.
func (s *Session) Analyzed() bool {
	switch s.Status {
	case StatusAnalyzed, StatusProcessing, StatusCompleted:
		return s.Schedule != nil
	}
	return false
}

// Expired reports whether the session has outlived the retention window.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.CreatedAt) > ttl
}
