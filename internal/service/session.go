package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/audit"
	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
	"github.com/veilworks/faceveil/internal/pipeline"
	"github.com/veilworks/faceveil/internal/webhook"
	"github.com/veilworks/faceveil/internal/ws"
)

type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, message string, progress float64) error
	SetAnalysis(ctx context.Context, id uuid.UUID, schedule domain.Schedule) error
	SetRenderPlan(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int) error
	MarkCompleted(ctx context.Context, id uuid.UUID, message string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.SessionStats, error)
}

type WebhookQueue interface {
	Enqueue(ctx context.Context, delivery *domain.WebhookDelivery) error
}

type WebhookSender interface {
	Post(ctx context.Context, url, eventType string, payload []byte) error
}

type MediaStore interface {
	SaveSource(id uuid.UUID, ext string, r io.Reader) (string, int64, error)
	SourcePath(id uuid.UUID, ext string) string
	PreviewPath(id uuid.UUID) string
	OutputPath(id uuid.UUID) string
	Exists(path string) bool
	Remove(id uuid.UUID) error
	Usage() (int64, error)
}

type Prober interface {
	Probe(ctx context.Context, path string) (*domain.Descriptor, error)
}

type Pipeline interface {
	Analyze(ctx context.Context, detector detect.Detector, sourcePath string, onProgress pipeline.ProgressFunc) (*domain.Descriptor, domain.Schedule, error)
	Render(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, onProgress pipeline.ProgressFunc) error
	Preview(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, duration float64, onProgress pipeline.ProgressFunc) error
}

type Broadcaster interface {
	BroadcastToSession(sessionID uuid.UUID, eventType ws.EventType, data interface{})
}

// StatusResult is a session snapshot plus the URLs currently live for it.
type StatusResult struct {
	Session     *domain.Session
	DownloadURL string
	PreviewURL  string
}

// SessionService orchestrates the upload → analyze → preview → render
// lifecycle. Analysis and render run as background goroutines; at most one
// of either may be in flight per session.
type SessionService struct {
	repo     SessionRepositoryInterface
	queue    WebhookQueue
	sender   WebhookSender
	store    MediaStore
	prober   Prober
	pipe     Pipeline
	detector detect.Detector
	hub      Broadcaster
	auditLog audit.Logger
	logger   *slog.Logger

	mu   sync.Mutex
	busy map[uuid.UUID]struct{}
}

func NewSessionService(
	repo SessionRepositoryInterface,
	queue WebhookQueue,
	sender WebhookSender,
	store MediaStore,
	prober Prober,
	pipe Pipeline,
	detector detect.Detector,
	hub Broadcaster,
	auditLog audit.Logger,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		repo:     repo,
		queue:    queue,
		sender:   sender,
		store:    store,
		prober:   prober,
		pipe:     pipe,
		detector: detector,
		hub:      hub,
		auditLog: auditLog,
		logger:   logger,
		busy:     make(map[uuid.UUID]struct{}),
	}
}

func downloadURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/sessions/%s/download", id)
}

func previewURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/sessions/%s/preview-file", id)
}

func statusPayload(status domain.Status, message string, progress float64) map[string]interface{} {
	return map[string]interface{}{
		"status":   status,
		"message":  message,
		"progress": progress,
	}
}

// Upload stores an incoming video, probes its descriptor and creates the
// session row. The media file is removed again when the container cannot
// be parsed or the row cannot be written.
func (s *SessionService) Upload(ctx context.Context, filename, contentType string, file io.Reader) (*domain.Session, error) {
	if !strings.HasPrefix(contentType, "video/") {
		return nil, domain.ErrNotVideo
	}

	ext := filepath.Ext(filename)
	sess := domain.NewSession(filename, ext)

	if _, _, err := s.store.SaveSource(sess.ID, ext, file); err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("save upload: %w", err))
	}

	desc, err := s.prober.Probe(ctx, s.store.SourcePath(sess.ID, ext))
	if err != nil {
		s.discardFiles(sess.ID)
		return nil, domain.ErrUnsupportedMedia.WithError(err)
	}

	sess.Descriptor = desc
	sess.Message = "Video uploaded successfully"

	if err := s.repo.Create(ctx, sess); err != nil {
		s.discardFiles(sess.ID)
		return nil, err
	}

	s.logger.Info("video uploaded",
		"session_id", sess.ID,
		"filename", filename,
		"total_frames", desc.FrameCount,
		"fps", desc.FPS,
	)

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: sess.ID,
		EventType: audit.EventSessionCreated,
		Success:   true,
		Metadata:  map[string]string{"filename": filename},
	})

	return sess, nil
}

func (s *SessionService) discardFiles(id uuid.UUID) {
	if err := s.store.Remove(id); err != nil {
		s.logger.Warn("failed to remove session files", "error", err, "session_id", id)
	}
}

// StartAnalysis flips the session to analyzing and scans it in the
// background. Returns ErrSessionBusy while another operation runs.
func (s *SessionService) StartAnalysis(ctx context.Context, id uuid.UUID) error {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !sess.Status.CanTransition(domain.StatusAnalyzing) {
		return domain.ErrInvalidTransition
	}

	if !s.acquire(id) {
		return domain.ErrSessionBusy
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.StatusAnalyzing, "Analyzing video...", 10); err != nil {
		s.release(id)
		return err
	}

	s.hub.BroadcastToSession(id, ws.EventStatusChanged, statusPayload(domain.StatusAnalyzing, "Analyzing video...", 10))

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventAnalysisStarted,
		Detector:  s.detector.Name(),
		Success:   true,
	})

	go s.runAnalysis(id, sess.SourceExt)

	return nil
}

func (s *SessionService) runAnalysis(id uuid.UUID, sourceExt string) {
	ctx := context.Background()
	defer s.release(id)

	if err := s.repo.UpdateStatus(ctx, id, domain.StatusAnalyzing, "Detecting faces...", 30); err != nil {
		s.logger.Warn("failed to update analysis status", "error", err, "session_id", id)
	}
	s.hub.BroadcastToSession(id, ws.EventStatusChanged, statusPayload(domain.StatusAnalyzing, "Detecting faces...", 30))

	onProgress := func(p float64) {
		s.hub.BroadcastToSession(id, ws.EventProgressUpdated, map[string]interface{}{
			"progress": p,
			"message":  "Detecting faces...",
		})
	}

	_, schedule, err := s.pipe.Analyze(ctx, s.detector, s.store.SourcePath(id, sourceExt), onProgress)
	if err != nil {
		s.failAnalysis(ctx, id, err)
		return
	}

	if err := s.repo.SetAnalysis(ctx, id, schedule); err != nil {
		s.failAnalysis(ctx, id, err)
		return
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.StatusAnalyzed, "Analysis completed", 100); err != nil {
		s.logger.Warn("failed to update analysis status", "error", err, "session_id", id)
	}
	s.hub.BroadcastToSession(id, ws.EventStatusChanged, statusPayload(domain.StatusAnalyzed, "Analysis completed", 100))

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventAnalysisCompleted,
		Detector:  s.detector.Name(),
		Success:   true,
		Metadata: map[string]string{
			"frames_with_faces": strconv.Itoa(schedule.FrameCount()),
			"total_regions":     strconv.Itoa(schedule.RegionCount()),
		},
	})
}

func (s *SessionService) failAnalysis(ctx context.Context, id uuid.UUID, cause error) {
	message := fmt.Sprintf("Analysis failed: %v", cause)
	if err := s.repo.UpdateStatus(ctx, id, domain.StatusError, message, 30); err != nil {
		s.logger.Error("failed to record analysis failure", "error", err, "session_id", id)
	}
	s.hub.BroadcastToSession(id, ws.EventProcessingFailed, map[string]interface{}{"message": message})

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventAnalysisFailed,
		Detector:  s.detector.Name(),
		Error:     cause.Error(),
	})

	s.logger.Error("video analysis failed", "error", cause, "session_id", id)
}

// Analysis returns the session with its detection schedule, or
// ErrAnalysisNotReady while no schedule is stored yet.
func (s *SessionService) Analysis(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sess.Analyzed() {
		return nil, domain.ErrAnalysisNotReady
	}

	return sess, nil
}

// StartRender stores the render plan and blurs the video in the background.
// The schedule is the client's to edit; it does not have to match what
// analysis found.
func (s *SessionService) StartRender(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int, callbackURL string) error {
	if !media.ValidStrength(strength) {
		return domain.ErrInvalidStrength
	}
	if err := schedule.Validate(); err != nil {
		return domain.ErrInvalidSchedule.WithError(err)
	}

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !sess.Status.CanTransition(domain.StatusProcessing) {
		return domain.ErrInvalidTransition
	}

	if !s.acquire(id) {
		return domain.ErrSessionBusy
	}

	if err := s.repo.SetRenderPlan(ctx, id, schedule, strength); err != nil {
		s.release(id)
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.StatusProcessing, "Processing video...", 50); err != nil {
		s.release(id)
		return err
	}

	s.hub.BroadcastToSession(id, ws.EventStatusChanged, statusPayload(domain.StatusProcessing, "Processing video...", 50))

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventRenderStarted,
		Success:   true,
		Metadata: map[string]string{
			"blur_strength": strconv.Itoa(strength),
			"masked_frames": strconv.Itoa(schedule.FrameCount()),
		},
	})

	go s.runRender(id, sess.SourceExt, schedule, strength, callbackURL)

	return nil
}

func (s *SessionService) runRender(id uuid.UUID, sourceExt string, schedule domain.Schedule, strength int, callbackURL string) {
	ctx := context.Background()
	defer s.release(id)

	lastProgress := 50.0
	onProgress := func(p float64) {
		overall := 50 + p*0.5
		lastProgress = overall
		message := fmt.Sprintf("Processing... %.1f%%", p)
		if err := s.repo.UpdateStatus(ctx, id, domain.StatusProcessing, message, overall); err != nil {
			s.logger.Warn("failed to update render progress", "error", err, "session_id", id)
		}
		s.hub.BroadcastToSession(id, ws.EventProgressUpdated, map[string]interface{}{
			"progress": overall,
			"message":  message,
		})
	}

	err := s.pipe.Render(ctx, s.store.SourcePath(id, sourceExt), s.store.OutputPath(id), schedule, strength, onProgress)
	if err != nil {
		s.failRender(ctx, id, lastProgress, err, callbackURL)
		return
	}

	if err := s.repo.MarkCompleted(ctx, id, "Processing completed"); err != nil {
		s.logger.Error("failed to mark session completed", "error", err, "session_id", id)
	}

	s.hub.BroadcastToSession(id, ws.EventRenderCompleted, map[string]interface{}{
		"status":       domain.StatusCompleted,
		"message":      "Processing completed",
		"progress":     100.0,
		"download_url": downloadURL(id),
	})

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventRenderCompleted,
		Success:   true,
	})

	s.notify(ctx, id, callbackURL, domain.WebhookEvent{
		Event:       domain.WebhookEventCompleted,
		SessionID:   id,
		Status:      domain.StatusCompleted,
		Message:     "Processing completed",
		DownloadURL: downloadURL(id),
		OccurredAt:  time.Now().UTC(),
	})

	s.logger.Info("video render complete", "session_id", id)
}

func (s *SessionService) failRender(ctx context.Context, id uuid.UUID, progress float64, cause error, callbackURL string) {
	message := fmt.Sprintf("Processing failed: %v", cause)
	if err := s.repo.UpdateStatus(ctx, id, domain.StatusError, message, progress); err != nil {
		s.logger.Error("failed to record render failure", "error", err, "session_id", id)
	}
	s.hub.BroadcastToSession(id, ws.EventProcessingFailed, map[string]interface{}{"message": message})

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventRenderFailed,
		Error:     cause.Error(),
	})

	s.notify(ctx, id, callbackURL, domain.WebhookEvent{
		Event:      domain.WebhookEventFailed,
		SessionID:  id,
		Status:     domain.StatusError,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Error("video render failed", "error", cause, "session_id", id)
}

// notify posts the event to the callback URL right away. Only a refused
// delivery lands in the queue, where the worker retries it with backoff.
func (s *SessionService) notify(ctx context.Context, id uuid.UUID, callbackURL string, event domain.WebhookEvent) {
	if callbackURL == "" {
		return
	}

	delivery, err := webhook.NewDelivery(event, callbackURL)
	if err != nil {
		s.logger.Error("failed to build webhook delivery", "error", err, "session_id", id)
		return
	}

	sendErr := s.sender.Post(ctx, callbackURL, event.Event, delivery.Payload)
	if sendErr == nil {
		s.logger.Info("webhook delivered", "session_id", id, "event", event.Event)
		return
	}

	delivery.Attempts = 1
	delivery.NextAttemptAt = time.Now().UTC().Add(time.Second)
	s.logger.Warn("webhook delivery failed, queued for retry",
		"error", sendErr, "session_id", id, "event", event.Event)

	if err := s.queue.Enqueue(ctx, delivery); err != nil {
		s.logger.Error("failed to enqueue webhook delivery", "error", err, "session_id", id)
	}
}

// GeneratePreview renders a short bounded preview synchronously and returns
// its URL. Session status is untouched; previews may run while the session
// sits in any state.
func (s *SessionService) GeneratePreview(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int, duration float64) (string, error) {
	if !media.ValidStrength(strength) {
		return "", domain.ErrInvalidStrength
	}
	if err := schedule.Validate(); err != nil {
		return "", domain.ErrInvalidSchedule.WithError(err)
	}

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	source := s.store.SourcePath(id, sess.SourceExt)
	if !s.store.Exists(source) {
		return "", domain.ErrSourceNotFound
	}

	if err := s.pipe.Preview(ctx, source, s.store.PreviewPath(id), schedule, strength, duration, nil); err != nil {
		_ = s.auditLog.Log(ctx, audit.Event{
			SessionID: id,
			EventType: audit.EventPreviewGenerated,
			Error:     err.Error(),
		})
		return "", err
	}

	s.hub.BroadcastToSession(id, ws.EventPreviewReady, map[string]interface{}{"preview_url": previewURL(id)})

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventPreviewGenerated,
		Success:   true,
		Metadata:  map[string]string{"blur_strength": strconv.Itoa(strength)},
	})

	return previewURL(id), nil
}

// Status returns the session snapshot the status endpoint serves.
func (s *SessionService) Status(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Session: sess}
	if sess.Status == domain.StatusCompleted {
		result.DownloadURL = downloadURL(id)
	}
	if s.store.Exists(s.store.PreviewPath(id)) {
		result.PreviewURL = previewURL(id)
	}

	return result, nil
}

// Download resolves the processed file path and its client-facing name.
func (s *SessionService) Download(ctx context.Context, id uuid.UUID) (string, string, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}

	if sess.Status != domain.StatusCompleted {
		return "", "", domain.ErrOutputNotReady
	}

	path := s.store.OutputPath(id)
	if !s.store.Exists(path) {
		return "", "", domain.ErrOutputNotReady
	}

	return path, "blurred_" + sess.SourceName, nil
}

// PreviewFile resolves the preview path for serving.
func (s *SessionService) PreviewFile(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	path := s.store.PreviewPath(id)
	if !s.store.Exists(path) {
		return "", domain.ErrPreviewNotReady
	}

	return path, nil
}

// Delete purges the session row and its media immediately.
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.discardFiles(id)

	_ = s.auditLog.Log(ctx, audit.Event{
		SessionID: id,
		EventType: audit.EventSessionDeleted,
		Success:   true,
	})

	s.logger.Info("session deleted", "session_id", id)

	return nil
}

// Stats aggregates session counts and storage usage.
func (s *SessionService) Stats(ctx context.Context) (*domain.SessionStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := s.store.Usage()
	if err != nil {
		s.logger.Warn("failed to measure storage usage", "error", err)
	} else {
		stats.StorageBytes = usage
	}

	return stats, nil
}

func (s *SessionService) acquire(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.busy[id]; ok {
		return false
	}
	s.busy[id] = struct{}{}
	return true
}

func (s *SessionService) release(id uuid.UUID) {
	s.mu.Lock()
	delete(s.busy, id)
	s.mu.Unlock()
}
