package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/service"
)

var validate = validator.New()

// SessionService interface for the service
type SessionService interface {
	Upload(ctx context.Context, filename, contentType string, file io.Reader) (*domain.Session, error)
	StartAnalysis(ctx context.Context, id uuid.UUID) error
	Analysis(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GeneratePreview(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int, duration float64) (string, error)
	StartRender(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int, callbackURL string) error
	Status(ctx context.Context, id uuid.UUID) (*service.StatusResult, error)
	Download(ctx context.Context, id uuid.UUID) (path, filename string, err error)
	PreviewFile(ctx context.Context, id uuid.UUID) (string, error)
}

// SessionHandler handles the upload → analyze → preview → render routes.
type SessionHandler struct {
	service SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(service SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

// UploadResponse response for the upload endpoint
type UploadResponse struct {
	SessionID string           `json:"session_id"`
	VideoInfo domain.VideoInfo `json:"video_info"`
}

// AnalysisResponse response for the analysis endpoint
type AnalysisResponse struct {
	VideoInfo    domain.VideoInfo `json:"video_info"`
	FacesByFrame domain.Schedule  `json:"faces_by_frame"`
}

// PreviewRequest body for the preview endpoint
type PreviewRequest struct {
	Masks           domain.Schedule `json:"masks"`
	BlurStrength    int             `json:"blur_strength" validate:"min=1,max=50"`
	PreviewDuration float64         `json:"preview_duration" validate:"min=5,max=30"`
}

// PreviewResponse response for the preview endpoint
type PreviewResponse struct {
	Status     string `json:"status"`
	PreviewURL string `json:"preview_url"`
}

// ProcessRequest body for the process endpoint
type ProcessRequest struct {
	Masks        domain.Schedule `json:"masks"`
	BlurStrength int             `json:"blur_strength" validate:"min=1,max=50"`
	CallbackURL  string          `json:"callback_url" validate:"omitempty,url"`
}

// AcceptedResponse response for endpoints that start background work
type AcceptedResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// StatusResponse response for the status endpoint
type StatusResponse struct {
	SessionID   string  `json:"session_id"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"`
	Message     string  `json:"message"`
	DownloadURL string  `json:"download_url,omitempty"`
	PreviewURL  string  `json:"preview_url,omitempty"`
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrSessionNotFound
	}
	return id, nil
}

// Upload POST /api/upload - store a video and create its session
func (h *SessionHandler) Upload(c *fiber.Ctx) error {
	// 1. Extract the multipart file
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("missing file field: %w", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("open upload: %w", err))
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	// 2. Create the session (the service checks the content type and
	// probes the container)
	sess, err := h.service.Upload(c.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}

	// 3. Return the session id and probed descriptor
	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		SessionID: sess.ID.String(),
		VideoInfo: sess.Descriptor.Info(),
	})
}

// Analyze POST /api/sessions/:id/analyze - start face detection in the background
func (h *SessionHandler) Analyze(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.service.StartAnalysis(c.Context(), id); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{
		SessionID: id.String(),
		Status:    string(domain.StatusAnalyzing),
		Message:   "Analysis started",
	})
}

// Analysis GET /api/sessions/:id/analysis - fetch detected faces by frame
func (h *SessionHandler) Analysis(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	sess, err := h.service.Analysis(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(AnalysisResponse{
		VideoInfo:    sess.Descriptor.Info(),
		FacesByFrame: sess.Schedule,
	})
}

// Preview POST /api/sessions/:id/preview - render a bounded low-res preview
func (h *SessionHandler) Preview(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	// 1. Parse and validate the request
	req := PreviewRequest{PreviewDuration: 10}
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrInvalidSchedule.WithError(err)
	}
	if err := validate.Struct(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	// 2. Render synchronously; previews are short by construction
	previewURL, err := h.service.GeneratePreview(c.Context(), id, req.Masks, req.BlurStrength, req.PreviewDuration)
	if err != nil {
		return err
	}

	return c.JSON(PreviewResponse{
		Status:     "preview_created",
		PreviewURL: previewURL,
	})
}

// Process POST /api/sessions/:id/process - start the full render in the background
func (h *SessionHandler) Process(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	// 1. Parse and validate the request
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrInvalidSchedule.WithError(err)
	}
	if err := validate.Struct(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	// 2. Kick off the render
	if err := h.service.StartRender(c.Context(), id, req.Masks, req.BlurStrength, req.CallbackURL); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{
		SessionID: id.String(),
		Status:    string(domain.StatusProcessing),
		Message:   "Processing started",
	})
}

// Status GET /api/sessions/:id/status - progress snapshot
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Status(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(StatusResponse{
		SessionID:   result.Session.ID.String(),
		Status:      string(result.Session.Status),
		Progress:    result.Session.Progress,
		Message:     result.Session.Message,
		DownloadURL: result.DownloadURL,
		PreviewURL:  result.PreviewURL,
	})
}

// Download GET /api/sessions/:id/download - serve the processed video
func (h *SessionHandler) Download(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	path, filename, err := h.service.Download(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Download(path, filename)
}

// PreviewFile GET /api/sessions/:id/preview-file - serve the preview clip
func (h *SessionHandler) PreviewFile(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	path, err := h.service.PreviewFile(c.Context(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}
