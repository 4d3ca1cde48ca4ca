package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// VideoInfoData describes the probed container metadata
type VideoInfoData struct {
	FPS         float64 `json:"fps" example:"30"`
	TotalFrames int     `json:"total_frames" example:"300"`
	Duration    float64 `json:"duration" example:"10"`
	Width       int     `json:"width" example:"1920"`
	Height      int     `json:"height" example:"1080"`
}

// UploadVideoResponse represents the response for a successful upload
type UploadVideoResponse struct {
	SessionID string        `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	VideoInfo VideoInfoData `json:"video_info"`
}

// RegionData is one rectangular blur region in source pixel coordinates
type RegionData struct {
	X          int     `json:"x" example:"40"`
	Y          int     `json:"y" example:"40"`
	Width      int     `json:"width" example:"20"`
	Height     int     `json:"height" example:"20"`
	Confidence float64 `json:"confidence" example:"0.98"`
}

// AnalysisResultResponse represents detected faces keyed by frame index
type AnalysisResultResponse struct {
	VideoInfo    VideoInfoData           `json:"video_info"`
	FacesByFrame map[string][]RegionData `json:"faces_by_frame"`
}

// PreviewVideoRequest represents the preview request body
type PreviewVideoRequest struct {
	Masks           map[string][]RegionData `json:"masks"`
	BlurStrength    int                     `json:"blur_strength" example:"15"`
	PreviewDuration float64                 `json:"preview_duration" example:"10"`
}

// PreviewVideoResponse represents the preview response
type PreviewVideoResponse struct {
	Status     string `json:"status" example:"preview_created"`
	PreviewURL string `json:"preview_url" example:"/api/sessions/550e8400-e29b-41d4-a716-446655440000/preview-file"`
}

// ProcessVideoRequest represents the render request body
type ProcessVideoRequest struct {
	Masks        map[string][]RegionData `json:"masks"`
	BlurStrength int                     `json:"blur_strength" example:"15"`
	CallbackURL  string                  `json:"callback_url,omitempty" example:"https://example.com/hooks/faceveil"`
}

// AcceptedTaskResponse represents a background task acknowledgement
type AcceptedTaskResponse struct {
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    string `json:"status" example:"processing"`
	Message   string `json:"message" example:"Processing started"`
}

// SessionStatusResponse represents the status snapshot
type SessionStatusResponse struct {
	SessionID   string  `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status      string  `json:"status" example:"processing"`
	Progress    float64 `json:"progress" example:"75.5"`
	Message     string  `json:"message" example:"Processing... 51.0%"`
	DownloadURL string  `json:"download_url,omitempty" example:"/api/sessions/550e8400-e29b-41d4-a716-446655440000/download"`
	PreviewURL  string  `json:"preview_url,omitempty" example:"/api/sessions/550e8400-e29b-41d4-a716-446655440000/preview-file"`
}

// SessionStatsResponse represents the admin stats payload
type SessionStatsResponse struct {
	TotalSessions        int            `json:"total_sessions" example:"12"`
	ByStatus             map[string]int `json:"by_status"`
	CompletedRenders     int            `json:"completed_renders" example:"8"`
	AverageRenderSeconds float64        `json:"average_render_seconds" example:"42.5"`
	StorageBytes         int64          `json:"storage_bytes" example:"1048576"`
}

// DeleteSessionResponse represents the purge acknowledgement
type DeleteSessionResponse struct {
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    string `json:"status" example:"deleted"`
}

// HealthCheckResponse represents health endpoint output
type HealthCheckResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"SESSION_NOT_FOUND"`
	Message string `json:"message" example:"Video session not found"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "FaceVeil Video Anonymization API",
		Version:     "v1.0.0",
		Description: "Upload a video, detect faces, edit blur masks, preview and render an anonymized output.",
		Host:        "localhost:3000",
		Path:        "/api",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /api/upload - Upload video
		endpoint.New(
			endpoint.POST,
			"/upload",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Upload a video"),
			endpoint.WithDescription("Stores the uploaded video, probes its container metadata and creates a processing session."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UploadVideoResponse{}, "201", "Session created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_A_VIDEO", Message: "File must be a video"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "UNSUPPORTED_MEDIA", Message: "Container could not be parsed by the codec"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			}),
		),

		// POST /api/sessions/:id/analyze - Start analysis
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/analyze",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Start face analysis"),
			endpoint.WithDescription("Scans every frame with the configured face detector in the background. Poll the status endpoint or subscribe to the websocket for progress."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AcceptedTaskResponse{}, "202", "Analysis started"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "SESSION_BUSY", Message: "Another operation is already running for this session"}, "409", "Conflict"),
			}),
		),

		// GET /api/sessions/:id/analysis - Analysis result
		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/analysis",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Get detected faces"),
			endpoint.WithDescription("Returns the detected regions keyed by stringified frame index. Clients may edit this schedule before preview or render."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalysisResultResponse{}, "200", "Analysis result"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "ANALYSIS_NOT_READY", Message: "Analysis has not completed for this session"}, "409", "Conflict"),
			}),
		),

		// POST /api/sessions/:id/preview - Generate preview
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/preview",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Generate a preview clip"),
			endpoint.WithDescription("Synchronously renders the first preview_duration seconds at reduced resolution with the given masks applied."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PreviewVideoResponse{}, "200", "Preview created"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		// POST /api/sessions/:id/process - Start render
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/process",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Render the anonymized video"),
			endpoint.WithDescription("Starts the full-resolution render in the background. When callback_url is set, a signed webhook is posted on completion or failure."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AcceptedTaskResponse{}, "202", "Processing started"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "SESSION_BUSY", Message: "Another operation is already running for this session"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			}),
		),

		// GET /api/sessions/:id/status - Status snapshot
		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/status",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Get session status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStatusResponse{}, "200", "Status snapshot"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
			}),
		),

		// GET /api/sessions/:id/download - Download render
		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/download",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Download the processed video"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("video/mp4")}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "200", "Processed video file"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "OUTPUT_NOT_READY", Message: "Processed video not available yet"}, "404", "Not Found"),
			}),
		),

		// GET /api/sessions/:id/preview-file - Download preview
		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/preview-file",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Download the preview clip"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("video/mp4")}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "200", "Preview video file"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "PREVIEW_NOT_READY", Message: "Preview not available yet"}, "404", "Not Found"),
			}),
		),

		// DELETE /api/sessions/:id - Purge session (admin)
		endpoint.New(
			endpoint.DELETE,
			"/sessions/{id}",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Delete a session immediately"),
			endpoint.WithDescription("Removes the session row and every media file belonging to it, without waiting for the retention sweep. Requires the admin bearer token."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeleteSessionResponse{}, "200", "Session deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing admin token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Video session not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// GET /api/stats - Aggregate stats (admin)
		endpoint.New(
			endpoint.GET,
			"/stats",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Aggregate session statistics"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStatsResponse{}, "200", "Statistics"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing admin token"}, "401", "Unauthorized"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
