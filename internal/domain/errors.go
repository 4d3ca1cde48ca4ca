package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy carrying a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing admin token",
		StatusCode: 401,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Video session not found",
		StatusCode: 404,
	}

	ErrSourceNotFound = &AppError{
		Code:       "SOURCE_NOT_FOUND",
		Message:    "Source video file not found",
		StatusCode: 404,
	}

	ErrOutputNotReady = &AppError{
		Code:       "OUTPUT_NOT_READY",
		Message:    "Processed video not available yet",
		StatusCode: 404,
	}

	ErrPreviewNotReady = &AppError{
		Code:       "PREVIEW_NOT_READY",
		Message:    "Preview not available yet",
		StatusCode: 404,
	}

	ErrNotVideo = &AppError{
		Code:       "NOT_A_VIDEO",
		Message:    "File must be a video",
		StatusCode: 400,
	}

	ErrUnsupportedMedia = &AppError{
		Code:       "UNSUPPORTED_MEDIA",
		Message:    "Container could not be parsed by the codec",
		StatusCode: 422,
	}

	ErrOpenSource = &AppError{
		Code:       "SOURCE_OPEN_FAILED",
		Message:    "Could not open source video for reading",
		StatusCode: 500,
	}

	ErrCreateSink = &AppError{
		Code:       "SINK_CREATE_FAILED",
		Message:    "Could not create output video for writing",
		StatusCode: 500,
	}

	ErrDetection = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    "Face detection failed",
		StatusCode: 500,
	}

	ErrProcessing = &AppError{
		Code:       "PROCESSING_FAILED",
		Message:    "Video processing failed",
		StatusCode: 500,
	}

	ErrAnalysisNotReady = &AppError{
		Code:       "ANALYSIS_NOT_READY",
		Message:    "Analysis has not completed for this session",
		StatusCode: 409,
	}

	ErrSessionBusy = &AppError{
		Code:       "SESSION_BUSY",
		Message:    "Another operation is already running for this session",
		StatusCode: 409,
	}

	ErrInvalidStrength = &AppError{
		Code:       "INVALID_BLUR_STRENGTH",
		Message:    "Blur strength must be between 1 and 50",
		StatusCode: 422,
	}

	ErrInvalidSchedule = &AppError{
		Code:       "INVALID_SCHEDULE",
		Message:    "Mask schedule is malformed",
		StatusCode: 422,
	}

	ErrInvalidTransition = &AppError{
		Code:       "INVALID_STATUS_TRANSITION",
		Message:    "Session status transition not allowed",
		StatusCode: 409,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}
)
