// Package rekognition implements face detection on the AWS Rekognition
// DetectFaces API. Frames are JPEG-encoded per call; Rekognition reports
// bounding boxes as ratios of the image dimensions and confidence on a
// 0-100 scale, both of which are normalized here.
package rekognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Margin is the expansion profile for this backend.
const Margin = detect.MarginPrecise

const (
	// Rekognition accepts images between 100 bytes and 5MB.
	minImageSize = 100
	maxImageSize = 5 * 1024 * 1024

	jpegQuality = 90

	errCodeAccessDenied     = "AccessDeniedException"
	errCodeThrottling       = "ThrottlingException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeImageTooLarge    = "ImageTooLargeException"
	errCodeProvisionedLimit = "ProvisionedThroughputExceededException"
)

var (
	ErrInvalidImage       = errors.New("invalid image for rekognition")
	ErrInvalidCredentials = errors.New("invalid AWS credentials")
	ErrThrottled          = errors.New("rekognition throttled the request")
)

// API is the slice of the Rekognition client the detector calls.
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Detector sends JPEG-encoded frames to Rekognition.
type Detector struct {
	client API
	logger *slog.Logger
}

var _ detect.Detector = (*Detector)(nil)

// Option defines optional configuration for Detector.
type Option func(*Detector)

// WithLogger sets the logger for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// New wraps an existing Rekognition API client.
func New(client API, opts ...Option) *Detector {
	d := &Detector{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromRegion builds a client with the AWS default credential chain.
func NewFromRegion(ctx context.Context, region string, opts ...Option) (*Detector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return New(rekognition.NewFromConfig(awsCfg), opts...), nil
}

func (d *Detector) Name() string { return "rekognition" }

// DetectFaces encodes the frame to JPEG and asks Rekognition for face boxes.
// Ratio boxes are mapped onto pixel coordinates of the frame that was sent.
func (d *Detector) DetectFaces(ctx context.Context, frame *media.Frame) ([]domain.Region, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	image, err := media.EncodeJPEG(frame, jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := validateImage(image); err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := d.client.DetectFaces(ctx, input)
	if err != nil {
		return nil, classifyError(err)
	}

	raws := make([]detect.RawDetection, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		confidence := 1.0
		if detail.Confidence != nil {
			confidence = float64(*detail.Confidence) / 100
		}
		raws = append(raws, detect.RawDetection{
			X:          int(float64(aws.ToFloat32(detail.BoundingBox.Left)) * float64(frame.Width)),
			Y:          int(float64(aws.ToFloat32(detail.BoundingBox.Top)) * float64(frame.Height)),
			Width:      int(float64(aws.ToFloat32(detail.BoundingBox.Width)) * float64(frame.Width)),
			Height:     int(float64(aws.ToFloat32(detail.BoundingBox.Height)) * float64(frame.Height)),
			Confidence: confidence,
		})
	}

	d.logger.Debug("rekognition detect faces",
		"raw_detections", len(raws),
		"image_bytes", len(image))

	return detect.Expand(raws, frame.Width, frame.Height, Margin), nil
}

// validateImage checks the encoded frame against Rekognition's size limits.
func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// classifyError maps AWS API errors onto package sentinels where the caller
// can act on them.
func classifyError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied:
			return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		case errCodeThrottling, errCodeProvisionedLimit:
			return fmt.Errorf("detect faces: %w", ErrThrottled)
		case errCodeInvalidImage, errCodeImageTooLarge:
			return fmt.Errorf("detect faces: %w: %s", ErrInvalidImage, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("detect faces: %w", err)
}
