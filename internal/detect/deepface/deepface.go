// Package deepface implements face detection against a DeepFace REST
// service. DeepFace reports pixel boxes but no confidence, so confidence is
// estimated from the face area.
package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Margin is the expansion profile for this backend.
const Margin = detect.MarginPrecise

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection.
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling.
	maxFaceArea = 250000 // 500x500 pixels

	jpegQuality = 90
)

// Detector sends frames to a DeepFace /analyze endpoint.
type Detector struct {
	client *Client
}

var _ detect.Detector = (*Detector)(nil)

// New creates a DeepFace-backed detector.
func New(config Config) *Detector {
	return &Detector{client: NewClient(config)}
}

func (d *Detector) Name() string { return "deepface" }

// DetectFaces encodes the frame to JPEG and asks DeepFace for face regions.
func (d *Detector) DetectFaces(ctx context.Context, frame *media.Frame) ([]domain.Region, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	image, err := media.EncodeJPEG(frame, jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp, err := d.client.Analyze(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	raws := make([]detect.RawDetection, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := float64(result.Region.W * result.Region.H)
		raws = append(raws, detect.RawDetection{
			X:          result.Region.X,
			Y:          result.Region.Y,
			Width:      result.Region.W,
			Height:     result.Region.H,
			Confidence: calculateConfidence(area),
		})
	}
	return detect.Expand(raws, frame.Width, frame.Height, Margin), nil
}

// calculateConfidence estimates confidence from the face area, since
// DeepFace does not score detections. Larger faces are more likely to be
// accurate, scaling from 0.7 to 0.99; very small faces sit at 0.5.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
