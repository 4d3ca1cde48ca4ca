// Package pigo implements local face detection with the Pigo cascade
// classifier. It needs no external service, only an unpacked cascade file,
// which makes it the default backend for offline use.
package pigo

import (
	"context"
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Margin is the expansion profile for this backend. Cascade boxes hug the
// face tightly, so the wider margin compensates.
const Margin = detect.MarginFast

const (
	minFaceSize  = 20
	shiftFactor  = 0.1
	scaleFactor  = 1.1
	iouThreshold = 0.2

	// qualityThreshold is the conventional cascade score cutoff. The
	// cascade is a binary detector, so hits that clear it are reported
	// with confidence 1 and nothing else is filtered downstream.
	qualityThreshold = 5.0
)

// Detector runs the Pigo classifier over grayscale frames.
type Detector struct {
	classifier *pigo.Pigo
}

var _ detect.Detector = (*Detector)(nil)

// New loads and unpacks the binary cascade at path.
func New(cascadePath string) (*Detector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade %s: %w", cascadePath, err)
	}
	return &Detector{classifier: classifier}, nil
}

func (d *Detector) Name() string { return "pigo" }

// DetectFaces runs the cascade over the frame. Detections are thresholded
// on the cascade quality score only; survivors carry confidence 1.
func (d *Detector) DetectFaces(ctx context.Context, frame *media.Frame) ([]domain.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	maxSize := frame.Width
	if frame.Height < maxSize {
		maxSize = frame.Height
	}

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: media.Grayscale(frame),
			Rows:   frame.Height,
			Cols:   frame.Width,
			Dim:    frame.Width,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, iouThreshold)

	raws := rawDetections(dets)
	return detect.Expand(raws, frame.Width, frame.Height, Margin), nil
}

// rawDetections keeps hits that clear the quality threshold and centers
// their square boxes on the detection point.
func rawDetections(dets []pigo.Detection) []detect.RawDetection {
	raws := make([]detect.RawDetection, 0, len(dets))
	for _, det := range dets {
		if float64(det.Q) < qualityThreshold {
			continue
		}
		raws = append(raws, detect.RawDetection{
			X:          det.Col - det.Scale/2,
			Y:          det.Row - det.Scale/2,
			Width:      det.Scale,
			Height:     det.Scale,
			Confidence: 1,
		})
	}
	return raws
}
