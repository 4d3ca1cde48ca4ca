// Package detect defines the face detection contract shared by all backends.
// Backends return margin-expanded pixel regions ready for the blur transform;
// which backend runs is a deployment choice, not a pipeline one.
package detect

import (
	"context"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Margin profiles applied around raw detector boxes. Cloud detectors return
// tight boxes and get the precise margin; the local cascade is coarser and
// gets the wider one.
const (
	MarginPrecise = 0.15
	MarginFast    = 0.20
)

// MinConfidence is the floor below which scored detections are discarded.
// Backends without a native score report 1 and keep everything.
const MinConfidence = 0.5

// RawDetection is a single detector hit in source pixel coordinates, before
// margin expansion. Confidence is normalized to [0, 1].
type RawDetection struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
}

// Detector finds faces on a single frame.
type Detector interface {
	// DetectFaces returns margin-expanded regions clipped to the frame.
	// A failure on one frame is returned as an error; the caller decides
	// whether to recover.
	DetectFaces(ctx context.Context, frame *media.Frame) ([]domain.Region, error)

	// Name identifies the backend in logs and analysis payloads.
	Name() string
}

// Expand filters out low-confidence hits, grows the rest by the margin
// fraction of their size on every side and clamps them to the frame. The
// expanded coordinates are computed in float and truncated to whole pixels
// only at the end, so fractional margins still shift the box.
func Expand(raws []RawDetection, frameWidth, frameHeight int, margin float64) []domain.Region {
	regions := make([]domain.Region, 0, len(raws))
	for _, raw := range raws {
		if raw.Confidence < MinConfidence {
			continue
		}

		x := max(0, int(float64(raw.X)-float64(raw.Width)*margin))
		y := max(0, int(float64(raw.Y)-float64(raw.Height)*margin))
		w := min(frameWidth-x, int(float64(raw.Width)*(1+2*margin)))
		h := min(frameHeight-y, int(float64(raw.Height)*(1+2*margin)))
		if w <= 0 || h <= 0 {
			continue
		}

		regions = append(regions, domain.Region{
			X:          x,
			Y:          y,
			Width:      w,
			Height:     h,
			Confidence: raw.Confidence,
		})
	}
	return regions
}
