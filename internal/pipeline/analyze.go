package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
)

// Analyze scans every frame of the video at sourcePath through the detector
// and returns the descriptor together with the sparse schedule of proposed
// blur regions. A detector failure on an individual frame is logged and
// recorded as zero detections for that frame; it never aborts the scan.
func (e *Engine) Analyze(ctx context.Context, detector detect.Detector, sourcePath string, onProgress ProgressFunc) (*domain.Descriptor, domain.Schedule, error) {
	desc, err := e.codec.Probe(ctx, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	src, err := e.codec.OpenSource(ctx, sourcePath)
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	e.logger.Info("analyzing video",
		"source", sourcePath,
		"detector", detector.Name(),
		"width", desc.Width,
		"height", desc.Height,
		"fps", desc.FPS,
		"total_frames", desc.FrameCount)

	schedule := make(domain.Schedule)
	scanned := 0
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, domain.ErrProcessing.WithError(err)
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, domain.ErrProcessing.WithError(fmt.Errorf("frame %d: %w", i, err))
		}
		scanned++

		regions, err := detector.DetectFaces(ctx, frame)
		if err != nil {
			err = domain.ErrDetection.WithError(fmt.Errorf("frame %d: %w", i, err))
			e.logger.Warn("face detection failed, treating frame as empty", "frame", i, "error", err)
			regions = nil
		}
		if len(regions) > 0 {
			schedule[i] = regions
		}

		if i%100 == 0 {
			e.logger.Info("analysis progress", "frame", i, "total_frames", desc.FrameCount, "faces", len(regions))
		}
		reportProgress(onProgress, i, desc.FrameCount)
	}

	if err := src.Close(); err != nil {
		return nil, nil, domain.ErrProcessing.WithError(err)
	}

	if onProgress != nil {
		onProgress(100)
	}
	e.logger.Info("analysis complete",
		"source", sourcePath,
		"frames_scanned", scanned,
		"frames_with_faces", len(schedule))
	return desc, schedule, nil
}
