package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Preview renders a short, reduced-resolution clip from the head of the
// video: at most duration seconds of frames, downscaled to the preview width
// cap. Schedule coordinates are in source resolution, so every frame is
// blurred at full size first and resized after.
func (e *Engine) Preview(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, duration float64, onProgress ProgressFunc) error {
	if !media.ValidStrength(strength) {
		return domain.ErrInvalidStrength
	}

	desc, err := e.codec.Probe(ctx, sourcePath)
	if err != nil {
		return err
	}
	limit := desc.PreviewFrameLimit(duration)
	width, height := desc.PreviewSize(e.previewMaxWidth)

	src, err := e.codec.OpenSource(ctx, sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	snk, err := e.codec.OpenSink(ctx, outputPath, &domain.Descriptor{
		FPS:        desc.FPS,
		FrameCount: limit,
		Width:      width,
		Height:     height,
	})
	if err != nil {
		return err
	}
	defer snk.Close()

	e.logger.Info("generating preview",
		"source", sourcePath,
		"output", outputPath,
		"frames", limit,
		"width", width,
		"height", height)

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return domain.ErrProcessing.WithError(err)
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ErrProcessing.WithError(fmt.Errorf("frame %d: %w", i, err))
		}

		out := frame
		if regions := schedule.Regions(i); len(regions) > 0 {
			out, err = media.BlurRegions(frame, regions, strength)
			if err != nil {
				return err
			}
		}
		if err := snk.Write(media.Resize(out, width, height)); err != nil {
			return domain.ErrProcessing.WithError(fmt.Errorf("frame %d: %w", i, err))
		}

		reportProgress(onProgress, i, limit)
	}

	if err := src.Close(); err != nil {
		return domain.ErrProcessing.WithError(err)
	}
	if err := snk.Close(); err != nil {
		return domain.ErrProcessing.WithError(err)
	}

	if onProgress != nil {
		onProgress(100)
	}
	e.logger.Info("preview generated", "output", outputPath)
	return nil
}
