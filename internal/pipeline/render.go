package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Render decodes the video at sourcePath, blurs every scheduled region and
// encodes the result to outputPath at the source resolution and frame rate.
// An empty schedule degrades to a plain transcode. The stream is read until
// end-of-stream; the probed frame count only drives progress estimation, so
// the output holds exactly as many frames as the source actually yielded.
// A mid-stream read or write failure is fatal and leaves any partial output
// in place.
func (e *Engine) Render(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, onProgress ProgressFunc) error {
	if !media.ValidStrength(strength) {
		return domain.ErrInvalidStrength
	}

	desc, err := e.codec.Probe(ctx, sourcePath)
	if err != nil {
		return err
	}

	src, err := e.codec.OpenSource(ctx, sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	snk, err := e.codec.OpenSink(ctx, outputPath, desc)
	if err != nil {
		return err
	}
	defer snk.Close()

	e.logger.Info("processing video",
		"source", sourcePath,
		"output", outputPath,
		"blur_strength", strength,
		"total_frames", desc.FrameCount)

	written := 0
	for i := 0; ; i++ {
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
		if err := snk.Write(out); err != nil {
			return domain.ErrProcessing.WithError(fmt.Errorf("frame %d: %w", i, err))
		}
		written++

		reportProgress(onProgress, i, desc.FrameCount)
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
	e.logger.Info("video processing complete", "output", outputPath, "frames", written)
	return nil
}
