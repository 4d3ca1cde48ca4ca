package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/veilworks/faceveil/internal/codec/ffmpeg"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/pipeline"
)

func newCodec() *ffmpeg.Codec {
	return ffmpeg.New(ffmpeg.WithLogger(logger))
}

func newEngine(c *ffmpeg.Codec) *pipeline.Engine {
	return pipeline.New(c, pipeline.WithLogger(logger))
}

// newProgressBar renders to stderr so piped stdout stays clean. A non-positive
// total produces a spinner, for containers that do not report a frame count.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}

// progressFunc adapts engine percentages to the bar. The engine reports
// percent of total frames, so map back to a frame count for count mode.
func progressFunc(bar *progressbar.ProgressBar, total int) pipeline.ProgressFunc {
	return func(percent float64) {
		if total > 0 {
			_ = bar.Set(int(percent / 100.0 * float64(total)))
		} else {
			_ = bar.Add(1)
		}
	}
}

func loadSchedule(path string) (domain.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read masks file: %w", err)
	}
	var payload struct {
		FacesByFrame domain.Schedule `json:"faces_by_frame"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse masks file: %w", err)
	}
	if payload.FacesByFrame != nil {
		return payload.FacesByFrame, nil
	}
	// Also accept a bare schedule object
	var schedule domain.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("parse masks file: %w", err)
	}
	return schedule, nil
}

func probeTotal(ctx context.Context, c *ffmpeg.Codec, path string) int {
	desc, err := c.Probe(ctx, path)
	if err != nil {
		return -1
	}
	return desc.FrameCount
}
