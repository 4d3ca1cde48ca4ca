package domain

import "math"

// Descriptor holds the static metadata of a video container, derived once at
// open time. FrameCount is what the container reports and may be inaccurate
// for some formats; pipelines read until end-of-stream and only use it for
// progress estimation.
type Descriptor struct {
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"total_frames"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Duration returns the length in seconds, or 0 when the frame rate is unknown.
func (d Descriptor) Duration() float64 {
	if d.FPS <= 0 {
		return 0
	}
	return float64(d.FrameCount) / d.FPS
}

// Info builds the wire representation served to clients.
func (d Descriptor) Info() VideoInfo {
	return VideoInfo{
		FPS:         d.FPS,
		TotalFrames: d.FrameCount,
		Duration:    d.Duration(),
		Width:       d.Width,
		Height:      d.Height,
	}
}

// PreviewSize computes the preview dimensions for a width cap: the width is
// capped, the height scaled to preserve aspect ratio and rounded to the
// nearest pixel.
func (d Descriptor) PreviewSize(maxWidth int) (width, height int) {
	width = min(maxWidth, d.Width)
	if d.Width == 0 {
		return width, 0
	}
	height = int(math.Round(float64(width) * float64(d.Height) / float64(d.Width)))
	return width, height
}

// PreviewFrameLimit returns how many frames a preview of the given duration
// covers, never more than the container reports.
func (d Descriptor) PreviewFrameLimit(seconds float64) int {
	byDuration := int(math.Round(seconds * d.FPS))
	return min(d.FrameCount, byDuration)
}

// VideoInfo is the descriptor as exposed over the API, with the derived
// duration included.
type VideoInfo struct {
	FPS         float64 `json:"fps"`
	TotalFrames int     `json:"total_frames"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}
