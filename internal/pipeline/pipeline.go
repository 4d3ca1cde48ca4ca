// Package pipeline drives the sequential frame loops behind face analysis,
// preview generation and the final render. One invocation owns one decode
// session and scans frames strictly in order; running invocations
// concurrently on separate outputs is the caller's business.
package pipeline

import (
	"log/slog"

	"github.com/veilworks/faceveil/internal/codec"
)

// DefaultPreviewMaxWidth caps preview frames at 640 pixels wide unless an
// option overrides it.
const DefaultPreviewMaxWidth = 640

// ProgressFunc receives completion percentages in [0,100]. Callbacks run on
// the loop goroutine and must not block.
type ProgressFunc func(percent float64)

// Engine runs the pipelines on top of a codec.
type Engine struct {
	codec           codec.Codec
	logger          *slog.Logger
	previewMaxWidth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by pipeline runs.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPreviewMaxWidth overrides the preview width cap.
func WithPreviewMaxWidth(width int) Option {
	return func(e *Engine) {
		e.previewMaxWidth = width
	}
}

// New creates an Engine reading and writing video through c.
func New(c codec.Codec, opts ...Option) *Engine {
	e := &Engine{
		codec:           c,
		logger:          slog.Default(),
		previewMaxWidth: DefaultPreviewMaxWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// reportProgress emits the completion percentage after frame index has been
// handled, every tenth frame. Totals come from container metadata and may
// undershoot the real stream, so values are clamped. An unknown total
// suppresses per-frame reports entirely; callers still get the final 100.
func reportProgress(onProgress ProgressFunc, index, total int) {
	if onProgress == nil || index%10 != 0 || total <= 0 {
		return
	}
	percent := float64(index+1) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	onProgress(percent)
}
