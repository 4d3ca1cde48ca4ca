// Package ffmpeg implements codec access by shelling out to the ffmpeg and
// ffprobe binaries. Decoding and encoding run over raw BGR24 pipes so no cgo
// bindings are needed.
package ffmpeg

import (
	"log/slog"

	"github.com/veilworks/faceveil/internal/codec"
)

// Codec locates the ffmpeg and ffprobe binaries and opens sessions on them.
type Codec struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

var _ codec.Codec = (*Codec)(nil)

// Option configures the codec.
type Option func(*Codec)

// WithFFmpegPath overrides the ffmpeg binary location.
func WithFFmpegPath(path string) Option {
	return func(c *Codec) { c.ffmpegPath = path }
}

// WithFFprobePath overrides the ffprobe binary location.
func WithFFprobePath(path string) Option {
	return func(c *Codec) { c.ffprobePath = path }
}

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) { c.logger = logger }
}

// New builds a Codec. Binaries default to whatever PATH resolves.
func New(opts ...Option) *Codec {
	c := &Codec{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
