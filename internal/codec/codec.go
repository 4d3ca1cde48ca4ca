// Package codec abstracts video container access behind Probe, Source and
// Sink so pipelines never talk to a decoder directly. The ffmpeg subpackage
// is the production implementation; the memory subpackage backs tests.
package codec

import (
	"context"

	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Source yields decoded frames in presentation order. Next returns io.EOF
// once the stream ends; container frame counts are advisory and a stream may
// end earlier or later than the probed count.
type Source interface {
	Next() (*media.Frame, error)
	Close() error
}

// Sink consumes frames and finalizes the container on Close. Frames must all
// match the dimensions the sink was opened with.
type Sink interface {
	Write(*media.Frame) error
	Close() error
}

// Codec probes containers and opens decode and encode sessions.
type Codec interface {
	// Probe extracts the stream descriptor without decoding frames.
	Probe(ctx context.Context, path string) (*domain.Descriptor, error)

	// OpenSource starts a decode session for the file at path.
	OpenSource(ctx context.Context, path string) (Source, error)

	// OpenSink starts an encode session writing to path with the given
	// dimensions and frame rate.
	OpenSink(ctx context.Context, path string, desc *domain.Descriptor) (Sink, error)
}
