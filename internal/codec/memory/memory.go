// Package memory implements an in-memory codec so pipelines can run in tests
// without a real decoder. Registered clips play back their frames regardless
// of what the descriptor claims, mirroring containers with wrong metadata.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/veilworks/faceveil/internal/codec"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Video is a registered in-memory clip. Desc.FrameCount does not have to
// match len(Frames); sources always play the frames they actually hold.
type Video struct {
	Desc   domain.Descriptor
	Frames []*media.Frame

	// FailAfter makes a source error after yielding this many frames
	// when set above zero.
	FailAfter int
}

// Codec serves registered videos and captures everything written to sinks.
type Codec struct {
	mu       sync.Mutex
	videos   map[string]*Video
	sinks    map[string]*Sink
	sinkFail map[string]int
}

var _ codec.Codec = (*Codec)(nil)

func New() *Codec {
	return &Codec{
		videos:   make(map[string]*Video),
		sinks:    make(map[string]*Sink),
		sinkFail: make(map[string]int),
	}
}

// Register makes a clip available at path.
func (c *Codec) Register(path string, video *Video) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos[path] = video
}

// FailSinkAfter makes the next sink opened at path error after n writes.
func (c *Codec) FailSinkAfter(path string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinkFail[path] = n
}

// Sink returns the sink most recently opened at path.
func (c *Codec) Sink(path string) (*Sink, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sinks[path]
	return s, ok
}

func (c *Codec) Probe(ctx context.Context, path string) (*domain.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.videos[path]
	if !ok {
		return nil, domain.ErrSourceNotFound.WithError(fmt.Errorf("%s is not registered", path))
	}
	desc := v.Desc
	return &desc, nil
}

func (c *Codec) OpenSource(ctx context.Context, path string) (codec.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.videos[path]
	if !ok {
		return nil, domain.ErrSourceNotFound.WithError(fmt.Errorf("%s is not registered", path))
	}
	return &Source{video: v}, nil
}

func (c *Codec) OpenSink(ctx context.Context, path string, desc *domain.Descriptor) (codec.Sink, error) {
	if desc == nil || desc.Width <= 0 || desc.Height <= 0 {
		return nil, domain.ErrCreateSink.WithError(fmt.Errorf("invalid descriptor for %s", path))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Sink{Desc: *desc, failAfter: c.sinkFail[path]}
	delete(c.sinkFail, path)
	c.sinks[path] = s
	return s, nil
}

// Source iterates a registered clip, cloning each frame so callers can never
// corrupt the registry.
type Source struct {
	video  *Video
	next   int
	closed bool
}

func (s *Source) Next() (*media.Frame, error) {
	if s.closed {
		return nil, fmt.Errorf("source is closed")
	}
	if s.video.FailAfter > 0 && s.next >= s.video.FailAfter {
		return nil, fmt.Errorf("simulated decode failure at frame %d", s.next)
	}
	if s.next >= len(s.video.Frames) {
		return nil, io.EOF
	}
	frame := s.video.Frames[s.next].Clone()
	s.next++
	return frame, nil
}

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Sink captures written frames for assertions.
type Sink struct {
	Desc domain.Descriptor

	mu        sync.Mutex
	frames    []*media.Frame
	closed    bool
	failAfter int
}

func (s *Sink) Write(frame *media.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	if frame.Width != s.Desc.Width || frame.Height != s.Desc.Height {
		return fmt.Errorf("frame is %dx%d, sink expects %dx%d", frame.Width, frame.Height, s.Desc.Width, s.Desc.Height)
	}
	if s.failAfter > 0 && len(s.frames) >= s.failAfter {
		return fmt.Errorf("simulated encode failure at frame %d", len(s.frames))
	}
	s.frames = append(s.frames, frame.Clone())
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frames returns the frames written so far.
func (s *Sink) Frames() []*media.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*media.Frame(nil), s.frames...)
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
