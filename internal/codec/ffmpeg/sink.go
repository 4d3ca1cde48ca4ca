package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/veilworks/faceveil/internal/codec"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// sink wraps a running ffmpeg process encoding raw BGR24 frames from stdin.
type sink struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *bytes.Buffer
	width     int
	height    int
	frameSize int
	closed    bool
}

// OpenSink starts an ffmpeg process encoding to an H.264 MP4 at path. The
// scale filter rounds odd dimensions down one pixel since yuv420p requires
// even sizes.
func (c *Codec) OpenSink(ctx context.Context, path string, desc *domain.Descriptor) (codec.Sink, error) {
	if desc == nil || desc.Width <= 0 || desc.Height <= 0 || desc.FPS <= 0 {
		return nil, domain.ErrCreateSink.WithError(fmt.Errorf("invalid descriptor for %s", path))
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", desc.Width, desc.Height),
		"-framerate", strconv.FormatFloat(desc.FPS, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-movflags", "+faststart",
		path,
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, domain.ErrCreateSink.WithError(err)
	}
	if err := cmd.Start(); err != nil {
		return nil, domain.ErrCreateSink.WithError(err)
	}

	return &sink{
		cmd:       cmd,
		stdin:     stdin,
		stderr:    stderr,
		width:     desc.Width,
		height:    desc.Height,
		frameSize: media.FrameSize(desc.Width, desc.Height),
	}, nil
}

var _ codec.Sink = (*sink)(nil)

func (s *sink) Write(frame *media.Frame) error {
	if frame.Width != s.width || frame.Height != s.height {
		return fmt.Errorf("frame is %dx%d, sink expects %dx%d", frame.Width, frame.Height, s.width, s.height)
	}
	if len(frame.Pix) != s.frameSize {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(frame.Pix), s.frameSize)
	}
	// The stderr buffer is still being filled by the child here; Close reads
	// it after Wait, so a failed write only reports the pipe error.
	if _, err := s.stdin.Write(frame.Pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close flushes the pipe and waits for the encoder to finalize the container.
func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()

	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoder: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}
