package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/veilworks/faceveil/internal/codec"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// source wraps a running ffmpeg process decoding to a raw BGR24 pipe.
type source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	width  int
	height int
	logger *slog.Logger
	sawEOF bool
	closed bool
}

// OpenSource probes the file for its dimensions, then starts an ffmpeg
// process decoding it to raw BGR24 frames on stdout.
func (c *Codec) OpenSource(ctx context.Context, path string) (codec.Source, error) {
	desc, err := c.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "rawvideo", "-pix_fmt", "bgr24", "-",
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, domain.ErrOpenSource.WithError(err)
	}
	if err := cmd.Start(); err != nil {
		return nil, domain.ErrOpenSource.WithError(err)
	}

	return &source{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		width:  desc.Width,
		height: desc.Height,
		logger: c.logger,
	}, nil
}

// Next reads one frame from the pipe. A partial trailing frame ends the
// stream the same way a clean EOF does.
func (s *source) Next() (*media.Frame, error) {
	frame := media.NewFrame(s.width, s.height)
	if _, err := io.ReadFull(s.stdout, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) {
			s.sawEOF = true
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn("discarding truncated trailing frame")
			s.sawEOF = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}

// Close releases the decoder process. Decoder exit errors surface only when
// the stream was read to its end; closing early is an abort and ffmpeg is
// expected to die on the broken pipe.
func (s *source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdout.Close()

	if err := s.cmd.Wait(); err != nil && s.sawEOF {
		return fmt.Errorf("ffmpeg decoder: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}
