package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/veilworks/faceveil/internal/domain"
)

// probeOutput mirrors the fields of ffprobe's JSON printer that matter here.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	NbFrames      string `json:"nb_frames"`
	NbReadPackets string `json:"nb_read_packets"`
	Duration      string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe reads the stream descriptor with ffprobe. The frame count comes from
// container metadata when present, from a packet count otherwise, and is
// derived from duration as a last resort. Callers must treat it as advisory;
// the decoded stream is authoritative.
func (c *Codec) Probe(ctx context.Context, path string) (*domain.Descriptor, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSourceNotFound.WithError(err)
		}
		return nil, domain.ErrOpenSource.WithError(err)
	}

	parsed, err := c.runProbe(ctx, path,
		"stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,duration:format=duration")
	if err != nil {
		return nil, domain.ErrOpenSource.WithError(err)
	}
	if len(parsed.Streams) == 0 {
		return nil, domain.ErrUnsupportedMedia.WithError(fmt.Errorf("no video stream in %s", path))
	}

	stream := parsed.Streams[0]
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, domain.ErrUnsupportedMedia.WithError(fmt.Errorf("stream reports %dx%d", stream.Width, stream.Height))
	}
	fps := parseRate(stream.RFrameRate)
	if fps <= 0 {
		fps = parseRate(stream.AvgFrameRate)
	}
	if fps <= 0 {
		return nil, domain.ErrUnsupportedMedia.WithError(fmt.Errorf("stream reports no frame rate"))
	}

	return &domain.Descriptor{
		FPS:        fps,
		FrameCount: c.frameCount(ctx, path, stream, parsed.Format, fps),
		Width:      stream.Width,
		Height:     stream.Height,
	}, nil
}

// frameCount resolves the advisory frame count for a probed stream.
func (c *Codec) frameCount(ctx context.Context, path string, stream probeStream, format probeFormat, fps float64) int {
	if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
		return n
	}

	// Metadata was missing, count packets. Slower but exact for most files.
	if parsed, err := c.runProbe(ctx, path, "stream=nb_read_packets", "-count_packets"); err == nil && len(parsed.Streams) > 0 {
		if n, err := strconv.Atoi(parsed.Streams[0].NbReadPackets); err == nil && n > 0 {
			return n
		}
	}

	duration := parseSeconds(stream.Duration)
	if duration <= 0 {
		duration = parseSeconds(format.Duration)
	}
	if duration > 0 {
		return int(math.Round(duration * fps))
	}

	c.logger.Warn("could not determine frame count", "path", path)
	return 0
}

func (c *Codec) runProbe(ctx context.Context, path, entries string, extra ...string) (*probeOutput, error) {
	args := []string{"-v", "error", "-select_streams", "v:0"}
	args = append(args, extra...)
	args = append(args, "-show_entries", entries, "-of", "json", path)

	out, err := exec.CommandContext(ctx, c.ffprobePath, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &parsed, nil
}

// parseRate parses the rational rates ffprobe reports, such as "30000/1001".
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		v, _ := strconv.ParseFloat(rate, 64)
		return v
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
