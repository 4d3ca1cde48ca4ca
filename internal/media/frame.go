package media

import "fmt"

// bytesPerPixel is the size of one packed BGR24 pixel.
const bytesPerPixel = 3

// Frame is a single decoded video frame in packed BGR24 layout, the byte
// order ffmpeg emits for -pix_fmt bgr24. Pix holds Height rows of Width
// pixels with no padding between rows.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates a zeroed frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, FrameSize(width, height)),
	}
}

// FrameSize returns the byte length of one BGR24 frame at the given dimensions.
func FrameSize(width, height int) int {
	return width * height * bytesPerPixel
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Pix: make([]byte, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// At returns the blue, green and red components of the pixel at (x, y).
func (f *Frame) At(x, y int) (b, g, r byte) {
	off := (y*f.Width + x) * bytesPerPixel
	return f.Pix[off], f.Pix[off+1], f.Pix[off+2]
}

// Set writes the pixel at (x, y).
func (f *Frame) Set(x, y int, b, g, r byte) {
	off := (y*f.Width + x) * bytesPerPixel
	f.Pix[off] = b
	f.Pix[off+1] = g
	f.Pix[off+2] = r
}

// Validate checks that the pixel buffer matches the declared dimensions.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != FrameSize(f.Width, f.Height) {
		return fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d", len(f.Pix), FrameSize(f.Width, f.Height), f.Width, f.Height)
	}
	return nil
}
