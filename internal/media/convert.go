package media

import (
	"bytes"
	"image"
	"image/jpeg"
)

// Grayscale converts the frame to a single-channel luma buffer in row-major
// order using the BT.601 weights.
func Grayscale(f *Frame) []uint8 {
	out := make([]uint8, f.Width*f.Height)
	for i, off := 0, 0; i < len(out); i, off = i+1, off+bytesPerPixel {
		b := float64(f.Pix[off])
		g := float64(f.Pix[off+1])
		r := float64(f.Pix[off+2])
		out[i] = uint8(0.299*r + 0.587*g + 0.114*b)
	}
	return out
}

// ToRGBA converts the frame to an image.RGBA.
func ToRGBA(f *Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := y * f.Width * bytesPerPixel
		dst := y * img.Stride
		for x := 0; x < f.Width; x++ {
			img.Pix[dst+0] = f.Pix[src+2]
			img.Pix[dst+1] = f.Pix[src+1]
			img.Pix[dst+2] = f.Pix[src+0]
			img.Pix[dst+3] = 0xff
			src += bytesPerPixel
			dst += 4
		}
	}
	return img
}

// EncodeJPEG compresses the frame to JPEG bytes at the given quality, for
// detector backends that take encoded images.
func EncodeJPEG(f *Frame, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, ToRGBA(f), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
