package media

import (
	"image"

	stackblur "github.com/esimov/stackblur-go"

	"github.com/veilworks/faceveil/internal/domain"
)

// Blur strength bounds accepted by the transform.
const (
	MinStrength = 1
	MaxStrength = 50
)

// ValidStrength reports whether strength is inside the accepted range.
func ValidStrength(strength int) bool {
	return strength >= MinStrength && strength <= MaxStrength
}

// KernelSize maps a blur strength to the blur kernel width. The kernel grows
// linearly with strength and is never smaller than 3.
func KernelSize(strength int) int {
	if k := strength*2 + 1; k > 3 {
		return k
	}
	return 3
}

// BlurRegions returns a copy of frame with each region blurred. Every region
// is clipped to the frame bounds first and skipped when nothing remains.
// Overlapping regions compound in order. The input frame is left untouched.
func BlurRegions(frame *Frame, regions []domain.Region, strength int) (*Frame, error) {
	if !ValidStrength(strength) {
		return nil, domain.ErrInvalidStrength
	}
	out := frame.Clone()
	for _, region := range regions {
		clip, ok := region.Clip(frame.Width, frame.Height)
		if !ok {
			continue
		}
		if err := blurRegion(out, clip, strength); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// blurRegion blurs one clipped region of f in place. The region is lifted
// into an RGBA image, stack-blurred and written back, so pixels outside the
// region are never touched.
func blurRegion(f *Frame, region domain.Region, strength int) error {
	radius := KernelSize(strength) / 2

	roi := image.NewNRGBA(image.Rect(0, 0, region.Width, region.Height))
	for y := 0; y < region.Height; y++ {
		src := ((region.Y+y)*f.Width + region.X) * bytesPerPixel
		dst := y * roi.Stride
		for x := 0; x < region.Width; x++ {
			roi.Pix[dst+0] = f.Pix[src+2]
			roi.Pix[dst+1] = f.Pix[src+1]
			roi.Pix[dst+2] = f.Pix[src+0]
			roi.Pix[dst+3] = 0xff
			src += bytesPerPixel
			dst += 4
		}
	}

	blurred, err := stackblur.Process(roi, uint32(radius))
	if err != nil {
		return domain.ErrProcessing.WithError(err)
	}

	for y := 0; y < region.Height; y++ {
		src := y * blurred.Stride
		dst := ((region.Y+y)*f.Width + region.X) * bytesPerPixel
		for x := 0; x < region.Width; x++ {
			f.Pix[dst+0] = blurred.Pix[src+2]
			f.Pix[dst+1] = blurred.Pix[src+1]
			f.Pix[dst+2] = blurred.Pix[src+0]
			src += 4
			dst += bytesPerPixel
		}
	}
	return nil
}
