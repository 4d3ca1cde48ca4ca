package media

// Resize scales the frame to the target dimensions using bilinear
// interpolation over all three channels. A frame that already matches the
// target is returned as a copy. Target dimensions must be positive.
func Resize(f *Frame, dstWidth, dstHeight int) *Frame {
	if dstWidth == f.Width && dstHeight == f.Height {
		return f.Clone()
	}
	out := NewFrame(dstWidth, dstHeight)

	xRatio := float64(f.Width) / float64(dstWidth)
	yRatio := float64(f.Height) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := y1 + 1
		if y2 >= f.Height {
			y2 = f.Height - 1
		}
		fy := srcY - float64(y1)

		for x := 0; x < dstWidth; x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := x1 + 1
			if x2 >= f.Width {
				x2 = f.Width - 1
			}
			fx := srcX - float64(x1)

			p11 := (y1*f.Width + x1) * bytesPerPixel
			p12 := (y1*f.Width + x2) * bytesPerPixel
			p21 := (y2*f.Width + x1) * bytesPerPixel
			p22 := (y2*f.Width + x2) * bytesPerPixel
			dst := (y*dstWidth + x) * bytesPerPixel

			for c := 0; c < bytesPerPixel; c++ {
				top := float64(f.Pix[p11+c])*(1-fx) + float64(f.Pix[p12+c])*fx
				bottom := float64(f.Pix[p21+c])*(1-fx) + float64(f.Pix[p22+c])*fx
				out.Pix[dst+c] = byte(top*(1-fy) + bottom*fy + 0.5)
			}
		}
	}
	return out
}
