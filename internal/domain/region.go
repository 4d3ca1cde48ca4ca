package domain

// Region is a rectangular pixel area marked for blurring. Coordinates are
// offsets from the top-left corner of the frame the region was detected in;
// regions may extend past the frame edges and are clipped when applied.
type Region struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the region has positive area and a confidence in [0,1].
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0 && r.Confidence >= 0 && r.Confidence <= 1
}

// Clip intersects the region with a width×height frame. The second return is
// false when the intersection is empty.
func (r Region) Clip(frameWidth, frameHeight int) (Region, bool) {
	x1 := max(r.X, 0)
	y1 := max(r.Y, 0)
	x2 := min(r.X+r.Width, frameWidth)
	y2 := min(r.Y+r.Height, frameHeight)

	if x1 >= x2 || y1 >= y2 {
		return Region{}, false
	}

	return Region{
		X:          x1,
		Y:          y1,
		Width:      x2 - x1,
		Height:     y2 - y1,
		Confidence: r.Confidence,
	}, true
}
