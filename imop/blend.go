// Package imop implements the image operations used for compositing a
// panorama: the complementary linear blending masks of the two layers and the
// floating point canvas they are accumulated on.
//
// The left image fades out and the right image fades in across a band centred
// on the right edge of the left image, so that the weights of the two layers
// always sum up to one and the seam between them disappears.
package imop

import "github.com/esimov/stitcher/utils"

// Side selects which of the two stitched images a mask is generated for.
type Side int

const (
	Left Side = iota
	Right
)

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Mask holds a blending weight in [0, 1] for every pixel of the panorama canvas.
// The weights vary only along the horizontal axis, so a single column profile
// is stored for the whole height.
type Mask struct {
	Width, Height int
	Side          Side
	// Start and End delimit the ramp, End being exclusive.
	Start, End int

	weights []float64
}

// NewMask creates the blending mask of one side for a canvas of
// (width1+width2) x height pixels.
//
// Half the smoothing window is placed on each side of the barrier, the
// column width1 - window/2. Across the band [barrier-window/2, barrier+window/2),
// clipped to the canvas, the left mask decreases linearly from 1 to 0 and the
// right mask increases from 0 to 1. Outside of it the left mask is 1 before the
// band and 0 after, the right mask the opposite. An empty band (e.g. a zero
// window) leaves a hard edge.
func NewMask(width1, width2, height, window int, side Side) *Mask {
	window = utils.Max(window, 0)
	width := width1 + width2
	offset := window / 2
	barrier := width1 - offset

	start := utils.Max(0, barrier-offset)
	end := utils.Clamp(barrier+offset, start, width)

	m := &Mask{
		Width:   width,
		Height:  height,
		Side:    side,
		Start:   start,
		End:     end,
		weights: make([]float64, width),
	}

	n := end - start
	for x := 0; x < width; x++ {
		var w float64
		switch {
		case n > 0 && x >= start && x < end:
			w = linspace(x-start, n)
			if side == Left {
				w = 1 - w
			}
		case side == Left && x < start:
			w = 1
		case side == Right && x >= end:
			w = 1
		}
		m.weights[x] = w
	}
	return m
}

// linspace returns the i-th of n evenly spaced samples over [0, 1].
func linspace(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// At returns the weight of the pixel at (x, y).
// Pixels outside of the canvas have a zero weight.
func (m *Mask) At(x, y int) float64 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.weights[x]
}
