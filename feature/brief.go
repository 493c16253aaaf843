package feature

import (
	"math"
	"math/rand"

	"github.com/esimov/stitcher/utils"
)

const (
	// patchSize is the diameter of the neighbourhood used for orientation and description.
	patchSize = 31
	halfPatch = patchSize / 2

	// patternSeed fixes the BRIEF sampling pattern, making descriptors comparable between runs.
	patternSeed = 0x5eed
)

// samplePair is a pair of pixel offsets whose intensities are compared to produce one descriptor bit.
type samplePair struct {
	x1, y1, x2, y2 float64
}

// umax holds the half width of every row of the circular patch.
var umax = [halfPatch + 1]int{15, 15, 15, 15, 14, 14, 14, 13, 13, 12, 11, 10, 9, 8, 6, 3}

var pattern = briefPattern(patternSeed)

// briefPattern draws the sampling pairs from an isotropic Gaussian centered on
// the keypoint, with sigma = patchSize/5, clipped to the patch.
func briefPattern(seed int64) []samplePair {
	rnd := rand.New(rand.NewSource(seed))
	sigma := float64(patchSize) / 5

	sample := func() float64 {
		v := math.Round(rnd.NormFloat64() * sigma)
		return math.Max(-halfPatch, math.Min(halfPatch, v))
	}

	pairs := make([]samplePair, DescriptorBits)
	for i := range pairs {
		pairs[i] = samplePair{x1: sample(), y1: sample(), x2: sample(), y2: sample()}
	}
	return pairs
}

// orientation returns the angle of the vector pointing from the keypoint to the
// intensity centroid of the circular patch around it.
func orientation(p *plane, x, y int) float64 {
	var m01, m10 float64
	for v := -halfPatch; v <= halfPatch; v++ {
		u := umax[utils.Abs(v)]
		var rowSum float64
		for dx := -u; dx <= u; dx++ {
			val := float64(p.at(x+dx, y+v))
			m10 += val * float64(dx)
			rowSum += val
		}
		m01 += rowSum * float64(v)
	}
	return math.Atan2(m01, m10)
}

// describe computes the steered BRIEF descriptor of the keypoint: the sampling
// pattern is rotated by the keypoint angle before the intensity tests are made
// on the smoothed plane.
func describe(smooth *plane, x, y int, angle float64) Descriptor {
	sin, cos := math.Sincos(angle)
	desc := make(Descriptor, DescriptorWords)

	for i, sp := range pattern {
		x1 := x + int(math.Round(cos*sp.x1-sin*sp.y1))
		y1 := y + int(math.Round(sin*sp.x1+cos*sp.y1))
		x2 := x + int(math.Round(cos*sp.x2-sin*sp.y2))
		y2 := y + int(math.Round(sin*sp.x2+cos*sp.y2))

		if smooth.at(x1, y1) < smooth.at(x2, y2) {
			desc[i/64] |= 1 << uint(i%64)
		}
	}
	return desc
}
