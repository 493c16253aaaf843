package feature

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/stitcher/utils"
)

// edgeThreshold is the margin, in level pixels, where no keypoint is detected.
// It keeps the rotated sampling pattern and the smoothing kernel inside the image.
const edgeThreshold = 28

// ORB is an Extractor producing Harris ranked corners over an image pyramid,
// described with rotation aware BRIEF descriptors.
type ORB struct {
	MaxFeatures  int     // maximum number of keypoints over all levels
	Levels       int     // number of pyramid levels
	ScaleFactor  float64 // downscale ratio between two consecutive levels
	HarrisK      float64 // Harris detector free parameter
	QualityLevel float64 // minimum accepted response relative to the strongest corner
	MinDistance  float64 // minimum distance between two corners on the same level
	BlurSigma    float64 // smoothing applied before the binary tests
}

// NewORB returns an extractor with the default settings.
func NewORB() *ORB {
	return &ORB{
		MaxFeatures:  2000,
		Levels:       3,
		ScaleFactor:  1.5,
		HarrisK:      0.04,
		QualityLevel: 0.01,
		MinDistance:  3,
		BlurSigma:    2,
	}
}

// Extract implements the Extractor interface.
func (o *ORB) Extract(img image.Image) ([]Keypoint, []Descriptor) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	opts := o.withDefaults()

	src := imaging.Clone(img)
	w0, h0 := src.Bounds().Dx(), src.Bounds().Dy()

	budgets := levelBudgets(opts.MaxFeatures, opts.Levels, opts.ScaleFactor)

	var (
		kps   []Keypoint
		descs []Descriptor
	)
	for level, budget := range budgets {
		lvl := src
		if level > 0 {
			s := math.Pow(opts.ScaleFactor, float64(level))
			lw := int(math.Round(float64(w0) / s))
			lh := int(math.Round(float64(h0) / s))
			if lw <= 2*edgeThreshold || lh <= 2*edgeThreshold {
				break
			}
			lvl = imaging.Resize(src, lw, lh, imaging.Linear)
		}
		lk, ld := opts.extractLevel(lvl, level, budget, float64(w0), float64(h0))
		kps = append(kps, lk...)
		descs = append(descs, ld...)
	}
	return kps, descs
}

// extractLevel detects and describes the corners of a single pyramid level.
// Keypoint coordinates are rescaled to the full resolution image.
func (o *ORB) extractLevel(lvl *image.NRGBA, level, budget int, w0, h0 float64) ([]Keypoint, []Descriptor) {
	gray := grayPlane(lvl)
	smooth := grayPlane(imaging.Blur(lvl, o.BlurSigma))

	corners := detectCorners(gray, o.HarrisK, o.QualityLevel, o.MinDistance, edgeThreshold, budget)
	if len(corners) == 0 {
		return nil, nil
	}

	sx, sy := w0/float64(gray.w), h0/float64(gray.h)
	scale := math.Pow(o.ScaleFactor, float64(level))

	kps := make([]Keypoint, len(corners))
	descs := make([]Descriptor, len(corners))
	for i, c := range corners {
		angle := orientation(gray, c.x, c.y)
		kps[i] = Keypoint{
			X:        float64(c.x) * sx,
			Y:        float64(c.y) * sy,
			Size:     patchSize * scale,
			Angle:    angle,
			Response: c.response,
			Octave:   level,
		}
		descs[i] = describe(smooth, c.x, c.y, angle)
	}
	return kps, descs
}

// withDefaults returns a copy of the options with the unset fields filled in.
func (o *ORB) withDefaults() *ORB {
	def := NewORB()
	opts := *o
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = def.MaxFeatures
	}
	if opts.Levels <= 0 {
		opts.Levels = def.Levels
	}
	if opts.ScaleFactor <= 1 {
		opts.ScaleFactor = def.ScaleFactor
	}
	if opts.HarrisK <= 0 {
		opts.HarrisK = def.HarrisK
	}
	if opts.QualityLevel <= 0 {
		opts.QualityLevel = def.QualityLevel
	}
	if opts.MinDistance < 0 {
		opts.MinDistance = 0
	}
	if opts.BlurSigma <= 0 {
		opts.BlurSigma = def.BlurSigma
	}
	return &opts
}

// levelBudgets splits the feature budget over the pyramid levels following a
// geometric series of ratio 1/scale, so finer levels get more keypoints.
func levelBudgets(total, levels int, scale float64) []int {
	factor := 1 / scale
	perLevel := float64(total) * (1 - factor) / (1 - math.Pow(factor, float64(levels)))

	budgets := make([]int, levels)
	sum := 0
	for i := 0; i < levels-1; i++ {
		budgets[i] = int(math.Round(perLevel))
		sum += budgets[i]
		perLevel *= factor
	}
	budgets[levels-1] = utils.Max(total-sum, 0)
	return budgets
}
