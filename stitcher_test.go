package stitcher

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/esimov/stitcher/feature"
	"github.com/esimov/stitcher/homography"
	"github.com/esimov/stitcher/match"
	"github.com/esimov/stitcher/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// texturedScene draws overlapping flat rectangles. The red channel never
// drops below 30, so the rendered panorama is never cropped inside the scene.
func texturedScene(w, h int, seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	randColor := func() color.NRGBA {
		return color.NRGBA{
			R: uint8(30 + rnd.Intn(226)),
			G: uint8(30 + rnd.Intn(226)),
			B: uint8(30 + rnd.Intn(226)),
			A: 255,
		}
	}

	img := imaging.New(w, h, randColor())
	for i := 0; i < w*h/150; i++ {
		x, y := rnd.Intn(w), rnd.Intn(h)
		rw, rh := 6+rnd.Intn(25), 6+rnd.Intn(25)
		c := randColor()
		for yy := y; yy < min(h, y+rh); yy++ {
			for xx := x; xx < min(w, x+rw); xx++ {
				img.SetNRGBA(xx, yy, c)
			}
		}
	}
	return img
}

// overlappingPair cuts two 400x300 views out of a 700x300 scene, the second
// one starting at x=300.
func overlappingPair() (scene, left, right *image.NRGBA) {
	scene = texturedScene(700, 300, 7)
	left = imaging.Crop(scene, image.Rect(0, 0, 400, 300))
	right = imaging.Crop(scene, image.Rect(300, 0, 700, 300))
	return
}

func TestStitch_SolidImagesFail(t *testing.T) {
	assert := assert.New(t)

	img1 := imaging.New(200, 150, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	img2 := imaging.New(200, 150, color.NRGBA{R: 30, G: 200, B: 30, A: 255})

	res, err := NewStitcher().Stitch(img1, img2)
	assert.ErrorIs(err, ErrInsufficientMatches)
	require.NotNil(t, res)
	assert.Equal(Failed, res.Stage)
	assert.Nil(res.Panorama)
	assert.Zero(res.NumMatches)

	require.NotNil(t, res.Matches)
	assert.Equal(image.Rect(0, 0, 400, 150), res.Matches.Bounds())
}

func TestStitch_EmptyImage(t *testing.T) {
	img := imaging.New(10, 10, color.White)

	_, err := NewStitcher().Stitch(img, image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = NewStitcher().Stitch(nil, img)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestStitch_RecoversTheOffset(t *testing.T) {
	scene := texturedScene(500, 300, 3)
	left := imaging.Crop(scene, image.Rect(0, 0, 320, 260))
	right := imaging.Crop(scene, image.Rect(180, 20, 500, 280))

	s := NewStitcher()
	s.SmoothingWindow = 100
	res, err := s.Stitch(left, right)
	require.NoError(t, err)
	assert.Equal(t, Done, res.Stage)
	assert.Greater(t, res.NumMatches, DefaultMinMatch)

	for _, p := range []homography.Point{{X: 10, Y: 10}, {X: 60, Y: 120}, {X: 130, Y: 230}, {X: 300, Y: 40}} {
		x, y := res.Homography.Project(p.X, p.Y)
		assert.InDelta(t, p.X+180, x, 1, "x of %v", p)
		assert.InDelta(t, p.Y+20, y, 1, "y of %v", p)
	}
}

func TestStitch_PanoramaCoversBothViews(t *testing.T) {
	_, left, right := overlappingPair()

	res, err := NewStitcher().Stitch(left, right)
	require.NoError(t, err)
	require.NotNil(t, res.Panorama)

	b := res.Panorama.Bounds()
	assert.InDelta(t, 700, b.Dx(), 3)
	assert.Equal(t, 300, b.Dy())

	// No all black border survives the crop.
	hasRed := func(x0, y0, x1, y1 int) bool {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if res.Panorama.NRGBAAt(x, y).R != 0 {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, hasRed(0, 0, b.Dx(), 1), "top row")
	assert.True(t, hasRed(0, b.Dy()-1, b.Dx(), b.Dy()), "bottom row")
	assert.True(t, hasRed(0, 0, 1, b.Dy()), "left column")
	assert.True(t, hasRed(b.Dx()-1, 0, b.Dx(), b.Dy()), "right column")
}

func TestStitch_IsDeterministic(t *testing.T) {
	_, left, right := overlappingPair()

	res1, err := NewStitcher().Stitch(left, right)
	require.NoError(t, err)
	res2, err := NewStitcher().Stitch(left, right)
	require.NoError(t, err)

	assert.Equal(t, res1.Homography, res2.Homography)
	assert.Equal(t, res1.NumMatches, res2.NumMatches)
	assert.Equal(t, res1.Panorama.Pix, res2.Panorama.Pix)
	assert.Equal(t, res1.Matches.Pix, res2.Matches.Pix)
}

func TestStitch_DoesNotModifyTheInputs(t *testing.T) {
	_, left, right := overlappingPair()
	leftPix := append([]uint8(nil), left.Pix...)
	rightPix := append([]uint8(nil), right.Pix...)

	_, err := NewStitcher().Stitch(left, right)
	require.NoError(t, err)
	assert.Equal(t, leftPix, left.Pix)
	assert.Equal(t, rightPix, right.Pix)
}

func TestStitch_Stages(t *testing.T) {
	_, left, right := overlappingPair()

	var stages []Stage
	s := NewStitcher()
	s.OnStage = func(st Stage) { stages = append(stages, st) }

	_, err := s.Stitch(left, right)
	require.NoError(t, err)
	assert.Equal(t, []Stage{Registering, Aligned, Blending, Done}, stages)

	stages = nil
	solid := imaging.New(100, 100, color.Gray{Y: 90})
	_, err = s.Stitch(solid, solid)
	assert.Error(t, err)
	assert.Equal(t, []Stage{Registering, Failed}, stages)
}

// The stubs below register the pair with an exact translation, which makes
// the blended pixels predictable.
type gridExtractor struct{}

func (gridExtractor) Extract(img image.Image) ([]feature.Keypoint, []feature.Descriptor) {
	var (
		kps   []feature.Keypoint
		descs []feature.Descriptor
	)
	for i := 0; i < 20; i++ {
		kps = append(kps, feature.Keypoint{X: float64(10 + i*5), Y: float64(10 + i*10)})
		descs = append(descs, feature.Descriptor{uint64(i), 0, 0, 0})
	}
	return kps, descs
}

type identityMatcher struct{}

func (identityMatcher) Match(query, train []feature.Descriptor) []match.Match {
	matches := make([]match.Match, min(len(query), len(train)))
	for i := range matches {
		matches[i] = match.Match{QueryIdx: i, TrainIdx: i}
	}
	return matches
}

type fixedEstimator struct {
	h      homography.Matrix
	err    error
	points int
}

func (e *fixedEstimator) Estimate(src, dst []homography.Point) (homography.Matrix, error) {
	e.points = len(src)
	return e.h, e.err
}

func TestStitch_CustomComponents(t *testing.T) {
	scene, left, right := overlappingPair()

	est := &fixedEstimator{h: homography.Translation(300, 0)}
	s := NewStitcher()
	s.Extractor = gridExtractor{}
	s.Matcher = identityMatcher{}
	s.Estimator = est

	res, err := s.Stitch(left, right)
	require.NoError(t, err)
	assert.Equal(t, 20, est.points)
	assert.Equal(t, 20, res.NumMatches)

	pano := res.Panorama
	require.Equal(t, image.Rect(0, 0, 700, 300), pano.Bounds())

	// From the start of the overlap on, the layers complement each other.
	for y := 0; y < 300; y += 7 {
		for x := 300; x < 700; x += 3 {
			got, want := pano.NRGBAAt(x, y), scene.NRGBAAt(x, y)
			assert.LessOrEqual(t, utils.Abs(int(got.R)-int(want.R)), 1, "R at %d,%d", x, y)
			assert.LessOrEqual(t, utils.Abs(int(got.G)-int(want.G)), 1, "G at %d,%d", x, y)
			assert.LessOrEqual(t, utils.Abs(int(got.B)-int(want.B)), 1, "B at %d,%d", x, y)
		}
	}
	// The first column only comes from the left image, at full weight.
	for y := 0; y < 300; y++ {
		got, want := pano.NRGBAAt(0, y), scene.NRGBAAt(0, y)
		assert.LessOrEqual(t, utils.Abs(int(got.R)-int(want.R)), 1, "R at 0,%d", y)
	}
}

func TestStitch_EstimatorFailure(t *testing.T) {
	_, left, right := overlappingPair()

	s := NewStitcher()
	s.Extractor = gridExtractor{}
	s.Matcher = identityMatcher{}
	s.Estimator = &fixedEstimator{err: errors.Wrap(ErrDegenerateHomography, "stub")}

	res, err := s.Stitch(left, right)
	assert.ErrorIs(t, err, ErrDegenerateHomography)
	assert.Equal(t, Failed, res.Stage)
	assert.NotNil(t, res.Matches)
}

func TestStitch_MinMatchIsExclusive(t *testing.T) {
	_, left, right := overlappingPair()

	s := NewStitcher()
	s.Extractor = gridExtractor{}
	s.Matcher = identityMatcher{}
	s.Estimator = &fixedEstimator{h: homography.Translation(300, 0)}

	s.MinMatch = 20
	_, err := s.Stitch(left, right)
	assert.ErrorIs(t, err, ErrInsufficientMatches)

	s.MinMatch = 19
	_, err = s.Stitch(left, right)
	assert.NoError(t, err)
}

func TestBlend_SingularHomography(t *testing.T) {
	img := imaging.New(20, 20, color.White)
	var singular homography.Matrix

	_, err := NewStitcher().Blend(img, img, singular)
	assert.ErrorIs(t, err, ErrDegenerateHomography)
}

func BenchmarkStitch(b *testing.B) {
	_, left, right := overlappingPair()
	s := NewStitcher()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Stitch(left, right); err != nil {
			b.Fatal(err)
		}
	}
}
