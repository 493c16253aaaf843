package stitcher

import (
	"image"
	"log/slog"
	"time"

	"github.com/esimov/stitcher/feature"
	"github.com/esimov/stitcher/homography"
	"github.com/esimov/stitcher/imop"
	"github.com/esimov/stitcher/match"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Default settings of a Stitcher.
const (
	DefaultRatio           = match.DefaultRatio
	DefaultMinMatch        = 10
	DefaultReprojThreshold = 5.0
	DefaultSmoothingWindow = 800
)

// Stitcher holds the stitching options and the pluggable pipeline components.
// The zero values of Extractor, Matcher and Estimator are replaced with the
// default implementations configured from the other fields.
type Stitcher struct {
	// Ratio is the maximum nearest/second nearest distance ratio of an accepted match.
	Ratio float64
	// MinMatch is the number of matches the registration has to exceed.
	MinMatch int
	// ReprojThreshold is the RANSAC inlier threshold in pixels.
	ReprojThreshold float64
	// SmoothingWindow is the width in pixels of the blending band.
	SmoothingWindow int
	// MaxFeatures caps the keypoints extracted from one image, zero meaning the extractor default.
	MaxFeatures int

	Extractor feature.Extractor
	Matcher   match.Matcher
	Estimator homography.Estimator

	// OnStage, if set, is called every time the pipeline changes stage.
	OnStage func(Stage)
}

// NewStitcher returns a Stitcher with the default settings.
func NewStitcher() *Stitcher {
	return &Stitcher{
		Ratio:           DefaultRatio,
		MinMatch:        DefaultMinMatch,
		ReprojThreshold: DefaultReprojThreshold,
		SmoothingWindow: DefaultSmoothingWindow,
	}
}

// Registration is the outcome of the feature based alignment of two images.
type Registration struct {
	Keypoints1, Keypoints2 []feature.Keypoint
	Matches                []match.Match
	// Homography maps the coordinates of the second image into the first one.
	Homography homography.Matrix
	// Visualization shows the images side by side with the matches connected.
	Visualization *image.NRGBA
}

// Result is the outcome of a stitching run.
type Result struct {
	Panorama   *image.NRGBA
	Matches    *image.NRGBA
	Homography homography.Matrix
	NumMatches int
	Stage      Stage
}

// run is the state of a single Stitch call.
type run struct {
	stage   Stage
	log     *slog.Logger
	onStage func(Stage)
}

func (s *Stitcher) extractor() feature.Extractor {
	if s.Extractor != nil {
		return s.Extractor
	}
	orb := feature.NewORB()
	if s.MaxFeatures > 0 {
		orb.MaxFeatures = s.MaxFeatures
	}
	return orb
}

func (s *Stitcher) matcher() match.Matcher {
	if s.Matcher != nil {
		return s.Matcher
	}
	return &match.BruteForce{Ratio: s.Ratio}
}

func (s *Stitcher) estimator() homography.Estimator {
	if s.Estimator != nil {
		return s.Estimator
	}
	r := homography.NewRANSAC()
	if s.ReprojThreshold > 0 {
		r.Threshold = s.ReprojThreshold
	}
	return r
}

// Stitch registers the two images and blends them into a panorama laid out in
// the frame of the first image, which is expected to be the left one.
//
// On failure the returned Result is still usable: it carries the stage the
// pipeline stopped at and, once matching took place, the match visualization.
// The inputs are never modified.
func (s *Stitcher) Stitch(img1, img2 image.Image) (*Result, error) {
	r := &run{
		stage:   Idle,
		log:     Logger().With("run_id", uuid.NewString()),
		onStage: s.OnStage,
	}
	res := &Result{Stage: Idle}

	if img1 == nil || img2 == nil || img1.Bounds().Empty() || img2.Bounds().Empty() {
		return res, ErrEmptyImage
	}
	src1, src2 := imgToNRGBA(img1), imgToNRGBA(img2)

	fail := func(err error) (*Result, error) {
		if terr := r.enter(Failed); terr != nil {
			return res, terr
		}
		res.Stage = r.stage
		r.log.Warn("stitching failed", "error", err)
		return res, err
	}

	if err := r.enter(Registering); err != nil {
		return res, err
	}
	now := time.Now()
	reg, err := s.register(r, src1, src2)
	if reg != nil {
		res.Matches = reg.Visualization
		res.NumMatches = len(reg.Matches)
	}
	if err != nil {
		return fail(err)
	}
	r.log.Debug("registration finished", "elapsed", time.Since(now), "homography", reg.Homography.String())
	res.Homography = reg.Homography

	if err := r.enter(Aligned); err != nil {
		return res, err
	}
	if err := r.enter(Blending); err != nil {
		return res, err
	}
	now = time.Now()
	pano, err := s.Blend(src1, src2, reg.Homography)
	if err != nil {
		return fail(err)
	}
	r.log.Debug("blending finished", "elapsed", time.Since(now))

	if err := r.enter(Done); err != nil {
		return res, err
	}
	res.Panorama = pano
	res.Stage = r.stage
	r.log.Info("panorama ready", "width", pano.Bounds().Dx(), "height", pano.Bounds().Dy())

	return res, nil
}

// Register aligns the second image onto the first one.
//
// The visualization is rendered as soon as the matches are known, so it is
// returned together with ErrInsufficientMatches or ErrDegenerateHomography.
func (s *Stitcher) Register(img1, img2 *image.NRGBA) (*Registration, error) {
	return s.register(&run{log: Logger()}, img1, img2)
}

func (s *Stitcher) register(r *run, img1, img2 *image.NRGBA) (*Registration, error) {
	var (
		reg          Registration
		desc1, desc2 []feature.Descriptor
		ext          = s.extractor()
	)

	var g errgroup.Group
	g.Go(func() error {
		reg.Keypoints1, desc1 = ext.Extract(img1)
		return nil
	})
	g.Go(func() error {
		reg.Keypoints2, desc2 = ext.Extract(img2)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "feature extraction failed")
	}
	r.log.Debug("features extracted", "keypoints1", len(reg.Keypoints1), "keypoints2", len(reg.Keypoints2))

	reg.Matches = s.matcher().Match(desc1, desc2)
	reg.Visualization = DrawMatches(img1, img2, reg.Keypoints1, reg.Keypoints2, reg.Matches)
	r.log.Info("descriptors matched", "matches", len(reg.Matches))

	if len(reg.Matches) <= s.MinMatch {
		return &reg, errors.Wrapf(ErrInsufficientMatches, "found %d matches, need more than %d", len(reg.Matches), s.MinMatch)
	}

	// The homography maps the second image onto the first one.
	src := make([]homography.Point, len(reg.Matches))
	dst := make([]homography.Point, len(reg.Matches))
	for i, m := range reg.Matches {
		kp1, kp2 := reg.Keypoints1[m.QueryIdx], reg.Keypoints2[m.TrainIdx]
		src[i] = homography.Point{X: kp2.X, Y: kp2.Y}
		dst[i] = homography.Point{X: kp1.X, Y: kp1.Y}
	}

	h, err := s.estimator().Estimate(src, dst)
	if err != nil {
		return &reg, errors.Wrap(err, "homography estimation failed")
	}
	reg.Homography = h

	return &reg, nil
}

// Blend warps the second image into the frame of the first one through h and
// blends the two layers on a canvas as tall as the first image and as wide as
// both images together. The canvas is cropped to its visible content.
func (s *Stitcher) Blend(img1, img2 *image.NRGBA, h homography.Matrix) (*image.NRGBA, error) {
	inv, err := h.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "homography is not invertible")
	}

	w1, w2 := img1.Bounds().Dx(), img2.Bounds().Dx()
	width, height := w1+w2, img1.Bounds().Dy()

	left := imop.NewMask(w1, w2, height, s.SmoothingWindow, imop.Left)
	right := imop.NewMask(w1, w2, height, s.SmoothingWindow, imop.Right)

	canvas := imop.NewCanvas(width, height)
	canvas.Place(img1, left)
	canvas.Warp(img2, inv, right)

	pano, err := imop.Crop(canvas.Render())
	if err != nil {
		return nil, errors.Wrap(err, "could not crop the panorama")
	}
	return pano, nil
}
