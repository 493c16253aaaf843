package homography

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Estimator fits the homography mapping the src points onto the dst points.
// src[i] and dst[i] must describe the same scene point.
type Estimator interface {
	Estimate(src, dst []Point) (Matrix, error)
}

// trialBatch is the number of hypotheses generated between two updates of the
// adaptive stopping criterion. It does not depend on the number of workers, so
// the same input always runs the same trials.
const trialBatch = 64

// sampleSize is the number of correspondences defining a homography.
const sampleSize = 4

// RANSAC is a robust Estimator tolerating a large share of wrong correspondences.
type RANSAC struct {
	Threshold  float64 // maximum reprojection error, in pixels, of an inlier
	MaxIters   int     // upper bound of generated hypotheses
	Confidence float64 // probability of drawing at least one outlier free sample
	MinInliers int     // minimum consensus set size of an accepted model
	Seed       int64   // base seed of the per trial random generators
	Workers    int     // number of goroutines evaluating hypotheses
}

// NewRANSAC returns an estimator with the default settings.
func NewRANSAC() *RANSAC {
	return &RANSAC{
		Threshold:  5.0,
		MaxIters:   2000,
		Confidence: 0.995,
		MinInliers: sampleSize,
	}
}

// Model is the outcome of a RANSAC fit.
type Model struct {
	H          Matrix
	Inliers    []bool
	NumInliers int
	Iterations int
}

type hypothesis struct {
	h       Matrix
	inliers int
	valid   bool
}

// Estimate implements the Estimator interface.
func (r *RANSAC) Estimate(src, dst []Point) (Matrix, error) {
	m, err := r.Fit(src, dst)
	if err != nil {
		return Matrix{}, err
	}
	return m.H, nil
}

// Fit runs the hypothesize and verify loop and refines the best model on its
// whole consensus set.
//
// Every trial draws its sample from a generator seeded with Seed plus the trial
// index. Hypotheses are compared by inlier count and ties go to the earliest trial,
// so the result is reproducible regardless of the number of workers.
func (r *RANSAC) Fit(src, dst []Point) (*Model, error) {
	n := len(src)
	if n != len(dst) {
		return nil, errors.Wrapf(ErrInsufficientMatches, "%d source points for %d destination points", n, len(dst))
	}
	if n < sampleSize {
		return nil, errors.Wrapf(ErrInsufficientMatches, "%d correspondences, need at least %d", n, sampleSize)
	}
	opts := r.withDefaults()
	thr2 := opts.Threshold * opts.Threshold

	var best hypothesis
	iters, done := opts.MaxIters, 0
	for done < iters {
		size := min(trialBatch, iters-done)
		results := make([]hypothesis, size)

		var wg sync.WaitGroup
		workers := min(opts.Workers, size)
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func(w int) {
				defer wg.Done()
				for k := w; k < size; k += workers {
					results[k] = opts.trial(done+k, src, dst, thr2)
				}
			}(w)
		}
		wg.Wait()

		for _, res := range results {
			if res.valid && res.inliers > best.inliers {
				best = res
			}
		}
		done += size

		if best.valid {
			iters = min(iters, requiredIters(best.inliers, n, opts.Confidence, opts.MaxIters))
		}
	}

	if !best.valid || best.inliers < opts.MinInliers {
		return nil, errors.Wrapf(ErrDegenerateHomography, "best model has %d inliers out of %d", best.inliers, n)
	}

	model := &Model{H: best.h, Iterations: done}
	model.Inliers, model.NumInliers = consensus(best.h, src, dst, thr2)

	var inSrc, inDst []Point
	for i, in := range model.Inliers {
		if in {
			inSrc = append(inSrc, src[i])
			inDst = append(inDst, dst[i])
		}
	}
	if refined, ok := dlt(inSrc, inDst); ok {
		mask, count := consensus(refined, src, dst, thr2)
		if count >= model.NumInliers {
			model.H, model.Inliers, model.NumInliers = refined, mask, count
		}
	}

	if !model.H.IsFinite() || math.Abs(model.H.Det()) < 1e-12 {
		return nil, errors.Wrap(ErrDegenerateHomography, "refined model is singular")
	}
	return model, nil
}

// trial evaluates the hypothesis generated from the idx-th random sample.
func (r *RANSAC) trial(idx int, src, dst []Point, thr2 float64) hypothesis {
	rnd := rand.New(rand.NewSource(r.Seed + int64(idx)))

	var (
		picked [sampleSize]int
		s, d   [sampleSize]Point
	)
	for i := 0; i < sampleSize; i++ {
	draw:
		for {
			c := rnd.Intn(len(src))
			for j := 0; j < i; j++ {
				if picked[j] == c {
					continue draw
				}
			}
			picked[i] = c
			break
		}
		s[i], d[i] = src[picked[i]], dst[picked[i]]
	}
	if collinear(s[:]) || collinear(d[:]) {
		return hypothesis{}
	}

	h, ok := dlt(s[:], d[:])
	if !ok {
		return hypothesis{}
	}
	_, count := consensus(h, src, dst, thr2)
	return hypothesis{h: h, inliers: count, valid: true}
}

// consensus marks the correspondences whose forward reprojection error is within the threshold.
func consensus(h Matrix, src, dst []Point, thr2 float64) ([]bool, int) {
	mask := make([]bool, len(src))
	count := 0
	for i := range src {
		x, y := h.Project(src[i].X, src[i].Y)
		dx, dy := x-dst[i].X, y-dst[i].Y
		// NaN compares false, points projected to infinity are never inliers.
		if dx*dx+dy*dy <= thr2 {
			mask[i] = true
			count++
		}
	}
	return mask, count
}

// requiredIters returns the number of trials needed to draw, with the given
// confidence, at least one sample made only of inliers.
func requiredIters(inliers, total int, confidence float64, maxIters int) int {
	w := float64(inliers) / float64(total)
	p := math.Pow(w, sampleSize)
	if p >= 1 {
		return 1
	}
	if p <= 0 {
		return maxIters
	}
	n := math.Log(1-confidence) / math.Log(1-p)
	if math.IsNaN(n) || n > float64(maxIters) {
		return maxIters
	}
	return max(1, int(math.Ceil(n)))
}

func (r *RANSAC) withDefaults() *RANSAC {
	def := NewRANSAC()
	opts := *r
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.MaxIters <= 0 {
		opts.MaxIters = def.MaxIters
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = def.Confidence
	}
	if opts.MinInliers < sampleSize {
		opts.MinInliers = sampleSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &opts
}
