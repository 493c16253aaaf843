package homography

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// similarity returns the transformation moving the centroid of the points to
// the origin and scaling them to an average distance of sqrt(2) from it.
func similarity(pts []Point) Matrix {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	cx, cy = cx/n, cy/n

	var dist float64
	for _, p := range pts {
		dist += math.Hypot(p.X-cx, p.Y-cy)
	}
	dist /= n
	if dist < 1e-12 {
		return Identity()
	}
	s := math.Sqrt2 / dist
	return Matrix{s, 0, -s * cx, 0, s, -s * cy, 0, 0, 1}
}

// invertSimilarity inverts a matrix built by similarity.
func invertSimilarity(t Matrix) Matrix {
	s := t[0]
	return Matrix{1 / s, 0, -t[2] / s, 0, 1 / s, -t[5] / s, 0, 0, 1}
}

// dlt fits the homography mapping src onto dst with the normalized direct linear
// transform. With four pairs the solution is exact; with more it minimizes the
// algebraic error. It reports false when the system has no usable solution.
func dlt(src, dst []Point) (Matrix, bool) {
	n := len(src)
	if n < 4 || len(dst) != n {
		return Matrix{}, false
	}

	ts, td := similarity(src), similarity(dst)

	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		s, d := ts.Apply(src[i]), td.Apply(dst[i])
		x, y, u, v := s.X, s.Y, d.X, d.Y

		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullV); !ok {
		return Matrix{}, false
	}
	var v mat.Dense
	svd.VTo(&v)

	// The solution is the right singular vector of the smallest singular value.
	var hn Matrix
	for i := range hn {
		hn[i] = v.At(i, 8)
	}

	h := invertSimilarity(td).Mul(hn).Mul(ts)
	if math.Abs(h[8]) < 1e-12 {
		return Matrix{}, false
	}
	h = h.Normalize()
	if !h.IsFinite() || math.Abs(h.Det()) < 1e-12 {
		return Matrix{}, false
	}
	return h, true
}

// collinear reports whether any three of the points lie on the same line.
func collinear(pts []Point) bool {
	// sine of the smallest accepted angle between two sides of a triangle
	const eps = 1e-3
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				a, b, c := pts[i], pts[j], pts[k]
				abx, aby := b.X-a.X, b.Y-a.Y
				acx, acy := c.X-a.X, c.Y-a.Y
				area := abx*acy - aby*acx
				if math.Abs(area) <= eps*math.Hypot(abx, aby)*math.Hypot(acx, acy) {
					return true
				}
			}
		}
	}
	return false
}
