// Package homography estimates the projective transformation relating two views
// of a planar (or purely rotating) scene from a set of noisy point correspondences.
package homography

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Point is a 2D pixel coordinate.
type Point struct {
	X, Y float64
}

// Matrix is a 3x3 homography stored in row-major order.
type Matrix [9]float64

// Identity returns the identity transformation.
func Identity() Matrix {
	return Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Translation returns the transformation shifting points by (tx, ty).
func Translation(tx, ty float64) Matrix {
	return Matrix{1, 0, tx, 0, 1, ty, 0, 0, 1}
}

// Project maps the point (x, y) through the homography. Points sent to infinity
// come back as NaN.
func (m Matrix) Project(x, y float64) (float64, float64) {
	w := m[6]*x + m[7]*y + m[8]
	if math.Abs(w) < 1e-12 {
		return math.NaN(), math.NaN()
	}
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

// Apply maps p through the homography.
func (m Matrix) Apply(p Point) Point {
	x, y := m.Project(p.X, p.Y)
	return Point{X: x, Y: y}
}

// Mul returns the product m*n, i.e. the transformation applying n first.
func (m Matrix) Mul(n Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i*3+k] * n[k*3+j]
			}
			r[i*3+j] = s
		}
	}
	return r
}

// Det returns the determinant of the matrix.
func (m Matrix) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Normalize scales the matrix so that its bottom right element is 1.
// A matrix with a null bottom right element is returned unchanged.
func (m Matrix) Normalize() Matrix {
	if math.Abs(m[8]) < 1e-12 {
		return m
	}
	s := 1 / m[8]
	for i := range m {
		m[i] *= s
	}
	return m
}

// IsFinite reports whether every element is a finite number.
func (m Matrix) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Inverse returns the inverse transformation.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, m[:])); err != nil {
		return Matrix{}, errors.Wrap(ErrDegenerateHomography, err.Error())
	}

	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i*3+j] = inv.At(i, j)
		}
	}
	r = r.Normalize()
	if !r.IsFinite() {
		return Matrix{}, ErrDegenerateHomography
	}
	return r, nil
}

// String implements fmt.Stringer.
func (m Matrix) String() string {
	return fmt.Sprintf("[%.6g %.6g %.6g; %.6g %.6g %.6g; %.6g %.6g %.6g]",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}
