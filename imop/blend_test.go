package imop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask_WeightsSumToOne(t *testing.T) {
	cases := []struct {
		name           string
		w1, w2, window int
	}{
		{"default window", 400, 400, 800},
		{"narrow window", 400, 300, 100},
		{"odd window", 120, 80, 7},
		{"window wider than canvas", 30, 30, 200},
		{"no window", 50, 60, 0},
		{"negative window", 50, 60, -10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			left := NewMask(tc.w1, tc.w2, 20, tc.window, Left)
			right := NewMask(tc.w1, tc.w2, 20, tc.window, Right)

			for y := 0; y < 20; y += 7 {
				for x := 0; x < tc.w1+tc.w2; x++ {
					assert.InDelta(t, 1.0, left.At(x, y)+right.At(x, y), 1e-9, "column %d", x)
				}
			}
		})
	}
}

func TestMask_Ramp(t *testing.T) {
	assert := assert.New(t)

	left := NewMask(400, 400, 10, 800, Left)
	right := NewMask(400, 400, 10, 800, Right)

	assert.Equal(0, left.Start)
	assert.Equal(400, left.End)

	assert.Equal(1.0, left.At(0, 5))
	assert.Equal(0.0, left.At(399, 5))
	assert.Equal(0.0, left.At(650, 5))
	assert.Equal(0.0, right.At(0, 5))
	assert.Equal(1.0, right.At(399, 5))
	assert.Equal(1.0, right.At(799, 5))

	for x := 1; x < 800; x++ {
		assert.LessOrEqual(left.At(x, 0), left.At(x-1, 0))
		assert.GreaterOrEqual(right.At(x, 0), right.At(x-1, 0))
	}
}

func TestMask_NarrowWindow(t *testing.T) {
	assert := assert.New(t)

	// barrier = 400 - 50, ramp over [300, 400)
	left := NewMask(400, 300, 10, 100, Left)
	assert.Equal(300, left.Start)
	assert.Equal(400, left.End)
	assert.Equal(1.0, left.At(299, 0))
	assert.Equal(1.0, left.At(300, 0))
	assert.InDelta(1-50.0/99, left.At(350, 0), 1e-12)
	assert.Equal(0.0, left.At(400, 0))
}

func TestMask_NoWindowIsBinary(t *testing.T) {
	left := NewMask(50, 60, 4, 0, Left)
	right := NewMask(50, 60, 4, 0, Right)

	for x := 0; x < 110; x++ {
		lw, rw := left.At(x, 1), right.At(x, 1)
		assert.Contains(t, []float64{0, 1}, lw)
		if x < 50 {
			assert.Equal(t, 1.0, lw)
			assert.Equal(t, 0.0, rw)
		} else {
			assert.Equal(t, 0.0, lw)
			assert.Equal(t, 1.0, rw)
		}
	}
}

func TestMask_OutsideCanvas(t *testing.T) {
	m := NewMask(10, 10, 5, 4, Left)
	assert.Equal(t, 0.0, m.At(-1, 0))
	assert.Equal(t, 0.0, m.At(0, 5))
	assert.Equal(t, 0.0, m.At(20, 0))
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
}
