package feature

type kernel [3][3]float64

var (
	kernelX = kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	kernelY = kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// sobel returns the horizontal and vertical image derivatives.
// See https://en.wikipedia.org/wiki/Sobel_operator
func sobel(p *plane) (gx, gy []float64) {
	gx = make([]float64, p.w*p.h)
	gy = make([]float64, p.w*p.h)

	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			var sumX, sumY float64
			for ky := 0; ky < 3; ky++ {
				for kx := 0; kx < 3; kx++ {
					v := float64(p.at(x+kx-1, y+ky-1))
					sumX += v * kernelX[ky][kx]
					sumY += v * kernelY[ky][kx]
				}
			}
			gx[y*p.w+x] = sumX
			gy[y*p.w+x] = sumY
		}
	}
	return gx, gy
}
