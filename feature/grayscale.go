package feature

import "image"

// plane is a single channel float image stored row by row.
type plane struct {
	w, h int
	pix  []float32
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]float32, w*h)}
}

// at returns the pixel value at (x, y), replicating the border pixels for
// coordinates falling outside of the plane.
func (p *plane) at(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= p.w {
		x = p.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.h {
		y = p.h - 1
	}
	return p.pix[y*p.w+x]
}

// grayPlane converts the image to its luminance plane, using the Rec. 601 weights.
func grayPlane(src *image.NRGBA) *plane {
	b := src.Bounds()
	dx, dy := b.Dx(), b.Dy()
	p := newPlane(dx, dy)

	for y := 0; y < dy; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * dx
		for x := 0; x < dx; x++ {
			r, g, bl := src.Pix[si], src.Pix[si+1], src.Pix[si+2]
			p.pix[di+x] = 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(bl)
			si += 4
		}
	}
	return p
}
