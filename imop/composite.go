package imop

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ErrEmptyComposite is returned when the blended canvas has no visible pixel.
var ErrEmptyComposite = errors.New("empty composite")

// Projector maps a point of the canvas into the pixel space of a source image.
type Projector interface {
	Project(x, y float64) (float64, float64)
}

// Canvas accumulates weighted layers in floating point. Every channel value is
// normalized to [0, 1] when added, and layers are summed without any clamping
// until the canvas is rendered. A canvas must not be shared between goroutines.
type Canvas struct {
	Width, Height int
	// Pix holds the R, G, B values of the pixels, row by row.
	Pix []float32
}

// NewCanvas allocates a black canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

// Place adds the image, anchored at the canvas origin, weighted by the mask.
// The parts of the image falling outside of the canvas are discarded.
func (c *Canvas) Place(img *image.NRGBA, mask *Mask) {
	b := img.Bounds()
	dx, dy := min(b.Dx(), c.Width), min(b.Dy(), c.Height)

	for y := 0; y < dy; y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * c.Width * 3
		for x := 0; x < dx; x++ {
			if w := mask.At(x, y); w > 0 {
				c.Pix[di+0] += float32(float64(img.Pix[si+0]) / 255 * w)
				c.Pix[di+1] += float32(float64(img.Pix[si+1]) / 255 * w)
				c.Pix[di+2] += float32(float64(img.Pix[si+2]) / 255 * w)
			}
			si += 4
			di += 3
		}
	}
}

// Warp adds the perspective projection of the image, weighted by the mask.
// Every canvas pixel is mapped back into the source image by inv and the
// source is sampled bilinearly. Canvas pixels mapped outside of the source
// receive nothing.
func (c *Canvas) Warp(img *image.NRGBA, inv Projector, mask *Mask) {
	var rgb [3]float64

	for y := 0; y < c.Height; y++ {
		di := y * c.Width * 3
		for x := 0; x < c.Width; x++ {
			w := mask.At(x, y)
			if w > 0 {
				sx, sy := inv.Project(float64(x), float64(y))
				if bilinear(img, sx, sy, &rgb) {
					c.Pix[di+0] += float32(rgb[0] / 255 * w)
					c.Pix[di+1] += float32(rgb[1] / 255 * w)
					c.Pix[di+2] += float32(rgb[2] / 255 * w)
				}
			}
			di += 3
		}
	}
}

// bilinear interpolates the color of the image at the sub-pixel position
// (x, y), given in image coordinates relative to the bounds origin. It reports
// false for positions outside of the image.
func bilinear(img *image.NRGBA, x, y float64, rgb *[3]float64) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return false
	}

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	i00 := img.PixOffset(b.Min.X+x0, b.Min.Y+y0)
	i10 := img.PixOffset(b.Min.X+x1, b.Min.Y+y0)
	i01 := img.PixOffset(b.Min.X+x0, b.Min.Y+y1)
	i11 := img.PixOffset(b.Min.X+x1, b.Min.Y+y1)

	for ch := 0; ch < 3; ch++ {
		top := float64(img.Pix[i00+ch])*(1-fx) + float64(img.Pix[i10+ch])*fx
		bottom := float64(img.Pix[i01+ch])*(1-fx) + float64(img.Pix[i11+ch])*fx
		rgb[ch] = top*(1-fy) + bottom*fy
	}
	return true
}

// Render converts the canvas to an 8 bit image. Values are scaled back to
// [0, 255], clamped and truncated; the alpha channel is opaque.
func (c *Canvas) Render() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		si := y * c.Width * 3
		di := dst.PixOffset(0, y)
		for x := 0; x < c.Width; x++ {
			dst.Pix[di+0] = toByte(c.Pix[si+0])
			dst.Pix[di+1] = toByte(c.Pix[si+1])
			dst.Pix[di+2] = toByte(c.Pix[si+2])
			dst.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return dst
}

func toByte(v float32) uint8 {
	f := float64(v) * 255
	switch {
	case f <= 0 || math.IsNaN(f):
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f)
}

// Crop trims the image to the smallest rectangle containing every pixel with a
// non zero first (red) channel.
func Crop(img *image.NRGBA) (*image.NRGBA, error) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[i] != 0 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
			i += 4
		}
	}
	if maxX < minX || maxY < minY {
		return nil, ErrEmptyComposite
	}
	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1)), nil
}
