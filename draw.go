package stitcher

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/stitcher/feature"
	"github.com/esimov/stitcher/match"
	"github.com/fogleman/gg"
)

const (
	keypointRadius = 4
	matchLineWidth = 1
)

// DrawMatches places the two images side by side and connects every matched
// pair of keypoints with a line. Unmatched keypoints are not drawn. Each match
// gets its own color, derived from its position in the list, so the drawing
// is reproducible.
func DrawMatches(img1, img2 image.Image, kp1, kp2 []feature.Keypoint, matches []match.Match) *image.NRGBA {
	b1, b2 := img1.Bounds(), img2.Bounds()
	width := b1.Dx() + b2.Dx()
	height := max(b1.Dy(), b2.Dy())

	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.DrawImage(imgToNRGBA(img1), 0, 0)
	dc.DrawImage(imgToNRGBA(img2), b1.Dx(), 0)

	dc.SetLineWidth(matchLineWidth)
	offset := float64(b1.Dx())
	for i, m := range matches {
		if m.QueryIdx >= len(kp1) || m.TrainIdx >= len(kp2) {
			continue
		}
		p1, p2 := kp1[m.QueryIdx], kp2[m.TrainIdx]

		dc.SetColor(matchColor(i))
		dc.DrawCircle(p1.X, p1.Y, keypointRadius)
		dc.Stroke()
		dc.DrawCircle(p2.X+offset, p2.Y, keypointRadius)
		dc.Stroke()
		dc.DrawLine(p1.X, p1.Y, p2.X+offset, p2.Y)
		dc.Stroke()
	}

	return imaging.Clone(dc.Image())
}

// matchColor returns a saturated color whose hue is spread with the golden angle.
func matchColor(i int) color.Color {
	hue := math.Mod(float64(i)*137.508, 360) / 60
	x := 1 - math.Abs(math.Mod(hue, 2)-1)

	var r, g, b float64
	switch int(hue) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	return color.NRGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
