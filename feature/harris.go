package feature

import (
	"math"
	"sort"
)

// corner is a candidate keypoint on a single pyramid level.
type corner struct {
	x, y     int
	response float64
}

// harrisWindow is the radius of the window the structure tensor is summed over.
const harrisWindow = 2

// harrisResponse computes the Harris corner measure det(M) - k*trace(M)^2 for
// every pixel, where M is the gradient structure tensor summed over a square window.
func harrisResponse(p *plane, k float64) []float64 {
	gx, gy := sobel(p)

	n := p.w * p.h
	xx := make([]float64, n)
	yy := make([]float64, n)
	xy := make([]float64, n)
	for i := 0; i < n; i++ {
		xx[i] = gx[i] * gx[i]
		yy[i] = gy[i] * gy[i]
		xy[i] = gx[i] * gy[i]
	}
	xx = boxSum(xx, p.w, p.h, harrisWindow)
	yy = boxSum(yy, p.w, p.h, harrisWindow)
	xy = boxSum(xy, p.w, p.h, harrisWindow)

	resp := make([]float64, n)
	for i := 0; i < n; i++ {
		det := xx[i]*yy[i] - xy[i]*xy[i]
		tr := xx[i] + yy[i]
		resp[i] = det - k*tr*tr
	}
	return resp
}

// boxSum sums every value over a (2r+1)x(2r+1) window, in two separable passes.
// The window is truncated at the image borders.
func boxSum(src []float64, w, h, r int) []float64 {
	tmp := make([]float64, len(src))
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var s float64
			for i := max(0, x-r); i <= min(w-1, x+r); i++ {
				s += row[i]
			}
			tmp[y*w+x] = s
		}
	}

	dst := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for j := max(0, y-r); j <= min(h-1, y+r); j++ {
				s += tmp[j*w+x]
			}
			dst[y*w+x] = s
		}
	}
	return dst
}

// detectCorners returns the strongest Harris corners of the plane, keeping a
// distance of at least border pixels from the plane edges.
//
// A pixel is a candidate if its response exceeds quality times the strongest
// response and it is the maximum of its 3x3 neighbourhood. Candidates are ranked
// by response (ties broken by row, then column), thinned so that no two corners
// are closer than minDist and finally capped to limit.
func detectCorners(p *plane, k, quality, minDist float64, border, limit int) []corner {
	if p.w <= 2*border || p.h <= 2*border || limit <= 0 {
		return nil
	}
	resp := harrisResponse(p, k)

	var maxResp float64
	for y := border; y < p.h-border; y++ {
		for x := border; x < p.w-border; x++ {
			maxResp = math.Max(maxResp, resp[y*p.w+x])
		}
	}
	if maxResp <= 0 {
		return nil
	}
	threshold := quality * maxResp

	var cands []corner
	for y := border; y < p.h-border; y++ {
		for x := border; x < p.w-border; x++ {
			idx := y*p.w + x
			v := resp[idx]
			if v <= threshold || !isLocalMax(resp, p.w, x, y) {
				continue
			}
			cands = append(cands, corner{x: x, y: y, response: v})
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.response != b.response {
			return a.response > b.response
		}
		if a.y != b.y {
			return a.y < b.y
		}
		return a.x < b.x
	})

	return thinCorners(cands, p.w, p.h, minDist, limit)
}

// isLocalMax reports whether the response at (x, y) dominates its 8 neighbours.
// Plateaus are resolved in favour of the first pixel in raster order.
func isLocalMax(resp []float64, w, x, y int) bool {
	idx := y*w + x
	v := resp[idx]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := (y+dy)*w + x + dx
			if resp[n] > v || (resp[n] == v && n < idx) {
				return false
			}
		}
	}
	return true
}

// thinCorners greedily accepts the ranked candidates, rejecting every corner
// lying closer than minDist to an already accepted one. A uniform grid with a
// cell size of minDist keeps the neighbourhood lookups constant time.
func thinCorners(cands []corner, w, h int, minDist float64, limit int) []corner {
	if minDist < 1 {
		if len(cands) > limit {
			cands = cands[:limit]
		}
		return cands
	}

	cell := int(math.Ceil(minDist))
	gw, gh := w/cell+1, h/cell+1
	grid := make([][]corner, gw*gh)
	minDist2 := minDist * minDist

	out := make([]corner, 0, min(limit, len(cands)))
	for _, c := range cands {
		cx, cy := c.x/cell, c.y/cell
		ok := true
	search:
		for gy := max(0, cy-1); gy <= min(gh-1, cy+1); gy++ {
			for gx := max(0, cx-1); gx <= min(gw-1, cx+1); gx++ {
				for _, o := range grid[gy*gw+gx] {
					dx, dy := float64(o.x-c.x), float64(o.y-c.y)
					if dx*dx+dy*dy < minDist2 {
						ok = false
						break search
					}
				}
			}
		}
		if !ok {
			continue
		}
		grid[cy*gw+cx] = append(grid[cy*gw+cx], c)
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
