package raster

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Quad suggestion tuning. The detector runs on a downscaled copy, so these
// values are resolution-independent.
const (
	suggestWorkingSize = 256  // longest edge of the analysis copy
	suggestThreshold   = 0.25 // minimum Sobel gradient magnitude for an edge pixel
	suggestMinEdges    = 64   // minimum edge pixels for a credible outline
	suggestMinCoverage = 0.05 // outline must cover at least this image fraction
	suggestMaxCoverage = 0.98 // ...and at most this (full-bleed means no outline)
)

// SuggestQuad analyzes img for a dominant document outline and returns a quad
// enclosing it, for use as the initial handle placement when the crop-adjust
// UI opens. The second return value reports whether an outline was actually
// found; when it is false the returned quad is DefaultQuad().
//
// Detection is gradient-based: the image is downscaled, converted to
// luminance, and run through a Sobel operator; the bounding box of the strong
// edge pixels becomes the suggested quad. Best-effort only.
func SuggestQuad(img image.Image) (NormalizedQuad, bool) {
	bounds := img.Bounds()
	if bounds.Dx() < 8 || bounds.Dy() < 8 {
		return DefaultQuad(), false
	}

	small := imaging.Fit(img, suggestWorkingSize, suggestWorkingSize, imaging.Box)
	w := small.Rect.Dx()
	h := small.Rect.Dy()

	// Luminance plane, ITU-R BT.601 weights.
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := small.PixOffset(x, y)
			r := float64(small.Pix[i]) / 255
			g := float64(small.Pix[i+1]) / 255
			b := float64(small.Pix[i+2]) / 255
			gray[y*w+x] = 0.299*r + 0.587*g + 0.114*b
		}
	}

	// Sobel gradient magnitude, tracking the bounding box of strong edges.
	minX, minY := w, h
	maxX, maxY := -1, -1
	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -gray[(y-1)*w+x-1] + gray[(y-1)*w+x+1] +
				-2*gray[y*w+x-1] + 2*gray[y*w+x+1] +
				-gray[(y+1)*w+x-1] + gray[(y+1)*w+x+1]
			gy := -gray[(y-1)*w+x-1] - 2*gray[(y-1)*w+x] - gray[(y-1)*w+x+1] +
				gray[(y+1)*w+x-1] + 2*gray[(y+1)*w+x] + gray[(y+1)*w+x+1]
			if math.Sqrt(gx*gx+gy*gy) < suggestThreshold {
				continue
			}
			edges++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if edges < suggestMinEdges || maxX < 0 {
		return DefaultQuad(), false
	}
	coverage := float64(maxX-minX+1) * float64(maxY-minY+1) / float64(w*h)
	if coverage < suggestMinCoverage || coverage > suggestMaxCoverage {
		return DefaultQuad(), false
	}

	// Bounding box to unit space, flipping Y (unit space points up).
	left := float64(minX) / float64(w)
	right := float64(maxX+1) / float64(w)
	top := 1 - float64(minY)/float64(h)
	bottom := 1 - float64(maxY+1)/float64(h)

	return NormalizedQuad{
		TopLeft:     UnitPoint{X: left, Y: top},
		TopRight:    UnitPoint{X: right, Y: top},
		BottomLeft:  UnitPoint{X: left, Y: bottom},
		BottomRight: UnitPoint{X: right, Y: bottom},
	}.Clamped(), true
}
