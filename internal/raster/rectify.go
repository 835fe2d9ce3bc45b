package raster

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// minQuadArea is the smallest quad area, in square pixels, that Rectify will
// attempt to transform. Quads collapsed below this are treated as degenerate.
const minQuadArea = 1.0

// UnitPoint is a point in unit space: both coordinates in [0,1], Y up.
type UnitPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// clamped returns the point with both coordinates clamped to [0,1].
func (p UnitPoint) clamped() UnitPoint {
	return UnitPoint{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// NormalizedQuad is a four-cornered region in unit space, labeled by the
// visual position of each corner. Corners are clamped independently; nothing
// prevents a user from dragging corners past each other, so a quad may be
// self-intersecting. Rectify must tolerate (not reject) such quads.
type NormalizedQuad struct {
	TopLeft     UnitPoint `json:"top_left"`
	TopRight    UnitPoint `json:"top_right"`
	BottomLeft  UnitPoint `json:"bottom_left"`
	BottomRight UnitPoint `json:"bottom_right"`
}

// DefaultQuad returns the centered quad shown when the crop-adjust UI opens:
// the full image inset by 10% on every side.
func DefaultQuad() NormalizedQuad {
	return NormalizedQuad{
		TopLeft:     UnitPoint{X: 0.1, Y: 0.9},
		TopRight:    UnitPoint{X: 0.9, Y: 0.9},
		BottomLeft:  UnitPoint{X: 0.1, Y: 0.1},
		BottomRight: UnitPoint{X: 0.9, Y: 0.1},
	}
}

// FullQuad returns the quad covering the entire image. Rectifying with it is
// an identity transform.
func FullQuad() NormalizedQuad {
	return NormalizedQuad{
		TopLeft:     UnitPoint{X: 0, Y: 1},
		TopRight:    UnitPoint{X: 1, Y: 1},
		BottomLeft:  UnitPoint{X: 0, Y: 0},
		BottomRight: UnitPoint{X: 1, Y: 0},
	}
}

// Clamped returns the quad with every corner clamped to unit space.
func (q NormalizedQuad) Clamped() NormalizedQuad {
	return NormalizedQuad{
		TopLeft:     q.TopLeft.clamped(),
		TopRight:    q.TopRight.clamped(),
		BottomLeft:  q.BottomLeft.clamped(),
		BottomRight: q.BottomRight.clamped(),
	}
}

// pixelPoint is a quad corner converted to pixel space.
type pixelPoint struct {
	x, y float64
}

// pixelCorners converts the quad to pixel space for an image of the given
// extent, applying the unit-space Y flip. Order: TL, TR, BL, BR.
func (q NormalizedQuad) pixelCorners(width, height int) [4]pixelPoint {
	w := float64(width)
	h := float64(height)
	conv := func(p UnitPoint) pixelPoint {
		return pixelPoint{x: p.X * w, y: (1 - p.Y) * h}
	}
	return [4]pixelPoint{
		conv(q.TopLeft),
		conv(q.TopRight),
		conv(q.BottomLeft),
		conv(q.BottomRight),
	}
}

// area returns the absolute area of the quad in pixel space using the
// shoelace formula over the corner polygon TL, TR, BR, BL.
func quadArea(c [4]pixelPoint) float64 {
	// Polygon winding order: TL(0), TR(1), BR(3), BL(2).
	order := [4]pixelPoint{c[0], c[1], c[3], c[2]}
	sum := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += order[i].x*order[j].y - order[j].x*order[i].y
	}
	return math.Abs(sum) / 2
}

// homography maps unit-square coordinates (u,v) to pixel space. It is the
// standard projective transform determined by the four corner
// correspondences (0,0)->TL, (1,0)->TR, (0,1)->BL, (1,1)->BR.
type homography struct {
	a, b, c float64
	d, e, f float64
	g, h    float64
}

// solveHomography computes the unit-square-to-quad transform. ok is false
// when the corner configuration admits no solution.
func solveHomography(c [4]pixelPoint) (homography, bool) {
	tl, tr, bl, br := c[0], c[1], c[2], c[3]

	sx := tl.x - tr.x - bl.x + br.x
	sy := tl.y - tr.y - bl.y + br.y

	var m homography
	if sx == 0 && sy == 0 {
		// Parallelogram: the transform is affine.
		m = homography{
			a: tr.x - tl.x, b: bl.x - tl.x, c: tl.x,
			d: tr.y - tl.y, e: bl.y - tl.y, f: tl.y,
		}
		return m, true
	}

	d1x, d1y := tr.x-br.x, tr.y-br.y
	d2x, d2y := bl.x-br.x, bl.y-br.y
	den := d1x*d2y - d1y*d2x
	if math.Abs(den) < 1e-12 {
		return homography{}, false
	}

	m.g = (sx*d2y - sy*d2x) / den
	m.h = (d1x*sy - d1y*sx) / den
	m.a = tr.x - tl.x + m.g*tr.x
	m.b = bl.x - tl.x + m.h*bl.x
	m.c = tl.x
	m.d = tr.y - tl.y + m.g*tr.y
	m.e = bl.y - tl.y + m.h*bl.y
	m.f = tl.y
	return m, true
}

// apply maps a unit-square coordinate to pixel space. ok is false when the
// point lies on the transform's horizon line.
func (m homography) apply(u, v float64) (x, y float64, ok bool) {
	w := m.g*u + m.h*v + 1
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return (m.a*u + m.b*v + m.c) / w, (m.d*u + m.e*v + m.f) / w, true
}

// Rectify applies a perspective correction mapping the given quad region of
// img onto the image's full bounding rectangle. The output always has the
// same pixel dimensions as the input.
//
// Rectification is strictly best-effort: a degenerate quad (corners collapsed
// to a point or a line) or an unsolvable transform yields the input image
// unchanged, never an error. For a fixed image and quad the output is
// deterministic.
func Rectify(img image.Image, quad NormalizedQuad) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return img
	}

	corners := quad.Clamped().pixelCorners(width, height)
	if quadArea(corners) < minQuadArea {
		return img
	}

	m, ok := solveHomography(corners)
	if !ok {
		return img
	}

	// Clone to NRGBA for direct pixel access regardless of source format.
	src := imaging.Clone(img)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		v := (float64(y) + 0.5) / float64(height)
		for x := 0; x < width; x++ {
			u := (float64(x) + 0.5) / float64(width)
			sx, sy, ok := m.apply(u, v)
			if !ok {
				return img
			}
			r, g, b, a := sampleBilinear(src, sx-0.5, sy-0.5)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = a
		}
	}
	return dst
}

// sampleBilinear samples src at a fractional pixel coordinate, clamping to
// the image edge.
func sampleBilinear(src *image.NRGBA, x, y float64) (r, g, b, a uint8) {
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	clampX := func(v int) int {
		if v < 0 {
			return 0
		}
		if v >= w {
			return w - 1
		}
		return v
	}
	clampY := func(v int) int {
		if v < 0 {
			return 0
		}
		if v >= h {
			return h - 1
		}
		return v
	}

	px := func(xi, yi int) (float64, float64, float64, float64) {
		i := src.PixOffset(clampX(xi), clampY(yi))
		return float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2]), float64(src.Pix[i+3])
	}

	r00, g00, b00, a00 := px(x0, y0)
	r10, g10, b10, a10 := px(x0+1, y0)
	r01, g01, b01, a01 := px(x0, y0+1)
	r11, g11, b11, a11 := px(x0+1, y0+1)

	lerp2 := func(c00, c10, c01, c11 float64) uint8 {
		top := c00 + (c10-c00)*fx
		bot := c01 + (c11-c01)*fx
		v := top + (bot-top)*fy
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v + 0.5)
	}

	return lerp2(r00, r10, r01, r11),
		lerp2(g00, g10, g01, g11),
		lerp2(b00, b10, b01, b11),
		lerp2(a00, a10, a01, a11)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
