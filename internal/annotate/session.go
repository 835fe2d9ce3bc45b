// Package annotate implements the freehand markup stage of the capture
// pipeline: a stroke layer recorded over a read-only base image and merged
// into a single raster on finalize.
//
// Strokes are always recorded in the base image's own pixel coordinate space.
// The view zoom is a display affordance only and never influences stroke
// geometry or the composited output.
//
// A Session is not safe for concurrent use; the capture session serializes
// access to it.
package annotate

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pagekeep/pagekeep/internal/raster"
)

const (
	// MaxRenderDimension is the hard ceiling on the longest edge of the
	// composited output. Larger bases are downscaled proportionally before
	// rendering so the merge never exceeds platform raster-buffer limits.
	MaxRenderDimension = 3000

	// MinZoom and MaxZoom bound the pinch-zoom of the combined view.
	MinZoom = 1.0
	MaxZoom = 5.0
)

// defaultPenHex is the marker color used when the caller does not pick one.
const defaultPenHex = "#ff3b30"

// Pen describes how a stroke is drawn.
type Pen struct {
	// Color is the stroke color.
	Color colorful.Color

	// Width is the stroke diameter in base-image pixels.
	Width float64

	// Opacity is the stroke alpha in [0,1].
	Opacity float64
}

// DefaultPen returns the standard red marker pen.
func DefaultPen() Pen {
	c, _ := colorful.Hex(defaultPenHex)
	return Pen{Color: c, Width: 8, Opacity: 1}
}

// PenFromHex builds a pen from a "#RRGGBB" hex color and a stroke width.
func PenFromHex(hex string, width float64) (Pen, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Pen{}, err
	}
	return Pen{Color: c, Width: width, Opacity: 1}, nil
}

// Point is a position in base-image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous freehand mark.
type Stroke struct {
	Pen    Pen
	Points []Point
}

// Session is one annotation interaction over a base image. Strokes accumulate
// until Finalize merges them into a new raster, or Cancel discards them.
type Session struct {
	base    image.Image
	strokes []Stroke
	current *Stroke
	zoom    float64
}

// NewSession starts an annotation session over base. The stroke layer starts
// empty and the view zoom at 1.0.
func NewSession(base image.Image) *Session {
	return &Session{base: base, zoom: MinZoom}
}

// Base returns the unmodified base image the session was opened with.
func (s *Session) Base() image.Image {
	return s.base
}

// Zoom returns the current view zoom factor.
func (s *Session) Zoom() float64 {
	return s.zoom
}

// SetZoom sets the view zoom, clamped to [MinZoom, MaxZoom], and returns the
// value actually applied. Zoom is view-only: it never affects the coordinate
// space strokes are recorded or composited in.
func (s *Session) SetZoom(factor float64) float64 {
	if factor < MinZoom {
		factor = MinZoom
	}
	if factor > MaxZoom {
		factor = MaxZoom
	}
	s.zoom = factor
	return s.zoom
}

// BeginStroke starts a new stroke with the given pen. An unfinished previous
// stroke is committed first.
func (s *Session) BeginStroke(pen Pen) {
	s.EndStroke()
	if pen.Width <= 0 {
		pen.Width = DefaultPen().Width
	}
	if pen.Opacity <= 0 || pen.Opacity > 1 {
		pen.Opacity = 1
	}
	s.current = &Stroke{Pen: pen}
}

// Extend appends a point, in base-image pixel coordinates, to the stroke
// being drawn. Calls without a preceding BeginStroke are ignored.
func (s *Session) Extend(p Point) {
	if s.current == nil {
		return
	}
	s.current.Points = append(s.current.Points, p)
}

// EndStroke commits the stroke being drawn. Strokes without any points are
// dropped.
func (s *Session) EndStroke() {
	if s.current == nil {
		return
	}
	if len(s.current.Points) > 0 {
		s.strokes = append(s.strokes, *s.current)
	}
	s.current = nil
}

// StrokeCount returns the number of committed strokes.
func (s *Session) StrokeCount() int {
	return len(s.strokes)
}

// Cancel abandons the annotation: no merge happens and the caller gets back
// exactly the base image it supplied.
func (s *Session) Cancel() image.Image {
	s.strokes = nil
	s.current = nil
	return s.base
}

// Finalize rasterizes the stroke layer and merges it onto the base image.
//
// The target render size equals the base size unless the base's longest edge
// exceeds MaxRenderDimension, in which case both are rendered at the
// proportionally downscaled size (longest edge exactly MaxRenderDimension).
// Rendering always uses a fixed 1x pixel density. The base is drawn first at
// full target size, then the stroke layer is rasterized at the same target
// size and alpha-composited on top.
//
// With zero strokes the base image is returned as-is (downscaled only if it
// exceeds the render bound).
func (s *Session) Finalize() image.Image {
	s.EndStroke()

	bounds := s.base.Bounds()

	if len(s.strokes) == 0 {
		return raster.ScaleToFit(s.base, MaxRenderDimension)
	}

	rendered := raster.ScaleToFit(s.base, MaxRenderDimension)
	targetW, targetH := raster.FitWithin(bounds.Dx(), bounds.Dy(), MaxRenderDimension)
	scale := float64(targetW) / float64(bounds.Dx())
	layer := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	for _, stroke := range s.strokes {
		stampStroke(layer, stroke, scale)
	}

	return blend.Normal(rendered, layer)
}

// stampStroke draws a stroke into the layer by stamping filled discs along
// each segment, scaled from base-image to layer coordinates.
func stampStroke(layer *image.NRGBA, stroke Stroke, scale float64) {
	radius := stroke.Pen.Width * scale / 2
	if radius < 0.5 {
		radius = 0.5
	}
	r8, g8, b8 := stroke.Pen.Color.RGB255()
	alpha := uint8(math.Round(stroke.Pen.Opacity * 255))
	c := color.NRGBA{r8, g8, b8, alpha}

	pts := stroke.Points
	if len(pts) == 1 {
		stampDisc(layer, pts[0].X*scale, pts[0].Y*scale, radius, c)
		return
	}
	for i := 0; i < len(pts)-1; i++ {
		x0, y0 := pts[i].X*scale, pts[i].Y*scale
		x1, y1 := pts[i+1].X*scale, pts[i+1].Y*scale
		dist := math.Hypot(x1-x0, y1-y0)
		steps := int(dist/0.5) + 1
		for step := 0; step <= steps; step++ {
			t := float64(step) / float64(steps)
			stampDisc(layer, x0+(x1-x0)*t, y0+(y1-y0)*t, radius, c)
		}
	}
}

// stampDisc fills a disc of the given radius centered at (cx, cy). Alpha is
// written as a maximum so overlapping stamps of a semi-transparent stroke do
// not darken.
func stampDisc(layer *image.NRGBA, cx, cy, radius float64, c color.NRGBA) {
	x0 := int(math.Floor(cx - radius))
	x1 := int(math.Ceil(cx + radius))
	y0 := int(math.Floor(cy - radius))
	y1 := int(math.Ceil(cy + radius))
	w := layer.Rect.Dx()
	h := layer.Rect.Dy()
	r2 := radius * radius

	for y := y0; y <= y1; y++ {
		if y < 0 || y >= h {
			continue
		}
		for x := x0; x <= x1; x++ {
			if x < 0 || x >= w {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := layer.PixOffset(x, y)
			layer.Pix[i+0] = c.R
			layer.Pix[i+1] = c.G
			layer.Pix[i+2] = c.B
			if c.A > layer.Pix[i+3] {
				layer.Pix[i+3] = c.A
			}
		}
	}
}
