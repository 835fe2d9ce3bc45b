package raster

import (
	"image"
	"image/color"
	"testing"
)

// createSolidImage returns an in-memory image filled with a single color.
func createSolidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage returns an image with four solid quadrants:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func pixelAt(t *testing.T, img image.Image, x, y int) color.NRGBA {
	t.Helper()
	r, g, b, a := img.At(x, y).RGBA()
	return color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestRectify_IdentityQuad(t *testing.T) {
	img := createPatternImage(80, 60)

	out := Rectify(img, FullQuad())

	bounds := out.Bounds()
	if bounds.Dx() != 80 || bounds.Dy() != 60 {
		t.Fatalf("dimensions: got %dx%d, want 80x60", bounds.Dx(), bounds.Dy())
	}

	// Quadrant centers must be untouched by the identity transform.
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{20, 15, color.NRGBA{255, 0, 0, 255}},
		{60, 15, color.NRGBA{0, 255, 0, 255}},
		{20, 45, color.NRGBA{0, 0, 255, 255}},
		{60, 45, color.NRGBA{255, 255, 255, 255}},
	}
	for _, c := range checks {
		if got := pixelAt(t, out, c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestRectify_DegenerateQuadReturnsOriginal(t *testing.T) {
	img := createSolidImage(800, 600, color.NRGBA{10, 20, 30, 255})

	pt := UnitPoint{X: 0.5, Y: 0.5}
	quad := NormalizedQuad{TopLeft: pt, TopRight: pt, BottomLeft: pt, BottomRight: pt}

	out := Rectify(img, quad)
	if out != image.Image(img) {
		t.Error("degenerate quad should return the original image unchanged")
	}
}

func TestRectify_CollinearQuadReturnsOriginal(t *testing.T) {
	img := createSolidImage(100, 100, color.NRGBA{10, 20, 30, 255})

	quad := NormalizedQuad{
		TopLeft:     UnitPoint{X: 0.1, Y: 0.5},
		TopRight:    UnitPoint{X: 0.4, Y: 0.5},
		BottomLeft:  UnitPoint{X: 0.7, Y: 0.5},
		BottomRight: UnitPoint{X: 0.9, Y: 0.5},
	}

	out := Rectify(img, quad)
	if out != image.Image(img) {
		t.Error("collinear quad should return the original image unchanged")
	}
}

// TestRectify_YFlip verifies the unit-space Y convention: a quad covering the
// visual top half of the image must select the red/green quadrants, not the
// blue/white ones.
func TestRectify_YFlip(t *testing.T) {
	img := createPatternImage(100, 100)

	topHalf := NormalizedQuad{
		TopLeft:     UnitPoint{X: 0, Y: 1},
		TopRight:    UnitPoint{X: 1, Y: 1},
		BottomLeft:  UnitPoint{X: 0, Y: 0.5},
		BottomRight: UnitPoint{X: 1, Y: 0.5},
	}

	out := Rectify(img, topHalf)

	if got := pixelAt(t, out, 25, 50); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("left half: got %v, want red (Y flip missing?)", got)
	}
	if got := pixelAt(t, out, 75, 50); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("right half: got %v, want green (Y flip missing?)", got)
	}
}

func TestRectify_PerspectiveQuadKeepsDimensions(t *testing.T) {
	img := createPatternImage(120, 90)

	quad := NormalizedQuad{
		TopLeft:     UnitPoint{X: 0.15, Y: 0.92},
		TopRight:    UnitPoint{X: 0.88, Y: 0.85},
		BottomLeft:  UnitPoint{X: 0.05, Y: 0.1},
		BottomRight: UnitPoint{X: 0.95, Y: 0.18},
	}

	out := Rectify(img, quad)
	bounds := out.Bounds()
	if bounds.Dx() != 120 || bounds.Dy() != 90 {
		t.Errorf("dimensions: got %dx%d, want 120x90", bounds.Dx(), bounds.Dy())
	}
}

func TestRectify_CrossedQuadDoesNotPanic(t *testing.T) {
	img := createPatternImage(60, 60)

	// Top-left dragged past top-right. Output is unspecified but the call
	// must not panic and must keep the input dimensions or fall back.
	quad := NormalizedQuad{
		TopLeft:     UnitPoint{X: 0.9, Y: 0.9},
		TopRight:    UnitPoint{X: 0.1, Y: 0.9},
		BottomLeft:  UnitPoint{X: 0.1, Y: 0.1},
		BottomRight: UnitPoint{X: 0.9, Y: 0.1},
	}

	out := Rectify(img, quad)
	bounds := out.Bounds()
	if bounds.Dx() != 60 || bounds.Dy() != 60 {
		t.Errorf("dimensions: got %dx%d, want 60x60", bounds.Dx(), bounds.Dy())
	}
}

func TestRectify_OutOfRangeCornersAreClamped(t *testing.T) {
	img := createPatternImage(50, 50)

	quad := NormalizedQuad{
		TopLeft:     UnitPoint{X: -2, Y: 3},
		TopRight:    UnitPoint{X: 4, Y: 1.5},
		BottomLeft:  UnitPoint{X: -0.5, Y: -1},
		BottomRight: UnitPoint{X: 1.2, Y: -0.2},
	}

	// Clamps to the full image, i.e. the identity transform.
	out := Rectify(img, quad)
	if got := pixelAt(t, out, 12, 12); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (12,12): got %v, want red", got)
	}
}

func TestRectify_Deterministic(t *testing.T) {
	img := createPatternImage(64, 48)
	quad := NormalizedQuad{
		TopLeft:     UnitPoint{X: 0.2, Y: 0.95},
		TopRight:    UnitPoint{X: 0.85, Y: 0.9},
		BottomLeft:  UnitPoint{X: 0.1, Y: 0.05},
		BottomRight: UnitPoint{X: 0.9, Y: 0.15},
	}

	first := Rectify(img, quad).(*image.NRGBA)
	second := Rectify(img, quad).(*image.NRGBA)

	if len(first.Pix) != len(second.Pix) {
		t.Fatalf("pixel buffer lengths differ: %d vs %d", len(first.Pix), len(second.Pix))
	}
	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("outputs differ at byte %d", i)
		}
	}
}

func TestDefaultQuad_WithinUnitSpace(t *testing.T) {
	q := DefaultQuad()
	for _, p := range []UnitPoint{q.TopLeft, q.TopRight, q.BottomLeft, q.BottomRight} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Errorf("corner %v outside unit space", p)
		}
	}
	if q.TopLeft.Y <= q.BottomLeft.Y {
		t.Error("top corners should have larger Y than bottom corners (Y axis points up)")
	}
}
