package raster

import (
	"image"
	"image/color"
	"testing"
)

// createDocumentImage draws a dark page-like rectangle on a white background,
// with the rectangle occupying the given fraction of each axis, centered.
func createDocumentImage(width, height int, fraction float64) *image.NRGBA {
	img := createSolidImage(width, height, color.NRGBA{250, 250, 250, 255})
	dw := int(float64(width) * fraction)
	dh := int(float64(height) * fraction)
	x0 := (width - dw) / 2
	y0 := (height - dh) / 2
	for y := y0; y < y0+dh; y++ {
		for x := x0; x < x0+dw; x++ {
			img.Set(x, y, color.NRGBA{40, 40, 40, 255})
		}
	}
	return img
}

func TestSuggestQuad_FindsCenteredDocument(t *testing.T) {
	img := createDocumentImage(400, 400, 0.5)

	quad, found := SuggestQuad(img)
	if !found {
		t.Fatal("expected a document outline to be found")
	}

	// The document spans [0.25, 0.75] on both axes; allow slack for the
	// downscale and edge thickness.
	const tol = 0.08
	if quad.TopLeft.X < 0.25-tol || quad.TopLeft.X > 0.25+tol {
		t.Errorf("TopLeft.X = %.3f, want ~0.25", quad.TopLeft.X)
	}
	if quad.TopRight.X < 0.75-tol || quad.TopRight.X > 0.75+tol {
		t.Errorf("TopRight.X = %.3f, want ~0.75", quad.TopRight.X)
	}
	// Unit space Y points up: visual top of the document (25% down) is Y~0.75.
	if quad.TopLeft.Y < 0.75-tol || quad.TopLeft.Y > 0.75+tol {
		t.Errorf("TopLeft.Y = %.3f, want ~0.75", quad.TopLeft.Y)
	}
	if quad.BottomLeft.Y < 0.25-tol || quad.BottomLeft.Y > 0.25+tol {
		t.Errorf("BottomLeft.Y = %.3f, want ~0.25", quad.BottomLeft.Y)
	}
}

func TestSuggestQuad_BlankImageFallsBack(t *testing.T) {
	img := createSolidImage(300, 300, color.NRGBA{255, 255, 255, 255})

	quad, found := SuggestQuad(img)
	if found {
		t.Error("blank image should not yield a document outline")
	}
	if quad != DefaultQuad() {
		t.Errorf("fallback quad: got %+v, want DefaultQuad()", quad)
	}
}

func TestSuggestQuad_TinyImageFallsBack(t *testing.T) {
	img := createSolidImage(4, 4, color.NRGBA{0, 0, 0, 255})

	if _, found := SuggestQuad(img); found {
		t.Error("tiny image should fall back to the default quad")
	}
}

func TestSuggestQuad_QuadStaysInUnitSpace(t *testing.T) {
	img := createDocumentImage(640, 480, 0.8)

	quad, _ := SuggestQuad(img)
	for _, p := range []UnitPoint{quad.TopLeft, quad.TopRight, quad.BottomLeft, quad.BottomRight} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Errorf("corner %+v outside unit space", p)
		}
	}
}
