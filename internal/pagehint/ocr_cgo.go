//go:build cgo && linux

package pagehint

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// SuggestFromImage runs OCR over a captured page photo and extracts the most
// confident printed page number as a candidate. Returns ErrNoPageNumber when
// the page carries no recognizable folio.
//
// Requires CGO and a system Tesseract installation with English training
// data.
func SuggestFromImage(img image.Image) (Candidate, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Candidate{}, fmt.Errorf("failed to encode image for ocr: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Candidate{}, fmt.Errorf("failed to set ocr image: %w", err)
	}
	if err := client.SetLanguage("eng"); err != nil {
		return Candidate{}, fmt.Errorf("failed to set ocr language: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Candidate{}, fmt.Errorf("ocr failed: %w", err)
	}

	words := make([]word, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, word{
			text:       box.Word,
			confidence: float64(box.Confidence) / 100.0,
		})
	}

	page, confidence, ok := bestNumericToken(words)
	if !ok {
		return Candidate{}, ErrNoPageNumber
	}
	return Candidate{Page: page, Source: SourceOCR, Confidence: confidence}, nil
}
