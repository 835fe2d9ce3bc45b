//go:build !cgo || !linux

package pagehint

import "image"

// SuggestFromImage is unavailable without CGO and Tesseract; speech remains
// the only candidate producer in such builds.
func SuggestFromImage(img image.Image) (Candidate, error) {
	return Candidate{}, ErrOCRUnavailable
}
