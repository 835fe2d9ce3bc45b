package capture

import (
	"context"
	"errors"
	"image"
)

// ErrAcquireCancelled is returned by an Acquirer when the user dismisses the
// acquisition UI without producing an image. It terminates the capture
// session via the Cancelled state and is not treated as a failure.
var ErrAcquireCancelled = errors.New("acquisition cancelled by user")

// SourceKind identifies which acquisition UI produced a capture.
type SourceKind int

const (
	// SourceCamera is a plain camera shot.
	SourceCamera SourceKind = iota

	// SourceDocumentScanner is a document-scanner capture, already
	// edge-detected and cropped by the scanner. Further rectification is
	// still permitted.
	SourceDocumentScanner
)

// RawCapture is the unmodified raster straight from acquisition hardware.
// It is created by the acquisition stage and owned by the capture session
// until consumed by the next stage or discarded on cancel.
type RawCapture struct {
	Image  image.Image
	Source SourceKind
}

// Width returns the capture's pixel width.
func (rc *RawCapture) Width() int { return rc.Image.Bounds().Dx() }

// Height returns the capture's pixel height.
func (rc *RawCapture) Height() int { return rc.Image.Bounds().Dy() }

// Acquirer abstracts the acquisition UI (document scanner or plain camera).
// Acquire blocks until the user finishes with the hardware and either yields
// a RawCapture or returns ErrAcquireCancelled. Implementations must honor
// ctx cancellation.
type Acquirer interface {
	Acquire(ctx context.Context) (*RawCapture, error)
}
