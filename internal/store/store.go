// Package store persists final capture artifacts. The capture pipeline's
// only dependency on persistence is the Archive interface: compressed raster
// bytes in, an opaque photo ID out. Artifacts carry no custom header or
// versioning.
package store

import (
	"context"
	"errors"
)

// BookID identifies the book a photo belongs to.
type BookID string

// PhotoID is an opaque identifier for a stored photo.
type PhotoID string

// ErrNotFound is returned when a photo ID does not exist in the archive.
var ErrNotFound = errors.New("photo not found")

// Archive stores final capture artifacts keyed to a book.
type Archive interface {
	// Save persists imageBytes as a new photo of the given book and
	// returns its ID. The bytes are expected to be a compressed raster
	// format (JPEG).
	Save(ctx context.Context, imageBytes []byte, book BookID) (PhotoID, error)

	// Delete removes a previously saved photo. Returns ErrNotFound if the
	// ID is unknown.
	Delete(ctx context.Context, id PhotoID) error
}
