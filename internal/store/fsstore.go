package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FSArchive is a filesystem-backed Archive: one directory per book, one
// JPEG file per photo, named by a generated UUID. Writes go through a
// temporary file and a rename so a crash never leaves a partial artifact.
type FSArchive struct {
	root string
}

// NewFSArchive creates (if needed) and opens an archive rooted at dir.
func NewFSArchive(dir string) (*FSArchive, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FSArchive{root: dir}, nil
}

// Root returns the archive's root directory.
func (a *FSArchive) Root() string {
	return a.root
}

// Save writes imageBytes as a new photo of book and returns its ID.
func (a *FSArchive) Save(ctx context.Context, imageBytes []byte, book BookID) (PhotoID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(imageBytes) == 0 {
		return "", fmt.Errorf("refusing to save empty artifact")
	}
	if err := validateBookID(book); err != nil {
		return "", err
	}

	bookDir := filepath.Join(a.root, string(book))
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create book directory: %w", err)
	}

	name := uuid.NewString() + ".jpg"
	final := filepath.Join(bookDir, name)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, imageBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to commit artifact: %w", err)
	}

	return PhotoID(string(book) + "/" + name), nil
}

// Delete removes a stored photo. Returns ErrNotFound for unknown IDs.
func (a *FSArchive) Delete(ctx context.Context, id PhotoID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := a.photoPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// List returns the photo IDs stored for a book, sorted by name. A book with
// no photos yields an empty slice.
func (a *FSArchive) List(ctx context.Context, book BookID) ([]PhotoID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateBookID(book); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(a.root, string(book)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list book photos: %w", err)
	}

	var ids []PhotoID
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		ids = append(ids, PhotoID(string(book)+"/"+e.Name()))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// photoPath resolves a PhotoID to a path under the archive root, rejecting
// IDs that would escape it.
func (a *FSArchive) photoPath(id PhotoID) (string, error) {
	book, name, ok := strings.Cut(string(id), "/")
	if !ok || book == "" || name == "" {
		return "", fmt.Errorf("malformed photo id %q: %w", id, ErrNotFound)
	}
	if err := validateBookID(BookID(book)); err != nil {
		return "", err
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("malformed photo id %q: %w", id, ErrNotFound)
	}
	return filepath.Join(a.root, book, name), nil
}

// validateBookID rejects book IDs that cannot be used as a directory name.
func validateBookID(book BookID) error {
	s := string(book)
	if s == "" {
		return fmt.Errorf("book id must not be empty")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("book id %q contains path separators", s)
	}
	return nil
}
