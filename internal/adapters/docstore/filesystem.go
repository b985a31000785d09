// Package docstore provides document store implementations the expander
// fetches pipeline and template documents through.
package docstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
)

var _ ports.DocumentStore = (*FilesystemStore)(nil)

// FilesystemStore reads documents from disk, rooted at a base directory.
// Template references resolve relative to the referencing document, so a
// template can reference its own siblings regardless of where the root
// pipeline lives.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a store rooted at the given directory.
func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: filepath.Clean(root)}
}

// Get reads the document at the given store path.
func (s *FilesystemStore) Get(_ context.Context, path string) ([]byte, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, path)
	}

	// #nosec G304 -- the store is scoped to documents the caller points it at
	raw, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrDocumentNotFound, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read document"), "path", path)
	}
	return raw, nil
}

// Resolve maps a template reference to a store path. References starting with
// "/" resolve against the store root, everything else against the directory
// of the referencing document.
func (s *FilesystemStore) Resolve(fromDoc, ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	if len(ref) > 0 && ref[0] == '/' {
		return filepath.Clean(filepath.Join(s.root, ref[1:]))
	}
	return filepath.Clean(filepath.Join(filepath.Dir(fromDoc), ref))
}
