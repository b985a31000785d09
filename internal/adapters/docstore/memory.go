package docstore

import (
	"context"
	"path"

	"go.trai.ch/zerr"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
)

var _ ports.DocumentStore = (*MemoryStore)(nil)

// MemoryStore serves documents from an in-memory map. Used in tests and
// wherever documents arrive from somewhere other than disk.
type MemoryStore struct {
	docs map[string]string
}

// NewMemoryStore creates a store over the given path to content mapping.
func NewMemoryStore(docs map[string]string) *MemoryStore {
	copied := make(map[string]string, len(docs))
	for k, v := range docs {
		copied[path.Clean(k)] = v
	}
	return &MemoryStore{docs: copied}
}

// Get returns the document stored at path.
func (s *MemoryStore) Get(_ context.Context, p string) ([]byte, error) {
	doc, ok := s.docs[path.Clean(p)]
	if !ok {
		return nil, zerr.With(domain.ErrDocumentNotFound, "path", p)
	}
	return []byte(doc), nil
}

// Resolve maps a reference to a store path, relative to the referencing
// document's directory. References starting with "/" resolve from the root.
func (s *MemoryStore) Resolve(fromDoc, ref string) string {
	if len(ref) > 0 && ref[0] == '/' {
		return path.Clean(ref[1:])
	}
	return path.Clean(path.Join(path.Dir(fromDoc), ref))
}
