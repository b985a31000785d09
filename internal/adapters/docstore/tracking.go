package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/planoci/plano/internal/core/ports"
)

var _ ports.DocumentStore = (*TrackingStore)(nil)

// TrackingStore wraps a store and records every path fetched through it.
// Watch mode uses the recorded set to watch exactly the documents a render
// actually touched, templates included.
type TrackingStore struct {
	inner ports.DocumentStore

	mu   sync.Mutex
	seen map[string]bool
}

// NewTrackingStore wraps the given store.
func NewTrackingStore(inner ports.DocumentStore) *TrackingStore {
	return &TrackingStore{inner: inner, seen: make(map[string]bool)}
}

// Get fetches through the wrapped store, recording the path.
func (s *TrackingStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	s.seen[path] = true
	s.mu.Unlock()
	return s.inner.Get(ctx, path)
}

// Resolve delegates to the wrapped store.
func (s *TrackingStore) Resolve(fromDoc, ref string) string {
	return s.inner.Resolve(fromDoc, ref)
}

// Accessed returns the sorted set of paths fetched so far.
func (s *TrackingStore) Accessed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.seen))
	for p := range s.seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reset clears the recorded set before a re-render.
func (s *TrackingStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]bool)
}
