package ports

import "context"

// DocumentStore is the abstraction the expander fetches template documents
// through. Implementations may read from disk, memory, or a remote repository;
// retry policy for transient failures belongs to the implementation.
//
//go:generate mockgen -source=document_store.go -destination=mocks/mock_document_store.go -package=mocks
type DocumentStore interface {
	// Get returns the raw bytes of the document at the given store path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Resolve maps a template reference as written at a call site to a store
	// path, resolving it relative to the referencing document.
	Resolve(fromDoc, ref string) string
}
