package driven

import (
	"context"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// VectorStore is the opaque persistent store of chunk embeddings.
//
// Insert must be usable both for building from empty and for appending
// to an existing store. Persist/Load must round-trip exactly: a reloaded
// store is query-equivalent to the store that was persisted. The index
// builder never searches; similarity queries belong to the query engine.
//
// Mutation is single-writer: one build at a time per store instance.
// Reads are safe concurrently between builds.
type VectorStore interface {
	// Insert embeds the given chunks and adds them to the store.
	Insert(ctx context.Context, chunks []domain.Chunk) error

	// Query embeds the text and returns the k nearest chunks with
	// similarity scores, best first.
	Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error)

	// Persist writes the store's current contents to durable storage.
	Persist(ctx context.Context) error

	// Load replaces the store's contents from durable storage.
	Load(ctx context.Context) error

	// Len reports the number of chunks currently held.
	Len() int

	// Close releases resources.
	Close() error
}
