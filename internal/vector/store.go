// Package vector implements the chunk embedding store: brute-force
// cosine similarity over in-memory vectors, persisted to a SQLite
// database file.
package vector

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
)

// FileName is the name of the persisted store inside the storage
// directory.
const FileName = "index.db"

// DefaultTopK is the number of results returned when the caller asks
// for a non-positive k.
const DefaultTopK = 5

// Store holds chunk embeddings in memory and searches them with
// brute-force cosine similarity. Vectors are L2-normalised at insert
// so similarity reduces to a dot product.
//
// Reads are safe concurrently; mutation is single-writer.
type Store struct {
	embedder driven.EmbeddingService
	path     string

	mu      sync.RWMutex
	chunks  []domain.Chunk
	vectors [][]float32
}

// NewStore creates a store persisted at dir/index.db.
func NewStore(embedder driven.EmbeddingService, dir string) *Store {
	return &Store{
		embedder: embedder,
		path:     filepath.Join(dir, FileName),
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Insert embeds the chunks and adds them to the store.
func (s *Store) Insert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range vectors {
		s.chunks = append(s.chunks, chunks[i])
		s.vectors = append(s.vectors, normalise(v))
	}
	return nil
}

// Query embeds text and returns the k most similar chunks, best first.
func (s *Store) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query = normalise(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.ScoredChunk, len(s.chunks))
	for i := range s.chunks {
		scored[i] = domain.ScoredChunk{
			Chunk: s.chunks[i],
			Score: float64(dot(s.vectors[i], query)),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len reports the number of chunks currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Close releases resources. The in-memory store holds no handles
// between Persist/Load calls.
func (s *Store) Close() error {
	return nil
}

// Delete removes the persisted database file. Missing files are not
// an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", s.path, err)
	}
	return nil
}

// normalise scales a vector to unit length. Zero vectors pass through
// unchanged.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

var _ driven.VectorStore = (*Store)(nil)
