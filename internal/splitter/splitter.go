// Package splitter turns fetched documents into embeddable chunks.
// The splitting strategy is picked per document from its file
// extension: code files split on top-level definitions, markdown on
// headings, structured records on record lines, everything else on
// sentence boundaries.
package splitter

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1024

// DefaultChunkOverlap is the default number of overlapping characters
// carried from one chunk into the next.
const DefaultChunkOverlap = 20

// Splitter splits documents into chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split chunks a single document. Every chunk carries its own copy of
// the document metadata and an ordinal position. Empty documents
// produce no chunks.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	var pieces []string
	switch ext := strings.ToLower(path.Ext(doc.FilePath())); ext {
	case ".py", ".ipynb":
		pieces = s.splitCode(doc.Text)
	case ".md":
		pieces = s.splitMarkdown(doc.Text)
	case ".json":
		pieces = s.splitRecords(doc.Text)
	default:
		pieces = s.splitSentences(doc.Text)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Text:       piece,
			Position:   i,
			Metadata:   domain.CopyMetadata(doc.Metadata),
		})
	}
	return chunks
}

// SplitAll chunks a batch of documents in order.
func (s *Splitter) SplitAll(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.Split(doc)...)
	}
	return chunks
}

// pack greedily joins segments into chunks up to chunkSize. When a
// chunk boundary falls between segments, the tail of the emitted chunk
// is carried into the next as overlap. Segments larger than chunkSize
// are hard-split.
func (s *Splitter) pack(segments []string, sep string) []string {
	var out []string
	var cur string

	emit := func() {
		cur = strings.TrimSpace(cur)
		if cur != "" {
			out = append(out, cur)
		}
		cur = ""
	}

	// overlapTail returns the trailing overlap characters of the last
	// emitted chunk.
	overlapTail := func() string {
		if s.overlap <= 0 || len(out) == 0 {
			return ""
		}
		prev := out[len(out)-1]
		if len(prev) > s.overlap {
			prev = prev[len(prev)-s.overlap:]
		}
		return prev
	}

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		for len(seg) > s.chunkSize {
			emit()
			out = append(out, seg[:s.chunkSize])
			cut := s.chunkSize - s.overlap
			if cut <= 0 {
				cut = s.chunkSize
			}
			seg = strings.TrimSpace(seg[cut:])
		}
		if seg == "" {
			continue
		}

		if cur == "" {
			if tail := overlapTail(); tail != "" && len(tail)+len(sep)+len(seg) <= s.chunkSize {
				cur = tail + sep + seg
			} else {
				cur = seg
			}
			continue
		}

		if len(cur)+len(sep)+len(seg) > s.chunkSize {
			emit()
			if tail := overlapTail(); tail != "" && len(tail)+len(sep)+len(seg) <= s.chunkSize {
				cur = tail + sep + seg
			} else {
				cur = seg
			}
			continue
		}
		cur += sep + seg
	}
	emit()
	return out
}
