// Package domain contains the core types shared across the indexing
// pipeline and the query engine.
package domain

// SourceType classifies where a document's content came from.
type SourceType string

const (
	SourceWebpage    SourceType = "webpage"
	SourceGithubBlob SourceType = "github_blob"
	SourceGithubWiki SourceType = "github_wiki"
	SourceGithubDir  SourceType = "github_directory"
	SourceGithubRepo SourceType = "github_repo"
	SourceReadme     SourceType = "github_readme"
	SourceJSON       SourceType = "json"
	SourceNotebook   SourceType = "notebook"
)

// Document is a unit of fetched content before splitting.
// It is immutable once produced by a connector.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Text is the full extracted text content.
	Text string

	// Metadata contains source-specific key-value pairs. At minimum
	// connectors set "url" and "source_type"; GitHub connectors add
	// "owner", "repo" and "file_path", the org README sweep adds
	// repository-level fields.
	Metadata map[string]any
}

// URL returns the "url" metadata value, or empty string.
func (d *Document) URL() string {
	return d.metaString("url")
}

// SourceType returns the "source_type" metadata value, or empty string.
func (d *Document) SourceType() string {
	return d.metaString("source_type")
}

// FilePath returns the "file_path" metadata value, or empty string.
func (d *Document) FilePath() string {
	return d.metaString("file_path")
}

func (d *Document) metaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	switch v := d.Metadata[key].(type) {
	case string:
		return v
	case SourceType:
		return string(v)
	}
	return ""
}

// Chunk is an independently embeddable span of a Document's text.
// Chunks carry a copy of their parent's metadata and are never mutated
// after insertion into the vector store; superseded content is handled
// by inserting a new chunk set and letting the ledger retire the old hash.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the chunk's span of the parent text.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Metadata is a copy of the parent document's metadata.
	Metadata map[string]any
}

// URL returns the "url" metadata value, or empty string.
func (c *Chunk) URL() string {
	d := Document{Metadata: c.Metadata}
	return d.URL()
}

// SourceType returns the "source_type" metadata value, or empty string.
func (c *Chunk) SourceType() string {
	d := Document{Metadata: c.Metadata}
	return d.SourceType()
}

// ScoredChunk is a chunk returned from a similarity query with its score.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity against the query (higher is closer).
	Score float64
}

// CopyMetadata returns a shallow copy of a metadata map.
// Connectors and the splitter use it so produced values never alias
// the caller's map.
func CopyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
