package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_MetadataAccessors(t *testing.T) {
	doc := Document{
		ID:   "doc-1",
		Text: "content",
		Metadata: map[string]any{
			"url":         "https://github.com/bossdb/intern/blob/master/README.md",
			"source_type": SourceGithubBlob,
			"file_path":   "README.md",
		},
	}

	assert.Equal(t, "https://github.com/bossdb/intern/blob/master/README.md", doc.URL())
	assert.Equal(t, "github_blob", doc.SourceType())
	assert.Equal(t, "README.md", doc.FilePath())
}

func TestDocument_MissingMetadata(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"nil metadata", Document{ID: "d1"}},
		{"empty metadata", Document{ID: "d2", Metadata: map[string]any{}}},
		{"wrong value type", Document{ID: "d3", Metadata: map[string]any{"url": 42}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.doc.URL())
			assert.Empty(t, tt.doc.SourceType())
			assert.Empty(t, tt.doc.FilePath())
		})
	}
}

func TestChunk_MetadataAccessors(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Text:       "span",
		Metadata: map[string]any{
			"url":         "https://bossdb.org/projects",
			"source_type": "webpage",
		},
	}

	assert.Equal(t, "https://bossdb.org/projects", chunk.URL())
	assert.Equal(t, "webpage", chunk.SourceType())
}

func TestCopyMetadata(t *testing.T) {
	t.Run("copies without aliasing", func(t *testing.T) {
		original := map[string]any{"url": "https://a.example", "stars": 3}
		copied := CopyMetadata(original)

		copied["url"] = "https://b.example"
		assert.Equal(t, "https://a.example", original["url"])
		assert.Equal(t, 3, copied["stars"])
	})

	t.Run("nil map yields nil", func(t *testing.T) {
		assert.Nil(t, CopyMetadata(nil))
	})
}
