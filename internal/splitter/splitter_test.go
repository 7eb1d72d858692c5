package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

func doc(id, text string, meta map[string]any) domain.Document {
	return domain.Document{ID: id, Text: text, Metadata: meta}
}

func TestSplit(t *testing.T) {
	t.Run("empty document produces no chunks", func(t *testing.T) {
		s := New()
		assert.Empty(t, s.Split(doc("d1", "", nil)))
		assert.Empty(t, s.Split(doc("d1", "   \n\t", nil)))
	})

	t.Run("chunks carry position ordinals and parent id", func(t *testing.T) {
		s := New(WithChunkSize(40), WithOverlap(0))
		text := strings.Repeat("The brain is a complex organ. ", 20)

		chunks := s.Split(doc("d1", text, map[string]any{"url": "https://example.com"}))
		require.Greater(t, len(chunks), 1)

		seen := map[string]bool{}
		for i, c := range chunks {
			assert.Equal(t, "d1", c.DocumentID)
			assert.Equal(t, i, c.Position)
			assert.NotEmpty(t, c.ID)
			assert.False(t, seen[c.ID], "chunk IDs must be unique")
			seen[c.ID] = true
		}
	})

	t.Run("chunks never exceed the configured size", func(t *testing.T) {
		s := New(WithChunkSize(50), WithOverlap(10))
		text := strings.Repeat("Neurons fire in patterns across the cortex. ", 30)

		for _, c := range s.Split(doc("d1", text, nil)) {
			assert.LessOrEqual(t, len(c.Text), 50)
		}
	})

	t.Run("metadata is copied, not aliased", func(t *testing.T) {
		s := New()
		meta := map[string]any{"url": "https://example.com", "source_type": "webpage"}

		chunks := s.Split(doc("d1", "Some text about datasets.", meta))
		require.Len(t, chunks, 1)

		chunks[0].Metadata["url"] = "mutated"
		assert.Equal(t, "https://example.com", meta["url"])
		assert.Equal(t, "webpage", chunks[0].Metadata["source_type"])
	})

	t.Run("consecutive chunks share overlap", func(t *testing.T) {
		s := New(WithChunkSize(40), WithOverlap(10))
		text := "First sentence here. Second one there. A third follows now. And a fourth ends."

		chunks := s.Split(doc("d1", text, nil))
		require.Greater(t, len(chunks), 1)

		tail := chunks[0].Text[len(chunks[0].Text)-10:]
		assert.True(t, strings.HasPrefix(chunks[1].Text, tail),
			"chunk %q should start with overlap %q", chunks[1].Text, tail)
	})

	t.Run("oversized single sentence is hard split", func(t *testing.T) {
		s := New(WithChunkSize(30), WithOverlap(0))
		text := strings.Repeat("x", 100)

		chunks := s.Split(doc("d1", text, nil))
		require.Greater(t, len(chunks), 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c.Text), 30)
		}
	})
}

func TestSplitMarkdown(t *testing.T) {
	t.Run("cuts at heading boundaries", func(t *testing.T) {
		s := New(WithChunkSize(30), WithOverlap(0))
		text := "# Intro\nShort intro line.\n\n# Usage\nHow to use the tool.\n\n# License\nMIT licensed.\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "README.md"}))
		require.Len(t, chunks, 3)
		assert.True(t, strings.HasPrefix(chunks[0].Text, "# Intro"))
		assert.True(t, strings.HasPrefix(chunks[1].Text, "# Usage"))
		assert.True(t, strings.HasPrefix(chunks[2].Text, "# License"))
	})

	t.Run("ignores headings inside code fences", func(t *testing.T) {
		s := New(WithChunkSize(200), WithOverlap(0))
		text := "# Only section\n```\n# not a heading\ncode line\n```\ntrailing text\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "guide.md"}))
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].Text, "# not a heading")
	})

	t.Run("packs small sections together under large chunk size", func(t *testing.T) {
		s := New()
		text := "# A\none\n\n# B\ntwo\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "notes.md"}))
		require.Len(t, chunks, 1)
	})
}

func TestSplitCode(t *testing.T) {
	t.Run("cuts at top-level definitions", func(t *testing.T) {
		s := New(WithChunkSize(80), WithOverlap(0))
		text := "import os\n\ndef first():\n    return 1\n\ndef second():\n    return 2\n\nclass Thing:\n    pass\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "module.py"}))
		require.GreaterOrEqual(t, len(chunks), 2)

		joined := ""
		for _, c := range chunks {
			joined += c.Text + "\n"
		}
		assert.Contains(t, joined, "def first()")
		assert.Contains(t, joined, "class Thing:")
	})

	t.Run("keeps an indented body with its definition", func(t *testing.T) {
		s := New(WithChunkSize(120), WithOverlap(0))
		text := "def outer():\n    if True:\n        return 1\n\n    return 2\n\ndef next_one():\n    pass\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "module.py"}))
		for _, c := range chunks {
			if strings.Contains(c.Text, "def outer()") {
				assert.Contains(t, c.Text, "return 2")
			}
		}
	})
}

func TestSplitRecords(t *testing.T) {
	t.Run("packs whole record lines", func(t *testing.T) {
		s := New(WithChunkSize(60), WithOverlap(0))
		text := "datasets[0].id: 1\ndatasets[0].name: kasthuri2015\ndatasets[1].id: 2\ndatasets[1].name: bock2011\n"

		chunks := s.Split(doc("d1", text, map[string]any{"file_path": "api/datasets.json"}))
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			for _, line := range strings.Split(c.Text, "\n") {
				assert.Contains(t, line, ": ", "record lines must stay whole")
			}
		}
	})
}

func TestSplitAll(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(0))
	docs := []domain.Document{
		doc("d1", "First document text goes here.", nil),
		doc("d2", "", nil),
		doc("d3", "Third document text goes here.", nil),
	}

	chunks := s.SplitAll(docs)
	require.Len(t, chunks, 2)
	assert.Equal(t, "d1", chunks[0].DocumentID)
	assert.Equal(t, "d3", chunks[1].DocumentID)
}
