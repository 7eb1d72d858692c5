package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	l, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, l.LastUpdate)
	assert.Empty(t, l.DocumentHashes)
	assert.Empty(t, l.ProcessedURLs)
	assert.Empty(t, l.ProcessedOrgs)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	l := New()
	l.Record("https://example.org/a", "hash-a")
	l.Record("https://example.org/b", "hash-b")
	l.RecordOrg("bossdb")
	l.Stamp()

	require.NoError(t, l.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, l.DocumentHashes, loaded.DocumentHashes)
	assert.Equal(t, l.ProcessedURLs, loaded.ProcessedURLs)
	assert.Equal(t, l.ProcessedOrgs, loaded.ProcessedOrgs)
	require.NotNil(t, loaded.LastUpdate)
	assert.WithinDuration(t, *l.LastUpdate, *loaded.LastUpdate, time.Second)
}

func TestSave_WireFormat(t *testing.T) {
	// The on-disk shape has exactly four top-level keys and serializes
	// the URL/org sets as arrays.
	dir := t.TempDir()

	l := New()
	l.Record("https://example.org/z", "hz")
	l.Record("https://example.org/a", "ha")
	l.RecordOrg("org1")
	require.NoError(t, l.Save(dir))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 4)
	for _, key := range []string{"last_update", "document_hashes", "processed_urls", "processed_orgs"} {
		assert.Contains(t, raw, key)
	}

	var urls []string
	require.NoError(t, json.Unmarshal(raw["processed_urls"], &urls))
	assert.Equal(t, []string{"https://example.org/a", "https://example.org/z"}, urls)
}

func TestHashMatches(t *testing.T) {
	l := New()
	l.Record("u", "h")

	assert.True(t, l.HashMatches("u", "h"))
	assert.False(t, l.HashMatches("u", "other"))
	assert.False(t, l.HashMatches("unknown", "h"))
}

func TestSave_AtomicOverwrite(t *testing.T) {
	dir := t.TempDir()

	l := New()
	l.Record("u1", "h1")
	require.NoError(t, l.Save(dir))

	l.Record("u2", "h2")
	require.NoError(t, l.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded.ProcessedURLs, 2)

	// No leftover temp files from the atomic rename.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
