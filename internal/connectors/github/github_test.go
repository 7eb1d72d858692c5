package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// newTestClient points a Client at an httptest server. go-github
// prefixes enterprise base URLs with /api/v3/.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClientWithHTTPClient(server.Client(), server.URL)
	require.NoError(t, err)
	return client
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestWalkRepository(t *testing.T) {
	t.Run("fetches allow-listed files from main branch", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "root",
				"tree": []map[string]any{
					{"path": "README.md", "type": "blob", "sha": "aaaa111122223333"},
					{"path": "scripts/run.py", "type": "blob", "sha": "bbbb111122223333"},
					{"path": "logo.png", "type": "blob", "sha": "cccc111122223333"},
					{"path": "scripts", "type": "tree", "sha": "dddd111122223333"},
				},
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/blobs/aaaa111122223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "aaaa111122223333", "encoding": "base64", "content": b64("# Tools"),
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/blobs/bbbb111122223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "bbbb111122223333", "encoding": "base64", "content": b64("print('hi')"),
			})
		})

		client := newTestClient(t, mux)
		docs, err := client.WalkRepository(context.Background(), "bossdb", "tools", WalkOptions{
			URL:        "https://github.com/bossdb/tools",
			SourceType: domain.SourceGithubRepo,
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)

		byPath := map[string]domain.Document{}
		for _, doc := range docs {
			byPath[doc.Metadata["file_path"].(string)] = doc
		}

		readme := byPath["README.md"]
		assert.Equal(t, "github_bossdb_tools_aaaa1111", readme.ID)
		assert.Equal(t, "# Tools", readme.Text)
		assert.Equal(t, "https://github.com/bossdb/tools", readme.Metadata["url"])
		assert.Equal(t, "github_repo", readme.Metadata["source_type"])
		assert.Equal(t, "bossdb", readme.Metadata["owner"])
		assert.Equal(t, "tools", readme.Metadata["repo"])

		script := byPath["scripts/run.py"]
		assert.Equal(t, "print('hi')", script.Text)
	})

	t.Run("falls back to master when main is missing", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/old/legacy/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
		})
		mux.HandleFunc("/api/v3/repos/old/legacy/git/trees/master", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "root",
				"tree": []map[string]any{
					{"path": "notes.md", "type": "blob", "sha": "eeee111122223333"},
				},
			})
		})
		mux.HandleFunc("/api/v3/repos/old/legacy/git/blobs/eeee111122223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "eeee111122223333", "encoding": "base64", "content": b64("legacy notes"),
			})
		})

		client := newTestClient(t, mux)
		docs, err := client.WalkRepository(context.Background(), "old", "legacy", WalkOptions{
			URL:        "https://github.com/old/legacy",
			SourceType: domain.SourceGithubRepo,
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "legacy notes", docs[0].Text)
	})

	t.Run("restricts walk to a path prefix", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "root",
				"tree": []map[string]any{
					{"path": "docs/guide.md", "type": "blob", "sha": "1111aaaa22223333"},
					{"path": "README.md", "type": "blob", "sha": "2222aaaa22223333"},
				},
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/blobs/1111aaaa22223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "1111aaaa22223333", "encoding": "base64", "content": b64("guide"),
			})
		})

		client := newTestClient(t, mux)
		docs, err := client.WalkRepository(context.Background(), "bossdb", "tools", WalkOptions{
			PathPrefix: "docs",
			URL:        "https://github.com/bossdb/tools/tree/main/docs",
			SourceType: domain.SourceGithubDir,
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "docs/guide.md", docs[0].Metadata["file_path"])
		assert.Equal(t, "github_directory", docs[0].Metadata["source_type"])
	})

	t.Run("skips blobs that fail to fetch", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "root",
				"tree": []map[string]any{
					{"path": "good.md", "type": "blob", "sha": "3333aaaa22223333"},
					{"path": "bad.md", "type": "blob", "sha": "4444aaaa22223333"},
				},
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/blobs/3333aaaa22223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "3333aaaa22223333", "encoding": "base64", "content": b64("good"),
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/tools/git/blobs/4444aaaa22223333", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		client := newTestClient(t, mux)
		docs, err := client.WalkRepository(context.Background(), "bossdb", "tools", WalkOptions{
			URL:        "https://github.com/bossdb/tools",
			SourceType: domain.SourceGithubRepo,
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "good", docs[0].Text)
	})

	t.Run("returns error when neither branch exists", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
		})

		client := newTestClient(t, mux)
		_, err := client.WalkRepository(context.Background(), "no", "such", WalkOptions{})
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestFetchOrgReadmes(t *testing.T) {
	t.Run("collects readmes with repository metadata", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/orgs/bossdb/repos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, []map[string]any{
				{
					"name":             "intern",
					"html_url":         "https://github.com/bossdb/intern",
					"description":      "Python API for bossDB",
					"default_branch":   "main",
					"stargazers_count": 42,
					"forks_count":      7,
					"language":         "Python",
					"topics":           []string{"neuroscience", "api"},
					"visibility":       "public",
					"created_at":       "2020-01-15T10:00:00Z",
					"updated_at":       "2024-06-01T12:30:00Z",
				},
				{
					"name":           "empty-repo",
					"html_url":       "https://github.com/bossdb/empty-repo",
					"default_branch": "main",
				},
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/intern/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"type": "file", "name": "README.md", "path": "README.md",
				"sha": "5555aaaa22223333",
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/intern/git/blobs/5555aaaa22223333", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"sha": "5555aaaa22223333", "encoding": "base64", "content": b64("# intern"),
			})
		})
		mux.HandleFunc("/api/v3/repos/bossdb/empty-repo/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
		})

		client := newTestClient(t, mux)
		docs, err := client.FetchOrgReadmes(context.Background(), "bossdb")
		require.NoError(t, err)
		require.Len(t, docs, 1)

		doc := docs[0]
		assert.Equal(t, "github_readme_bossdb_intern_5555aaaa", doc.ID)
		assert.Equal(t, "# intern", doc.Text)
		assert.Equal(t, "https://github.com/bossdb/intern/blob/main/README.md", doc.Metadata["url"])
		assert.Equal(t, "github_readme", doc.Metadata["source_type"])
		assert.Equal(t, "bossdb", doc.Metadata["organization"])
		assert.Equal(t, "intern", doc.Metadata["repository"])
		assert.Equal(t, "Python API for bossDB", doc.Metadata["repository_description"])
		assert.Equal(t, 42, doc.Metadata["repository_stars"])
		assert.Equal(t, 7, doc.Metadata["repository_forks"])
		assert.Equal(t, "Python", doc.Metadata["repository_language"])
		assert.Equal(t, "5555aaaa22223333", doc.Metadata["readme_sha"])
		assert.Equal(t, "README.md", doc.Metadata["file_path"])
	})

	t.Run("fails when the organization cannot be listed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/orgs/ghost/repos", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
		})

		client := newTestClient(t, mux)
		_, err := client.FetchOrgReadmes(context.Background(), "ghost")
		require.Error(t, err)
	})
}

func TestListOrgReposPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/orgs/big/repos", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s://%s/api/v3/orgs/big/repos?page=2>; rel="next"`, "http", r.Host))
			writeJSON(w, []map[string]any{{"name": "one"}, {"name": "two"}})
			return
		}
		writeJSON(w, []map[string]any{{"name": "three"}})
	})

	client := newTestClient(t, mux)
	repos, err := client.ListOrgRepos(context.Background(), "big")
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "three", repos[2].GetName())
}

func TestHasTextExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"notebook.ipynb", true},
		{"data.JSON", true},
		{"script.py", true},
		{"image.png", false},
		{"archive.tar.gz", false},
		{"Makefile", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hasTextExtension(tt.path), tt.path)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Run("updates state from response headers", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{Header: http.Header{}}
		resp.Header.Set(headerRateRemaining, "4200")
		resp.Header.Set(headerRateLimit, "5000")
		resp.Header.Set(headerRateReset, "1700000000")

		rl.UpdateFromResponse(resp)

		assert.Equal(t, 4200, rl.Remaining())
		assert.Equal(t, int64(1700000000), rl.ResetTime().Unix())
	})

	t.Run("ignores nil responses", func(t *testing.T) {
		rl := NewRateLimiter()
		rl.UpdateFromResponse(nil)
		assert.Equal(t, GitHubRateLimit, rl.Remaining())
	})
}
