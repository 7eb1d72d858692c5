package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/logger"
)

// ConcurrentBlobFetches bounds the fan-out of blob requests during a
// repository walk.
const ConcurrentBlobFetches = 10

// TextExtensions is the allow-list of text-like file extensions included
// in repository and directory walks.
var TextExtensions = []string{".md", ".py", ".ipynb", ".json"}

// WalkOptions configures a repository walk.
type WalkOptions struct {
	// PathPrefix restricts the walk to entries under this directory.
	// Empty means the whole repository.
	PathPrefix string

	// URL is the original source URL recorded in document metadata.
	URL string

	// SourceType is recorded in document metadata
	// (github_repo or github_directory).
	SourceType domain.SourceType
}

// WalkRepository fetches every allow-listed file reachable from the
// repository's main branch, falling back to master when main is missing.
// Individual blob failures are skipped so one unreadable file cannot
// abort the walk.
func (c *Client) WalkRepository(
	ctx context.Context, owner, repo string, opts WalkOptions,
) ([]domain.Document, error) {
	tree, err := c.GetTree(ctx, owner, repo, "main")
	if err != nil {
		logger.Debug("github: %s/%s has no main branch, trying master", owner, repo)
		tree, err = c.GetTree(ctx, owner, repo, "master")
		if err != nil {
			return nil, fmt.Errorf("walk %s/%s: %w", owner, repo, err)
		}
	}

	type target struct {
		path string
		sha  string
	}
	var targets []target
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		p := entry.GetPath()
		if opts.PathPrefix != "" && !underPrefix(p, opts.PathPrefix) {
			continue
		}
		if !hasTextExtension(p) {
			continue
		}
		targets = append(targets, target{path: p, sha: entry.GetSHA()})
	}

	var (
		mu   sync.Mutex
		docs []domain.Document
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ConcurrentBlobFetches)
	for _, t := range targets {
		g.Go(func() error {
			content, err := c.fetchBlobContent(ctx, owner, repo, t.sha)
			if err != nil {
				logger.Warn("github: skipping %s/%s:%s: %v", owner, repo, t.path, err)
				return nil
			}

			doc := domain.Document{
				ID:   fmt.Sprintf("github_%s_%s_%s", owner, repo, t.sha[:minInt(8, len(t.sha))]),
				Text: string(content),
				Metadata: map[string]any{
					"url":         opts.URL,
					"source_type": string(opts.SourceType),
					"owner":       owner,
					"repo":        repo,
					"file_path":   t.path,
				},
			}

			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// fetchBlobContent fetches a blob and decodes its base64 payload.
func (c *Client) fetchBlobContent(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	blob, err := c.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}

	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		return base64.StdEncoding.DecodeString(content)
	}
	return []byte(blob.GetContent()), nil
}

// hasTextExtension reports whether the path carries an allow-listed
// extension (case-insensitive).
func hasTextExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, allowed := range TextExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// underPrefix reports whether p is the prefix directory itself or a
// path inside it.
func underPrefix(p, prefix string) bool {
	prefix = strings.Trim(prefix, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
