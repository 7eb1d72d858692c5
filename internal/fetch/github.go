package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/corpora/internal/connectors/github"
	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/logger"
)

// rawContentHost serves file contents for blob URLs.
const rawContentHost = "https://raw.githubusercontent.com"

// fetchGitHubURL routes a github.com URL by sub-pattern. Without an
// authenticated client it degrades to scraping the page.
func (f *Fetcher) fetchGitHubURL(ctx context.Context, rawURL string, parsed *url.URL) ([]domain.Document, error) {
	if f.github == nil {
		logger.Warn("fetch: GitHub token not provided, falling back to web scraping for %s", rawURL)
		return f.web.FetchWebpage(ctx, rawURL)
	}

	parts := splitPath(parsed)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %s is not a repository URL", domain.ErrInvalidInput, rawURL)
	}
	owner, repo := parts[0], parts[1]

	switch {
	case strings.Contains(rawURL, "blob"):
		return f.fetchBlob(ctx, rawURL, owner, repo, parts)
	case strings.Contains(rawURL, "wiki"):
		return f.fetchWiki(ctx, rawURL, owner, repo)
	case strings.Contains(rawURL, "tree"):
		var prefix string
		if len(parts) > 4 {
			prefix = strings.Join(parts[4:], "/")
		}
		return f.github.WalkRepository(ctx, owner, repo, github.WalkOptions{
			PathPrefix: prefix,
			URL:        rawURL,
			SourceType: domain.SourceGithubDir,
		})
	default:
		return f.github.WalkRepository(ctx, owner, repo, github.WalkOptions{
			URL:        rawURL,
			SourceType: domain.SourceGithubRepo,
		})
	}
}

// fetchBlob fetches one repository file through the raw content host,
// routing the raw URL by extension, then overrides the metadata so the
// documents point back at the blob URL.
func (f *Fetcher) fetchBlob(ctx context.Context, blobURL, owner, repo string, parts []string) ([]domain.Document, error) {
	if len(parts) < 5 {
		return nil, fmt.Errorf("%w: %s has no file path", domain.ErrInvalidInput, blobURL)
	}

	branch := parts[3]
	if branch == "" {
		branch = "master"
	}
	filePath := strings.Join(parts[4:], "/")

	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", rawContentHost, owner, repo, branch, filePath)
	docs, err := f.FetchURL(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch blob %s: %w", blobURL, err)
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata["url"] = blobURL
		docs[i].Metadata["source_type"] = string(domain.SourceGithubBlob)
		docs[i].Metadata["file_path"] = filePath
		docs[i].Metadata["owner"] = owner
		docs[i].Metadata["repo"] = repo
	}
	return docs, nil
}

func splitPath(parsed *url.URL) []string {
	return strings.Split(strings.Trim(parsed.Path, "/"), "/")
}
