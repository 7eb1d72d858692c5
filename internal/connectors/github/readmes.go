package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/logger"
)

// FetchOrgReadmes enumerates an organization's repositories and fetches
// each repository's README blob, attaching repository-level metadata.
// Repositories without a README and single-repo failures are skipped,
// never fatal to the sweep.
func (c *Client) FetchOrgReadmes(ctx context.Context, org string) ([]domain.Document, error) {
	repos, err := c.ListOrgRepos(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("list repos for %s: %w", org, err)
	}

	var docs []domain.Document
	for _, repo := range repos {
		doc, err := c.fetchRepoReadme(ctx, org, repo)
		if err != nil {
			logger.Warn("github: skipping README of %s/%s: %v", org, repo.GetName(), err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// fetchRepoReadme fetches README.md for one repository by content SHA.
func (c *Client) fetchRepoReadme(
	ctx context.Context, org string, repo *gh.Repository,
) (*domain.Document, error) {
	name := repo.GetName()

	contents, err := c.GetContents(ctx, org, name, "README.md", "")
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNoReadme
		}
		return nil, err
	}

	sha := contents.GetSHA()
	if sha == "" {
		return nil, ErrNoReadme
	}

	blob, err := c.GetBlob(ctx, org, name, sha)
	if err != nil {
		return nil, err
	}
	if blob.GetContent() == "" {
		return nil, ErrNoReadme
	}

	raw := strings.ReplaceAll(blob.GetContent(), "\n", "")
	text, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode README blob: %w", err)
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "master"
	}

	doc := domain.Document{
		ID:   fmt.Sprintf("github_readme_%s_%s_%s", org, name, sha[:minInt(8, len(sha))]),
		Text: string(text),
		Metadata: map[string]any{
			"url":                    fmt.Sprintf("https://github.com/%s/%s/blob/%s/README.md", org, name, branch),
			"source_type":            string(domain.SourceReadme),
			"organization":           org,
			"repository":             name,
			"repository_url":         repo.GetHTMLURL(),
			"repository_description": repo.GetDescription(),
			"repository_created_at":  repo.GetCreatedAt().Format("2006-01-02T15:04:05Z"),
			"repository_updated_at":  repo.GetUpdatedAt().Format("2006-01-02T15:04:05Z"),
			"repository_stars":       repo.GetStargazersCount(),
			"repository_forks":       repo.GetForksCount(),
			"repository_language":    repo.GetLanguage(),
			"repository_topics":      repo.Topics,
			"repository_visibility":  repo.GetVisibility(),
			"readme_sha":             sha,
			"file_path":              "README.md",
		},
	}
	return &doc, nil
}
