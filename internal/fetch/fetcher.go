// Package fetch routes configured sources to the right connector and
// runs batch ingestion. A single bad source logs and yields nothing;
// it never aborts the batch.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corpora/internal/connectors/github"
	"github.com/custodia-labs/corpora/internal/connectors/web"
	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/logger"
)

// ConcurrentSources bounds the fan-out across configured sources.
const ConcurrentSources = 10

// Fetcher turns source URLs and organization names into documents.
// The GitHub client is optional; without it GitHub URLs fall back to
// webpage scraping and organization sweeps fail with ErrAuthRequired.
type Fetcher struct {
	web    *web.Client
	github *github.Client
}

// New creates a Fetcher. gh may be nil when no token is configured.
func New(webClient *web.Client, gh *github.Client) *Fetcher {
	return &Fetcher{web: webClient, github: gh}
}

// FetchURL fetches one URL, routed by its shape:
// github.com URLs by sub-pattern (blob, wiki, tree, whole repository),
// .json or API-looking URLs as structured JSON, .ipynb as notebooks,
// everything else as a webpage.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) ([]domain.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	if parsed.Hostname() == "github.com" {
		return f.fetchGitHubURL(ctx, rawURL, parsed)
	}

	if strings.HasSuffix(rawURL, ".json") || strings.Contains(strings.ToLower(rawURL), "api") {
		return f.web.FetchJSON(ctx, rawURL)
	}

	if strings.HasSuffix(rawURL, ".ipynb") {
		return f.web.FetchNotebook(ctx, rawURL)
	}

	return f.web.FetchWebpage(ctx, rawURL)
}

// FetchOrg sweeps an organization's repository READMEs. It requires an
// authenticated GitHub client.
func (f *Fetcher) FetchOrg(ctx context.Context, org string) ([]domain.Document, error) {
	if f.github == nil {
		return nil, fmt.Errorf("%w: GitHub token required to fetch organization repositories", domain.ErrAuthRequired)
	}
	return f.github.FetchOrgReadmes(ctx, org)
}

// SourceResult is the outcome of fetching one configured source.
// Exactly one of URL and Org is set.
type SourceResult struct {
	URL  string
	Org  string
	Docs []domain.Document
	Err  error
}

// FetchSources fetches every configured URL and organization
// concurrently and reports a per-source outcome. A failing source
// carries its error in the result; it never aborts the batch.
func (f *Fetcher) FetchSources(ctx context.Context, urls, orgs []string) []SourceResult {
	results := make([]SourceResult, len(urls)+len(orgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ConcurrentSources)

	for i, u := range urls {
		g.Go(func() error {
			docs, err := f.FetchURL(ctx, u)
			if err != nil {
				logger.Error("fetch: %s: %v", u, err)
			}
			results[i] = SourceResult{URL: u, Docs: docs, Err: err}
			return nil
		})
	}
	for i, org := range orgs {
		g.Go(func() error {
			docs, err := f.FetchOrg(ctx, org)
			if err != nil {
				logger.Error("fetch: org %s: %v", org, err)
			}
			results[len(urls)+i] = SourceResult{Org: org, Docs: docs, Err: err}
			return nil
		})
	}

	// Workers record their own errors, so Wait only observes context
	// cancellation.
	_ = g.Wait()
	return results
}
