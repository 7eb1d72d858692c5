package fetch

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/corpora/internal/connectors/web"
	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/logger"
)

// fetchWiki fetches the wiki root page, then every same-repository
// wiki page linked from it. History and edit links are skipped. A
// failing page is logged and skipped.
func (f *Fetcher) fetchWiki(ctx context.Context, wikiURL, owner, repo string) ([]domain.Document, error) {
	root, err := f.web.FetchWebpage(ctx, wikiURL)
	if err != nil {
		return nil, err
	}
	docs := root

	body, err := f.web.Get(ctx, wikiURL)
	if err != nil {
		return nil, err
	}

	for _, link := range wikiLinks(string(body)) {
		pages, err := f.web.FetchWebpage(ctx, link)
		if err != nil {
			logger.Warn("fetch: skipping wiki page %s: %v", link, err)
			continue
		}
		for i := range pages {
			if pages[i].Metadata == nil {
				pages[i].Metadata = map[string]any{}
			}
			pages[i].Metadata["url"] = link
			pages[i].Metadata["source_type"] = string(domain.SourceGithubWiki)
			pages[i].Metadata["owner"] = owner
			pages[i].Metadata["repo"] = repo
		}
		docs = append(docs, pages...)
	}
	return docs, nil
}

// wikiLinks extracts relative /wiki/ links from a page, deduplicated
// and resolved against github.com. Absolute links and the history and
// edit views are excluded.
func wikiLinks(html string) []string {
	seen := map[string]struct{}{}
	for _, href := range web.ExtractHrefs(html) {
		if !strings.Contains(href, "/wiki/") {
			continue
		}
		if strings.HasPrefix(href, "http") {
			continue
		}
		if strings.HasSuffix(href, "/_history") || strings.HasSuffix(href, "/_edit") {
			continue
		}
		seen["https://github.com"+href] = struct{}{}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}
