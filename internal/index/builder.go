// Package index orchestrates fetching, splitting, change detection and
// the vector store into a single build-or-load entry point.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/corpora/internal/core/domain"
	"github.com/custodia-labs/corpora/internal/core/ports/driven"
	"github.com/custodia-labs/corpora/internal/fetch"
	"github.com/custodia-labs/corpora/internal/ledger"
	"github.com/custodia-labs/corpora/internal/logger"
	"github.com/custodia-labs/corpora/internal/splitter"
)

// VectorStore is the builder's view of the chunk store: the query-side
// store plus deletion of its persisted form for force rebuilds.
type VectorStore interface {
	driven.VectorStore
	Delete() error
}

// SourceFetcher fetches configured sources with per-source outcomes.
type SourceFetcher interface {
	FetchSources(ctx context.Context, urls, orgs []string) []fetch.SourceResult
}

// Options selects the build mode.
type Options struct {
	// ForceReload deletes any persisted index and ledger and rebuilds
	// everything from scratch.
	ForceReload bool

	// Incremental only fetches sources the ledger has not seen.
	// Without it every configured source is re-fetched and inserted.
	Incremental bool

	// CheckHash skips documents whose content hash matches the
	// ledger's stored hash even when their source is new.
	CheckHash bool
}

// Stats summarises the outcome of a build.
type Stats struct {
	NewDocuments int
	NewChunks    int
	TotalChunks  int
	Skipped      int
}

// Builder builds or loads the vector index. A Builder runs one build
// at a time; it is not safe for concurrent use.
type Builder struct {
	fetcher  SourceFetcher
	splitter *splitter.Splitter
	store    VectorStore
	dir      string
}

// New creates a Builder persisting into dir.
func New(fetcher SourceFetcher, split *splitter.Splitter, store VectorStore, dir string) *Builder {
	return &Builder{
		fetcher:  fetcher,
		splitter: split,
		store:    store,
		dir:      dir,
	}
}

// BuildOrLoad brings the vector store to a usable state for the
// configured sources. It never returns without a usable (possibly
// empty) index unless a full build produced no documents at all.
func (b *Builder) BuildOrLoad(ctx context.Context, urls, orgs []string, opts Options) (Stats, error) {
	led, err := b.prepare(ctx, opts)
	if err != nil {
		return Stats{}, err
	}

	newURLs, newOrgs := b.newSources(led, urls, orgs, opts)
	if len(newURLs) == 0 && len(newOrgs) == 0 {
		logger.Info("index: no new sources, using existing index (%d chunks)", b.store.Len())
		return Stats{TotalChunks: b.store.Len()}, nil
	}

	logger.Section("Fetching sources")
	logger.Info("index: fetching %d urls and %d orgs", len(newURLs), len(newOrgs))
	results := b.fetcher.FetchSources(ctx, newURLs, newOrgs)

	stats, chunks := b.collect(led, results, opts)
	if stats.NewDocuments == 0 {
		if !opts.Incremental && stats.Skipped == 0 {
			return Stats{}, domain.ErrNoDocuments
		}
		// New sources that all failed, or content the hash gate found
		// unchanged: keep the existing index but say so, this can mask
		// ingestion failure.
		logger.Warn("index: build produced no new documents, keeping existing index")
		return Stats{TotalChunks: b.store.Len(), Skipped: stats.Skipped}, nil
	}

	logger.Section("Indexing documents")
	if err := b.store.Insert(ctx, chunks); err != nil {
		return Stats{}, fmt.Errorf("insert chunks: %w", err)
	}
	if err := b.store.Persist(ctx); err != nil {
		return Stats{}, fmt.Errorf("persist index: %w", err)
	}

	// Ledger mutations become visible only after the index is durable.
	b.record(led, results)
	led.Stamp()
	if err := led.Save(b.dir); err != nil {
		return Stats{}, fmt.Errorf("save ledger: %w", err)
	}

	stats.TotalChunks = b.store.Len()
	logger.Info("index: inserted %d chunks from %d documents (%d skipped)",
		stats.NewChunks, stats.NewDocuments, stats.Skipped)
	return stats, nil
}

// prepare loads or resets persisted state per the build mode. Corrupt
// persisted state falls back to rebuilding from empty instead of
// propagating.
func (b *Builder) prepare(ctx context.Context, opts Options) (*ledger.Ledger, error) {
	if opts.ForceReload {
		logger.Info("index: force reload, discarding persisted index and ledger")
		if err := b.store.Delete(); err != nil {
			return nil, fmt.Errorf("delete index: %w", err)
		}
		if err := os.Remove(filepath.Join(b.dir, ledger.FileName)); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("delete ledger: %w", err)
		}
		return ledger.New(), nil
	}

	led, err := ledger.Load(b.dir)
	if err != nil {
		logger.Warn("index: ledger unreadable, rebuilding from empty: %v", err)
		led = ledger.New()
	}

	if err := b.store.Load(ctx); err != nil {
		// A lost index invalidates the ledger too: keeping it would make
		// an incremental build report the loss as "no new sources".
		logger.Warn("index: persisted index unreadable, discarding index and ledger, rebuilding from empty: %v", err)
		if err := b.store.Delete(); err != nil {
			return nil, fmt.Errorf("reset corrupt index: %w", err)
		}
		led = ledger.New()
	}
	return led, nil
}

// newSources applies the ledger difference in incremental mode; other
// modes treat every configured source as new.
func (b *Builder) newSources(led *ledger.Ledger, urls, orgs []string, opts Options) ([]string, []string) {
	if !opts.Incremental {
		return urls, orgs
	}

	var newURLs, newOrgs []string
	for _, u := range urls {
		if !led.HasURL(u) {
			newURLs = append(newURLs, u)
		}
	}
	for _, org := range orgs {
		if !led.HasOrg(org) {
			newOrgs = append(newOrgs, org)
		}
	}
	return newURLs, newOrgs
}

// collect splits fetched documents into chunks, applying the optional
// per-document hash gate.
func (b *Builder) collect(led *ledger.Ledger, results []fetch.SourceResult, opts Options) (Stats, []domain.Chunk) {
	var stats Stats
	var chunks []domain.Chunk

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, doc := range res.Docs {
			if opts.CheckHash && led.HashMatches(ledger.DocumentKey(&doc), ledger.DocumentHash(&doc)) {
				logger.Debug("index: unchanged content, skipping %s", ledger.DocumentKey(&doc))
				stats.Skipped++
				continue
			}
			split := b.splitter.Split(doc)
			if len(split) == 0 {
				continue
			}
			stats.NewDocuments++
			stats.NewChunks += len(split)
			chunks = append(chunks, split...)
		}
	}
	return stats, chunks
}

// record marks successfully fetched sources and document hashes in the
// ledger. Failed sources stay unrecorded so a later build retries them.
func (b *Builder) record(led *ledger.Ledger, results []fetch.SourceResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, doc := range res.Docs {
			if key := ledger.DocumentKey(&doc); key != "" {
				led.Record(key, ledger.DocumentHash(&doc))
			}
		}
		if res.URL != "" {
			led.RecordURL(res.URL)
		}
		if res.Org != "" {
			led.RecordOrg(res.Org)
		}
	}
}
