package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/corpora/internal/config"
	"github.com/custodia-labs/corpora/internal/connectors/github"
	"github.com/custodia-labs/corpora/internal/connectors/web"
	"github.com/custodia-labs/corpora/internal/fetch"
	"github.com/custodia-labs/corpora/internal/index"
	"github.com/custodia-labs/corpora/internal/splitter"
	"github.com/custodia-labs/corpora/internal/vector"
)

const fetchTimeout = 30 * time.Second

var (
	forceReload bool
	incremental bool
	checkHash   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the vector index from configured sources",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&forceReload, "force", false, "discard the existing index and rebuild from scratch")
	indexCmd.Flags().BoolVar(&incremental, "incremental", false, "only fetch sources not yet indexed")
	indexCmd.Flags().BoolVar(&checkHash, "check-hash", false, "skip documents whose content is unchanged")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	builder, store, err := newBuilder(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := index.Options{
		ForceReload: cfg.Index.ForceReload,
		Incremental: cfg.Index.Incremental,
		CheckHash:   cfg.Index.CheckHash,
	}
	if cmd.Flags().Changed("force") {
		opts.ForceReload = forceReload
	}
	if cmd.Flags().Changed("incremental") {
		opts.Incremental = incremental
	}
	if cmd.Flags().Changed("check-hash") {
		opts.CheckHash = checkHash
	}

	cmd.Printf("Indexing %d urls and %d organizations into %s...\n",
		len(cfg.Sources.URLs), len(cfg.Sources.GitHubOrgs), cfg.StorageDir)

	stats, err := builder.BuildOrLoad(cmd.Context(), cfg.Sources.URLs, cfg.Sources.GitHubOrgs, opts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	cmd.Printf("Done: %d new documents, %d new chunks, %d skipped, %d chunks total.\n",
		stats.NewDocuments, stats.NewChunks, stats.Skipped, stats.TotalChunks)
	return nil
}

// newBuilder wires the fetch pipeline, splitter and vector store.
func newBuilder(cmd *cobra.Command, cfg config.Config) (*index.Builder, *vector.Store, error) {
	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey: cfg.Embedding.APIKey,
		Model:  cfg.Embedding.Model,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := embedder.Ping(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("embedding service unreachable: %w", err)
	}

	var gh *github.Client
	if cfg.GitHubToken != "" {
		gh = github.NewClient(cmd.Context(), cfg.GitHubToken)
	}
	fetcher := fetch.New(web.NewClient(fetchTimeout), gh)

	split := splitter.New(
		splitter.WithChunkSize(cfg.Chunking.ChunkSize),
		splitter.WithOverlap(cfg.Chunking.Overlap),
	)

	store := vector.NewStore(embedder, cfg.StorageDir)
	return index.New(fetcher, split, store, cfg.StorageDir), store, nil
}
