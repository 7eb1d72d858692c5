// Package cli implements the corpora command line interface.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora/internal/config"
	"github.com/custodia-labs/corpora/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "corpora",
	Short: "Index and query the BossDB documentation corpus",
	Long: `corpora builds a content-addressed vector index over configured web,
GitHub and notebook sources and answers questions against it with
retrieval-augmented chat and live metadata API tools.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.corpora/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the --config flag and loads the file.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return config.Config{}, err
		}
		path = filepath.Join(dir, config.FileName)
	}
	return config.Load(path)
}
