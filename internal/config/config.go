// Package config loads the application's TOML configuration file.
//
// String values of the form "env:NAME" resolve to the NAME environment
// variable at load time, so secrets stay out of the file itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the default config file name inside the app directory.
const FileName = "config.toml"

const envPrefix = "env:"

// Sources lists what gets indexed.
type Sources struct {
	URLs       []string `toml:"urls"`
	GitHubOrgs []string `toml:"github_orgs"`
}

// Limits holds the token budgets.
type Limits struct {
	MaxTotalTokens   int `toml:"max_total_tokens"`
	MaxMessageTokens int `toml:"max_message_tokens"`
}

// Index selects the build mode.
type Index struct {
	ForceReload bool `toml:"force_reload"`
	Incremental bool `toml:"incremental"`
	CheckHash   bool `toml:"check_hash"`
}

// Chunking configures the document splitter.
type Chunking struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// Service holds an API-backed service's credentials and model choice.
type Service struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`

	// FastModel names a cheaper model used for conversation
	// summarisation. When empty, older turns are dropped instead of
	// summarised.
	FastModel string `toml:"fast_model"`
}

// Tools configures the metadata API tool client.
type Tools struct {
	BaseURL string `toml:"base_url"`
}

// Config is the full application configuration.
type Config struct {
	Sources     Sources  `toml:"sources"`
	GitHubToken string   `toml:"github_token"`
	Limits      Limits   `toml:"limits"`
	Index       Index    `toml:"index"`
	Chunking    Chunking `toml:"chunking"`
	StorageDir  string   `toml:"storage_dir"`
	LLM         Service  `toml:"llm"`
	Embedding   Service  `toml:"embedding"`
	Tools       Tools    `toml:"tools"`
}

// Default returns the configuration used when the file omits a value.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxTotalTokens:   8192,
			MaxMessageTokens: 4096,
		},
		Chunking: Chunking{
			ChunkSize: 1024,
			Overlap:   20,
		},
	}
}

// DefaultDir returns the default storage directory, ~/.corpora.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".corpora"), nil
}

// Load reads and resolves the config file at path.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.resolveEnv(); err != nil {
		return Config{}, err
	}
	if cfg.StorageDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		cfg.StorageDir = dir
	}
	return cfg, nil
}

// resolveEnv expands env: references in credential and endpoint fields.
func (c *Config) resolveEnv() error {
	for _, field := range []*string{
		&c.GitHubToken,
		&c.LLM.APIKey,
		&c.Embedding.APIKey,
		&c.Tools.BaseURL,
	} {
		if err := expandEnv(field); err != nil {
			return err
		}
	}
	return nil
}

func expandEnv(value *string) error {
	if !strings.HasPrefix(*value, envPrefix) {
		return nil
	}
	name := strings.TrimPrefix(*value, envPrefix)
	resolved, ok := os.LookupEnv(name)
	if !ok {
		return fmt.Errorf("environment variable %s referenced by config is not set", name)
	}
	*value = resolved
	return nil
}
