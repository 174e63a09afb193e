// Package config loads run settings and the classification policy.
package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// Config holds the settings of a pipeline run. Values come from an optional
// YAML file; environment variables override them.
type Config struct {
	// Root is the data root holding Corpus/, Sources/ or Text/ and Word*/.
	Root string `yaml:"root" env:"COHA_ROOT" env-default:""`
	// CorpusDir is searched first for shards, relative to Root.
	CorpusDir string `yaml:"corpus_dir" env:"COHA_CORPUS_DIR" env-default:"Corpus"`
	// OutDir receives the aggregate files. Empty means Root.
	OutDir string `yaml:"out_dir" env:"COHA_OUT_DIR" env-default:""`
	TopN   int    `yaml:"top_n" env:"COHA_TOP_N" env-default:"50"`

	TrendLemma string `yaml:"trend_lemma" env:"COHA_TREND_LEMMA" env-default:"democracy"`

	// PolicyPath points at a YAML file overriding column aliases.
	PolicyPath string `yaml:"policy_path" env:"COHA_POLICY" env-default:""`
	// CatalogPath is the SQLite run catalog. Empty keeps history in memory.
	CatalogPath string `yaml:"catalog_path" env:"COHA_CATALOG" env-default:""`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"COHA_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"COHA_LOG_FORMAT" env-default:"console"`
}

// Load reads path (when non-empty) and applies environment overrides and
// defaults. The result is not validated; call Validate once command-line
// overrides are applied.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required fields and fills derived defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root is required: %w", internalerr.ErrInvalidConfig)
	}
	if c.OutDir == "" {
		c.OutDir = c.Root
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d: %w", c.TopN, internalerr.ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log format %q: %w", c.Log.Format, internalerr.ErrInvalidConfig)
	}
	return nil
}
