// Package cli holds the flag handling and component wiring shared by the
// coha commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cognicore/coha/internal/logging"
	"github.com/cognicore/coha/pkg/coha"
	"github.com/cognicore/coha/pkg/coha/config"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Flags are the settings every command accepts. Flags given on the command
// line override the config file and the environment.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath  string
	Root        string
	CorpusDir   string
	OutDir      string
	TopN        int
	PolicyPath  string
	CatalogPath string
	LogLevel    string
	LogFormat   string
}

// Register adds the common flags to fs.
func Register(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "YAML config file")
	fs.StringVarP(&f.Root, "root", "r", "", "data root (may also be given as the first argument)")
	fs.StringVar(&f.CorpusDir, "corpus-dir", "", "directory under the root searched first (default \"Corpus\")")
	fs.StringVarP(&f.OutDir, "out", "o", "", "directory for the aggregate files (default: the root)")
	fs.IntVar(&f.TopN, "top-n", 0, "lemmas kept per year (default 50)")
	fs.StringVar(&f.PolicyPath, "policy", "", "YAML file overriding column aliases")
	fs.StringVar(&f.CatalogPath, "catalog", "", "SQLite run catalog (default: in memory)")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.LogFormat, "log-format", "", "console or json")
	return f
}

// Config loads the configuration and applies the flags given.
func (f *Flags) Config() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.fs.Changed("root") {
		cfg.Root = f.Root
	} else if f.fs.NArg() > 0 {
		cfg.Root = f.fs.Arg(0)
	}
	if f.fs.Changed("corpus-dir") {
		cfg.CorpusDir = f.CorpusDir
	}
	if f.fs.Changed("out") {
		cfg.OutDir = f.OutDir
	}
	if f.fs.Changed("top-n") {
		cfg.TopN = f.TopN
	}
	if f.fs.Changed("policy") {
		cfg.PolicyPath = f.PolicyPath
	}
	if f.fs.Changed("catalog") {
		cfg.CatalogPath = f.CatalogPath
	}
	if f.fs.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if f.fs.Changed("log-format") {
		cfg.Log.Format = f.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Env is a configured pipeline with its logger.
type Env struct {
	Config   *config.Config
	Logger   *zap.Logger
	Pipeline *coha.Pipeline
}

// Close releases the pipeline and flushes the logger. A failed catalog
// close is logged and returned.
func (e *Env) Close() error {
	err := e.Pipeline.Close()
	if err != nil {
		e.Logger.Warn("could not close run catalog", zap.Error(err))
	}
	_ = e.Logger.Sync()
	return err
}

// Setup builds the logger and pipeline described by cfg.
func Setup(ctx context.Context, cfg *config.Config) (*Env, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	loader := config.Loader{PolicyPath: cfg.PolicyPath, CatalogPath: cfg.CatalogPath, Logger: logger}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}
	store, err := loader.OpenCatalog(ctx)
	if err != nil {
		return nil, err
	}
	p := coha.New(coha.Options{
		Classifier: comp.Classifier,
		Normalizer: comp.Normalizer,
		Catalog:    store,
		Logger:     logger,
		CorpusDir:  cfg.CorpusDir,
		OutDir:     cfg.OutDir,
		TopN:       cfg.TopN,
	})
	return &Env{Config: cfg, Logger: logger, Pipeline: p}, nil
}

// Describe turns a pipeline error into the message shown to the user.
func Describe(err error) string {
	switch {
	case errors.Is(err, internalerr.ErrRootMissing):
		return fmt.Sprintf("data root not found: %v", err)
	case errors.Is(err, internalerr.ErrNoTokens):
		return fmt.Sprintf("no token shards found; expected them under 'Corpus/' (%v)", err)
	case errors.Is(err, internalerr.ErrNoLexicon):
		return fmt.Sprintf("no lexicon shards found as Parquet or CSV; unzip the Word/Lemma/PoS export under the root (%v)", err)
	case errors.Is(err, internalerr.ErrInvalidConfig):
		return fmt.Sprintf("configuration: %v", err)
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return err.Error()
}
