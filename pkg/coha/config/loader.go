package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/catalog/memstore"
	"github.com/cognicore/coha/pkg/coha/catalog/sqlite"
	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/normalize"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	PolicyPath  string
	CatalogPath string
	Logger      *zap.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Classifier *classify.Classifier
	Normalizer *normalize.Normalizer
}

// Load reads the policy file, if any, and returns initialized components
func (l *Loader) Load() (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		aliases classify.AliasSets
		schemas map[classify.Role]normalize.Schema
	)
	if l.PolicyPath != "" {
		p, err := LoadPolicy(l.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		if aliases, err = p.Aliases(); err != nil {
			return nil, err
		}
		if schemas, err = p.Schemas(); err != nil {
			return nil, err
		}
		logger.Info("loaded policy", zap.String("path", l.PolicyPath))
	}

	return &Components{
		Classifier: classify.New(aliases, logger.Named("classify")),
		Normalizer: normalize.New(schemas, logger.Named("normalize")),
	}, nil
}

// OpenCatalog opens the SQLite catalog at CatalogPath, or an in-memory one
// when no path is set.
func (l *Loader) OpenCatalog(ctx context.Context) (catalog.Store, error) {
	if l.CatalogPath == "" {
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(ctx, l.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", l.CatalogPath, err)
	}
	return st, nil
}
