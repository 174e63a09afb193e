package normalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/table"
)

// Normalizer turns classified shards into one canonical dataset per role.
type Normalizer struct {
	schemas map[classify.Role]Schema
	logger  *zap.Logger
}

// New creates a normalizer. Roles missing from schemas use the defaults.
func New(schemas map[classify.Role]Schema, logger *zap.Logger) *Normalizer {
	all := DefaultSchemas()
	for role, s := range schemas {
		all[role] = s
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{schemas: all, logger: logger}
}

// Schema returns the canonical schema used for role.
func (n *Normalizer) Schema(role classify.Role) Schema { return n.schemas[role] }

// Normalize projects one shard's dataset onto the canonical schema of role.
func (n *Normalizer) Normalize(ds *frame.Dataset, role classify.Role, idKind IDKind) *frame.Dataset {
	if ds.Err() != nil {
		return ds
	}
	s, ok := n.schemas[role]
	if !ok {
		return frame.Failed(fmt.Errorf("normalize: no schema for role %s", role))
	}
	return ds.Select(s.Project(ds.Columns(), idKind)...)
}

// Build scans every shard, normalizes it and unions the results. It returns
// nil when shards is empty. Shards that can no longer be opened are skipped
// with a warning.
func (n *Normalizer) Build(ctx context.Context, shards []classify.Result, role classify.Role, idKind IDKind) (*frame.Dataset, error) {
	var parts []*frame.Dataset
	for _, sh := range shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := table.Scan(sh.Path)
		if err != nil {
			n.logger.Warn("skipping shard",
				zap.String("path", sh.Path),
				zap.Stringer("role", role),
				zap.Error(err))
			continue
		}
		norm := n.Normalize(ds, role, idKind)
		if err := norm.Err(); err != nil {
			return nil, fmt.Errorf("normalize %s: %w", sh.Path, err)
		}
		n.logger.Debug("normalized shard",
			zap.String("path", sh.Path),
			zap.Stringer("role", role),
			zap.Strings("columns", norm.Columns()))
		parts = append(parts, norm)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return Union(parts...), nil
}

// Union concatenates same-role datasets whose columns may differ. Columns
// missing from a part read as absent for its rows.
func Union(parts ...*frame.Dataset) *frame.Dataset {
	return frame.Concat(parts...)
}
