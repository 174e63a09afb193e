// Package discovery enumerates candidate shard files under a data root.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/internalerr"
	"github.com/cognicore/coha/pkg/coha/table"
)

// Candidate is a file that may hold a shard.
type Candidate struct {
	Path   string
	Format table.Format
	Size   int64
}

// Walker traverses the filesystem and discovers shard files.
type Walker struct {
	logger *zap.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{logger: logger}
}

// Discover walks root recursively and returns every file whose extension
// maps to one of formats (all readable formats when none are given).
// Unreadable subpaths are skipped. A missing root is reported as
// internalerr.ErrRootMissing.
func (w *Walker) Discover(ctx context.Context, root string, formats ...table.Format) ([]Candidate, error) {
	if len(formats) == 0 {
		formats = table.All
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, internalerr.ErrRootMissing)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", root, internalerr.ErrRootMissing)
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Continue walking despite errors.
			w.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}

		f := table.FormatOf(path)
		if !slices.Contains(formats, f) {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		out = append(out, Candidate{Path: path, Format: f, Size: size})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	w.logger.Debug("discovered candidates",
		zap.String("root", root),
		zap.Int("count", len(out)))
	return out, nil
}

// DiscoverAll runs Discover over several roots and drops repeated paths.
// Roots that do not exist are skipped.
func (w *Walker) DiscoverAll(ctx context.Context, roots []string, formats ...table.Format) ([]Candidate, error) {
	seen := make(map[string]struct{})
	var out []Candidate
	for _, root := range roots {
		found, err := w.Discover(ctx, root, formats...)
		if err != nil {
			if errors.Is(err, internalerr.ErrRootMissing) {
				w.logger.Debug("convention directory missing", zap.String("dir", root))
				continue
			}
			return nil, err
		}
		for _, c := range found {
			if _, ok := seen[c.Path]; ok {
				continue
			}
			seen[c.Path] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}
