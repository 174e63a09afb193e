// Package join denormalizes the token, lexicon and metadata datasets into one
// record stream.
package join

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
	"github.com/cognicore/coha/pkg/coha/normalize"
)

// Path is the join strategy of a run.
type Path int

const (
	// PathIDBased joins tokens to the lexicon on wordID, then to metadata.
	PathIDBased Path = iota
	// PathTagged treats a tagged lexicon as the token stream.
	PathTagged
)

func (p Path) String() string {
	if p == PathTagged {
		return "tagged"
	}
	return "id-based"
}

// IDKind is the identifier type normalization must use for p.
func (p Path) IDKind() normalize.IDKind {
	if p == PathTagged {
		return frame.KindString
	}
	return frame.KindInt64
}

// SelectPath picks the strategy from the unioned lexicon's columns: id-based
// when it carries wordID, tagged otherwise.
func SelectPath(lexicon *frame.Dataset) Path {
	if lexicon != nil && lexicon.Has(normalize.WordID) {
		return PathIDBased
	}
	return PathTagged
}

// Inputs are the unioned role datasets. Nil means the role is absent.
type Inputs struct {
	Tokens   *frame.Dataset
	Lexicon  *frame.Dataset
	Metadata *frame.Dataset
}

// Engine builds the denormalized stream.
type Engine struct {
	logger *zap.Logger
}

// New creates a join engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

var annotations = []string{normalize.Word, normalize.Lemma, normalize.POS}

// Build plans the join. Nothing is read until the returned dataset is
// evaluated. Every left row appears exactly once in the output.
func (e *Engine) Build(in Inputs) (*frame.Dataset, Path, error) {
	if in.Lexicon == nil {
		return nil, PathIDBased, internalerr.ErrNoLexicon
	}
	path := SelectPath(in.Lexicon)

	var stream *frame.Dataset
	switch path {
	case PathIDBased:
		if in.Tokens == nil {
			return nil, path, internalerr.ErrNoTokens
		}
		if !in.Tokens.Has(normalize.WordID) {
			return nil, path, fmt.Errorf("tokens have no %s column: %w", normalize.WordID, internalerr.ErrNoTokens)
		}
		lex := in.Lexicon.Select(present(in.Lexicon, normalize.WordID, annotations...)...)
		stream = in.Tokens.LeftJoin(lex, normalize.WordID, e.observe("lexicon"))
		if stream.Has(normalize.TextID) {
			stream = stream.WithCast(normalize.TextID, frame.KindString)
		}
	case PathTagged:
		if !in.Lexicon.Has(normalize.TextID) {
			return nil, path, fmt.Errorf("tagged lexicon has no %s column: %w", normalize.TextID, internalerr.ErrNoLexicon)
		}
		exprs := []frame.Expr{frame.Col(normalize.TextID).Cast(frame.KindString)}
		for _, c := range annotations {
			if in.Lexicon.Has(c) {
				exprs = append(exprs, frame.Col(c).Cast(frame.KindString))
			} else {
				exprs = append(exprs, frame.Lit(nil).As(c))
			}
		}
		stream = in.Lexicon.Select(exprs...)
	}
	if err := stream.Err(); err != nil {
		return nil, path, fmt.Errorf("plan %s join: %w", path, err)
	}

	meta := PrepareMetadata(in.Metadata)
	if meta == nil {
		e.logger.Warn("no metadata; emitting stream without year and genre", zap.Stringer("path", path))
		return stream, path, nil
	}
	if !stream.Has(normalize.TextID) {
		e.logger.Warn("stream has no textID; metadata not joined", zap.Stringer("path", path))
		return stream, path, nil
	}
	out := stream.LeftJoin(meta, normalize.TextID, e.observe("metadata"))
	if err := out.Err(); err != nil {
		return nil, path, fmt.Errorf("plan metadata join: %w", err)
	}
	e.logger.Debug("planned join", zap.Stringer("path", path), zap.Strings("columns", out.Columns()))
	return out, path, nil
}

// PrepareMetadata projects metadata onto textID (text), year and decade
// (Int32) and genre (text), keeping only the columns present. It returns nil
// when there is no metadata or it has no textID.
func PrepareMetadata(meta *frame.Dataset) *frame.Dataset {
	if meta == nil || !meta.Has(normalize.TextID) {
		return nil
	}
	kinds := []struct {
		col  string
		kind frame.Kind
	}{
		{normalize.TextID, frame.KindString},
		{normalize.Year, frame.KindInt32},
		{normalize.Decade, frame.KindInt32},
		{normalize.Genre, frame.KindString},
	}
	var exprs []frame.Expr
	for _, k := range kinds {
		if meta.Has(k.col) {
			exprs = append(exprs, frame.Col(k.col).Cast(k.kind))
		}
	}
	return meta.Select(exprs...)
}

func present(d *frame.Dataset, key string, cols ...string) []frame.Expr {
	exprs := []frame.Expr{frame.Col(key)}
	for _, c := range cols {
		if d.Has(c) {
			exprs = append(exprs, frame.Col(c))
		}
	}
	return exprs
}

func (e *Engine) observe(side string) func(frame.JoinStats) {
	return func(s frame.JoinStats) {
		fields := []zap.Field{
			zap.String("side", side),
			zap.Int64("right_rows", s.RightRows),
			zap.Int64("matched", s.Matched),
			zap.Int64("unmatched", s.Unmatched),
		}
		if s.DuplicateKeys > 0 {
			e.logger.Warn("duplicate join keys ignored", append(fields, zap.Int64("duplicates", s.DuplicateKeys))...)
			return
		}
		e.logger.Debug("join finished", fields...)
	}
}
