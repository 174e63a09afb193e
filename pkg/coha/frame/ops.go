package frame

import (
	"context"
	"io"
	"slices"
)

// Expr is one projected output column.
type Expr struct {
	source string
	alias  string
	kind   Kind
	lit    any
	isLit  bool
}

// Col selects a column by name.
func Col(name string) Expr {
	return Expr{source: name, alias: name}
}

// Lit produces a constant column; it needs an alias.
func Lit(v any) Expr {
	return Expr{isLit: true, lit: v}
}

// As renames the output column.
func (e Expr) As(alias string) Expr {
	e.alias = alias
	return e
}

// Cast converts values to kind k.
func (e Expr) Cast(k Kind) Expr {
	e.kind = k
	return e
}

// Name is the output column name.
func (e Expr) Name() string { return e.alias }

// Select projects the dataset onto exprs.
func (d *Dataset) Select(exprs ...Expr) *Dataset {
	if d.err != nil {
		return d
	}
	cols := make([]string, len(exprs))
	src := make([]int, len(exprs))
	for i, e := range exprs {
		cols[i] = e.alias
		if e.isLit {
			src[i] = -1
			continue
		}
		idx := d.Index(e.source)
		if idx < 0 {
			return Failed(missingColumn(e.source, d.columns))
		}
		src[i] = idx
	}

	return New(cols, func(ctx context.Context) (Iterator, error) {
		in, err := d.Iter(ctx)
		if err != nil {
			return nil, err
		}
		next := func() (Row, error) {
			if !in.Next() {
				if err := in.Err(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			row := in.Row()
			out := make(Row, len(exprs))
			for i, e := range exprs {
				var v any
				if src[i] < 0 {
					v = e.lit
				} else {
					v = row[src[i]]
				}
				out[i] = Cast(v, e.kind)
			}
			return out, nil
		}
		return NewFuncIter(next, in.Close), nil
	})
}

// WithCast keeps every column and casts col to kind k.
func (d *Dataset) WithCast(col string, k Kind) *Dataset {
	if d.err != nil {
		return d
	}
	if d.Index(col) < 0 {
		return Failed(missingColumn(col, d.columns))
	}
	exprs := make([]Expr, len(d.columns))
	for i, c := range d.columns {
		exprs[i] = Col(c)
		if c == col {
			exprs[i] = exprs[i].Cast(k)
		}
	}
	return d.Select(exprs...)
}

// Filter keeps rows whose value in col satisfies keep.
func (d *Dataset) Filter(col string, keep func(v any) bool) *Dataset {
	if d.err != nil {
		return d
	}
	idx := d.Index(col)
	if idx < 0 {
		return Failed(missingColumn(col, d.columns))
	}
	return New(d.columns, func(ctx context.Context) (Iterator, error) {
		in, err := d.Iter(ctx)
		if err != nil {
			return nil, err
		}
		next := func() (Row, error) {
			for in.Next() {
				row := in.Row()
				if keep(row[idx]) {
					return row, nil
				}
			}
			if err := in.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return NewFuncIter(next, in.Close), nil
	})
}

// Equals is a Filter predicate matching non-absent values equal to want.
func Equals(want any) func(any) bool {
	return func(v any) bool {
		return v != nil && Compare(v, want) == 0
	}
}

// Limit stops after n rows.
func (d *Dataset) Limit(n int) *Dataset {
	if d.err != nil {
		return d
	}
	return New(d.columns, func(ctx context.Context) (Iterator, error) {
		in, err := d.Iter(ctx)
		if err != nil {
			return nil, err
		}
		seen := 0
		next := func() (Row, error) {
			if seen >= n || !in.Next() {
				if err := in.Err(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			seen++
			return in.Row(), nil
		}
		return NewFuncIter(next, in.Close), nil
	})
}

// Concat stacks datasets vertically. Columns are the ordered union of the
// inputs' columns; a column missing from an input reads as nil for its rows.
func Concat(parts ...*Dataset) *Dataset {
	var cols []string
	for _, p := range parts {
		if p.err != nil {
			return p
		}
		for _, c := range p.columns {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}

	// mapping[i][j] is the position in parts[i] feeding output column j
	mapping := make([][]int, len(parts))
	for i, p := range parts {
		mapping[i] = make([]int, len(cols))
		for j, c := range cols {
			mapping[i][j] = p.Index(c)
		}
	}

	return New(cols, func(ctx context.Context) (Iterator, error) {
		part := 0
		var cur Iterator
		closeCur := func() error {
			if cur == nil {
				return nil
			}
			err := cur.Close()
			cur = nil
			return err
		}
		next := func() (Row, error) {
			for part < len(parts) {
				if cur == nil {
					it, err := parts[part].Iter(ctx)
					if err != nil {
						return nil, err
					}
					cur = it
				}
				if cur.Next() {
					row := cur.Row()
					out := make(Row, len(cols))
					for j, src := range mapping[part] {
						if src >= 0 {
							out[j] = row[src]
						}
					}
					return out, nil
				}
				if err := cur.Err(); err != nil {
					return nil, err
				}
				if err := closeCur(); err != nil {
					return nil, err
				}
				part++
			}
			return nil, io.EOF
		}
		return NewFuncIter(next, closeCur), nil
	})
}
