// Package frame is a small lazily evaluated table engine. A Dataset is a
// column list plus a function that produces rows on demand; operators such
// as Select, Concat, LeftJoin and GroupBy compose plans without reading any
// data until a sink (Collect, Count, or a caller draining Iter) runs.
package frame

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Dataset is a lazily evaluated rectangular table.
type Dataset struct {
	columns []string
	open    OpenFunc
	err     error
}

// New creates a dataset from a column list and an open function.
func New(columns []string, open OpenFunc) *Dataset {
	return &Dataset{columns: slices.Clone(columns), open: open}
}

// FromRows creates a dataset backed by in-memory rows.
func FromRows(columns []string, rows []Row) *Dataset {
	return New(columns, func(ctx context.Context) (Iterator, error) {
		return newSliceIter(ctx, rows), nil
	})
}

// Failed returns a dataset whose evaluation always fails with err.
func Failed(err error) *Dataset {
	return &Dataset{err: err}
}

// Err reports a plan construction error, if any.
func (d *Dataset) Err() error { return d.err }

// Columns returns the dataset's column names in order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// Index returns the position of col, or -1.
func (d *Dataset) Index(col string) int {
	return slices.Index(d.columns, col)
}

// Has reports whether every named column is present.
func (d *Dataset) Has(cols ...string) bool {
	for _, c := range cols {
		if d.Index(c) < 0 {
			return false
		}
	}
	return true
}

// Iter starts evaluation and returns a row iterator. Callers must Close it.
func (d *Dataset) Iter(ctx context.Context) (Iterator, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.open == nil {
		return nil, errors.New("frame: dataset has no source")
	}
	return d.open(ctx)
}

// Table is a materialized dataset.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Get returns the value at row i of column col, or nil if col is unknown.
func (t *Table) Get(i int, col string) any {
	idx := slices.Index(t.Columns, col)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][idx]
}

// Column returns all values of one column.
func (t *Table) Column(col string) []any {
	idx := slices.Index(t.Columns, col)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// Collect evaluates the dataset fully into memory.
func (d *Dataset) Collect(ctx context.Context) (*Table, error) {
	it, err := d.Iter(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	t := &Table{Columns: d.Columns()}
	for it.Next() {
		t.Rows = append(t.Rows, slices.Clone(it.Row()))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Count evaluates the dataset and returns its row count.
func (d *Dataset) Count(ctx context.Context) (int64, error) {
	it, err := d.Iter(ctx)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var n int64
	for it.Next() {
		n++
	}
	return n, it.Err()
}

// ForEach streams every row to fn. Rows must not be retained without copying.
func (d *Dataset) ForEach(ctx context.Context, fn func(Row) error) error {
	it, err := d.Iter(ctx)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if err := fn(it.Row()); err != nil {
			return err
		}
	}
	return it.Err()
}

func missingColumn(col string, have []string) error {
	return fmt.Errorf("frame: column %q not found in %v", col, have)
}
