package frame

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// MaxGroupKeys bounds the number of grouping columns.
const MaxGroupKeys = 4

type groupKey [MaxGroupKeys]any

// Grouped is a dataset partitioned by key columns, awaiting an aggregate.
type Grouped struct {
	src  *Dataset
	keys []string
	err  error
}

// GroupBy partitions d by keys. Absent key values form their own group.
func (d *Dataset) GroupBy(keys ...string) *Grouped {
	g := &Grouped{src: d, keys: slices.Clone(keys), err: d.err}
	if g.err != nil {
		return g
	}
	if len(keys) == 0 || len(keys) > MaxGroupKeys {
		g.err = fmt.Errorf("frame: group by needs 1..%d keys, got %d", MaxGroupKeys, len(keys))
		return g
	}
	for _, k := range keys {
		if d.Index(k) < 0 {
			g.err = missingColumn(k, d.columns)
			return g
		}
	}
	return g
}

// Count emits one row per group: the keys followed by the group size as
// int64 in column alias. Rows are ordered by keys ascending.
func (g *Grouped) Count(alias string) *Dataset {
	return g.aggregate(alias, -1)
}

// Sum emits one row per group with the int64 sum of col. Absent or
// non-numeric values contribute nothing.
func (g *Grouped) Sum(col, alias string) *Dataset {
	if g.err != nil {
		return Failed(g.err)
	}
	idx := g.src.Index(col)
	if idx < 0 {
		return Failed(missingColumn(col, g.src.columns))
	}
	return g.aggregate(alias, idx)
}

func (g *Grouped) aggregate(alias string, valueIdx int) *Dataset {
	if g.err != nil {
		return Failed(g.err)
	}
	keyIdx := make([]int, len(g.keys))
	for i, k := range g.keys {
		keyIdx[i] = g.src.Index(k)
	}
	cols := append(slices.Clone(g.keys), alias)

	return New(cols, func(ctx context.Context) (Iterator, error) {
		totals := make(map[groupKey]int64)
		var order []groupKey
		err := g.src.ForEach(ctx, func(row Row) error {
			var k groupKey
			for i, idx := range keyIdx {
				k[i] = joinKey(row[idx])
			}
			if _, ok := totals[k]; !ok {
				order = append(order, k)
				totals[k] = 0
			}
			if valueIdx < 0 {
				totals[k]++
				return nil
			}
			if n, ok := Cast(row[valueIdx], KindInt64).(int64); ok {
				totals[k] += n
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		sort.SliceStable(order, func(a, b int) bool {
			for i := range keyIdx {
				if c := Compare(order[a][i], order[b][i]); c != 0 {
					return c < 0
				}
			}
			return false
		})
		rows := make([]Row, len(order))
		for r, k := range order {
			row := make(Row, len(cols))
			copy(row, k[:len(keyIdx)])
			row[len(keyIdx)] = totals[k]
			rows[r] = row
		}
		return newSliceIter(ctx, rows), nil
	})
}

// SortKey orders rows by one column.
type SortKey struct {
	Column     string
	Descending bool
}

// Asc sorts col ascending.
func Asc(col string) SortKey { return SortKey{Column: col} }

// Desc sorts col descending.
func Desc(col string) SortKey { return SortKey{Column: col, Descending: true} }

// Sort orders rows by keys, stably. Absent values sort last in either
// direction.
func (d *Dataset) Sort(keys ...SortKey) *Dataset {
	if d.err != nil {
		return d
	}
	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = d.Index(k.Column)
		if idx[i] < 0 {
			return Failed(missingColumn(k.Column, d.columns))
		}
	}
	return New(d.columns, func(ctx context.Context) (Iterator, error) {
		t, err := d.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := t.Rows
		sort.SliceStable(rows, func(a, b int) bool {
			for i, k := range keys {
				va, vb := rows[a][idx[i]], rows[b][idx[i]]
				c := Compare(va, vb)
				if c == 0 {
					continue
				}
				if k.Descending && va != nil && vb != nil {
					c = -c
				}
				return c < 0
			}
			return false
		})
		return newSliceIter(ctx, rows), nil
	})
}

// HeadPerGroup keeps the first n rows seen for each distinct value of key.
// Combined with Sort it yields top-n per group.
func (d *Dataset) HeadPerGroup(key string, n int) *Dataset {
	if d.err != nil {
		return d
	}
	return d.filterRows(key, func() func(v any) bool {
		seen := make(map[any]int)
		return func(v any) bool {
			k := joinKey(v)
			if seen[k] >= n {
				return false
			}
			seen[k]++
			return true
		}
	})
}

// filterRows is Filter with a predicate created fresh for each evaluation.
func (d *Dataset) filterRows(col string, mk func() func(v any) bool) *Dataset {
	if d.Index(col) < 0 {
		return Failed(missingColumn(col, d.columns))
	}
	return New(d.columns, func(ctx context.Context) (Iterator, error) {
		return d.Filter(col, mk()).Iter(ctx)
	})
}
