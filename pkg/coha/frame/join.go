package frame

import (
	"context"
	"io"
	"slices"
)

// JoinStats summarizes one evaluation of a left join.
type JoinStats struct {
	RightRows     int64
	DuplicateKeys int64 // right rows ignored because their key was already seen
	Matched       int64
	Unmatched     int64
}

// LeftJoin joins right onto d by equality of column on. Every left row is
// emitted exactly once: the first right row per key wins and nil keys never
// match. Right columns other than on are appended; a name already used on
// the left gets a "_right" suffix. observe, when given, receives the join
// statistics once the left side has been closed.
func (d *Dataset) LeftJoin(right *Dataset, on string, observe ...func(JoinStats)) *Dataset {
	if d.err != nil {
		return d
	}
	if right.err != nil {
		return right
	}
	li := d.Index(on)
	if li < 0 {
		return Failed(missingColumn(on, d.columns))
	}
	ri := right.Index(on)
	if ri < 0 {
		return Failed(missingColumn(on, right.columns))
	}

	cols := d.Columns()
	var rightCols []int
	for i, c := range right.columns {
		if i == ri {
			continue
		}
		name := c
		if slices.Contains(cols, name) {
			name += "_right"
		}
		cols = append(cols, name)
		rightCols = append(rightCols, i)
	}

	return New(cols, func(ctx context.Context) (Iterator, error) {
		var stats JoinStats
		index, err := buildIndex(ctx, right, ri, &stats)
		if err != nil {
			return nil, err
		}

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
			out := make(Row, len(cols))
			copy(out, row)

			var match Row
			if key := joinKey(row[li]); key != nil {
				match = index[key]
			}
			if match == nil {
				stats.Unmatched++
				return out, nil
			}
			stats.Matched++
			for j, src := range rightCols {
				out[len(row)+j] = match[src]
			}
			return out, nil
		}
		closeFn := func() error {
			err := in.Close()
			for _, fn := range observe {
				fn(stats)
			}
			return err
		}
		return NewFuncIter(next, closeFn), nil
	})
}

func buildIndex(ctx context.Context, right *Dataset, keyIdx int, stats *JoinStats) (map[any]Row, error) {
	it, err := right.Iter(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	index := make(map[any]Row)
	for it.Next() {
		stats.RightRows++
		row := it.Row()
		key := joinKey(row[keyIdx])
		if key == nil {
			continue
		}
		if _, ok := index[key]; ok {
			stats.DuplicateKeys++
			continue
		}
		index[key] = slices.Clone(row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return index, nil
}

// joinKey makes v usable as a map key.
func joinKey(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
