package frame

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCast(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"string to int64", "42", KindInt64, int64(42)},
		{"float string to int64", "12.0", KindInt64, int64(12)},
		{"garbage to int64", "abc", KindInt64, nil},
		{"empty to int64", "", KindInt64, nil},
		{"int32 to int64", int32(7), KindInt64, int64(7)},
		{"float to int32", 1900.0, KindInt32, int32(1900)},
		{"overflow int32", int64(1) << 40, KindInt32, nil},
		{"int64 to string", int64(10), KindString, "10"},
		{"bytes to string", []byte("lemma"), KindString, "lemma"},
		{"nil stays nil", nil, KindString, nil},
		{"any passthrough", 3.5, KindAny, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cast(tt.in, tt.kind))
		})
	}
}

func TestCompareAbsentLast(t *testing.T) {
	assert.Equal(t, 1, Compare(nil, int64(1)))
	assert.Equal(t, -1, Compare("a", nil))
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, -1, Compare(int32(1899), int64(1900)))
	assert.Equal(t, -1, Compare(int64(5), "5"))
	assert.Equal(t, 1, Compare("b", "a"))
}

func TestSelectRenameAndCast(t *testing.T) {
	ctx := context.Background()
	d := FromRows([]string{"TextId", "WORD_ID"}, []Row{{"1", "10"}, {"2", "x"}})

	out, err := d.Select(
		Col("TextId").As("textID").Cast(KindInt64),
		Col("WORD_ID").As("wordID").Cast(KindInt64),
		Lit(nil).As("occID"),
	).Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"textID", "wordID", "occID"}, out.Columns)
	assert.Equal(t, Row{int64(1), int64(10), nil}, out.Rows[0])
	assert.Equal(t, Row{int64(2), nil, nil}, out.Rows[1])
}

func TestSelectMissingColumnFailsLazily(t *testing.T) {
	d := FromRows([]string{"a"}, nil).Select(Col("b"))
	require.Error(t, d.Err())

	_, err := d.Collect(context.Background())
	require.Error(t, err)
}

func TestConcatRelaxed(t *testing.T) {
	ctx := context.Background()
	a := FromRows([]string{"wordID", "word"}, []Row{{int64(1), "cat"}, {int64(2), "dog"}})
	b := FromRows([]string{"wordID", "lemma"}, []Row{{int64(3), "run"}})

	u := Concat(a, b)
	assert.Equal(t, []string{"wordID", "word", "lemma"}, u.Columns())

	out, err := u.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, Row{int64(1), "cat", nil}, out.Rows[0])
	assert.Equal(t, Row{int64(3), nil, "run"}, out.Rows[2])
}

func TestConcatNothingIsEmpty(t *testing.T) {
	n, err := Concat().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLeftJoinKeepsEveryLeftRowOnce(t *testing.T) {
	ctx := context.Background()
	left := FromRows([]string{"textID", "wordID"}, []Row{
		{int64(1), int64(10)},
		{int64(1), int64(11)},
		{int64(2), nil},
	})
	right := FromRows([]string{"wordID", "word"}, []Row{
		{int64(10), "democracy"},
		{int64(10), "duplicate"},
	})

	var stats JoinStats
	out, err := left.LeftJoin(right, "wordID", func(s JoinStats) { stats = s }).Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"textID", "wordID", "word"}, out.Columns)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, "democracy", out.Get(0, "word"))
	assert.Nil(t, out.Get(1, "word"))
	assert.Nil(t, out.Get(2, "word"))
	assert.Equal(t, JoinStats{RightRows: 2, DuplicateKeys: 1, Matched: 1, Unmatched: 2}, stats)
}

func TestLeftJoinSuffixesCollidingColumns(t *testing.T) {
	left := FromRows([]string{"id", "name"}, nil)
	right := FromRows([]string{"id", "name"}, nil)
	assert.Equal(t, []string{"id", "name", "name_right"}, left.LeftJoin(right, "id").Columns())
}

func TestLeftJoinTypeMismatchDoesNotMatch(t *testing.T) {
	ctx := context.Background()
	left := FromRows([]string{"textID"}, []Row{{int64(1)}})
	right := FromRows([]string{"textID", "year"}, []Row{{"1", int32(1900)}})

	out, err := left.LeftJoin(right, "textID").Collect(ctx)
	require.NoError(t, err)
	assert.Nil(t, out.Get(0, "year"))

	out, err = left.WithCast("textID", KindString).LeftJoin(right, "textID").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1900), out.Get(0, "year"))
}

func TestGroupByCountSortedWithNullGroup(t *testing.T) {
	ctx := context.Background()
	d := FromRows([]string{"year", "word"}, []Row{
		{int32(1910), "b"},
		{nil, "a"},
		{int32(1900), "a"},
		{int32(1910), "b"},
	})

	out, err := d.GroupBy("year", "word").Count("n").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{int32(1900), "a", int64(1)},
		{int32(1910), "b", int64(2)},
		{nil, "a", int64(1)},
	}, out.Rows)
}

func TestGroupBySum(t *testing.T) {
	ctx := context.Background()
	d := FromRows([]string{"year", "n"}, []Row{
		{int32(1900), int64(2)},
		{int32(1900), int64(3)},
		{int32(1901), nil},
	})
	out, err := d.GroupBy("year").Sum("n", "total").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Row{{int32(1900), int64(5)}, {int32(1901), int64(0)}}, out.Rows)
}

func TestGroupByRejectsTooManyKeys(t *testing.T) {
	d := FromRows([]string{"a", "b", "c", "d", "e"}, nil)
	_, err := d.GroupBy("a", "b", "c", "d", "e").Count("n").Collect(context.Background())
	require.Error(t, err)
}

func TestSortAndHeadPerGroup(t *testing.T) {
	ctx := context.Background()
	d := FromRows([]string{"year", "lemma", "n"}, []Row{
		{int32(1900), "b", int64(5)},
		{int32(1900), "a", int64(5)},
		{int32(1900), "c", int64(9)},
		{int32(1800), "z", int64(1)},
	})

	out, err := d.Sort(Asc("year"), Desc("n"), Asc("lemma")).HeadPerGroup("year", 2).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{int32(1800), "z", int64(1)},
		{int32(1900), "c", int64(9)},
		{int32(1900), "a", int64(5)},
	}, out.Rows)

	// evaluation is repeatable: the per-group counters are not shared
	again, err := d.Sort(Asc("year"), Desc("n"), Asc("lemma")).HeadPerGroup("year", 2).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, out.Rows, again.Rows)
}

func TestFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	d := FromRows([]string{"lemma"}, []Row{{"democracy"}, {"cat"}, {"democracy"}, {nil}})

	n, err := d.Filter("lemma", Equals("democracy")).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = d.Limit(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCanceledContextStopsIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromRows([]string{"a"}, []Row{{1}}).Collect(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}
