package aggregate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/table"
)

func stream() *frame.Dataset {
	return frame.FromRows([]string{"textID", "word", "lemma", "pos", "year"}, []frame.Row{
		{"1", "Democracy", "democracy", "NOUN", int32(1900)},
		{"1", "democracy", "democracy", "NOUN", int32(1900)},
		{"1", "ran", "run", "VERB", int32(1900)},
		{"2", "runs", "run", "VERB", int32(1850)},
		{"3", "cat", "cat", "NOUN", nil},
		{"4", nil, nil, nil, int32(1850)},
	})
}

// readBack scans an output file with the canonical output types.
func readBack(t *testing.T, path string) *frame.Table {
	t.Helper()
	ds, err := table.Scan(path)
	require.NoError(t, err)
	var exprs []frame.Expr
	for _, c := range ds.Columns() {
		kind := frame.KindString
		switch c {
		case "year":
			kind = frame.KindInt32
		case "n":
			kind = frame.KindInt64
		}
		exprs = append(exprs, frame.Col(c).Cast(kind))
	}
	out, err := ds.Select(exprs...).Collect(context.Background())
	require.NoError(t, err)
	return out
}

func TestRunWritesAllOutputs(t *testing.T) {
	dir := t.TempDir()
	report, err := New(dir, 0, zap.NewNop()).Run(context.Background(), stream())
	require.NoError(t, err)
	require.Len(t, report.Written(), 3)
	assert.Empty(t, report.Skipped())

	byWord := readBack(t, filepath.Join(dir, FileByYearWord))
	assert.Equal(t, []string{"year", "word", "n"}, byWord.Columns)
	assert.Equal(t, []frame.Row{
		{int32(1850), "runs", int64(1)},
		{int32(1850), nil, int64(1)},
		{int32(1900), "Democracy", int64(1)},
		{int32(1900), "democracy", int64(1)},
		{int32(1900), "ran", int64(1)},
		{nil, "cat", int64(1)},
	}, byWord.Rows)

	cube := readBack(t, filepath.Join(dir, FileByYearLemmaPOS))
	assert.Equal(t, frame.Row{int32(1900), "democracy", "NOUN", int64(2)}, cube.Rows[2])

	top := readBack(t, filepath.Join(dir, TopLemmasFile(DefaultTopN)))
	assert.Equal(t, "out_top50_lemmas_per_year.parquet", TopLemmasFile(DefaultTopN))
	assert.Equal(t, []frame.Row{
		{int32(1850), "run", int64(1)},
		{int32(1850), nil, int64(1)},
		{int32(1900), "democracy", int64(2)},
		{int32(1900), "run", int64(1)},
		{nil, "cat", int64(1)},
	}, top.Rows)
}

func TestTopNLimitsPerYear(t *testing.T) {
	out, err := TopLemmas(stream(), 1).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []frame.Row{
		{int32(1850), "run", int64(1)},
		{int32(1900), "democracy", int64(2)},
		{nil, "cat", int64(1)},
	}, out.Rows)
}

func TestRunSkipsAggregatesWithMissingKeys(t *testing.T) {
	dir := t.TempDir()
	noYear := stream().Select(frame.Col("word"), frame.Col("lemma"), frame.Col("pos"))

	report, err := New(dir, 10, nil).Run(context.Background(), noYear)
	require.NoError(t, err)
	assert.Empty(t, report.Written())
	require.Len(t, report.Skipped(), 3)
	assert.Equal(t, []string{"year"}, report.Skipped()[0].Missing)
	assert.NoFileExists(t, filepath.Join(dir, FileByYearWord))

	noPOS := stream().Select(frame.Col("year"), frame.Col("word"), frame.Col("lemma"))
	report, err = New(dir, 10, nil).Run(context.Background(), noPOS)
	require.NoError(t, err)
	require.Len(t, report.Skipped(), 1)
	assert.Equal(t, FileByYearLemmaPOS, report.Skipped()[0].Name)
	assert.FileExists(t, filepath.Join(dir, TopLemmasFile(10)))
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := New(dir, 0, nil)

	_, err := a.Run(ctx, stream())
	require.NoError(t, err)
	first := readBack(t, filepath.Join(dir, FileByYearLemmaPOS))

	_, err = a.Run(ctx, stream())
	require.NoError(t, err)
	second := readBack(t, filepath.Join(dir, FileByYearLemmaPOS))
	assert.Equal(t, first, second)

	again, err := ByYearLemmaPOS(stream()).Collect(ctx)
	require.NoError(t, err)
	once, err := ByYearLemmaPOS(stream()).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, once, again)
}

func TestTrend(t *testing.T) {
	ctx := context.Background()
	points, err := Trend(ctx, stream(), "run")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int32(1850), *points[0].Year)
	assert.Equal(t, int64(1), points[0].N)
	assert.Equal(t, int32(1900), *points[1].Year)

	_, err = Trend(ctx, stream().Select(frame.Col("lemma")), "run")
	require.Error(t, err)
}

func TestTrendAndTopReadBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := New(dir, 0, nil).Run(ctx, stream())
	require.NoError(t, err)

	points, err := TrendFromCube(ctx, filepath.Join(dir, FileByYearLemmaPOS), DefaultTrendLemma)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int32(1900), *points[0].Year)
	assert.Equal(t, int64(2), points[0].N)

	top, err := TopForYear(ctx, filepath.Join(dir, TopLemmasFile(DefaultTopN)), 1900)
	require.NoError(t, err)
	assert.Equal(t, []LemmaCount{{"democracy", 2}, {"run", 1}}, top)

	_, err = TopForYear(ctx, filepath.Join(dir, "missing.parquet"), 1900)
	require.Error(t, err)
}
