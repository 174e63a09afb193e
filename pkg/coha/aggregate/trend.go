package aggregate

import (
	"context"
	"fmt"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/normalize"
	"github.com/cognicore/coha/pkg/coha/table"
)

// DefaultTrendLemma is the lemma reported when none is given.
const DefaultTrendLemma = "democracy"

// Point is one year of a lemma trend. Year is nil for documents of unknown
// year.
type Point struct {
	Year *int32
	N    int64
}

// LemmaCount is one entry of a year's top lemmas.
type LemmaCount struct {
	Lemma string
	N     int64
}

// Trend counts occurrences of lemma per year in the joined stream.
func Trend(ctx context.Context, stream *frame.Dataset, lemma string) ([]Point, error) {
	if !stream.Has(normalize.Year, normalize.Lemma) {
		return nil, fmt.Errorf("trend needs %s and %s columns", normalize.Year, normalize.Lemma)
	}
	ds := stream.Filter(normalize.Lemma, frame.Equals(lemma)).
		GroupBy(normalize.Year).Count(CountColumn)
	return points(ctx, ds)
}

// TrendFromCube reads the year×lemma×pos file at path and sums the counts of
// lemma per year over every part of speech.
func TrendFromCube(ctx context.Context, path, lemma string) ([]Point, error) {
	cube, err := table.Scan(path)
	if err != nil {
		return nil, err
	}
	ds := cube.Filter(normalize.Lemma, frame.Equals(lemma)).
		GroupBy(normalize.Year).Sum(CountColumn, CountColumn)
	return points(ctx, ds)
}

func points(ctx context.Context, ds *frame.Dataset) ([]Point, error) {
	t, err := ds.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = Point{Year: int32Ptr(r[0]), N: count(r[1])}
	}
	return out, nil
}

// TopForYear reads the top lemmas file at path and returns the entries of
// one year, most frequent first.
func TopForYear(ctx context.Context, path string, year int32) ([]LemmaCount, error) {
	top, err := table.Scan(path)
	if err != nil {
		return nil, err
	}
	t, err := top.Filter(normalize.Year, frame.Equals(year)).
		Sort(frame.Desc(CountColumn), frame.Asc(normalize.Lemma)).
		Select(frame.Col(normalize.Lemma).Cast(frame.KindString), frame.Col(CountColumn)).
		Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LemmaCount, 0, len(t.Rows))
	for _, r := range t.Rows {
		lemma, _ := r[0].(string)
		out = append(out, LemmaCount{Lemma: lemma, N: count(r[1])})
	}
	return out, nil
}
