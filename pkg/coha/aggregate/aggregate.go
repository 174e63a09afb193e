// Package aggregate computes the per-year count tables from the joined
// record stream and writes them as Parquet files.
package aggregate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/normalize"
	"github.com/cognicore/coha/pkg/coha/table"
)

// Output file names.
const (
	FileByYearWord     = "out_by_year_word.parquet"
	FileByYearLemmaPOS = "out_by_year_lemma_pos.parquet"
)

// DefaultTopN is the number of lemmas kept per year.
const DefaultTopN = 50

// CountColumn names the count in every output.
const CountColumn = "n"

// TopLemmasFile is the top lemmas output name for n lemmas per year.
func TopLemmasFile(n int) string {
	return fmt.Sprintf("out_top%d_lemmas_per_year.parquet", n)
}

// Output describes one aggregate of a run.
type Output struct {
	Name    string
	Keys    []string
	Path    string
	Rows    int
	Skipped bool
	Missing []string // key columns absent from the stream when skipped
}

// Report lists the outputs of a run in a fixed order.
type Report struct {
	Outputs []Output
}

// Written returns the outputs that were produced.
func (r Report) Written() []Output {
	var out []Output
	for _, o := range r.Outputs {
		if !o.Skipped {
			out = append(out, o)
		}
	}
	return out
}

// Skipped returns the outputs that were not produced.
func (r Report) Skipped() []Output {
	var out []Output
	for _, o := range r.Outputs {
		if o.Skipped {
			out = append(out, o)
		}
	}
	return out
}

// ByYearWord counts occurrences per (year, word).
func ByYearWord(stream *frame.Dataset) *frame.Dataset {
	return stream.GroupBy(normalize.Year, normalize.Word).Count(CountColumn)
}

// ByYearLemmaPOS counts occurrences per (year, lemma, pos).
func ByYearLemmaPOS(stream *frame.Dataset) *frame.Dataset {
	return stream.GroupBy(normalize.Year, normalize.Lemma, normalize.POS).Count(CountColumn)
}

// TopLemmas keeps the n most frequent lemmas of each year, ordered by year
// ascending, count descending and lemma ascending.
func TopLemmas(stream *frame.Dataset, n int) *frame.Dataset {
	return stream.GroupBy(normalize.Year, normalize.Lemma).Count(CountColumn).
		Sort(frame.Asc(normalize.Year), frame.Desc(CountColumn), frame.Asc(normalize.Lemma)).
		HeadPerGroup(normalize.Year, n)
}

// Aggregator writes the count tables to a directory.
type Aggregator struct {
	outDir string
	topN   int
	logger *zap.Logger
}

// New creates an aggregator writing to outDir. topN <= 0 selects
// DefaultTopN.
func New(outDir string, topN int, logger *zap.Logger) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{outDir: outDir, topN: topN, logger: logger}
}

type job struct {
	name  string
	keys  []string
	write func(ctx context.Context, stream *frame.Dataset, path string) (int, error)
}

func (a *Aggregator) jobs() []job {
	return []job{
		{
			name: FileByYearWord,
			keys: []string{normalize.Year, normalize.Word},
			write: func(ctx context.Context, s *frame.Dataset, path string) (int, error) {
				return sink(ctx, ByYearWord(s), path, yearWordRecords)
			},
		},
		{
			name: FileByYearLemmaPOS,
			keys: []string{normalize.Year, normalize.Lemma, normalize.POS},
			write: func(ctx context.Context, s *frame.Dataset, path string) (int, error) {
				return sink(ctx, ByYearLemmaPOS(s), path, yearLemmaPOSRecords)
			},
		},
		{
			name: TopLemmasFile(a.topN),
			keys: []string{normalize.Year, normalize.Lemma},
			write: func(ctx context.Context, s *frame.Dataset, path string) (int, error) {
				return sink(ctx, TopLemmas(s, a.topN), path, yearLemmaRecords)
			},
		},
	}
}

// Run computes every aggregate whose key columns are present in stream and
// writes it to the output directory. An aggregate with missing keys is
// recorded as skipped; it does not fail the run.
func (a *Aggregator) Run(ctx context.Context, stream *frame.Dataset) (Report, error) {
	if err := os.MkdirAll(a.outDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}

	var report Report
	cols := stream.Columns()
	for _, j := range a.jobs() {
		out := Output{Name: j.name, Keys: j.keys}
		for _, k := range j.keys {
			if !slices.Contains(cols, k) {
				out.Missing = append(out.Missing, k)
			}
		}
		if len(out.Missing) > 0 {
			out.Skipped = true
			a.logger.Warn("skipping aggregate",
				zap.String("output", j.name),
				zap.Strings("missing", out.Missing))
			report.Outputs = append(report.Outputs, out)
			continue
		}

		start := time.Now()
		out.Path = filepath.Join(a.outDir, j.name)
		n, err := j.write(ctx, stream, out.Path)
		if err != nil {
			return report, fmt.Errorf("write %s: %w", j.name, err)
		}
		out.Rows = n
		a.logger.Info("wrote aggregate",
			zap.String("path", out.Path),
			zap.Int("rows", n),
			zap.Duration("took", time.Since(start)))
		report.Outputs = append(report.Outputs, out)
	}
	return report, nil
}

func sink[T any](ctx context.Context, ds *frame.Dataset, path string, convert func(*frame.Table) []T) (int, error) {
	t, err := ds.Collect(ctx)
	if err != nil {
		return 0, err
	}
	rows := convert(t)
	if err := table.WriteParquet(path, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
