package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/discovery"
	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/table"
)

// fullTextColumns mark shards that carry running text rather than tokens.
var fullTextColumns = []string{"text", "body", "content", "full_text"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("coha-inspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := cli.Register(fs)
	peek := fs.Int("peek", 0, "print the first N rows and the row count of each classified shard")
	runs := fs.Int("runs", 0, "list the N most recent runs from the catalog")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: coha-inspect [flags] [root]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}

	cfg, err := flags.Config()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}
	env, err := cli.Setup(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}
	defer env.Close()

	walker := discovery.NewWalker(env.Logger.Named("discovery"))
	layout := walker.Survey(ctx, cfg.Root, cfg.CorpusDir)
	printLayout(stdout, layout)

	st, err := env.Pipeline.Discover(ctx, cfg.Root)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}
	assigned := make(map[string]classify.Result)
	for _, role := range classify.Roles {
		for _, r := range st.Shards[role] {
			assigned[r.Path] = r
		}
	}

	cands, err := walker.Discover(ctx, cfg.Root)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}
	classifier := env.Pipeline.Classifier()
	fmt.Fprintf(stdout, "\nShards under %s\n", cfg.Root)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tPASS\tSIZE\tPATH\tCOLUMNS")
	for _, c := range cands {
		r, ok := assigned[c.Path]
		if !ok {
			r = classifier.ClassifyFile(classify.DefaultPolicy(), c.Path)
		}
		rel, _ := filepath.Rel(cfg.Root, c.Path)
		cols := strings.Join(r.Columns, ",")
		if r.Err != nil {
			cols = "(unreadable)"
		}
		if isFullText(r.Columns) {
			cols += "  [full text]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Role, dash(r.Pass), humanize.Bytes(uint64(c.Size)), rel, cols)
	}
	tw.Flush()

	for _, p := range st.Passes {
		fmt.Fprintf(stdout, "pass %-10s policy=%-11s candidates=%-5d found=%v\n", p.Name, p.Policy, p.Candidates, p.Found)
	}

	if *peek > 0 {
		for _, role := range classify.Roles {
			for _, r := range st.Shards[role] {
				if err := peekShard(ctx, stdout, r, *peek); err != nil {
					fmt.Fprintf(stderr, "WARNING: peek %s: %v\n", r.Path, err)
				}
			}
		}
	}

	if *runs > 0 {
		if err := printRuns(ctx, stdout, env.Pipeline.Catalog(), *runs); err != nil {
			fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
			return cli.ExitError
		}
	}
	return cli.ExitOK
}

func printLayout(w io.Writer, l discovery.Layout) {
	fmt.Fprintf(w, "Root: %s\n", l.Root)
	for _, d := range []discovery.DirStat{l.Corpus, l.Sources, l.Text} {
		fmt.Fprintf(w, "Exists %s? %v  shards: %d\n", d.Name, d.Exists, d.Shards)
	}
	names := make([]string, len(l.WordDirs))
	for i, d := range l.WordDirs {
		names[i] = d.Name
	}
	fmt.Fprintf(w, "Word-like dirs: %v\n", names)
	for _, d := range l.WordDirs {
		fmt.Fprintf(w, "  %s shards: %d\n", d.Path, d.Shards)
	}
}

func isFullText(cols []string) bool {
	for _, c := range cols {
		for _, want := range fullTextColumns {
			if strings.EqualFold(strings.TrimSpace(c), want) {
				return true
			}
		}
	}
	return false
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func peekShard(ctx context.Context, w io.Writer, r classify.Result, n int) error {
	ds, err := table.Scan(r.Path)
	if err != nil {
		return err
	}
	rows, err := ds.Count(ctx)
	if err != nil {
		return err
	}
	head, err := ds.Limit(n).Collect(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s [%s] %s rows\n", r.Path, r.Role, humanize.Comma(rows))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(head.Columns, "\t"))
	for _, row := range head.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func cell(v any) string {
	if v == nil {
		return "null"
	}
	return frame.Cast(v, frame.KindString).(string)
}

func printRuns(ctx context.Context, w io.Writer, store catalog.Store, n int) error {
	runs, err := store.ListRuns(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRecent runs\n")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tJOIN\tOUTPUTS\tWARNINGS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, humanize.Time(r.StartedAt), r.Status, dash(r.JoinPath), len(r.Outputs), len(r.Warnings))
	}
	return tw.Flush()
}
