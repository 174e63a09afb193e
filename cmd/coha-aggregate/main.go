package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/pkg/coha/aggregate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("coha-aggregate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := cli.Register(fs)
	trend := fs.String("trend", "", "print the per-year trend of this lemma after the run")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: coha-aggregate [flags] [root]")
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

	res, err := env.Pipeline.Run(ctx, cfg.Root)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}

	fmt.Fprintf(stdout, "Run %s (%s join)\n", res.Run.ID, res.State.Path)
	for _, o := range res.Report.Written() {
		fmt.Fprintf(stdout, "Wrote: %s (%d rows)\n", o.Path, o.Rows)
	}
	for _, w := range res.State.Warnings {
		fmt.Fprintf(stderr, "WARNING: %s\n", w)
	}

	if fs.Changed("trend") {
		lemma := *trend
		if lemma == "" {
			lemma = cfg.TrendLemma
		}
		points, err := aggregate.Trend(ctx, res.State.Stream, lemma)
		if err != nil {
			fmt.Fprintf(stderr, "WARNING: trend for %q unavailable: %v\n", lemma, err)
			return cli.ExitOK
		}
		printTrend(stdout, lemma, points)
	}
	return cli.ExitOK
}

func printTrend(w io.Writer, lemma string, points []aggregate.Point) {
	fmt.Fprintf(w, "\nTrend for %q\n", lemma)
	fmt.Fprintf(w, "%-8s %10s\n", "year", "n")
	for _, p := range points {
		year := "null"
		if p.Year != nil {
			year = fmt.Sprint(*p.Year)
		}
		fmt.Fprintf(w, "%-8s %10d\n", year, p.N)
	}
}
