package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/pkg/coha/aggregate"
	"github.com/cognicore/coha/pkg/coha/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("coha-trend", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.StringP("config", "c", "", "YAML config file")
	dir := fs.StringP("dir", "d", "", "directory holding the aggregate files (default: out_dir or root from config)")
	lemma := fs.StringP("lemma", "l", "", "lemma whose per-year trend is printed (default \"democracy\")")
	year := fs.Int32P("year", "y", 0, "print the top lemmas of this year instead")
	topN := fs.Int("top-n", 0, "top-N the lemmas file was written with (default 50)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: coha-trend [flags] [dir]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", cli.Describe(err))
		return cli.ExitError
	}
	switch {
	case fs.Changed("dir"):
	case fs.NArg() > 0:
		*dir = fs.Arg(0)
	case cfg.OutDir != "":
		*dir = cfg.OutDir
	default:
		*dir = cfg.Root
	}
	if *dir == "" {
		fmt.Fprintln(stderr, "ERROR: no output directory; pass --dir or set root in the config")
		return cli.ExitError
	}
	if !fs.Changed("top-n") {
		*topN = cfg.TopN
	}
	if *lemma == "" {
		*lemma = cfg.TrendLemma
	}

	if fs.Changed("year") {
		path := filepath.Join(*dir, aggregate.TopLemmasFile(*topN))
		top, err := aggregate.TopForYear(ctx, path, *year)
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return cli.ExitError
		}
		fmt.Fprintf(stdout, "Top lemmas for %d\n", *year)
		for i, lc := range top {
			fmt.Fprintf(stdout, "%3d. %-24s %10d\n", i+1, lc.Lemma, lc.N)
		}
		return cli.ExitOK
	}

	path := filepath.Join(*dir, aggregate.FileByYearLemmaPOS)
	points, err := aggregate.TrendFromCube(ctx, path, *lemma)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return cli.ExitError
	}
	fmt.Fprintf(stdout, "Trend for %q\n", *lemma)
	for _, p := range points {
		year := "null"
		if p.Year != nil {
			year = fmt.Sprint(*p.Year)
		}
		fmt.Fprintf(stdout, "%-8s %10d\n", year, p.N)
	}
	return cli.ExitOK
}
