package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/internal/testutil"
	"github.com/cognicore/coha/pkg/coha/aggregate"
)

func corpus(t *testing.T, withMeta bool) string {
	root := t.TempDir()
	testutil.WriteParquet(t, root, "Corpus/tokens.parquet",
		testutil.TokenRow{TextID: 1, WordID: 10}, testutil.TokenRow{TextID: 1, WordID: 10})
	testutil.WriteCSV(t, root, "Word_lemma_PoS/lexicon.csv", []string{"wordID", "word", "lemma", "PoS"},
		[]string{"10", "democracy", "democracy", "NOUN"})
	if withMeta {
		testutil.WriteCSV(t, root, "Sources/sources.csv", []string{"textID", "year", "genre"},
			[]string{"1", "1900", "NEWS"})
	}
	return root
}

func TestRunWritesOutputsAndTrend(t *testing.T) {
	root := corpus(t, true)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{root, "--trend", "democracy", "--log-level", "error"}, &stdout, &stderr)
	assert.Equal(t, cli.ExitOK, code, stderr.String())
	assert.FileExists(t, filepath.Join(root, aggregate.FileByYearWord))
	assert.Contains(t, stdout.String(), "id-based join")
	assert.Contains(t, stdout.String(), `Trend for "democracy"`)
	assert.Contains(t, stdout.String(), "1900")
}

func TestRunWithoutMetadataWarns(t *testing.T) {
	root := corpus(t, false)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--root", root, "--log-level", "error"}, &stdout, &stderr)
	assert.Equal(t, cli.ExitOK, code)
	assert.True(t, strings.Contains(stderr.String(), "WARNING"))
	assert.NoFileExists(t, filepath.Join(root, aggregate.FileByYearWord))
}

func TestRunFailures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, cli.ExitError, run(context.Background(), []string{"--log-level", "error"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "configuration")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "absent")
	assert.Equal(t, cli.ExitError, run(context.Background(), []string{missing, "--log-level", "error"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "data root not found")

	stderr.Reset()
	root := t.TempDir()
	testutil.WriteParquet(t, root, "Corpus/tokens.parquet", testutil.TokenRow{TextID: 1, WordID: 10})
	assert.Equal(t, cli.ExitError, run(context.Background(), []string{root, "--log-level", "error"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "no lexicon")

	assert.Equal(t, cli.ExitUsage, run(context.Background(), []string{"--bogus"}, &stdout, &stderr))
}
