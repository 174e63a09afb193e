package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/internal/testutil"
)

func TestInspectReportsLayoutAndShards(t *testing.T) {
	root := t.TempDir()
	testutil.WriteParquet(t, root, "Corpus/tokens.parquet",
		testutil.TokenRow{TextID: 1, WordID: 10}, testutil.TokenRow{TextID: 2, WordID: 11})
	testutil.WriteCSV(t, root, "Word_lemma_PoS/lexicon.csv", []string{"wordID", "word", "lemma", "PoS"},
		[]string{"10", "democracy", "democracy", "NOUN"})
	testutil.WriteCSV(t, root, "Text/full.csv", []string{"textID", "text"}, []string{"1", "We the people"})
	testutil.WriteFile(t, root, "Corpus/broken.parquet", []byte("nope"))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{root, "--peek", "1", "--log-level", "error"}, &stdout, &stderr)
	require.Equal(t, cli.ExitOK, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Exists Corpus? true  shards: 2")
	assert.Contains(t, out, "Exists Text? true  shards: 1")
	assert.Contains(t, out, "Word-like dirs: [Word_lemma_PoS]")
	assert.Contains(t, out, "[full text]")
	assert.Contains(t, out, "(unreadable)")
	assert.Contains(t, out, filepath.Join("Corpus", "tokens.parquet"))
	assert.Contains(t, out, "[tokens] 2 rows")
	assert.Contains(t, out, "pass primary")
}

func TestInspectRuns(t *testing.T) {
	root := t.TempDir()
	testutil.WriteParquet(t, root, "tokens.parquet", testutil.TokenRow{TextID: 1, WordID: 10})
	db := filepath.Join(t.TempDir(), "runs.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{root, "--catalog", db, "--runs", "5", "--log-level", "error"}, &stdout, &stderr)
	require.Equal(t, cli.ExitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Recent runs")
}

func TestIsFullText(t *testing.T) {
	assert.True(t, isFullText([]string{"textID", "Body"}))
	assert.False(t, isFullText([]string{"textID", "wordID"}))
}
