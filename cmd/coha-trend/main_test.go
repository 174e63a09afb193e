package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/coha/internal/cli"
	"github.com/cognicore/coha/pkg/coha/aggregate"
	"github.com/cognicore/coha/pkg/coha/frame"
)

func writeOutputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	stream := frame.FromRows([]string{"year", "word", "lemma", "pos"}, []frame.Row{
		{int32(1900), "democracy", "democracy", "NOUN"},
		{int32(1900), "democracies", "democracy", "NOUN"},
		{int32(1900), "voted", "vote", "VERB"},
		{int32(1950), "democratic", "democracy", "ADJ"},
	})
	_, err := aggregate.New(dir, 0, nil).Run(context.Background(), stream)
	require.NoError(t, err)
	return dir
}

func TestTrendFromCube(t *testing.T) {
	dir := writeOutputs(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{dir}, &stdout, &stderr)
	require.Equal(t, cli.ExitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), `Trend for "democracy"`)
	assert.Regexp(t, `1900\s+2`, stdout.String())
	assert.Regexp(t, `1950\s+1`, stdout.String())
}

func TestTopForYear(t *testing.T) {
	dir := writeOutputs(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--dir", dir, "--year", "1900"}, &stdout, &stderr)
	require.Equal(t, cli.ExitOK, code, stderr.String())
	assert.Regexp(t, `1\. democracy\s+2`, stdout.String())
	assert.Regexp(t, `2\. vote\s+1`, stdout.String())
}

func TestMissingFiles(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, cli.ExitError, run(context.Background(), []string{t.TempDir()}, &stdout, &stderr))
}
