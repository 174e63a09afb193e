// Package testutil writes small corpus shards for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/coha/pkg/coha/table"
)

// TokenRow is a COHA token shard record.
type TokenRow struct {
	TextID int64 `parquet:"name=textID, type=INT64"`
	WordID int64 `parquet:"name=wordID, type=INT64"`
}

// LexiconRow is an untagged lexicon record keyed by word id.
type LexiconRow struct {
	WordID int64  `parquet:"name=wordID, type=INT64"`
	Word   string `parquet:"name=word, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lemma  string `parquet:"name=lemma, type=BYTE_ARRAY, convertedtype=UTF8"`
	PoS    string `parquet:"name=PoS, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// TaggedRow is a pre-tagged token record keyed by document id.
type TaggedRow struct {
	TextID string `parquet:"name=text_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Word   string `parquet:"name=token, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lemma  string `parquet:"name=lemma, type=BYTE_ARRAY, convertedtype=UTF8"`
	POS    string `parquet:"name=upos, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// MetadataRow is a document metadata record.
type MetadataRow struct {
	TextID int64  `parquet:"name=textID, type=INT64"`
	Year   *int32 `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Genre  string `parquet:"name=genre, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Year returns a pointer for MetadataRow.Year.
func Year(y int32) *int32 { return &y }

// WriteParquet writes rows under dir/rel, creating parent directories.
func WriteParquet[T any](t testing.TB, dir, rel string, rows ...T) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, table.WriteParquet(path, rows))
	return path
}

// WriteCSV writes a delimited shard under dir/rel.
func WriteCSV(t testing.TB, dir, rel string, header []string, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, table.WriteDelimited(path, header, rows))
	return path
}

// WriteFile writes raw bytes under dir/rel.
func WriteFile(t testing.TB, dir, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
