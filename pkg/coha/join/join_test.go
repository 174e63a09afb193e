package join

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

func tokens() *frame.Dataset {
	return frame.FromRows([]string{"textID", "wordID"}, []frame.Row{
		{int64(1), int64(10)},
		{int64(1), int64(99)},
		{int64(2), int64(10)},
		{int64(3), nil},
	})
}

func lexicon() *frame.Dataset {
	return frame.FromRows([]string{"wordID", "word", "lemma", "pos"}, []frame.Row{
		{int64(10), "democracy", "democracy", "NOUN"},
	})
}

func metadata() *frame.Dataset {
	return frame.FromRows([]string{"textID", "year", "genre"}, []frame.Row{
		{int64(1), int32(1900), "NEWS"},
		{int64(2), nil, "FIC"},
	})
}

func TestSelectPath(t *testing.T) {
	assert.Equal(t, PathIDBased, SelectPath(lexicon()))
	assert.Equal(t, PathTagged, SelectPath(frame.FromRows([]string{"textID", "lemma"}, nil)))
	assert.Equal(t, PathTagged, SelectPath(nil))
	assert.Equal(t, frame.KindInt64, PathIDBased.IDKind())
	assert.Equal(t, frame.KindString, PathTagged.IDKind())
}

func TestIDBasedKeepsEveryTokenOnce(t *testing.T) {
	ds, path, err := New(zap.NewNop()).Build(Inputs{Tokens: tokens(), Lexicon: lexicon(), Metadata: metadata()})
	require.NoError(t, err)
	assert.Equal(t, PathIDBased, path)
	assert.Equal(t, []string{"textID", "wordID", "word", "lemma", "pos", "year", "genre"}, ds.Columns())

	out, err := ds.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())

	assert.Equal(t, frame.Row{"1", int64(10), "democracy", "democracy", "NOUN", int32(1900), "NEWS"}, out.Rows[0])
	assert.Equal(t, frame.Row{"1", int64(99), nil, nil, nil, int32(1900), "NEWS"}, out.Rows[1])
	assert.Equal(t, frame.Row{"2", int64(10), "democracy", "democracy", "NOUN", nil, "FIC"}, out.Rows[2])
	assert.Equal(t, frame.Row{"3", nil, nil, nil, nil, nil, nil}, out.Rows[3])
}

func TestTaggedPathUsesLexiconAsStream(t *testing.T) {
	tagged := frame.FromRows([]string{"textID", "word", "lemma"}, []frame.Row{
		{"1", "Democracy", "democracy"},
		{"7", "cats", "cat"},
	})
	meta := frame.FromRows([]string{"textID", "year"}, []frame.Row{{"1", int32(1900)}})

	ds, path, err := New(nil).Build(Inputs{Lexicon: tagged, Metadata: meta})
	require.NoError(t, err)
	assert.Equal(t, PathTagged, path)

	out, err := ds.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"textID", "word", "lemma", "pos", "year"}, out.Columns)
	assert.Equal(t, frame.Row{"1", "Democracy", "democracy", nil, int32(1900)}, out.Rows[0])
	assert.Equal(t, frame.Row{"7", "cats", "cat", nil, nil}, out.Rows[1])
}

func TestNoMetadataEmitsStreamUnchanged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ds, _, err := New(zap.New(core)).Build(Inputs{Tokens: tokens(), Lexicon: lexicon()})
	require.NoError(t, err)
	assert.Equal(t, []string{"textID", "wordID", "word", "lemma", "pos"}, ds.Columns())
	assert.Equal(t, 1, logs.FilterMessageSnippet("no metadata").Len())

	n, err := ds.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestMissingInputs(t *testing.T) {
	e := New(nil)
	_, _, err := e.Build(Inputs{Tokens: tokens()})
	assert.True(t, errors.Is(err, internalerr.ErrNoLexicon))

	_, path, err := e.Build(Inputs{Lexicon: lexicon(), Metadata: metadata()})
	assert.Equal(t, PathIDBased, path)
	assert.True(t, errors.Is(err, internalerr.ErrNoTokens))
}

func TestDuplicateMetadataKeysWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	meta := frame.FromRows([]string{"textID", "year"}, []frame.Row{
		{int64(1), int32(1900)},
		{int64(1), int32(1950)},
	})
	ds, _, err := New(zap.New(core)).Build(Inputs{Tokens: tokens(), Lexicon: lexicon(), Metadata: meta})
	require.NoError(t, err)

	out, err := ds.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, int32(1900), out.Get(0, "year"))
	assert.Equal(t, 1, logs.FilterMessage("duplicate join keys ignored").Len())
}

func TestPrepareMetadata(t *testing.T) {
	assert.Nil(t, PrepareMetadata(nil))
	assert.Nil(t, PrepareMetadata(frame.FromRows([]string{"year"}, nil)))

	out, err := PrepareMetadata(frame.FromRows([]string{"textID", "genre", "decade"},
		[]frame.Row{{int64(5), "MAG", "1900"}})).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"textID", "decade", "genre"}, out.Columns)
	assert.Equal(t, frame.Row{"5", int32(1900), "MAG"}, out.Rows[0])
}
