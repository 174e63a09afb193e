// Package normalize projects classified shards onto canonical per-role
// schemas and unions them.
package normalize

import (
	"slices"
	"strings"

	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/frame"
)

// Canonical column names.
const (
	TextID = "textID"
	WordID = "wordID"
	OccID  = "occID"
	Word   = "word"
	Lemma  = "lemma"
	POS    = "pos"
	Year   = "year"
	Decade = "decade"
	Genre  = "genre"
)

// IDKind is the type identifiers are cast to. It is frame.KindInt64 on the
// id-based join path and frame.KindString on the tagged path.
type IDKind = frame.Kind

// Field is one canonical column and the source names it may come from, in
// priority order.
type Field struct {
	Name    string
	Aliases []string
	Kind    frame.Kind
	// ID fields take the run's IDKind instead of Kind.
	ID bool
}

// Schema is the canonical column set of a role.
type Schema struct {
	Role   classify.Role
	Fields []Field
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var docAliases = []string{"textid", "text_id", "docid", "doc_id"}

// TokenSchema is the canonical token occurrence schema.
func TokenSchema() Schema {
	return Schema{Role: classify.TokenShard, Fields: []Field{
		{Name: TextID, Aliases: slices.Clone(docAliases), ID: true},
		{Name: WordID, Aliases: []string{"wordid", "word_id"}, ID: true},
		{Name: OccID, Aliases: []string{"id", "occurrence_id"}, Kind: frame.KindInt64},
	}}
}

// LexiconSchema is the canonical lexicon schema. A tagged lexicon's textID
// is always text.
func LexiconSchema() Schema {
	return Schema{Role: classify.LexiconShard, Fields: []Field{
		{Name: WordID, Aliases: []string{"wordid", "word_id"}, ID: true},
		{Name: TextID, Aliases: slices.Clone(docAliases), Kind: frame.KindString},
		{Name: Word, Aliases: []string{"word", "token", "form"}, Kind: frame.KindString},
		{Name: Lemma, Aliases: []string{"lemma"}, Kind: frame.KindString},
		{Name: POS, Aliases: []string{"pos", "upos", "xpos", "tag"}, Kind: frame.KindString},
	}}
}

// MetadataSchema is the canonical document metadata schema.
func MetadataSchema() Schema {
	return Schema{Role: classify.MetadataShard, Fields: []Field{
		{Name: TextID, Aliases: slices.Clone(docAliases), ID: true},
		{Name: Year, Aliases: []string{"year", "date_year"}, Kind: frame.KindInt32},
		{Name: Decade, Aliases: []string{"decade"}, Kind: frame.KindInt32},
		{Name: Genre, Aliases: []string{"genre", "section"}, Kind: frame.KindString},
	}}
}

// DefaultSchemas returns the canonical schemas keyed by role.
func DefaultSchemas() map[classify.Role]Schema {
	return map[classify.Role]Schema{
		classify.TokenShard:    TokenSchema(),
		classify.LexiconShard:  LexiconSchema(),
		classify.MetadataShard: MetadataSchema(),
	}
}

// Resolve finds the source column for f among columns: the first alias, in
// priority order, present under case-insensitive comparison.
func (f Field) Resolve(columns []string) (string, bool) {
	for _, alias := range f.Aliases {
		for _, c := range columns {
			if strings.EqualFold(strings.TrimSpace(c), alias) {
				return c, true
			}
		}
	}
	return "", false
}

// Project builds the select list mapping columns onto s. Canonical fields
// with no source column are left out.
func (s Schema) Project(columns []string, idKind IDKind) []frame.Expr {
	var exprs []frame.Expr
	for _, f := range s.Fields {
		src, ok := f.Resolve(columns)
		if !ok {
			continue
		}
		kind := f.Kind
		if f.ID {
			kind = idKind
		}
		exprs = append(exprs, frame.Col(src).As(f.Name).Cast(kind))
	}
	return exprs
}
