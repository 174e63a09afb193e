// Package classify assigns corpus shards to a role by looking only at their
// column names.
package classify

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the logical dataset a shard contributes to.
type Role int

const (
	Unclassified Role = iota
	TokenShard
	LexiconShard
	MetadataShard
)

// Roles lists the classified roles in precedence order.
var Roles = []Role{TokenShard, LexiconShard, MetadataShard}

func (r Role) String() string {
	switch r {
	case TokenShard:
		return "tokens"
	case LexiconShard:
		return "lexicon"
	case MetadataShard:
		return "metadata"
	default:
		return "unclassified"
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tokens", "token":
		return TokenShard, nil
	case "lexicon":
		return LexiconShard, nil
	case "metadata":
		return MetadataShard, nil
	case "unclassified", "":
		return Unclassified, nil
	}
	return Unclassified, fmt.Errorf("unknown role %q", s)
}

// Trait is a kind of column recognised by name. Traits combine as a bit
// set describing one schema.
type Trait uint8

const (
	DocID Trait = 1 << iota
	WordID
	Annotation
	Temporal
)

var traitNames = map[Trait]string{
	DocID:      "doc_id",
	WordID:     "word_id",
	Annotation: "annotation",
	Temporal:   "temporal",
}

func (t Trait) String() string {
	var parts []string
	for _, one := range []Trait{DocID, WordID, Annotation, Temporal} {
		if t&one != 0 {
			parts = append(parts, traitNames[one])
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// ParseTrait maps a trait name as used in policy files.
func ParseTrait(s string) (Trait, error) {
	for t, name := range traitNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown trait %q", s)
}

// Has reports whether every trait in want is present.
func (t Trait) Has(want Trait) bool { return t&want == want }

// Any reports whether at least one trait in want is present.
func (t Trait) Any(want Trait) bool { return t&want != 0 }

// AliasSets maps each trait to the lower-case column names that signal it.
type AliasSets map[Trait][]string

// DefaultAliases returns the alias sets of a COHA export.
func DefaultAliases() AliasSets {
	return AliasSets{
		DocID:      {"textid", "text_id", "docid", "doc_id"},
		WordID:     {"wordid", "word_id"},
		Annotation: {"word", "token", "form", "lemma", "pos", "upos", "xpos", "tag"},
		Temporal:   {"year", "date_year", "decade", "genre", "section"},
	}
}

// Clone returns a deep copy.
func (a AliasSets) Clone() AliasSets {
	out := make(AliasSets, len(a))
	for t, names := range a {
		out[t] = slices.Clone(names)
	}
	return out
}

// Traits reports which traits the columns carry. Matching ignores case and
// surrounding space.
func (a AliasSets) Traits(columns []string) Trait {
	var got Trait
	for _, c := range columns {
		name := strings.ToLower(strings.TrimSpace(c))
		for t, aliases := range a {
			if slices.Contains(aliases, name) {
				got |= t
			}
		}
	}
	return got
}

// Rule assigns Role to schemas that carry every Require trait and none of
// the Forbid traits.
type Rule struct {
	Name    string
	Role    Role
	Require Trait
	Forbid  Trait
}

// Match applies the rule to a trait set.
func (r Rule) Match(t Trait) bool {
	return t.Has(r.Require) && !t.Any(r.Forbid)
}

// Policy is an ordered rule list; the first matching rule decides.
type Policy struct {
	Name  string
	Rules []Rule
}

// Decide returns the role of the first matching rule, or Unclassified.
func (p Policy) Decide(t Trait) (Role, string) {
	for _, r := range p.Rules {
		if r.Match(t) {
			return r.Role, r.Name
		}
	}
	return Unclassified, ""
}

var (
	tokenRule = Rule{
		Name:    "token",
		Role:    TokenShard,
		Require: DocID | WordID,
		Forbid:  Annotation | Temporal,
	}
	lexiconRule = Rule{
		Name:    "lexicon",
		Role:    LexiconShard,
		Require: WordID | Annotation,
		Forbid:  DocID,
	}
	metadataRule = Rule{
		Name:    "metadata",
		Role:    MetadataShard,
		Require: DocID | Temporal,
		Forbid:  WordID,
	}
	// Pre-tagged token tables keyed by document, as found in Word* folders.
	taggedLexiconRule = Rule{
		Name:    "tagged-lexicon",
		Role:    LexiconShard,
		Require: DocID | Annotation,
		Forbid:  WordID | Temporal,
	}
)

// DefaultPolicy is applied to every pass that has no directory convention.
func DefaultPolicy() Policy {
	return Policy{Name: "default", Rules: []Rule{tokenRule, lexiconRule, metadataRule}}
}

// LexiconDirPolicy is applied inside Word* directories. It extends the
// default rules with the tagged lexicon rule.
func LexiconDirPolicy() Policy {
	return Policy{Name: "lexicon-dir", Rules: []Rule{tokenRule, lexiconRule, metadataRule, taggedLexiconRule}}
}
