package classify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/discovery"
	"github.com/cognicore/coha/pkg/coha/table"
)

// ClassificationError reports a shard whose schema could not be read.
type ClassificationError struct {
	Path string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.Path, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Schema is the column list of one shard.
type Schema struct {
	Path    string
	Format  table.Format
	Columns []string
}

// Result is the classification of one shard.
type Result struct {
	Schema
	Role   Role
	Rule   string // name of the deciding rule; empty when unclassified
	Traits Trait
	Pass   string // discovery pass that produced the shard
	Err    error  // non-nil when the schema was unreadable
}

// Classifier decides shard roles from column names.
type Classifier struct {
	aliases AliasSets
	logger  *zap.Logger
}

// New creates a classifier. A nil alias table selects DefaultAliases.
func New(aliases AliasSets, logger *zap.Logger) *Classifier {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{aliases: aliases, logger: logger}
}

// Aliases returns the classifier's alias table.
func (c *Classifier) Aliases() AliasSets { return c.aliases }

// ReadSchema reads the column names of path without reading its rows. Any
// failure is returned as a *ClassificationError.
func (c *Classifier) ReadSchema(path string) (Schema, error) {
	cols, err := table.ReadSchema(path)
	if err != nil {
		return Schema{}, &ClassificationError{Path: path, Err: err}
	}
	return Schema{Path: path, Format: table.FormatOf(path), Columns: cols}, nil
}

// Classify decides the role of an already read schema.
func (c *Classifier) Classify(policy Policy, s Schema) Result {
	traits := c.aliases.Traits(s.Columns)
	role, rule := policy.Decide(traits)
	return Result{Schema: s, Role: role, Rule: rule, Traits: traits}
}

// SchemaCache remembers the schemas already read, including failed reads,
// so a file visited by several passes is opened once. It is not safe for
// concurrent use.
type SchemaCache struct {
	entries map[string]cachedSchema
}

type cachedSchema struct {
	schema Schema
	err    error
}

// NewSchemaCache returns an empty cache.
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{entries: make(map[string]cachedSchema)}
}

// Len is the number of paths cached.
func (sc *SchemaCache) Len() int { return len(sc.entries) }

func (c *Classifier) schema(path string, cache *SchemaCache) (Schema, error) {
	if cache != nil {
		if e, ok := cache.entries[path]; ok {
			return e.schema, e.err
		}
	}
	s, err := c.ReadSchema(path)
	if cache != nil {
		cache.entries[path] = cachedSchema{schema: s, err: err}
	}
	return s, err
}

// ClassifyFile reads and classifies one shard. Unreadable shards are
// Unclassified and carry the error in Result.Err.
func (c *Classifier) ClassifyFile(policy Policy, path string) Result {
	return c.classifyFile(policy, path, nil)
}

func (c *Classifier) classifyFile(policy Policy, path string, cache *SchemaCache) Result {
	s, err := c.schema(path, cache)
	if err != nil {
		c.logger.Debug("schema unreadable", zap.String("path", path), zap.Error(err))
		return Result{Schema: Schema{Path: path, Format: table.FormatOf(path)}, Role: Unclassified, Err: err}
	}
	r := c.Classify(policy, s)
	c.logger.Debug("classified shard",
		zap.String("path", path),
		zap.Stringer("role", r.Role),
		zap.String("rule", r.Rule),
		zap.Stringer("traits", r.Traits),
		zap.Strings("columns", s.Columns))
	return r
}

// ClassifyAll classifies every candidate under policy, tagging results with
// the pass name. Schemas are taken from cache when present and stored in it
// otherwise; a nil cache reads every file. Only cancellation stops it early.
func (c *Classifier) ClassifyAll(ctx context.Context, policy Policy, pass string, candidates []discovery.Candidate, cache *SchemaCache) ([]Result, error) {
	out := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := c.classifyFile(policy, cand.Path, cache)
		r.Pass = pass
		out = append(out, r)
	}
	return out, nil
}

// Pick returns the results classified as role.
func Pick(results []Result, role Role) []Result {
	var out []Result
	for _, r := range results {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}
