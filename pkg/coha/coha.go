// Package coha wires discovery, classification, normalization, joining and
// aggregation of a COHA export into one pipeline.
package coha

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cognicore/coha/pkg/coha/aggregate"
	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/catalog/memstore"
	"github.com/cognicore/coha/pkg/coha/classify"
	"github.com/cognicore/coha/pkg/coha/discovery"
	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
	"github.com/cognicore/coha/pkg/coha/join"
	"github.com/cognicore/coha/pkg/coha/normalize"
)

// Pipeline is the corpus aggregation facade
type Pipeline struct {
	walker     *discovery.Walker
	classifier *classify.Classifier
	normalizer *normalize.Normalizer
	joiner     *join.Engine
	catalog    catalog.Store
	logger     *zap.Logger
	corpusDir  string
	outDir     string
	topN       int
}

// Options configures a Pipeline. Nil components get defaults.
type Options struct {
	Walker     *discovery.Walker
	Classifier *classify.Classifier
	Normalizer *normalize.Normalizer
	Joiner     *join.Engine
	Catalog    catalog.Store
	Logger     *zap.Logger

	// CorpusDir is searched first, relative to the root. Empty searches the
	// root directly.
	CorpusDir string
	// OutDir receives the aggregates. Empty writes next to the data.
	OutDir string
	TopN   int
}

// New creates a Pipeline with the given dependencies
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		walker:     opts.Walker,
		classifier: opts.Classifier,
		normalizer: opts.Normalizer,
		joiner:     opts.Joiner,
		catalog:    opts.Catalog,
		logger:     logger,
		corpusDir:  opts.CorpusDir,
		outDir:     opts.OutDir,
		topN:       opts.TopN,
	}
	if p.walker == nil {
		p.walker = discovery.NewWalker(logger.Named("discovery"))
	}
	if p.classifier == nil {
		p.classifier = classify.New(nil, logger.Named("classify"))
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(nil, logger.Named("normalize"))
	}
	if p.joiner == nil {
		p.joiner = join.New(logger.Named("join"))
	}
	if p.catalog == nil {
		p.catalog = memstore.New()
	}
	if p.topN <= 0 {
		p.topN = aggregate.DefaultTopN
	}
	return p
}

// Close releases the run catalog.
func (p *Pipeline) Close() error {
	return p.catalog.Close()
}

// Catalog returns the run catalog.
func (p *Pipeline) Catalog() catalog.Store { return p.catalog }

// Classifier returns the classifier used by every pass.
func (p *Pipeline) Classifier() *classify.Classifier { return p.classifier }

// Discovery pass names.
const (
	PassPrimary    = "primary"
	PassConvention = "convention"
	PassWidened    = "widened"
)

// PassReport summarizes one classification pass.
type PassReport struct {
	Name       string
	Policy     string
	Roots      []string
	Wanted     []classify.Role
	Candidates int
	Found      map[classify.Role]int
}

// State is the record threaded through the pipeline stages.
type State struct {
	Root       string
	CorpusRoot string
	Shards     map[classify.Role][]classify.Result
	Passes     []PassReport
	Warnings   []string

	Path     join.Path
	Tokens   *frame.Dataset
	Lexicon  *frame.Dataset
	Metadata *frame.Dataset
	Stream   *frame.Dataset

	schemas *classify.SchemaCache
}

// Has reports whether at least one shard was assigned role.
func (s *State) Has(role classify.Role) bool { return len(s.Shards[role]) > 0 }

func (s *State) warn(msg string) { s.Warnings = append(s.Warnings, msg) }

// Discover finds and classifies the shards under root. Roles missing after
// the primary pass are searched for again, first in the conventional
// directories, then across the whole root. A pass runs only for roles no
// earlier pass produced.
func (p *Pipeline) Discover(ctx context.Context, root string) (*State, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, internalerr.ErrRootMissing)
	}
	st := &State{
		Root:       root,
		CorpusRoot: discovery.CorpusRoot(root, p.corpusDir),
		Shards:     make(map[classify.Role][]classify.Result),
		schemas:    classify.NewSchemaCache(),
	}

	if err := p.runPass(ctx, st, PassPrimary, classify.DefaultPolicy(), []string{st.CorpusRoot}, classify.Roles); err != nil {
		return nil, err
	}

	if !st.Has(classify.LexiconShard) {
		dirs := discovery.ConventionDirs(root, p.corpusDir, discovery.IsWordDir)
		if err := p.runPass(ctx, st, PassConvention, classify.LexiconDirPolicy(), dirs, []classify.Role{classify.LexiconShard}); err != nil {
			return nil, err
		}
	}
	if !st.Has(classify.MetadataShard) {
		dirs := discovery.ConventionDirs(root, p.corpusDir, discovery.IsSourcesDir)
		if err := p.runPass(ctx, st, PassConvention, classify.DefaultPolicy(), dirs, []classify.Role{classify.MetadataShard}); err != nil {
			return nil, err
		}
	}

	var missing []classify.Role
	for _, role := range []classify.Role{classify.LexiconShard, classify.MetadataShard} {
		if !st.Has(role) {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		if st.CorpusRoot == root {
			p.logger.Debug("widened pass skipped; primary pass already covered the root", zap.String("root", root))
		} else if err := p.runPass(ctx, st, PassWidened, classify.DefaultPolicy(), []string{root}, missing); err != nil {
			return nil, err
		}
	}

	p.logger.Info("discovery finished",
		zap.String("root", root),
		zap.Int("tokens", len(st.Shards[classify.TokenShard])),
		zap.Int("lexicon", len(st.Shards[classify.LexiconShard])),
		zap.Int("metadata", len(st.Shards[classify.MetadataShard])))
	return st, nil
}

// runPass classifies every candidate under roots and keeps the shards of the
// wanted roles. Schemas read by an earlier pass are not read again.
func (p *Pipeline) runPass(ctx context.Context, st *State, name string, policy classify.Policy, roots []string, wanted []classify.Role) error {
	report := PassReport{Name: name, Policy: policy.Name, Roots: roots, Wanted: wanted, Found: make(map[classify.Role]int)}
	if len(roots) == 0 {
		p.logger.Info("classification pass has no directories", zap.String("pass", name), zap.String("policy", policy.Name))
		st.Passes = append(st.Passes, report)
		return nil
	}

	cands, err := p.walker.DiscoverAll(ctx, roots)
	if err != nil {
		return err
	}
	report.Candidates = len(cands)

	results, err := p.classifier.ClassifyAll(ctx, policy, name, cands, st.schemas)
	if err != nil {
		return err
	}
	for _, role := range wanted {
		found := classify.Pick(results, role)
		st.Shards[role] = append(st.Shards[role], found...)
		report.Found[role] = len(found)
	}

	fields := []zap.Field{
		zap.String("pass", name),
		zap.String("policy", policy.Name),
		zap.Strings("roots", roots),
		zap.Int("candidates", len(cands)),
	}
	for _, role := range wanted {
		fields = append(fields, zap.Int(role.String(), report.Found[role]))
	}
	p.logger.Info("classification pass", fields...)
	st.Passes = append(st.Passes, report)
	return nil
}

// Check reports whether discovery found enough to run. Tokens and lexicon
// are required; missing metadata only adds a warning.
func (p *Pipeline) Check(st *State) error {
	if !st.Has(classify.TokenShard) {
		return fmt.Errorf("expected token shards under %s: %w", st.CorpusRoot, internalerr.ErrNoTokens)
	}
	if !st.Has(classify.LexiconShard) {
		return fmt.Errorf("expected a Word*/lexicon export under %s: %w", st.Root, internalerr.ErrNoLexicon)
	}
	if !st.Has(classify.MetadataShard) {
		msg := "no Sources/Text metadata found; year and genre aggregates are skipped"
		st.warn(msg)
		p.logger.Warn(msg, zap.String("root", st.Root))
	}
	return nil
}

// Join normalizes each role and plans the denormalized stream on st.
func (p *Pipeline) Join(ctx context.Context, st *State) error {
	lex, err := p.normalizer.Build(ctx, st.Shards[classify.LexiconShard], classify.LexiconShard, join.PathIDBased.IDKind())
	if err != nil {
		return err
	}
	st.Lexicon = lex
	if lex == nil {
		return fmt.Errorf("no readable lexicon shard: %w", internalerr.ErrNoLexicon)
	}
	st.Path = join.SelectPath(lex)
	idKind := st.Path.IDKind()

	if st.Path == join.PathIDBased {
		if st.Tokens, err = p.normalizer.Build(ctx, st.Shards[classify.TokenShard], classify.TokenShard, idKind); err != nil {
			return err
		}
	} else {
		p.logger.Info("tagged lexicon; token shards are not joined", zap.Int("tokens", len(st.Shards[classify.TokenShard])))
	}
	if st.Metadata, err = p.normalizer.Build(ctx, st.Shards[classify.MetadataShard], classify.MetadataShard, idKind); err != nil {
		return err
	}

	stream, path, err := p.joiner.Build(join.Inputs{Tokens: st.Tokens, Lexicon: st.Lexicon, Metadata: st.Metadata})
	if err != nil {
		return err
	}
	st.Path, st.Stream = path, stream
	p.logger.Info("join planned", zap.Stringer("path", path), zap.Strings("columns", stream.Columns()))
	return nil
}

// Aggregate writes the count tables for st's stream.
func (p *Pipeline) Aggregate(ctx context.Context, st *State) (aggregate.Report, error) {
	if st.Stream == nil {
		return aggregate.Report{}, errors.New("aggregate: join has not been planned")
	}
	outDir := p.outDir
	if outDir == "" {
		outDir = st.Root
	}
	report, err := aggregate.New(outDir, p.topN, p.logger.Named("aggregate")).Run(ctx, st.Stream)
	if err != nil {
		return report, err
	}
	for _, o := range report.Skipped() {
		st.warn(fmt.Sprintf("%s skipped: missing %v", o.Name, o.Missing))
	}
	return report, nil
}

// Result is the outcome of a full run.
type Result struct {
	Run    catalog.Run
	State  *State
	Report aggregate.Report
}

// Run executes discovery, join and aggregation for root and records the run
// in the catalog. The State is returned with the error when discovery got
// far enough to produce one.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	run, err := p.catalog.BeginRun(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	res := &Result{Run: run}
	p.logger.Info("run started", zap.String("run", run.ID), zap.String("root", root))

	err = p.run(ctx, root, res)

	res.Run.Status = catalog.StatusSucceeded
	if err != nil {
		res.Run.Status = catalog.StatusFailed
		res.Run.Error = err.Error()
	}
	if res.State != nil {
		res.Run.Warnings = res.State.Warnings
		if res.State.Stream != nil {
			res.Run.JoinPath = res.State.Path.String()
		}
	}
	for _, o := range res.Report.Written() {
		res.Run.Outputs = append(res.Run.Outputs, o.Path)
	}
	// the run outcome is recorded even when ctx was canceled
	if ferr := p.catalog.FinishRun(context.WithoutCancel(ctx), res.Run); ferr != nil {
		p.logger.Warn("could not record run", zap.String("run", run.ID), zap.Error(ferr))
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, root string, res *Result) error {
	st, err := p.Discover(ctx, root)
	if err != nil {
		return err
	}
	res.State = st
	p.recordShards(ctx, res.Run.ID, st)

	if err := p.Check(st); err != nil {
		return err
	}
	if err := p.Join(ctx, st); err != nil {
		return err
	}
	res.Report, err = p.Aggregate(ctx, st)
	return err
}

func (p *Pipeline) recordShards(ctx context.Context, runID string, st *State) {
	for _, role := range classify.Roles {
		for _, r := range st.Shards[role] {
			sh := catalog.Shard{
				RunID:   runID,
				Path:    r.Path,
				Format:  r.Format.String(),
				Role:    r.Role.String(),
				Pass:    r.Pass,
				Columns: r.Columns,
			}
			if err := p.catalog.RecordShard(ctx, sh); err != nil {
				p.logger.Warn("could not record shard", zap.String("path", r.Path), zap.Error(err))
			}
		}
	}
}
