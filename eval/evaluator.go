package eval

import (
	"context"
	"fmt"

	"github.com/terrierteam/treceval/measure"
	"github.com/terrierteam/treceval/trec"
)

// DefaultRelevanceLevel is the minimum relevance treated as "relevant"
// when no option overrides it.
const DefaultRelevanceLevel = 1

// DefaultEngineName selects the engine used when neither WithEngine nor
// WithEngineName is given.
const DefaultEngineName = "trec_eval"

type options struct {
	relevanceLevel int
	judgedDocsOnly bool
	engineName     string
	factory        EngineFactory
}

// Option configures an Evaluator at construction time.
type Option func(*options)

// WithRelevanceLevel sets the minimum relevance level a judgment must
// reach to count as relevant.
func WithRelevanceLevel(level int) Option {
	return func(o *options) { o.relevanceLevel = level }
}

// WithJudgedDocsOnly restricts evaluation to documents that carry a
// judgment.
func WithJudgedDocsOnly() Option {
	return func(o *options) { o.judgedDocsOnly = true }
}

// WithEngine supplies an engine factory directly, bypassing the
// registry.
func WithEngine(factory EngineFactory) Option {
	return func(o *options) { o.factory = factory }
}

// WithEngineName selects a registered engine by name.
func WithEngineName(name string) Option {
	return func(o *options) { o.engineName = name }
}

// Evaluator scores retrieval runs against a fixed set of relevance
// judgments. All state is captured at construction time; an Evaluator
// is immutable afterwards and holds no per-call state.
type Evaluator struct {
	measures       []string
	relevanceLevel int
	judgedDocsOnly bool
	engine         Engine
}

// New builds an evaluator from qrels and a raw measure specification
// set. Measures are normalized to canonical form up front so that
// unsupported specs fail here, before any evaluation work begins.
// Queries with zero judged documents are dropped from the qrels before
// the engine sees them; feeding them through corrupts downstream
// measure computation.
func New(qrels trec.Qrel, measures []string, opts ...Option) (*Evaluator, error) {
	o := options{
		relevanceLevel: DefaultRelevanceLevel,
		engineName:     DefaultEngineName,
	}
	for _, opt := range opts {
		opt(&o)
	}

	canonical, err := measure.Normalize(measures)
	if err != nil {
		return nil, err
	}

	filtered := make(trec.Qrel, len(qrels))
	for queryID, docs := range qrels {
		if len(docs) == 0 {
			continue
		}
		filtered[queryID] = docs
	}

	factory := o.factory
	if factory == nil {
		f, ok := Lookup(o.engineName)
		if !ok {
			return nil, fmt.Errorf("eval: no engine registered as %q", o.engineName)
		}
		factory = f
	}

	engine, err := factory(EngineConfig{
		Qrels:          filtered,
		Measures:       canonical,
		RelevanceLevel: o.relevanceLevel,
		JudgedDocsOnly: o.judgedDocsOnly,
	})
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		measures:       canonical,
		relevanceLevel: o.relevanceLevel,
		judgedDocsOnly: o.judgedDocsOnly,
		engine:         engine,
	}, nil
}

// Evaluate scores a run. An empty run short-circuits to an empty
// result without invoking the engine; engine behavior on empty input
// is undefined. Everything else is delegated and returned unchanged.
func (e *Evaluator) Evaluate(ctx context.Context, run trec.Run) (Results, error) {
	if len(run) == 0 {
		return Results{}, nil
	}
	return e.engine.Evaluate(ctx, run)
}

// Measures returns the canonical measure set captured at construction.
func (e *Evaluator) Measures() []string {
	out := make([]string, len(e.measures))
	copy(out, e.measures)
	return out
}

// RelevanceLevel returns the configured minimum relevance level.
func (e *Evaluator) RelevanceLevel() int { return e.relevanceLevel }

// JudgedDocsOnly reports whether evaluation is restricted to judged
// documents.
func (e *Evaluator) JudgedDocsOnly() bool { return e.judgedDocsOnly }
