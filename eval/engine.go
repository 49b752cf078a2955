// Package eval ties measure normalization, qrel preprocessing and an
// external scoring engine together into a single evaluator. The engine
// owns every measure computation; this package never calculates a
// measure value itself.
package eval

import (
	"context"

	"github.com/terrierteam/treceval/trec"
)

// Results maps query IDs to per-measure scores for one evaluated run.
type Results map[string]map[string]float64

// Engine scores runs against a fixed qrel set. Implementations must be
// reentrant; thread safety is not assumed and callers serialize access
// if they share an engine across goroutines.
type Engine interface {
	Evaluate(ctx context.Context, run trec.Run) (Results, error)
}

// EngineConfig carries everything an engine needs at construction
// time. Measures are already in canonical form and Qrels contain no
// zero-judgment queries by the time a factory sees them.
type EngineConfig struct {
	Qrels          trec.Qrel
	Measures       []string
	RelevanceLevel int
	JudgedDocsOnly bool
}

// EngineFactory builds an engine for one evaluator instance.
type EngineFactory func(cfg EngineConfig) (Engine, error)
