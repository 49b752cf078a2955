// Package fusion combines multiple retrieval runs into one using
// reciprocal rank fusion.
package fusion

import (
	"sort"

	"github.com/terrierteam/treceval/trec"
)

// DefaultK is the RRF smoothing constant. Higher values reduce the
// impact of rank position differences.
const DefaultK = 60

// Config configures reciprocal rank fusion.
type Config struct {
	// K is the smoothing constant (default 60).
	K int

	// Weights holds one weight per input run. Empty means equal
	// weights of 1.
	Weights []float64
}

// Fuse combines runs per query using weighted reciprocal rank fusion:
//
//	score(d) = sum_i weight_i / (k + rank_i(d))
//
// where rank_i(d) is the 1-based rank of document d in run i, ranked
// by score descending with ties broken by document ID. Documents
// absent from a run contribute nothing for that run. The result is a
// new run whose scores are the fused values.
func Fuse(runs []trec.Run, cfg Config) trec.Run {
	if cfg.K == 0 {
		cfg.K = DefaultK
	}
	weights := cfg.Weights
	if len(weights) == 0 {
		weights = make([]float64, len(runs))
		for i := range weights {
			weights[i] = 1
		}
	}

	fused := make(trec.Run)
	for i, run := range runs {
		if i >= len(weights) {
			break
		}
		for queryID, docs := range run {
			if fused[queryID] == nil {
				fused[queryID] = make(map[string]float64, len(docs))
			}
			for rank, docID := range rankDocs(docs) {
				fused[queryID][docID] += weights[i] / float64(cfg.K+rank+1)
			}
		}
	}
	return fused
}

// rankDocs orders a query's documents by score descending, ties broken
// by document ID ascending.
func rankDocs(docs map[string]float64) []string {
	docIDs := make([]string, 0, len(docs))
	for docID := range docs {
		docIDs = append(docIDs, docID)
	}
	sort.Slice(docIDs, func(i, j int) bool {
		si, sj := docs[docIDs[i]], docs[docIDs[j]]
		if si != sj {
			return si > sj
		}
		return docIDs[i] < docIDs[j]
	})
	return docIDs
}
