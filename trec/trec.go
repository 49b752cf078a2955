// Package trec provides the data types and line-oriented parsers for
// TREC-format run and qrel files.
package trec

import "sort"

// Run maps query IDs to the document scores produced by a retrieval
// system. Within one query every document ID appears at most once.
type Run map[string]map[string]float64

// Qrel maps query IDs to human relevance judgments per document.
// Relevance levels are free integers; negative and zero are allowed.
type Qrel map[string]map[string]int

// Queries returns the query IDs of the run in sorted order.
func (r Run) Queries() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Queries returns the query IDs of the qrel set in sorted order.
func (q Qrel) Queries() []string {
	ids := make([]string, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Judgments returns the total number of judged (query, document) pairs.
func (q Qrel) Judgments() int {
	n := 0
	for _, docs := range q {
		n += len(docs)
	}
	return n
}
