package trec

import (
	"fmt"
	"io"
	"sort"
	"strconv"
)

// WriteRun serializes a run to the six-field TREC line format with the
// given run name. Documents are ordered by descending score, ties
// broken by document ID, so the rank column is deterministic.
func WriteRun(w io.Writer, run Run, name string) error {
	for _, queryID := range run.Queries() {
		docs := run[queryID]
		ids := make([]string, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if docs[ids[i]] != docs[ids[j]] {
				return docs[ids[i]] > docs[ids[j]]
			}
			return ids[i] < ids[j]
		})
		for rank, id := range ids {
			if _, err := fmt.Fprintf(w, "%s Q0 %s %d %s %s\n",
				queryID, id, rank+1, strconv.FormatFloat(docs[id], 'g', -1, 64), name); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteQrel serializes judgments to the four-field TREC line format.
func WriteQrel(w io.Writer, qrels Qrel) error {
	for _, queryID := range qrels.Queries() {
		docs := qrels[queryID]
		ids := make([]string, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if _, err := fmt.Fprintf(w, "%s 0 %s %d\n", queryID, id, docs[id]); err != nil {
				return err
			}
		}
	}
	return nil
}
