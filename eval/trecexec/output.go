package trecexec

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/trec"
)

// renderRun serializes a run to the six-field TREC line format under
// a fixed run name.
func renderRun(run trec.Run) []byte {
	var buf bytes.Buffer
	_ = trec.WriteRun(&buf, run, "treceval")
	return buf.Bytes()
}

// renderQrel serializes judgments to the four-field TREC line format.
func renderQrel(qrels trec.Qrel) []byte {
	var buf bytes.Buffer
	_ = trec.WriteQrel(&buf, qrels)
	return buf.Bytes()
}

// parseOutput reads trec_eval -q output, three whitespace-separated
// columns per line:
//
//	<measure> <query_id> <value>
//
// Rows for the synthetic "all" query carry trec_eval's own aggregates
// and are skipped. Non-numeric values (such as the runid row) are
// skipped as well.
func parseOutput(out []byte) (eval.Results, error) {
	results := make(eval.Results)
	sc := bufio.NewScanner(bytes.NewReader(out))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("trecexec: output line %d: expected 3 fields, got %d", line, len(fields))
		}
		measureName, queryID := fields[0], fields[1]
		if queryID == "all" {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		if results[queryID] == nil {
			results[queryID] = make(map[string]float64)
		}
		results[queryID][measureName] = value
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
