package trec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseError reports a line that does not conform to the expected
// format: wrong field count or an unparseable numeric field.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// DuplicateDocError reports a document ID that appears twice under the
// same query within a single parse. Duplicates indicate a malformed
// input file; merging them silently would corrupt evaluation.
type DuplicateDocError struct {
	Line    int
	QueryID string
	DocID   string
}

func (e *DuplicateDocError) Error() string {
	return fmt.Sprintf("line %d: duplicate document %q for query %q", e.Line, e.DocID, e.QueryID)
}

// ParseRun reads a TREC run file. Each line must hold six
// whitespace-separated fields:
//
//	<query_id> Q0 <doc_id> <rank> <score> <system_name>
//
// Only the query ID, document ID and score are retained; the remaining
// fields are positional padding. Parsing stops at the first malformed
// line or duplicate (query, document) pair.
func ParseRun(r io.Reader) (Run, error) {
	run := make(Run)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) != 6 {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
		}

		queryID, docID := fields[0], fields[2]
		score, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("invalid score %q", fields[4])}
		}

		if _, ok := run[queryID][docID]; ok {
			return nil, &DuplicateDocError{Line: line, QueryID: queryID, DocID: docID}
		}
		if run[queryID] == nil {
			run[queryID] = make(map[string]float64)
		}
		run[queryID][docID] = score
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// ParseQrel reads a TREC qrel file. Each line must hold four
// whitespace-separated fields:
//
//	<query_id> 0 <doc_id> <relevance>
//
// Relevance is parsed as an integer; no range validation is applied.
// Parsing stops at the first malformed line or duplicate (query,
// document) pair.
func ParseQrel(r io.Reader) (Qrel, error) {
	qrel := make(Qrel)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields))}
		}

		queryID, docID := fields[0], fields[2]
		relevance, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("invalid relevance %q", fields[3])}
		}

		if _, ok := qrel[queryID][docID]; ok {
			return nil, &DuplicateDocError{Line: line, QueryID: queryID, DocID: docID}
		}
		if qrel[queryID] == nil {
			qrel[queryID] = make(map[string]int)
		}
		qrel[queryID][docID] = relevance
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return qrel, nil
}
