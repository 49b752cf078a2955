package trecexec

import (
	"strings"
	"testing"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/trec"
)

func TestParseOutput(t *testing.T) {
	out := []byte(`map	q1	0.2500
map	q2	0.5000
ndcg_cut_10	q1	0.4000
map	all	0.3750
runid	all	sysA
`)
	results, err := parseOutput(out)
	if err != nil {
		t.Fatalf("parseOutput() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d queries, want 2: %v", len(results), results)
	}
	if got := results["q1"]["map"]; got != 0.25 {
		t.Errorf("q1 map = %v, want 0.25", got)
	}
	if got := results["q1"]["ndcg_cut_10"]; got != 0.4 {
		t.Errorf("q1 ndcg_cut_10 = %v, want 0.4", got)
	}
	if got := results["q2"]["map"]; got != 0.5 {
		t.Errorf("q2 map = %v, want 0.5", got)
	}
	if _, ok := results["all"]; ok {
		t.Error("aggregate 'all' rows must be skipped")
	}
}

func TestParseOutputMalformed(t *testing.T) {
	if _, err := parseOutput([]byte("map q1\n")); err == nil {
		t.Error("parseOutput(two fields) error = nil, want error")
	}
}

func TestRenderRunOrdering(t *testing.T) {
	run := trec.Run{
		"q1": {"d1": 0.5, "d2": 2.0, "d3": 2.0},
	}
	got := string(renderRun(run))
	want := "q1 Q0 d2 1 2 treceval\nq1 Q0 d3 2 2 treceval\nq1 Q0 d1 3 0.5 treceval\n"
	if got != want {
		t.Errorf("renderRun() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderQrelRoundTrip(t *testing.T) {
	qrels := trec.Qrel{
		"q1": {"d1": 1, "d2": 0},
		"q2": {"d5": 2},
	}
	parsed, err := trec.ParseQrel(strings.NewReader(string(renderQrel(qrels))))
	if err != nil {
		t.Fatalf("ParseQrel(rendered) error = %v", err)
	}
	if len(parsed) != 2 || parsed["q1"]["d1"] != 1 || parsed["q2"]["d5"] != 2 {
		t.Errorf("round trip mismatch: %v", parsed)
	}
}

func TestNewDefaultsBinary(t *testing.T) {
	engine, err := New("", eval.EngineConfig{
		Qrels:          trec.Qrel{"q1": {"d1": 1}},
		Measures:       []string{"map"},
		RelevanceLevel: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if engine.binary != DefaultBinary {
		t.Errorf("binary = %q, want %q", engine.binary, DefaultBinary)
	}
}
