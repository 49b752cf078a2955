package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/internal/bus"
	"github.com/terrierteam/treceval/internal/config"
	"github.com/terrierteam/treceval/internal/leaderboard"
	"github.com/terrierteam/treceval/internal/pkg/logger"
	"github.com/terrierteam/treceval/trec"
)

// stubEngine scores every query in the run with fixed values.
type stubEngine struct {
	cfg eval.EngineConfig
}

func (e *stubEngine) Evaluate(_ context.Context, run trec.Run) (eval.Results, error) {
	results := make(eval.Results, len(run))
	for i, qid := range run.Queries() {
		scores := make(map[string]float64)
		for _, m := range e.cfg.Measures {
			scores[m] = 0.1 * float64(i+1)
		}
		results[qid] = scores
	}
	return results, nil
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	eval.Register("stub", func(cfg eval.EngineConfig) (eval.Engine, error) {
		return &stubEngine{cfg: cfg}, nil
	})

	cfg := &config.Config{
		Host: "127.0.0.1",
		Port: 8080,
		Engine: config.EngineConfig{
			Name: "stub",
		},
		Defaults: config.DefaultsConfig{
			Measures:       []string{"map"},
			RelevanceLevel: 1,
		},
	}

	srv, err := New(cfg, logger.New("error", "text"), bus.NewMemoryBus(), leaderboard.NewMemoryStore(), "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, srv.Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

const testQrels = "q1 0 d1 1\nq1 0 d2 0\nq2 0 d1 2\n"

const testRun = "q1 Q0 d1 1 1.5 sys\nq1 Q0 d2 2 1.0 sys\nq2 Q0 d1 1 2.0 sys\n"

func TestHealth(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestVersion(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/v1/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["version"] != "test" {
		t.Errorf("version = %q, want %q", resp["version"], "test")
	}
	if resp["engine"] != "stub" {
		t.Errorf("engine = %q, want %q", resp["engine"], "stub")
	}
}

func TestListMeasures(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/v1/measures", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Measures  []string            `json:"measures"`
		Nicknames map[string][]string `json:"nicknames"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Measures) == 0 {
		t.Error("measures is empty")
	}
	if _, ok := resp.Nicknames["official"]; !ok {
		t.Error("nicknames missing official")
	}
}

func TestNormalize(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/measures/normalize",
		`{"measures":["ndcg_cut_10","ndcg_cut.20","map"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Measures []string `json:"measures"`
	}
	decodeBody(t, rec, &resp)

	want := []string{"map", "ndcg_cut.10,20"}
	if len(resp.Measures) != len(want) {
		t.Fatalf("measures = %v, want %v", resp.Measures, want)
	}
	for i := range want {
		if resp.Measures[i] != want[i] {
			t.Errorf("measures[%d] = %q, want %q", i, resp.Measures[i], want[i])
		}
	}
}

func TestNormalizeUnsupported(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/v1/measures/normalize",
		`{"measures":["no_such_measure"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &resp)
	if resp.Code != "UNSUPPORTED_MEASURE" {
		t.Errorf("code = %q, want UNSUPPORTED_MEASURE", resp.Code)
	}
}

func TestPutAndListQrels(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/qrels/trec8", testQrels)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var putResp struct {
		Name      string `json:"name"`
		Queries   int    `json:"queries"`
		Judgments int    `json:"judgments"`
	}
	decodeBody(t, rec, &putResp)
	if putResp.Queries != 2 {
		t.Errorf("queries = %d, want 2", putResp.Queries)
	}
	if putResp.Judgments != 3 {
		t.Errorf("judgments = %d, want 3", putResp.Judgments)
	}

	// Replacing an existing set returns 200.
	rec = doRequest(t, handler, http.MethodPut, "/v1/qrels/trec8", testQrels)
	if rec.Code != http.StatusOK {
		t.Errorf("replace status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/qrels", "")
	var listResp struct {
		Qrels []struct {
			Name string `json:"name"`
		} `json:"qrels"`
	}
	decodeBody(t, rec, &listResp)
	if len(listResp.Qrels) != 1 || listResp.Qrels[0].Name != "trec8" {
		t.Errorf("qrels list = %+v, want one entry named trec8", listResp.Qrels)
	}
}

func TestPutQrelsInvalid(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/qrels/bad", "q1 0 d1\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteQrels(t *testing.T) {
	_, handler := newTestServer(t)

	doRequest(t, handler, http.MethodPut, "/v1/qrels/tmp", testQrels)

	rec := doRequest(t, handler, http.MethodDelete, "/v1/qrels/tmp", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doRequest(t, handler, http.MethodDelete, "/v1/qrels/tmp", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEvaluate(t *testing.T) {
	_, handler := newTestServer(t)

	doRequest(t, handler, http.MethodPut, "/v1/qrels/trec8", testQrels)

	body, _ := json.Marshal(map[string]any{
		"run_id":    "bm25",
		"qrels":     "trec8",
		"run":       testRun,
		"measures":  []string{"map"},
		"per_query": true,
	})
	rec := doRequest(t, handler, http.MethodPost, "/v1/evaluate", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp evaluateResponse
	decodeBody(t, rec, &resp)
	if resp.QueryCount != 2 {
		t.Errorf("query_count = %d, want 2", resp.QueryCount)
	}
	// Stub scores queries 0.1 and 0.2, mean = 0.15.
	if got := resp.Aggregated["map"]; math.Abs(got-0.15) > 1e-9 {
		t.Errorf("aggregated map = %v, want 0.15", got)
	}
	if len(resp.PerQuery) != 2 {
		t.Errorf("per_query has %d queries, want 2", len(resp.PerQuery))
	}

	// The run should now be on the leaderboard.
	rec = doRequest(t, handler, http.MethodGet, "/v1/leaderboard?measure=map", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	var board struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
	decodeBody(t, rec, &board)
	if len(board.Entries) != 1 || board.Entries[0].RunID != "bm25" {
		t.Errorf("leaderboard entries = %+v, want one bm25 entry", board.Entries)
	}
}

func TestEvaluateUnknownQrels(t *testing.T) {
	_, handler := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"run_id": "bm25",
		"qrels":  "missing",
		"run":    testRun,
	})
	rec := doRequest(t, handler, http.MethodPost, "/v1/evaluate", string(body))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEvaluateUnsupportedMeasure(t *testing.T) {
	_, handler := newTestServer(t)

	doRequest(t, handler, http.MethodPut, "/v1/qrels/trec8", testQrels)

	body, _ := json.Marshal(map[string]any{
		"run_id":   "bm25",
		"qrels":    "trec8",
		"run":      testRun,
		"measures": []string{"bogus"},
	})
	rec := doRequest(t, handler, http.MethodPost, "/v1/evaluate", string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEvaluateInvalidRun(t *testing.T) {
	_, handler := newTestServer(t)

	doRequest(t, handler, http.MethodPut, "/v1/qrels/trec8", testQrels)

	body, _ := json.Marshal(map[string]any{
		"run_id": "bm25",
		"qrels":  "trec8",
		"run":    "q1 d1 1.5\n",
	})
	rec := doRequest(t, handler, http.MethodPost, "/v1/evaluate", string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLeaderboardNoMeasureListsMeasures(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/v1/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUnknownEngineRejected(t *testing.T) {
	cfg := &config.Config{
		Host:   "127.0.0.1",
		Port:   8080,
		Engine: config.EngineConfig{Name: "does-not-exist"},
	}
	_, err := New(cfg, logger.New("error", "text"), bus.NewMemoryBus(), leaderboard.NewMemoryStore(), "test")
	if err == nil {
		t.Fatal("New() succeeded with unknown engine")
	}
}
