package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/terrierteam/treceval/eval"
	"github.com/terrierteam/treceval/internal/bus"
	apperrors "github.com/terrierteam/treceval/internal/pkg/errors"
	"github.com/terrierteam/treceval/internal/pkg/hash"
	"github.com/terrierteam/treceval/internal/pkg/security"
	"github.com/terrierteam/treceval/measure"
	"github.com/terrierteam/treceval/trec"
)

const eventSource = "treceval-server"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": s.version,
		"engine":  s.cfg.Engine.Name,
	})
}

// handleMeasures lists the supported measures and nicknames.
func (s *Server) handleMeasures(w http.ResponseWriter, r *http.Request) {
	nicknames := make(map[string][]string, len(measure.Nicknames))
	for name, expansion := range measure.Nicknames {
		nicknames[name] = expansion
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"measures":  measure.Supported,
		"nicknames": nicknames,
	})
}

type normalizeRequest struct {
	Measures []string `json:"measures"`
}

// handleNormalize canonicalizes a list of measure specifications.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.New(apperrors.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if len(req.Measures) == 0 {
		apperrors.WriteError(w, apperrors.ValidationError("measures must not be empty"))
		return
	}

	normalized, err := measure.Normalize(req.Measures)
	if err != nil {
		var unsupported *measure.UnsupportedMeasureError
		if errors.As(err, &unsupported) {
			apperrors.WriteError(w, apperrors.UnsupportedMeasure(err).WithDetail("measure", unsupported.Measure))
			return
		}
		apperrors.WriteError(w, apperrors.InternalError("normalizing measures", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"measures": normalized})
}

// handleListQrels lists the registered qrel sets with their sizes.
func (s *Server) handleListQrels(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	type qrelInfo struct {
		Name      string `json:"name"`
		Queries   int    `json:"queries"`
		Judgments int    `json:"judgments"`
	}
	infos := make([]qrelInfo, 0, len(s.qrels))
	for name, q := range s.qrels {
		infos = append(infos, qrelInfo{
			Name:      name,
			Queries:   len(q),
			Judgments: q.Judgments(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"qrels": infos})
}

// handlePutQrels registers a qrel set under a name. The body is plain
// TREC qrel text.
func (s *Server) handlePutQrels(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := security.ValidateName("qrel name", name); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}

	qrels, err := trec.ParseQrel(r.Body)
	if err != nil {
		apperrors.WriteError(w, apperrors.ValidationError("invalid qrel data").WithDetail("parse_error", err.Error()))
		return
	}
	if len(qrels) == 0 {
		apperrors.WriteError(w, apperrors.ValidationError("qrel data must contain at least one judgment"))
		return
	}

	s.mu.Lock()
	_, replaced := s.qrels[name]
	s.qrels[name] = qrels
	s.mu.Unlock()

	s.log.WithQrels(name).Info("Qrels loaded", "queries", len(qrels), "judgments", qrels.Judgments())

	if err := s.bus.Publish(r.Context(), bus.TopicQrelsLoaded, bus.NewEvent(bus.TopicQrelsLoaded, eventSource, map[string]any{
		"name":      name,
		"queries":   len(qrels),
		"judgments": qrels.Judgments(),
	})); err != nil {
		s.log.WithError(err).Warn("Failed to publish qrels.loaded event")
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"name":      name,
		"queries":   len(qrels),
		"judgments": qrels.Judgments(),
	})
}

// handleDeleteQrels removes a named qrel set.
func (s *Server) handleDeleteQrels(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.mu.Lock()
	_, ok := s.qrels[name]
	delete(s.qrels, name)
	s.mu.Unlock()

	if !ok {
		apperrors.WriteError(w, apperrors.NotFoundError("qrel set"))
		return
	}

	if err := s.bus.Publish(r.Context(), bus.TopicQrelsDeleted, bus.NewEvent(bus.TopicQrelsDeleted, eventSource, map[string]any{
		"name": name,
	})); err != nil {
		s.log.WithError(err).Warn("Failed to publish qrels.deleted event")
	}

	w.WriteHeader(http.StatusNoContent)
}

type evaluateRequest struct {
	RunID          string   `json:"run_id"`
	Qrels          string   `json:"qrels"`
	Run            string   `json:"run"`
	Measures       []string `json:"measures,omitempty"`
	RelevanceLevel *int     `json:"relevance_level,omitempty"`
	JudgedDocsOnly bool     `json:"judged_docs_only,omitempty"`
	PerQuery       bool     `json:"per_query,omitempty"`
}

type evaluateResponse struct {
	RunID       string                        `json:"run_id"`
	Fingerprint string                        `json:"fingerprint"`
	Qrels       string                        `json:"qrels"`
	Measures    []string                      `json:"measures"`
	QueryCount  int                           `json:"query_count"`
	Aggregated  map[string]float64            `json:"aggregated"`
	PerQuery    map[string]map[string]float64 `json:"per_query,omitempty"`
}

// handleEvaluate scores a run against a registered qrel set and
// records the aggregated scores on the leaderboard.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.New(apperrors.CodeInvalidRequest, "invalid JSON body"))
		return
	}
	if err := security.ValidateName("run_id", req.RunID); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}
	if req.Qrels == "" {
		apperrors.WriteError(w, apperrors.ValidationError("qrels must name a registered qrel set"))
		return
	}

	qrels, ok := s.getQrels(req.Qrels)
	if !ok {
		apperrors.WriteError(w, apperrors.NotFoundError("qrel set").WithDetail("qrels", req.Qrels))
		return
	}

	run, err := trec.ParseRun(strings.NewReader(req.Run))
	if err != nil {
		apperrors.WriteError(w, apperrors.ValidationError("invalid run data").WithDetail("parse_error", err.Error()))
		return
	}

	measures := req.Measures
	if len(measures) == 0 {
		measures = s.cfg.Defaults.Measures
	}
	level := s.cfg.Defaults.RelevanceLevel
	if req.RelevanceLevel != nil {
		level = *req.RelevanceLevel
	}

	opts := []eval.Option{
		eval.WithEngine(s.factory),
		eval.WithRelevanceLevel(level),
	}
	if req.JudgedDocsOnly || s.cfg.Defaults.JudgedDocsOnly {
		opts = append(opts, eval.WithJudgedDocsOnly())
	}

	evaluator, err := eval.New(qrels, measures, opts...)
	if err != nil {
		var unsupported *measure.UnsupportedMeasureError
		if errors.As(err, &unsupported) {
			apperrors.WriteError(w, apperrors.UnsupportedMeasure(err).WithDetail("measure", unsupported.Measure))
			return
		}
		apperrors.WriteError(w, apperrors.InternalError("constructing evaluator", err))
		return
	}

	results, err := evaluator.Evaluate(r.Context(), run)
	if err != nil {
		s.log.WithRun(req.RunID).WithError(err).Error("Evaluation failed")
		apperrors.WriteError(w, apperrors.EngineError(err))
		return
	}

	aggregated := aggregateResults(results)
	fingerprint := hash.RunFingerprint([]byte(req.Run))

	if err := s.board.Save(r.Context(), req.RunID, aggregated); err != nil {
		s.log.WithRun(req.RunID).WithError(err).Warn("Failed to save leaderboard scores")
	} else if err := s.bus.Publish(r.Context(), bus.TopicLeaderboardUpdated, bus.NewEvent(bus.TopicLeaderboardUpdated, eventSource, map[string]any{
		"run_id": req.RunID,
	})); err != nil {
		s.log.WithError(err).Warn("Failed to publish leaderboard.updated event")
	}

	if err := s.bus.Publish(r.Context(), bus.TopicEvalCompleted, bus.NewEvent(bus.TopicEvalCompleted, eventSource, map[string]any{
		"run_id":      req.RunID,
		"fingerprint": fingerprint,
		"qrels":       req.Qrels,
		"measures":    evaluator.Measures(),
		"query_count": len(results),
		"aggregated":  aggregated,
	})); err != nil {
		s.log.WithError(err).Warn("Failed to publish eval.completed event")
	}

	resp := evaluateResponse{
		RunID:       req.RunID,
		Fingerprint: fingerprint,
		Qrels:       req.Qrels,
		Measures:    evaluator.Measures(),
		QueryCount:  len(results),
		Aggregated:  aggregated,
	}
	if req.PerQuery {
		resp.PerQuery = results
	}
	writeJSON(w, http.StatusOK, resp)
}

// aggregateResults combines per-query scores into one value per
// measure using the measure's aggregation rule.
func aggregateResults(results eval.Results) map[string]float64 {
	perMeasure := make(map[string][]float64)
	for _, scores := range results {
		for name, value := range scores {
			perMeasure[name] = append(perMeasure[name], value)
		}
	}

	aggregated := make(map[string]float64, len(perMeasure))
	for name, values := range perMeasure {
		aggregated[name] = measure.Aggregate(name, values)
	}
	return aggregated
}

// handleLeaderboard serves ranked aggregated scores for one measure.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	measureName := r.URL.Query().Get("measure")
	if measureName == "" {
		names, err := s.board.Measures(r.Context())
		if err != nil {
			apperrors.WriteError(w, apperrors.InternalError("listing leaderboard measures", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"measures": names})
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apperrors.WriteError(w, apperrors.ValidationError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := s.board.Top(r.Context(), measureName, limit)
	if err != nil {
		apperrors.WriteError(w, apperrors.InternalError("loading leaderboard", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"measure": measureName,
		"entries": entries,
	})
}
