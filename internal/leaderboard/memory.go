package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory leaderboard for single-process
// deployments and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]map[string]float64 // measure -> run -> score
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[string]map[string]float64),
	}
}

// Save records the aggregated scores of one run.
func (s *MemoryStore) Save(_ context.Context, runID string, scores map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for measureName, score := range scores {
		if s.scores[measureName] == nil {
			s.scores[measureName] = make(map[string]float64)
		}
		s.scores[measureName][runID] = score
	}
	return nil
}

// Top returns up to limit entries for a measure, best score first.
// Ties are broken by run ID so the ordering is stable.
func (s *MemoryStore) Top(_ context.Context, measureName string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.scores[measureName]
	entries := make([]Entry, 0, len(runs))
	for runID, score := range runs {
		entries = append(entries, Entry{RunID: runID, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].RunID < entries[j].RunID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Measures returns the measures that have at least one entry.
func (s *MemoryStore) Measures(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.scores))
	for name := range s.scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a run from every measure.
func (s *MemoryStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for measureName, runs := range s.scores {
		delete(runs, runID)
		if len(runs) == 0 {
			delete(s.scores, measureName)
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
