// Package leaderboard persists aggregated run scores per measure and
// serves ranked views over them.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/terrierteam/treceval/internal/config"
	"github.com/terrierteam/treceval/internal/pkg/errors"
)

// Entry is one run's aggregated score for a measure.
type Entry struct {
	RunID string  `json:"run_id"`
	Score float64 `json:"score"`
}

// Store persists aggregated scores keyed by measure.
type Store interface {
	// Save records the aggregated scores of one run, overwriting any
	// previous scores for the same run ID.
	Save(ctx context.Context, runID string, scores map[string]float64) error

	// Top returns up to limit entries for a measure, best score first.
	Top(ctx context.Context, measureName string, limit int) ([]Entry, error)

	// Measures returns the measures that have at least one entry.
	Measures(ctx context.Context) ([]string, error)

	// Delete removes a run from every measure.
	Delete(ctx context.Context, runID string) error

	// Close releases storage resources.
	Close() error
}

// New creates a Store based on the configuration.
func New(cfg config.LeaderboardConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.RedisURL)
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown leaderboard backend: %s", cfg.Backend))
	}
}
