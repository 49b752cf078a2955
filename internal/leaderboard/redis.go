package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces leaderboard sorted sets in Redis. One sorted
// set per measure, member = run ID, score = aggregated value.
const keyPrefix = "treceval:leaderboard:"

// RedisStore is a Redis-backed leaderboard shared across processes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Save records the aggregated scores of one run. All measures are
// written in a single pipeline.
func (s *RedisStore) Save(ctx context.Context, runID string, scores map[string]float64) error {
	pipe := s.client.Pipeline()
	for measureName, score := range scores {
		pipe.ZAdd(ctx, keyPrefix+measureName, redis.Z{
			Score:  score,
			Member: runID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving scores: %w", err)
	}
	return nil
}

// Top returns up to limit entries for a measure, best score first.
func (s *RedisStore) Top(ctx context.Context, measureName string, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	results, err := s.client.ZRevRangeWithScores(ctx, keyPrefix+measureName, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		runID, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{RunID: runID, Score: z.Score})
	}
	return entries, nil
}

// Measures returns the measures that have at least one entry.
func (s *RedisStore) Measures(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing measures: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key[len(keyPrefix):])
	}
	return names, nil
}

// Delete removes a run from every measure.
func (s *RedisStore) Delete(ctx context.Context, runID string) error {
	names, err := s.Measures(ctx)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, name := range names {
		pipe.ZRem(ctx, keyPrefix+name, runID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
