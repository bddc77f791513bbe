// Package cache holds best-effort copies of computed relevance scores and
// comment summaries. Nothing here is authoritative for ranking.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scoreKeyPrefix   = "provider:score:"
	summaryKeyPrefix = "provider:summary:"

	DefaultScoreTTL   = time.Hour
	DefaultSummaryTTL = 24 * time.Hour
)

// ScoreCache receives the scores of one ranking pass. The last write for a
// provider wins.
type ScoreCache interface {
	StoreScores(ctx context.Context, scores map[int64]float64) error
}

func ScoreKey(providerID int64) string {
	return scoreKeyPrefix + strconv.FormatInt(providerID, 10)
}

func SummaryKey(providerID int64) string {
	return summaryKeyPrefix + strconv.FormatInt(providerID, 10)
}

// RedisScoreCache writes scores with a TTL in a single pipeline.
type RedisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisScoreCache(client *redis.Client, ttl time.Duration) *RedisScoreCache {
	if ttl <= 0 {
		ttl = DefaultScoreTTL
	}
	return &RedisScoreCache{client: client, ttl: ttl}
}

func (c *RedisScoreCache) StoreScores(ctx context.Context, scores map[int64]float64) error {
	if len(scores) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, score := range scores {
		pipe.Set(ctx, ScoreKey(id), strconv.FormatFloat(score, 'f', -1, 64), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis score cache: %w", err)
	}
	return nil
}

// ScoreWriter persists scores to the provider table.
type ScoreWriter interface {
	UpdateRelevanceScores(ctx context.Context, scores map[int64]float64) error
}

// WriteBack adapts a ScoreWriter to ScoreCache.
type WriteBack struct {
	writer ScoreWriter
}

func NewWriteBack(w ScoreWriter) *WriteBack {
	return &WriteBack{writer: w}
}

func (w *WriteBack) StoreScores(ctx context.Context, scores map[int64]float64) error {
	if err := w.writer.UpdateRelevanceScores(ctx, scores); err != nil {
		return fmt.Errorf("score write-back: %w", err)
	}
	return nil
}

// Multi fans a write out to every cache and joins their errors. A failing
// cache does not stop the others.
type Multi []ScoreCache

func (m Multi) StoreScores(ctx context.Context, scores map[int64]float64) error {
	var errs []error
	for _, c := range m {
		if c == nil {
			continue
		}
		if err := c.StoreScores(ctx, scores); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SummaryCache stores generated comment summaries.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary. A miss is ("", false, nil).
func (c *SummaryCache) Get(ctx context.Context, providerID int64) (string, bool, error) {
	val, err := c.client.Get(ctx, SummaryKey(providerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("summary cache get: %w", err)
	}
	return val, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, providerID int64, summary string) error {
	if err := c.client.Set(ctx, SummaryKey(providerID), summary, c.ttl).Err(); err != nil {
		return fmt.Errorf("summary cache set: %w", err)
	}
	return nil
}
