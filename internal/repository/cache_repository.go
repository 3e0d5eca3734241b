package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/doc-intake-api/internal/models"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

const corpusCacheKey = "dedup:corpus"

// CacheRepository fronts Redis for the dedup comparison corpus. The
// corpus is rebuilt from the ledger on every miss, so all methods treat
// a nil client as a permanent miss and never fail the caller.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheRepository{client: client, logger: logger, ttl: ttl}
}

// GetCorpus returns the cached corpus, or ErrCacheMiss.
func (r *CacheRepository) GetCorpus(ctx context.Context) ([]models.CorpusEntry, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, corpusCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", corpusCacheKey, err)
	}

	var entries []models.CorpusEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal corpus cache: %w", err)
	}
	return entries, nil
}

// SetCorpus stores the corpus snapshot with the configured TTL.
func (r *CacheRepository) SetCorpus(ctx context.Context, entries []models.CorpusEntry) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal corpus cache: %w", err)
	}

	if err := r.client.Set(ctx, corpusCacheKey, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", corpusCacheKey, err)
	}
	return nil
}

// InvalidateCorpus drops the snapshot after a new ledger admission so
// the next cascade run sees the fresh entry.
func (r *CacheRepository) InvalidateCorpus(ctx context.Context) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, corpusCacheKey).Err(); err != nil {
		r.logger.Warn("corpus cache invalidation failed", zap.Error(err))
	}
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
