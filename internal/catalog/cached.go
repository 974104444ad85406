package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/models"
)

const cacheKeyPrefix = "savings:catalog:"

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// CachedSource keeps a JSON copy of the wrapped source's catalog in Redis.
// Any cache failure is logged and the wrapped source answers instead.
type CachedSource struct {
	source Source
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(source Source, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedSource{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"catalogSource": source.Name()}),
	}
}

func (s *CachedSource) Name() string { return s.source.Name() }

// Key is the Redis key holding the cached catalog.
func (s *CachedSource) Key() string { return cacheKeyPrefix + s.source.Name() }

func (s *CachedSource) Products(ctx context.Context) ([]models.SavingsProduct, error) {
	key := s.Key()

	val, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var products []models.SavingsProduct
		jsonErr := json.Unmarshal([]byte(val), &products)
		if jsonErr == nil {
			metrics.SavingsCatalogCache.WithLabelValues(cacheHit).Inc()
			return products, nil
		}
		s.warn(apperrors.NewCatalogCacheFailedError(key, jsonErr))
	case errors.Is(err, redis.Nil):
		metrics.SavingsCatalogCache.WithLabelValues(cacheMiss).Inc()
	default:
		s.warn(apperrors.NewCatalogCacheFailedError(key, err))
	}

	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(products)
	if err != nil {
		s.warn(apperrors.NewCatalogCacheFailedError(key, err))
		return products, nil
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.warn(apperrors.NewCatalogCacheFailedError(key, err))
	}
	return products, nil
}

// Invalidate drops the cached catalog.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, s.Key()).Err()
}

func (s *CachedSource) warn(err *apperrors.StandardError) {
	metrics.SavingsCatalogCache.WithLabelValues(cacheError).Inc()
	s.logger.Warn("Catalog cache unavailable, reading source", map[string]interface{}{
		"errorCode": string(err.Code),
		"details":   err.Details,
	})
}
