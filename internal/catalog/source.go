// Package catalog loads the savings product catalog from a dataset file,
// PostgreSQL or Elasticsearch, optionally through a Redis cache.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"savings-workers/internal/common/config"
	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/metrics"
	"savings-workers/internal/models"
)

// Source yields the catalog in its stable order. Implementations return
// StandardErrors so job handlers can map them to BPMN errors.
type Source interface {
	Name() string
	Products(ctx context.Context) ([]models.SavingsProduct, error)
}

// Clients carries the connections a source may need. Unused ones stay nil.
type Clients struct {
	DB            *sql.DB
	Elasticsearch *elasticsearch.Client
	Redis         redis.Cmdable
}

// New builds the source selected by cfg.Catalog, wrapped in a CachedSource
// when the cache is enabled.
func New(cfg *config.Config, clients Clients, log logger.Logger) (Source, error) {
	timeout := config.GetDuration(cfg.Catalog.QueryTimeout)

	var src Source
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		src = NewFileSource(cfg.Catalog.File, cfg.Ingestion.SkipInvalidRows, log)
	case config.CatalogSourcePostgres:
		if clients.DB == nil {
			return nil, fmt.Errorf("catalog source %q needs a database connection", cfg.Catalog.Source)
		}
		pg, err := NewPostgresSource(clients.DB, cfg.Catalog.Table, timeout)
		if err != nil {
			return nil, err
		}
		src = pg
	case config.CatalogSourceElasticsearch:
		if clients.Elasticsearch == nil {
			return nil, fmt.Errorf("catalog source %q needs an elasticsearch client", cfg.Catalog.Source)
		}
		src = NewElasticsearchSource(clients.Elasticsearch, cfg.Catalog.Index, timeout)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	if cfg.Catalog.Cache.Enabled {
		if clients.Redis == nil {
			return nil, fmt.Errorf("catalog cache needs a redis client")
		}
		src = NewCachedSource(src, clients.Redis, config.GetDuration(cfg.Catalog.Cache.TTL), log)
	}
	return src, nil
}

// Load reads the catalog from src, refusing an empty one, and records its size.
func Load(ctx context.Context, src Source) ([]models.SavingsProduct, error) {
	products, err := src.Products(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperrors.NewCatalogEmptyError(src.Name())
	}
	metrics.SavingsCatalogProducts.WithLabelValues(src.Name()).Set(float64(len(products)))
	return products, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
