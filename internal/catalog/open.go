package catalog

import (
	"context"

	"savings-workers/internal/common/config"
	"savings-workers/internal/common/database"
	"savings-workers/internal/common/logger"
)

// Open connects the backends cfg.Catalog needs, waits until they answer and
// returns the resulting source. The returned func closes the connections.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Source, func(), error) {
	var (
		clients Clients
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("Failed to close catalog backend", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		if err := database.WaitReady(ctx, "postgres", pg, database.DefaultBackoff); err != nil {
			closeAll()
			return nil, nil, err
		}
		clients.DB = pg.GetDB()
		log.Info("PostgreSQL connected", map[string]interface{}{"table": cfg.Catalog.Table})

	case config.CatalogSourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		if err := database.WaitReady(ctx, "elasticsearch", es, database.DefaultBackoff); err != nil {
			return nil, nil, err
		}
		clients.Elasticsearch = es.Client
		log.Info("Elasticsearch connected", map[string]interface{}{"index": cfg.Catalog.Index})
	}

	if cfg.Catalog.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		closers = append(closers, rdb.Close)
		if err := database.WaitReady(ctx, "redis", rdb, database.DefaultBackoff); err != nil {
			closeAll()
			return nil, nil, err
		}
		clients.Redis = rdb.GetClient()
		log.Info("Redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
	}

	src, err := New(cfg, clients, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return src, closeAll, nil
}
