// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"savings-workers/internal/catalog"
	"savings-workers/internal/common/camunda"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/common/observability"
	"savings-workers/pkg/registry"

	lsc "savings-workers/internal/workers/savings/load-savings-catalog"
	rso "savings-workers/internal/workers/savings/rank-savings-outcomes"
	ssp "savings-workers/internal/workers/savings/suggest-savings-plans"
)

const shutdownTimeout = 30 * time.Second

// handler is what every savings worker exposes to the manager.
type handler interface {
	Registration() camunda.Registration
	IsEnabled() bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid configuration", zap.Error(err))
	}

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogSource", cfg.Catalog.Source),
	)

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry is invalid", zap.Error(err))
	}

	source, closeCatalog, err := catalog.Open(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("catalog backend unavailable", zap.Error(err))
	}
	defer closeCatalog()

	zeebe, err := camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	handlers, err := buildHandlers(cfg, reg, source, obs, log)
	if err != nil {
		zapLog.Fatal("worker setup failed", zap.Error(err))
	}

	var workers []*camunda.CamundaWorker
	for _, h := range handlers {
		r := h.Registration()
		if !h.IsEnabled() {
			zapLog.Info("worker disabled", zap.String("taskType", r.TaskType))
			continue
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), r, log))
	}
	zapLog.Info("Workers started", zap.Int("count", len(workers)))

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = metricsServer(cfg.Metrics)
		go func() {
			zapLog.Info("Serving metrics", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping metrics server", zap.Error(err))
		}
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error flushing telemetry", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped")
}

func buildHandlers(cfg *config.Config, reg *registry.ActivityRegistry, source catalog.Source, obs *observability.Observability, log logger.Logger) ([]handler, error) {
	catalogHandler, err := lsc.NewHandler(lsc.HandlerOptions{
		AppConfig:     cfg,
		Source:        source,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	suggestHandler, err := ssp.NewHandler(ssp.HandlerOptions{
		AppConfig:     cfg,
		Registry:      reg,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	rankHandler, err := rso.NewHandler(rso.HandlerOptions{
		AppConfig:     cfg,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	return []handler{catalogHandler, suggestHandler, rankHandler}, nil
}

func metricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle(cfg.Path, promhttp.Handler())

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
