package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/landslide-feed-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/landslide-feed-etl/internal/adapter/kafka"
	"github.com/couchcryptid/landslide-feed-etl/internal/config"
	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	"github.com/couchcryptid/landslide-feed-etl/internal/pipeline"
	"github.com/couchcryptid/landslide-feed-etl/internal/registry"
	"github.com/jonboulle/clockwork"
)

// refreshResponseMargin leaves room to publish and encode after the last batch.
const refreshResponseMargin = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	reg, err := loadRegistry(cfg)
	if err != nil {
		logger.Error("failed to load station registry", "error", err)
		os.Exit(1)
	}
	logger.Info("station registry loaded", "stations", reg.Len(), "path", cfg.StationRegistryPath)

	cacheTTL := feedCacheTTL(cfg)
	source := feed.NewSource(cfg.FeedBaseURL, func(baseURL string) *feed.Client {
		return feed.NewClient(baseURL, cfg.FeedTimeout, cfg.FeedRequestsPerSecond, logger)
	})
	cache := feed.NewCache(cfg.FeedCacheSize, cacheTTL, clockwork.NewRealClock())
	fetcher := feed.NewCachedSource(source, cache, metrics)
	logger.Info("feed source configured",
		"base_url", cfg.FeedBaseURL,
		"cache_size", cfg.FeedCacheSize,
		"cache_ttl", cacheTTL,
		"requests_per_second", cfg.FeedRequestsPerSecond,
	)

	opts := []pipeline.Option{pipeline.WithBatchSize(cfg.FetchBatchSize)}

	// Snapshot export is feature-flagged via KAFKA_ENABLED.
	var writer *kafkaadapter.SnapshotWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewSnapshotWriter(cfg, metrics, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka snapshot export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	} else {
		logger.Info("kafka snapshot export disabled")
	}

	orchestrator := pipeline.New(fetcher, reg, logger, metrics, opts...)

	// A refresh request must be able to outlast a refresh where every fetch times out.
	budget := pipeline.RefreshBudget(reg.Len(), cfg.FetchBatchSize, cfg.FeedTimeout, cfg.FeedRequestsPerSecond)
	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, reg, logger,
		httpadapter.WithWriteTimeout(budget+refreshResponseMargin),
	)
	logger.Info("refresh budget computed", "budget", budget)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		runRefreshLoop(ctx, orchestrator, cfg.RefreshInterval, logger)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("refresh did not stop before the shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.StationRegistryPath != "" {
		return registry.LoadFile(cfg.StationRegistryPath)
	}
	return registry.Default()
}

// feedCacheTTL returns the configured cache TTL. A cache that never expires
// would pin the first text of every feed, so periodic refreshes get half the
// interval unless a TTL is configured.
func feedCacheTTL(cfg *config.Config) time.Duration {
	if cfg.FeedCacheTTL == 0 && cfg.RefreshInterval > 0 {
		return cfg.RefreshInterval / 2
	}
	return cfg.FeedCacheTTL
}

// runRefreshLoop refreshes once at startup and then every interval until ctx
// ends. A zero interval refreshes only once.
func runRefreshLoop(ctx context.Context, o *pipeline.Orchestrator, interval time.Duration, logger *slog.Logger) {
	refresh := func() {
		if _, err := o.ProcessAll(ctx); err != nil && ctx.Err() == nil {
			logger.Error("refresh failed", "error", err)
		}
	}

	refresh()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
