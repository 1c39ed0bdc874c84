package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/podushkina/taskflow/internal/api"
	"github.com/podushkina/taskflow/internal/cache"
	"github.com/podushkina/taskflow/internal/config"
	"github.com/podushkina/taskflow/internal/logging"
	"github.com/podushkina/taskflow/internal/observability"
	"github.com/podushkina/taskflow/internal/service"
	"github.com/podushkina/taskflow/internal/store"
	"github.com/podushkina/taskflow/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	observability.RegisterMetrics(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate store", zap.Error(err))
	}
	logger.Info("store ready")

	c, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	tasks := service.NewCached(
		service.New(st.Tasks(), logger),
		c,
		logger,
		service.CacheOptions{TTL: cfg.CacheTTL, StrictFilterEviction: cfg.StrictFilterEviction},
	)

	if cfg.WarmCacheOnStart {
		pool := worker.NewPool(cfg.WorkerCount, logger)
		worker.RegisterWarmers(pool, tasks)
		go func() {
			if err := pool.Run(ctx); err != nil {
				logger.Warn("cache warm-up incomplete", zap.Error(err))
			}
		}()
	}

	router := api.NewRouter(api.NewHandler(tasks, logger), api.NewCacheHandler(c, logger), logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if cfg.CacheBackend == config.CacheBackendMemory {
		logger.Info("using in-process cache", zap.Duration("ttl", cfg.CacheTTL))
		return cache.NewMemory(cfg.CacheTTL), func() {}
	}

	rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, serving from store until it recovers",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
}
