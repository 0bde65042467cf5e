package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/metrics"
	"github.com/cppla/yatube/routes"
	"github.com/cppla/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase()
	stores := newStores(cfg)

	ginLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnw("gin access log unavailable, using application logger", "err", err)
		ginLogger = utils.Logger
	}
	r := routes.SetupRouter(db, stores, ginLogger)

	ctx, cancel := context.WithCancel(context.Background())
	collector := &metrics.Collector{
		DB:       db,
		Interval: time.Duration(cfg.MetricsIntervalSeconds) * time.Second,
		Logger:   utils.Logger,
	}
	go func() {
		if err := collector.Run(ctx); err != nil {
			utils.Logger.Error("metrics collector stopped", zap.Error(err))
		}
	}()

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, cancel); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// newStores prefers Redis and falls back to process memory when it is disabled or unreachable.
// Pages and tokens live under separate key prefixes.
func newStores(cfg config.AppConfig) cache.Stores {
	memory := cache.Stores{Pages: cache.NewMemoryStore(), Tokens: cache.NewMemoryStore()}
	if !cfg.RedisEnabled {
		utils.Sugar.Info("redis disabled, using in-memory cache")
		return memory
	}

	client := cache.NewRedisClient(cache.RedisOptions{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})
	pages := cache.NewRedisStore(client, "yatube:page:")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pages.Ping(ctx); err != nil {
		utils.Sugar.Warnw("redis unreachable, using in-memory cache", "err", err)
		_ = client.Close()
		return memory
	}
	utils.Sugar.Infow("using redis cache", "addr", client.Options().Addr)
	return cache.Stores{Pages: pages, Tokens: cache.NewRedisStore(client, "yatube:jwt:")}
}
