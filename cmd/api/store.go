package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/config"
	"github.com/hamed0406/botscope/internal/repo"
	"github.com/hamed0406/botscope/internal/repo/file"
	"github.com/hamed0406/botscope/internal/repo/memory"
	"github.com/hamed0406/botscope/internal/repo/postgres"
	"github.com/hamed0406/botscope/internal/repo/redis"
)

// openStore picks the target store for the configured backend. The
// returned func releases any connections it holds.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.TargetStore, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("store_memory", zap.String("note", "targets are lost on restart"))
		return memory.New(), noop, nil
	case config.BackendPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info("store_postgres")
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open redis store: %w", err)
		}
		log.Info("store_redis", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.RedisKey))
		return s, func() { _ = s.Close() }, nil
	default:
		log.Info("store_file", zap.String("path", cfg.TargetsFile))
		return file.New(cfg.TargetsFile), noop, nil
	}
}
