package queue

import (
	"context"
	"fmt"
	"time"

	"algoarena/internal/platform/config"
	"algoarena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

func ConnectRedis(ctx context.Context, cfg *config.Config) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("connect redis: %w", err)
	}

	RDB = rdb
	logger.Info(ctx, "connected to redis", zap.String("addr", cfg.RedisAddr))
	return nil
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			logger.Warn(context.Background(), "closing redis", zap.Error(err))
			return
		}
		logger.Info(context.Background(), "redis connection closed")
	}
}
