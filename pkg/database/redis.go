package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"stress-guru-go/internal/config"
	"stress-guru-go/pkg/log"
)

// RDB 保存会话状态、对话记录、token 黑名单和 Kafka 重试计数。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端，连接失败直接退出。
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", cfg.Addr, err)
	}

	log.Infof("Redis client connected: %s db=%d", cfg.Addr, cfg.DB)
}
