// Package cache 基于 wyfcoding/pkg/redis 客户端的 JSON 读写助手
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/marketquery/pkg/config"
	pkgconfig "github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/logging"
	pkgredis "github.com/wyfcoding/pkg/redis"
)

// RedisCache Redis 缓存实现
type RedisCache struct {
	client  *redis.Client
	cleanup func()
}

// New 创建带指标钩子的 Redis 客户端并检查连通性
func New(cfg config.RedisConfig, log *logging.Logger) (*RedisCache, error) {
	client, cleanup, err := pkgredis.NewClient(&pkgconfig.RedisConfig{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxPoolSize,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}, log)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: client, cleanup: cleanup}, nil
}

// NewFromClient 基于已有客户端创建
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetJSON 读取 JSON 缓存值，key 不存在时 found 为 false
func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存值
func (rc *RedisCache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := rc.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Client 返回底层客户端，供限流等组件复用连接池
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// Close 关闭连接
func (rc *RedisCache) Close() error {
	if rc.cleanup != nil {
		rc.cleanup()
		return nil
	}
	return rc.client.Close()
}
