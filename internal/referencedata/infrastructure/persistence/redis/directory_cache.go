// Package redis 参考数据的 Redis 读模型缓存
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/marketquery/internal/referencedata/domain"
	"github.com/wyfcoding/marketquery/pkg/cache"
)

// DirectoryCache 按名称缓存参考数据条目
type DirectoryCache struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewDirectoryCache 创建缓存，key 形如 referencedata:symbol:BTCUSDT
func NewDirectoryCache(c *cache.RedisCache, kind domain.Kind, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DirectoryCache{
		cache:  c,
		prefix: "referencedata:" + string(kind) + ":",
		ttl:    ttl,
	}
}

func (d *DirectoryCache) Get(ctx context.Context, name string) (*domain.Entry, error) {
	var entry domain.Entry
	found, err := d.cache.GetJSON(ctx, d.prefix+name, &entry)
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

func (d *DirectoryCache) Set(ctx context.Context, name string, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return d.cache.SetJSON(ctx, d.prefix+name, entry, d.ttl)
}
