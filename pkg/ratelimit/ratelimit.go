// Package ratelimit 基于 redis_rate 的分布式限流，实现 wyfcoding/pkg/limiter.Limiter
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/pkg/limiter"
)

var _ limiter.Limiter = (*RedisLimiter)(nil)

// Reporter 能给出配额明细的限流器，中间件据此写 X-RateLimit-* 响应头
type Reporter interface {
	Check(ctx context.Context, key string) (*Result, error)
}

// Result 限流判定结果
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisLimiter 使用 Redis 实现的按 key 限流器，所有 key 共享同一规则
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedisLimiter 创建限流器，qps 为每秒速率，burst 为桶容量
func NewRedisLimiter(rdb *redis.Client, prefix string, qps, burst int) *RedisLimiter {
	if burst < qps {
		burst = qps
	}
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.Limit{Rate: qps, Period: time.Second, Burst: burst},
		prefix:  prefix,
	}
}

// Allow 判断 key 本次请求是否放行
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := r.Check(ctx, key)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

// Check 消耗一个令牌并返回配额明细
func (r *RedisLimiter) Check(ctx context.Context, key string) (*Result, error) {
	res, err := r.limiter.Allow(ctx, r.prefix+key, r.limit)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      r.limit.Burst,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}
