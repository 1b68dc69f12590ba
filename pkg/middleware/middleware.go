// Package middleware 补充 wyfcoding/pkg/middleware 未覆盖的中间件：
// 请求上下文、按调用方限流与 gRPC 日志/恢复拦截器
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/marketquery/pkg/metrics"
	"github.com/wyfcoding/marketquery/pkg/ratelimit"
	"github.com/wyfcoding/pkg/limiter"
	"github.com/wyfcoding/pkg/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"
)

// RequestContext 生成 request_id，透传或生成 trace_id，并写入请求 context
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
		ctx = logger.ContextWithTraceID(ctx, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// KeyFunc 从请求中提取限流 key，返回空串时按客户端 IP 限流
type KeyFunc func(c *gin.Context) string

// RateLimit 按调用方限流；限流器故障时放行。
// 限流器实现 ratelimit.Reporter 时附带 X-RateLimit-* 响应头
func RateLimit(l limiter.Limiter, keyFn KeyFunc, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, caller := keyFn(c), "user"
		if key == "" {
			key, caller = c.ClientIP(), "ip"
		}

		allowed, res, err := check(c.Request.Context(), l, key)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if res != nil {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))
		}

		if !allowed {
			if m != nil {
				m.RateLimitedTotal.WithLabelValues(caller).Inc()
			}
			if res != nil {
				c.Header("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second)+1, 10))
			}
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

func check(ctx context.Context, l limiter.Limiter, key string) (bool, *ratelimit.Result, error) {
	if rep, ok := l.(ratelimit.Reporter); ok {
		res, err := rep.Check(ctx, key)
		if err != nil {
			return false, nil, err
		}
		return res.Allowed, res, nil
	}
	allowed, err := l.Allow(ctx, key)
	return allowed, nil, err
}

// GRPCLoggingInterceptor gRPC 日志拦截器
func GRPCLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
		start := time.Now()

		resp, err := handler(ctx, req)

		if err != nil {
			st, _ := status.FromError(err)
			logger.Warn(ctx, "gRPC request failed",
				"method", info.FullMethod,
				"error_code", st.Code().String(),
				"error_message", st.Message(),
				"duration", time.Since(start),
			)
		} else {
			logger.Debug(ctx, "gRPC request completed",
				"method", info.FullMethod,
				"duration", time.Since(start),
			)
		}
		return resp, err
	}
}

// GRPCRecoveryInterceptor gRPC panic 恢复拦截器
func GRPCRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "gRPC request panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
