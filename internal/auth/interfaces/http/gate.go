// Package http API Key 认证网关
package http

import (
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/marketquery/internal/auth/domain"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/marketquery/pkg/metrics"
	"github.com/wyfcoding/pkg/response"
)

const (
	MsgMissingAPIKey = "Missing API Key"
	MsgInvalidAPIKey = "Invalid or Archived API Key"

	principalKey = "auth.principal"
)

// Gate 拦截受保护前缀下的请求，校验 API Key 对应的激活用户
type Gate struct {
	finder  domain.ActiveUserFinder
	prefix  string
	header  string
	metrics *metrics.Metrics
}

// NewGate 创建网关，m 可为 nil
func NewGate(finder domain.ActiveUserFinder, prefix, header string, m *metrics.Metrics) *Gate {
	return &Gate{
		finder:  finder,
		prefix:  prefix,
		header:  textproto.CanonicalMIMEHeaderKey(header),
		metrics: m,
	}
}

// Handler 返回 gin 中间件，需注册在 engine 级别以覆盖未匹配路由
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 按字符串前缀匹配，/internalfoo 同样受保护
		if !strings.HasPrefix(c.Request.URL.Path, g.prefix) {
			c.Next()
			return
		}

		values, present := c.Request.Header[g.header]
		if !present || len(values) == 0 {
			g.reject(c, "missing", MsgMissingAPIKey)
			return
		}
		apiKey := values[0]
		if apiKey == "" {
			g.reject(c, "empty", MsgInvalidAPIKey)
			return
		}

		ctx := c.Request.Context()
		user, err := g.finder.FindActiveByAPIKey(ctx, apiKey)
		if err != nil {
			logger.Error(ctx, "api key lookup failed", "path", c.Request.URL.Path, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, "internal server error", "INTERNAL")
			c.Abort()
			return
		}
		if user == nil {
			g.reject(c, "invalid", MsgInvalidAPIKey)
			return
		}

		c.Set(principalKey, user)
		c.Request = c.Request.WithContext(domain.ContextWithPrincipal(ctx, user))
		c.Next()
	}
}

func (g *Gate) reject(c *gin.Context, reason, msg string) {
	logger.Warn(c.Request.Context(), "request rejected by api key gate",
		"reason", reason,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
	)
	if g.metrics != nil {
		g.metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	}
	c.String(http.StatusUnauthorized, msg)
	c.Abort()
}

// PrincipalFrom 读取网关写入的已认证用户
func PrincipalFrom(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// RateLimitKey 以已认证用户作为限流 key，未认证时返回空串
func RateLimitKey(c *gin.Context) string {
	if user, ok := PrincipalFrom(c); ok {
		return "user:" + strconv.FormatUint(uint64(user.ID), 10)
	}
	return ""
}
