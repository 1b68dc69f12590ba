// Package http 行情记录的 HTTP 接口，Ticker 与 Trade 共用同一套路由
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/marketquery/internal/marketdata/application"
	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/pkg/errorx"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

const defaultPageSize = 20

// RecordService 接口层依赖的服务能力
type RecordService[D any] interface {
	Entity() domain.Entity
	Create(ctx context.Context, dto D) (D, error)
	Update(ctx context.Context, dto D) (D, error)
	Get(ctx context.Context, key int64) (D, error)
	Delete(ctx context.Context, key int64) error
	List(ctx context.Context, req domain.PageRequest) (*application.PageDTO[D], error)
	ListBySymbol(ctx context.Context, symbol string, req domain.PageRequest) (*application.PageDTO[D], error)
	LatestBySymbol(ctx context.Context, symbol string) (D, error)
}

// Handler 行情记录 HTTP 处理器
type Handler[D any] struct {
	service RecordService[D]
	entity  domain.Entity
}

// NewHandler 创建 HTTP 处理器
func NewHandler[D any](service RecordService[D]) *Handler[D] {
	return &Handler[D]{service: service, entity: service.Entity()}
}

// NewTickerHandler 创建 Ticker 处理器
func NewTickerHandler(service *application.TickerService) *Handler[application.TickerDTO] {
	return NewHandler[application.TickerDTO](service)
}

// NewTradeHandler 创建 Trade 处理器
func NewTradeHandler(service *application.TradeService) *Handler[application.TradeDTO] {
	return NewHandler[application.TradeDTO](service)
}

// RegisterRoutes 在给定分组下注册 /<entity> 路由
func (h *Handler[D]) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/" + h.entity.Name)
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.PUT("", h.Update)
		g.GET("/:id", h.Get)
		g.DELETE("/:id", h.Delete)
		g.GET("/symbol/:symbol", h.ListBySymbol)
		g.GET("/symbol/:symbol/latest", h.LatestBySymbol)
	}
}

// Create 创建记录
func (h *Handler[D]) Create(c *gin.Context) {
	var req D
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	out, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Update 全量更新记录
func (h *Handler[D]) Update(c *gin.Context) {
	var req D
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	out, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get 按 id 读取，Ticker 为内部 ID，Trade 为 tradeId
func (h *Handler[D]) Get(c *gin.Context) {
	key, ok := h.pathKey(c)
	if !ok {
		return
	}

	out, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Delete 删除记录，成功返回 200 空响应
func (h *Handler[D]) Delete(c *gin.Context) {
	key, ok := h.pathKey(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), key); err != nil {
		h.fail(c, "delete", err)
		return
	}
	c.Status(http.StatusOK)
}

// List 分页列出记录
func (h *Handler[D]) List(c *gin.Context) {
	req, ok := h.pageRequest(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListBySymbol 按交易对分页列出记录
func (h *Handler[D]) ListBySymbol(c *gin.Context) {
	req, ok := h.pageRequest(c)
	if !ok {
		return
	}

	page, err := h.service.ListBySymbol(c.Request.Context(), c.Param("symbol"), req)
	if err != nil {
		h.fail(c, "list by symbol", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// LatestBySymbol 交易对最近一条记录
func (h *Handler[D]) LatestBySymbol(c *gin.Context) {
	out, err := h.service.LatestBySymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, "latest by symbol", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler[D]) pathKey(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	key, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid id: "+raw)
		return 0, false
	}
	return key, true
}

func (h *Handler[D]) pageRequest(c *gin.Context) (domain.PageRequest, bool) {
	page, ok := intQuery(c, "page", 0)
	if !ok {
		return domain.PageRequest{}, false
	}
	size, ok := intQuery(c, "size", defaultPageSize)
	if !ok {
		return domain.PageRequest{}, false
	}
	return domain.PageRequest{
		Page:      page,
		Size:      size,
		SortBy:    c.DefaultQuery("sortBy", h.entity.DefaultSort),
		Direction: c.DefaultQuery("sortDirection", string(domain.Asc)),
	}, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name+": "+raw)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	response.ErrorWithStatus(c, http.StatusBadRequest, msg, string(errorx.CodeInvalidArgument))
}

// fail 按错误码映射 HTTP 状态，内部错误只记录日志不外泄细节
func (h *Handler[D]) fail(c *gin.Context, op string, err error) {
	code := errorx.CodeOf(err)
	status := errorx.StatusOf(err)
	msg := errorx.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Failed to "+op+" "+h.entity.Name, "error", err)
		code, msg = errorx.CodeInternal, "internal server error"
	}
	response.ErrorWithStatus(c, status, msg, string(code))
}
