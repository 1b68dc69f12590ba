package domain

import "fmt"

// Entity 描述一类行情记录在服务层与接口层的差异点
type Entity struct {
	// Name 路由、事件主题与指标使用的小写名称
	Name string
	// Noun 错误信息中的名称
	Noun string
	// KeyField 业务主键的对外字段名
	KeyField string
	// DefaultSort 列表默认排序字段
	DefaultSort string
	// UniqueKey 业务主键由调用方提供且需唯一
	UniqueKey bool
	// LatestNotFound 按交易对查最新记录为空时的错误信息格式
	LatestNotFound string
	Sortable       SortFields
}

// NotFoundMessage 记录不存在的错误信息
func (e Entity) NotFoundMessage(key int64) string {
	return fmt.Sprintf("%s with id %d not found", e.Noun, key)
}

var TickerEntity = Entity{
	Name:           "ticker",
	Noun:           "Ticker",
	KeyField:       "tickerId",
	DefaultSort:    "id",
	LatestNotFound: "No ticker found for symbol %s",
	Sortable: SortFields{
		"id":             "id",
		"tickerId":       "id",
		"eventTimestamp": "event_timestamp",
		"openTime":       "open_time",
		"closeTime":      "close_time",
		"tradeCount":     "trade_count",
		"createdAt":      "created_at",
	},
}

var TradeEntity = Entity{
	Name:           "trade",
	Noun:           "Trade",
	KeyField:       "tradeId",
	DefaultSort:    "tradeId",
	UniqueKey:      true,
	LatestNotFound: "No trades found for symbol %s",
	Sortable: SortFields{
		"id":             "id",
		"tradeId":        "trade_id",
		"eventTimestamp": "event_timestamp",
		"tradeTime":      "trade_time",
		"createdAt":      "created_at",
	},
}
