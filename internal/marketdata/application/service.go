package application

import (
	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/pkg/metrics"
)

type (
	TickerService = RecordService[*domain.Ticker, TickerDTO]
	TradeService  = RecordService[*domain.Trade, TradeDTO]
)

// NewTickerService 创建 Ticker 服务
func NewTickerService(store domain.RecordStore[*domain.Ticker], symbols, eventTypes Resolver, publisher domain.EventPublisher, m *metrics.Metrics) *TickerService {
	return NewRecordService(domain.TickerEntity, store, symbols, eventTypes,
		Mapper[*domain.Ticker, TickerDTO]{ToRecord: tickerFromDTO, ToDTO: tickerToDTO},
		publisher, m)
}

// NewTradeService 创建 Trade 服务
func NewTradeService(store domain.RecordStore[*domain.Trade], symbols, eventTypes Resolver, publisher domain.EventPublisher, m *metrics.Metrics) *TradeService {
	return NewRecordService(domain.TradeEntity, store, symbols, eventTypes,
		Mapper[*domain.Trade, TradeDTO]{ToRecord: tradeFromDTO, ToDTO: tradeToDTO},
		publisher, m)
}
