package mysql

import (
	"time"

	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
)

// SymbolRef 交易对引用，只读，列定义与参考数据表保持一致
type SymbolRef struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;type:varchar(50);uniqueIndex;not null"`
}

func (SymbolRef) TableName() string { return "symbol" }

// EventTypeRef 事件类型引用，只读
type EventTypeRef struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Type string `gorm:"column:type;type:varchar(50);uniqueIndex;not null"`
}

func (EventTypeRef) TableName() string { return "event_type" }

// TickerModel ticker 表映射
type TickerModel struct {
	ID                 uint64        `gorm:"primaryKey;autoIncrement;column:id"`
	SymbolID           uint          `gorm:"column:symbol_id;index:idx_ticker_symbol_created,priority:1;not null"`
	Symbol             *SymbolRef    `gorm:"foreignKey:SymbolID"`
	EventTypeID        uint          `gorm:"column:event_type_id;not null"`
	EventType          *EventTypeRef `gorm:"foreignKey:EventTypeID"`
	EventTimestamp     int64         `gorm:"column:event_timestamp"`
	PriceChange        string        `gorm:"column:price_change;type:varchar(64)"`
	PriceChangePercent string        `gorm:"column:price_change_percent;type:varchar(64)"`
	WeightedAvgPrice   string        `gorm:"column:weighted_avg_price;type:varchar(64)"`
	LastPrice          string        `gorm:"column:last_price;type:varchar(64)"`
	LastQuantity       string        `gorm:"column:last_quantity;type:varchar(64)"`
	OpenPrice          string        `gorm:"column:open_price;type:varchar(64)"`
	HighPrice          string        `gorm:"column:high_price;type:varchar(64)"`
	LowPrice           string        `gorm:"column:low_price;type:varchar(64)"`
	Volume             string        `gorm:"column:volume;type:varchar(64)"`
	QuoteVolume        string        `gorm:"column:quote_volume;type:varchar(64)"`
	OpenTime           int64         `gorm:"column:open_time"`
	CloseTime          int64         `gorm:"column:close_time"`
	TradeCount         int64         `gorm:"column:trade_count"`
	CreatedAt          time.Time     `gorm:"column:created_at;index:idx_ticker_symbol_created,priority:2"`
}

func (TickerModel) TableName() string { return "ticker" }

// TradeModel trade 表映射
type TradeModel struct {
	ID                 uint64        `gorm:"primaryKey;autoIncrement;column:id"`
	TradeID            int64         `gorm:"column:trade_id;uniqueIndex;not null"`
	SymbolID           uint          `gorm:"column:symbol_id;index:idx_trade_symbol_created,priority:1;not null"`
	Symbol             *SymbolRef    `gorm:"foreignKey:SymbolID"`
	EventTypeID        uint          `gorm:"column:event_type_id;not null"`
	EventType          *EventTypeRef `gorm:"foreignKey:EventTypeID"`
	EventTimestamp     int64         `gorm:"column:event_timestamp"`
	Price              string        `gorm:"column:price;type:varchar(64)"`
	Quantity           string        `gorm:"column:quantity;type:varchar(64)"`
	TradeTime          int64         `gorm:"column:trade_time"`
	IsBuyerMarketMaker bool          `gorm:"column:is_buyer_market_maker"`
	CreatedAt          time.Time     `gorm:"column:created_at;index:idx_trade_symbol_created,priority:2"`
}

func (TradeModel) TableName() string { return "trade" }

// Models 返回需要迁移的模型，需在参考数据表之后迁移
func Models() []any {
	return []any{&TickerModel{}, &TradeModel{}}
}

func refsFrom(symbol *SymbolRef, eventType *EventTypeRef, symbolID, eventTypeID uint) domain.References {
	refs := domain.References{SymbolID: symbolID, EventTypeID: eventTypeID}
	if symbol != nil {
		refs.Symbol = symbol.Name
	}
	if eventType != nil {
		refs.EventType = eventType.Type
	}
	return refs
}

func toTickerModel(t *domain.Ticker) *TickerModel {
	if t == nil {
		return nil
	}
	return &TickerModel{
		ID:                 t.ID,
		SymbolID:           t.SymbolID,
		EventTypeID:        t.EventTypeID,
		EventTimestamp:     t.EventTimestamp,
		PriceChange:        t.PriceChange,
		PriceChangePercent: t.PriceChangePercent,
		WeightedAvgPrice:   t.WeightedAvgPrice,
		LastPrice:          t.LastPrice,
		LastQuantity:       t.LastQuantity,
		OpenPrice:          t.OpenPrice,
		HighPrice:          t.HighPrice,
		LowPrice:           t.LowPrice,
		Volume:             t.Volume,
		QuoteVolume:        t.QuoteVolume,
		OpenTime:           t.OpenTime,
		CloseTime:          t.CloseTime,
		TradeCount:         t.TradeCount,
		CreatedAt:          t.CreatedAt,
	}
}

func toTicker(m *TickerModel) *domain.Ticker {
	if m == nil {
		return nil
	}
	return &domain.Ticker{
		ID:                 m.ID,
		References:         refsFrom(m.Symbol, m.EventType, m.SymbolID, m.EventTypeID),
		EventTimestamp:     m.EventTimestamp,
		PriceChange:        m.PriceChange,
		PriceChangePercent: m.PriceChangePercent,
		WeightedAvgPrice:   m.WeightedAvgPrice,
		LastPrice:          m.LastPrice,
		LastQuantity:       m.LastQuantity,
		OpenPrice:          m.OpenPrice,
		HighPrice:          m.HighPrice,
		LowPrice:           m.LowPrice,
		Volume:             m.Volume,
		QuoteVolume:        m.QuoteVolume,
		OpenTime:           m.OpenTime,
		CloseTime:          m.CloseTime,
		TradeCount:         m.TradeCount,
		CreatedAt:          m.CreatedAt,
	}
}

func toTradeModel(t *domain.Trade) *TradeModel {
	if t == nil {
		return nil
	}
	return &TradeModel{
		ID:                 t.ID,
		TradeID:            t.TradeID,
		SymbolID:           t.SymbolID,
		EventTypeID:        t.EventTypeID,
		EventTimestamp:     t.EventTimestamp,
		Price:              t.Price,
		Quantity:           t.Quantity,
		TradeTime:          t.TradeTime,
		IsBuyerMarketMaker: t.IsBuyerMarketMaker,
		CreatedAt:          t.CreatedAt,
	}
}

func toTrade(m *TradeModel) *domain.Trade {
	if m == nil {
		return nil
	}
	return &domain.Trade{
		ID:                 m.ID,
		TradeID:            m.TradeID,
		References:         refsFrom(m.Symbol, m.EventType, m.SymbolID, m.EventTypeID),
		EventTimestamp:     m.EventTimestamp,
		Price:              m.Price,
		Quantity:           m.Quantity,
		TradeTime:          m.TradeTime,
		IsBuyerMarketMaker: m.IsBuyerMarketMaker,
		CreatedAt:          m.CreatedAt,
	}
}
